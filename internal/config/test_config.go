package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	d := defaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:", // tests override this with a temp dir
			Timeout: 1 * time.Second,
		},
		Search: SearchConfig{
			Engine:        EngineScan,
			PageSize:      5,
			MaxTextLength: d.Search.MaxTextLength,
		},
		History: HistoryConfig{
			Prefix:     "forum:",
			MaxEntries: 50,
		},
		Import: ImportConfig{
			HTTPTimeout: 5 * time.Second,
			UserAgent:   "fora-test/1.0",
			RateLimit:   0,
			Concurrency: 2,
		},
		UI:   d.UI,
		Keys: d.Keys,
		Log:  LogConfig{Level: "off"},
	}
}
