package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/fora/internal/criteria"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	History  HistoryConfig  `mapstructure:"history"`
	Import   ImportConfig   `mapstructure:"import"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

const (
	EngineScan  = "scan"
	EngineBleve = "bleve"
)

type SearchConfig struct {
	Engine        string `mapstructure:"engine"`
	PageSize      int    `mapstructure:"page_size"`
	MaxTextLength int    `mapstructure:"max_text_length"`
}

type HistoryConfig struct {
	Prefix     string `mapstructure:"prefix"`
	Persist    bool   `mapstructure:"persist"`
	MaxEntries int    `mapstructure:"max_entries"`
}

type ImportConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	Concurrency int           `mapstructure:"concurrency"`
	SourcesFile string        `mapstructure:"sources_file"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors"`
	Reader ReaderConfig `mapstructure:"reader"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type ReaderConfig struct {
	MaxSnippetLength int `mapstructure:"max_snippet_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit           string `mapstructure:"quit"`
	Search         string `mapstructure:"search"`
	Back           string `mapstructure:"back"`
	HistoryBack    string `mapstructure:"history_back"`
	HistoryForward string `mapstructure:"history_forward"`
	NextPage       string `mapstructure:"next_page"`
	PrevPage       string `mapstructure:"prev_page"`
	Help           string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".fora", "fora.db")
	searchIndexPath := filepath.Join(homeDir, ".fora", "index.bleve")

	return &Config{
		Database: DatabaseConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
		},
		Search: SearchConfig{
			Engine:        EngineScan,
			PageSize:      20,
			MaxTextLength: criteria.MaxTextLength,
		},
		History: HistoryConfig{
			Prefix:     "forum:",
			Persist:    true,
			MaxEntries: 200,
		},
		Import: ImportConfig{
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "fora/1.0 (https://github.com/pders01/fora)",
			RateLimit:   2,
			Concurrency: 4,
			SourcesFile: filepath.Join(homeDir, ".config", "fora", "sources.toml"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Reader: ReaderConfig{
				MaxSnippetLength: 150,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:           "q",
				Search:         "s",
				Back:           "esc",
				HistoryBack:    "[",
				HistoryForward: "]",
				NextPage:       "n",
				PrevPage:       "p",
				Help:           "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".fora", "fora.log"),
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("database", cfg.Database)
	v.SetDefault("search", cfg.Search)
	v.SetDefault("history", cfg.History)
	v.SetDefault("import", cfg.Import)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("keys", cfg.Keys)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "fora")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FORA")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand paths after loading
	expandPaths(&config)
	normalize(&config)

	return &config, nil
}

// normalize clamps values the rest of the program relies on.
func normalize(cfg *Config) {
	switch cfg.Search.Engine {
	case EngineScan, EngineBleve:
	default:
		cfg.Search.Engine = EngineScan
	}
	if cfg.Search.PageSize <= 0 {
		cfg.Search.PageSize = 20
	}
	if cfg.Search.MaxTextLength <= 0 || cfg.Search.MaxTextLength > criteria.MaxTextLength {
		cfg.Search.MaxTextLength = criteria.MaxTextLength
	}
	if cfg.History.Prefix == "" {
		cfg.History.Prefix = "forum:"
	}
	if cfg.Import.Concurrency <= 0 {
		cfg.Import.Concurrency = 1
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand tilde
	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	// Convert to absolute path if not already absolute
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

// expandPaths expands all paths in the config
func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Import.SourcesFile = expandPath(cfg.Import.SourcesFile)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Convert durations to strings for TOML readability
	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	importCfg := map[string]interface{}{
		"http_timeout": config.Import.HTTPTimeout.String(),
		"user_agent":   config.Import.UserAgent,
		"rate_limit":   config.Import.RateLimit,
		"concurrency":  config.Import.Concurrency,
		"sources_file": config.Import.SourcesFile,
	}

	searchCfg := map[string]interface{}{
		"engine":          config.Search.Engine,
		"page_size":       config.Search.PageSize,
		"max_text_length": config.Search.MaxTextLength,
	}

	historyCfg := map[string]interface{}{
		"prefix":      config.History.Prefix,
		"persist":     config.History.Persist,
		"max_entries": config.History.MaxEntries,
	}

	logCfg := map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	}

	v.Set("database", dbCfg)
	v.Set("search", searchCfg)
	v.Set("history", historyCfg)
	v.Set("import", importCfg)
	v.Set("ui", config.UI)
	v.Set("keys", config.Keys)
	v.Set("log", logCfg)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
