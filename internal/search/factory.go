package search

import (
	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/storage"
)

// New returns the executor selected by cfg. When the bleve index cannot be
// opened it falls back to the scanning engine so the forum stays usable.
func New(cfg *config.Config, store *storage.Store) Executor {
	if cfg.Search.Engine == config.EngineBleve && cfg.Database.SearchIndex != "" {
		be, err := NewBleveEngine(store, cfg.Database.SearchIndex, cfg.Search.PageSize)
		if err == nil {
			debuglog.Infof("search: using bleve index at %s", cfg.Database.SearchIndex)
			return be
		}
		debuglog.Warnf("search: bleve unavailable, falling back to scan: %v", err)
	}
	return NewEngine(store, cfg.Search.PageSize)
}
