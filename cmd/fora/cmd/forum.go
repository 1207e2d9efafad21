package cmd

import (
	"fmt"
	"io"

	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/importer"
	"github.com/pders01/fora/internal/search"
	"github.com/pders01/fora/internal/storage"
	"github.com/pders01/fora/internal/validation"
)

// forum bundles the open store with the search executor built over it.
type forum struct {
	store *storage.Store
	exec  search.Executor
}

func openForum() (*forum, error) {
	paths := validation.NewSecurePathHandler()
	if permissive {
		paths = validation.NewPermissivePathHandler()
	}

	path, err := paths.DBPath(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	if cfg.Search.Engine == config.EngineBleve {
		index, err := paths.IndexPath(cfg.Database.SearchIndex)
		if err != nil {
			return nil, fmt.Errorf("search index path: %w", err)
		}
		cfg.Database.SearchIndex = index
	}

	store, err := storage.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	debuglog.Infof("opened %s", path)
	return &forum{store: store, exec: search.New(cfg, store)}, nil
}

// listener returns the executor when it keeps an index that must hear
// about new messages.
func (f *forum) listener() search.UpdateListener {
	l, _ := f.exec.(search.UpdateListener)
	return l
}

func (f *forum) importer() *importer.Manager {
	m := importer.NewManager(f.store, cfg)
	m.SetPermissiveValidation(permissive)
	if l := f.listener(); l != nil {
		m.SetListener(l)
	}
	return m
}

// save stores msg and tells the index about it.
func (f *forum) save(msg *storage.Message) error {
	if err := f.store.SaveMessage(msg); err != nil {
		return err
	}
	if l := f.listener(); l != nil {
		l.OnMessageSaved(msg)
	}
	return nil
}

func (f *forum) Close() error {
	if c, ok := f.exec.(io.Closer); ok {
		if err := c.Close(); err != nil {
			debuglog.Warnf("closing search index: %v", err)
		}
	}
	return f.store.Close()
}
