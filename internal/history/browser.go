// Package history keeps the back/forward list of navigation tokens for the
// terminal UI, the role a web browser's address bar plays for the forum.
package history

import (
	"fmt"
	"sync"

	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/navigation"
)

// MetaKey is the storage metadata key holding the last token.
const MetaKey = "history.token"

// DefaultMaxEntries bounds the list when no limit is configured.
const DefaultMaxEntries = 200

// MetaStore is the slice of storage the browser persists into.
type MetaStore interface {
	SetMeta(key, value string) error
	GetMeta(key string) (string, bool, error)
}

// Browser is a linear token history with a cursor. It implements
// navigation.TokenSink.
type Browser struct {
	mu      sync.Mutex
	entries []string
	pos     int
	max     int
	active  navigation.ViewID
	subs    []func(token string)
}

func NewBrowser(maxEntries int, active navigation.ViewID) *Browser {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Browser{pos: -1, max: maxEntries, active: active}
}

func (b *Browser) CurrentToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos < 0 {
		return ""
	}
	return b.entries[b.pos]
}

// SetToken records token as a new entry after the cursor, dropping any
// forward entries. Subscribers hear about it unless suppressEvent is set.
func (b *Browser) SetToken(token string, suppressEvent bool) {
	b.mu.Lock()
	if b.pos >= 0 && b.entries[b.pos] == token {
		b.mu.Unlock()
		return
	}
	b.entries = append(b.entries[:b.pos+1], token)
	if over := len(b.entries) - b.max; over > 0 {
		b.entries = append([]string(nil), b.entries[over:]...)
	}
	b.pos = len(b.entries) - 1
	subs := b.subscribers(suppressEvent)
	b.mu.Unlock()

	debuglog.Debugf("history: set %q (entries=%d, silent=%v)", token, b.Len(), suppressEvent)
	notify(subs, token)
}

func (b *Browser) ActiveView() navigation.ViewID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// SetActiveView switches which view may publish tokens.
func (b *Browser) SetActiveView(id navigation.ViewID) {
	b.mu.Lock()
	b.active = id
	b.mu.Unlock()
}

// Subscribe registers fn for token changes that did not come from a
// silent SetToken.
func (b *Browser) Subscribe(fn func(token string)) {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

// Back moves the cursor one entry back and notifies subscribers.
func (b *Browser) Back() (string, bool) {
	return b.move(-1)
}

// Forward moves the cursor one entry forward and notifies subscribers.
func (b *Browser) Forward() (string, bool) {
	return b.move(1)
}

func (b *Browser) move(delta int) (string, bool) {
	b.mu.Lock()
	next := b.pos + delta
	if b.pos < 0 || next < 0 || next >= len(b.entries) {
		b.mu.Unlock()
		return "", false
	}
	b.pos = next
	token := b.entries[next]
	subs := b.subscribers(false)
	b.mu.Unlock()

	notify(subs, token)
	return token, true
}

func (b *Browser) CanBack() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos > 0
}

func (b *Browser) CanForward() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos >= 0 && b.pos < len(b.entries)-1
}

func (b *Browser) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Entries returns a copy of the history, oldest first, and the cursor.
func (b *Browser) Entries() ([]string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.entries...), b.pos
}

func (b *Browser) subscribers(silent bool) []func(string) {
	if silent {
		return nil
	}
	return append(([]func(string))(nil), b.subs...)
}

func notify(subs []func(string), token string) {
	for _, fn := range subs {
		fn(token)
	}
}

// Persist stores the current token so the next run can resume there.
func (b *Browser) Persist(store MetaStore) error {
	token := b.CurrentToken()
	if token == "" {
		return nil
	}
	if err := store.SetMeta(MetaKey, token); err != nil {
		return fmt.Errorf("persisting history: %w", err)
	}
	return nil
}

// Restore returns the token saved by Persist, or "" when there is none.
func Restore(store MetaStore) (string, error) {
	token, found, err := store.GetMeta(MetaKey)
	if err != nil {
		return "", fmt.Errorf("restoring history: %w", err)
	}
	if !found {
		return "", nil
	}
	return token, nil
}
