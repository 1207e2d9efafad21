package tui

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/history"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/search"
	"github.com/pders01/fora/internal/storage"
)

const testView navigation.ViewID = "forum"

// harness wires an App to a real store, the scan engine and a Bridge
// without a running program. run executes a command, waits for the
// orchestrator and feeds everything the Bridge queued back into Update.
type harness struct {
	t       *testing.T
	cfg     *config.Config
	store   *storage.Store
	browser *history.Browser
	bridge  *Bridge
	orch    *navigation.Orchestrator
	app     *App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "fora.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.TestConfig()
	browser := history.NewBrowser(cfg.History.MaxEntries, testView)
	session := navigation.NewSession(browser, cfg.History.Prefix, testView)
	bridge := NewBridge()
	orch := navigation.NewOrchestrator(session, search.NewEngine(store, cfg.Search.PageSize), bridge)

	app := NewApp(context.Background(), cfg, store, orch, browser)
	app.SetAuthor("tester")
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	return &harness{t: t, cfg: cfg, store: store, browser: browser, bridge: bridge, orch: orch, app: app}
}

// seedForum stores Go › Generics › {First post, Second post} and a Rust
// section, in that order.
func (h *harness) seedForum() (goSection, topic, first, second, rust *storage.Message) {
	h.t.Helper()
	goSection = h.save(&storage.Message{Kind: storage.KindSection, Title: "Go"})
	topic = h.save(&storage.Message{Kind: storage.KindTopic, ParentID: goSection.ID, Title: "Generics", Body: "type parameters"})
	first = h.save(&storage.Message{Kind: storage.KindPost, ParentID: topic.ID, Title: "First post", Body: "constraints are interfaces", AuthorLogin: "alice"})
	second = h.save(&storage.Message{Kind: storage.KindPost, ParentID: topic.ID, Title: "Second post", Body: "type sets", AuthorLogin: "bob"})
	rust = h.save(&storage.Message{Kind: storage.KindSection, Title: "Rust"})
	return
}

func (h *harness) save(m *storage.Message) *storage.Message {
	h.t.Helper()
	require.NoError(h.t, h.store.SaveMessage(m))
	return m
}

func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	h.orch.Wait()
	if msg != nil {
		h.deliver(msg)
	}
	for _, m := range h.bridge.drain() {
		h.deliver(m)
	}
}

func (h *harness) deliver(msg tea.Msg) {
	h.t.Helper()
	_, cmd := h.app.Update(msg)
	h.run(cmd)
}

// press sends a key and runs whatever navigation it triggers.
func (h *harness) press(k tea.KeyMsg) {
	h.t.Helper()
	_, cmd := h.app.Update(k)
	h.run(cmd)
}

func (h *harness) pressRune(s string) {
	h.t.Helper()
	h.press(runes(s))
}

// typeText delivers text to the focused input. Cursor blink commands are
// dropped.
func (h *harness) typeText(s string) {
	h.t.Helper()
	h.app.Update(runes(s))
}

func (h *harness) openRoot() {
	h.t.Helper()
	h.run(h.app.open(""))
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h *harness) titles() []string {
	var out []string
	for _, m := range h.app.page.Items {
		out = append(out, m.Title)
	}
	return out
}

func (h *harness) top() navigation.Element {
	h.t.Helper()
	top, ok := h.app.snap.Top()
	require.True(h.t, ok, "no results shown yet")
	return top
}
