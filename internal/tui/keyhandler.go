package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/storage"
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	keys        config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, keys: cfg.Keys.Bindings, modifierKey: modifierKey}
}

// is reports whether key triggers binding, plain or with the modifier.
func (kh *KeyHandler) is(key, binding string) bool {
	if binding == "" {
		return false
	}
	return key == binding || key == kh.modifierKey+binding
}

// isModified reports whether key is binding with the modifier, the only
// form that works while typing.
func (kh *KeyHandler) isModified(key, binding string) bool {
	return binding != "" && key == kh.modifierKey+binding
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return kh.app, tea.Quit
	}

	switch kh.app.view {
	case ViewSearch:
		return kh.handleSearchKeys(msg)
	case ViewCompose:
		return kh.handleComposeKeys(msg)
	case ViewImport:
		return kh.handleImportKeys(msg)
	case ViewHelp:
		kh.app.view = kh.app.previousView
		return kh.app, nil
	case ViewReader:
		if model, cmd, handled := kh.handleReaderKeys(key); handled {
			return model, cmd
		}
		var cmd tea.Cmd
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd
	}

	if model, cmd, handled := kh.handleBrowseKeys(key); handled {
		return model, cmd
	}
	var cmd tea.Cmd
	kh.app.results, cmd = kh.app.results.Update(msg)
	return kh.app, cmd
}

// handleBrowseKeys maps the listing keys onto orchestrator calls. While a
// search runs the view is disabled and only quitting and help work.
func (kh *KeyHandler) handleBrowseKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app

	switch {
	case kh.is(key, kh.keys.Quit):
		return a, tea.Quit, true
	case kh.is(key, kh.keys.Help):
		a.previousView = a.view
		a.view = ViewHelp
		return a, nil, true
	}

	if !a.enabled {
		return a, nil, true
	}
	a.err = nil

	switch {
	case key == "enter":
		if m, ok := a.selected(); ok {
			a.clearStatus()
			return a, a.request(navigation.BrowseInto(m)), true
		}
		return a, nil, true

	case kh.is(key, kh.keys.Back):
		a.clearStatus()
		return a, a.navigate(a.orch.Back), true

	case kh.is(key, kh.keys.HistoryBack):
		return a, a.moveHistory(false), true

	case kh.is(key, kh.keys.HistoryForward):
		return a, a.moveHistory(true), true

	case kh.is(key, kh.keys.NextPage):
		if !a.page.HasNext() {
			return a, nil, true
		}
		return a, kh.page(1), true

	case kh.is(key, kh.keys.PrevPage):
		return a, kh.page(-1), true

	case kh.is(key, kh.keys.Search), key == "/":
		kh.openSearch()
		return a, nil, true

	case len(key) == 1 && key[0] >= '1' && key[0] <= '9':
		i := int(key[0] - '1')
		return a, a.navigate(func(ctx context.Context) error {
			return a.orch.JumpTo(ctx, i)
		}), true

	case key == "v":
		if m, ok := a.selected(); ok {
			return a, kh.read(m), true
		}
		return a, nil, true

	case key == "o":
		if m, ok := a.selected(); ok {
			return a, kh.openSource(m.SourceURL), true
		}
		return a, nil, true

	case key == "a":
		return a, kh.openCompose(), true

	case key == "i":
		if a.importer == nil {
			return a, nil, true
		}
		a.urlInput.SetValue("")
		a.urlInput.Focus()
		a.view = ViewImport
		return a, nil, true

	case key == "u":
		if a.importer == nil {
			return a, nil, true
		}
		a.setStatus(MsgRefreshing, StatusInfo)
		return a, a.refreshFeeds(), true

	case key == "r":
		return a, a.navigate(a.orch.Refresh), true
	}
	return a, nil, false
}

func (kh *KeyHandler) page(delta int) tea.Cmd {
	a := kh.app
	return a.navigate(func(ctx context.Context) error {
		return a.orch.Page(ctx, delta)
	})
}

func (kh *KeyHandler) handleReaderKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case kh.is(key, kh.keys.Quit):
		return a, tea.Quit, true
	case kh.is(key, kh.keys.Back):
		a.view = ViewBrowse
		return a, nil, true
	case key == "enter":
		if a.reading == nil || !a.enabled {
			return a, nil, true
		}
		return a, a.request(navigation.BrowseInto(a.reading)), true
	case key == "o":
		if a.reading != nil {
			return a, kh.openSource(a.reading.SourceURL), true
		}
		return a, nil, true
	case kh.is(key, kh.keys.Help):
		a.previousView = a.view
		a.view = ViewHelp
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	f := &a.form
	key := msg.String()

	switch {
	case kh.is(key, kh.keys.Back):
		a.view = ViewBrowse
		return a, nil
	case key == "enter":
		if !a.enabled {
			return a, nil
		}
		a.err = nil
		return a, a.request(navigation.NewSearch(f.criteria()))
	case key == "tab", key == "down":
		f.next()
		return a, nil
	case key == "shift+tab", key == "up":
		f.prev()
		return a, nil
	case key == kh.modifierKey+"t":
		f.toggle(fieldOnlyTopics)
		return a, nil
	case key == kh.modifierKey+"o":
		f.toggle(fieldCurrentTopic)
		return a, nil
	case key == " " && !f.typing():
		f.toggle(f.focus)
		return a, nil
	}

	if !f.typing() {
		return a, nil
	}
	return a, f.update(msg)
}

func (kh *KeyHandler) handleComposeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	f := &a.compose
	key := msg.String()

	switch {
	case key == "esc":
		a.view = ViewBrowse
		return a, nil
	case key == "tab":
		f.switchFocus()
		return a, nil
	case key == "enter" && !f.bodyFocus:
		if f.hasBody() {
			f.switchFocus()
			return a, nil
		}
		return a, kh.submitCompose()
	case kh.isModified(key, "s"):
		return a, kh.submitCompose()
	}
	return a, f.update(msg)
}

func (kh *KeyHandler) submitCompose() tea.Cmd {
	a := kh.app
	author, err := a.authorUser()
	if err != nil {
		a.err = err
		return nil
	}
	msg, err := a.compose.message(author)
	if err != nil {
		a.err = err
		return nil
	}
	a.err = nil
	a.setStatus(MsgSaving, StatusInfo)
	return a.saveComposed(a.compose.action, msg)
}

func (kh *KeyHandler) handleImportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "esc":
		a.view = ViewBrowse
		return a, nil
	case "enter":
		url := strings.TrimSpace(a.urlInput.Value())
		if url == "" {
			return a, nil
		}
		a.err = nil
		a.setStatus(MsgImporting, StatusInfo)
		return a, a.importFeed(kh.currentSectionTitle(), url)
	}
	var cmd tea.Cmd
	a.urlInput, cmd = a.urlInput.Update(msg)
	return a, cmd
}

// currentSectionTitle names the section the user is browsing, if any, so
// imports land where the user is.
func (kh *KeyHandler) currentSectionTitle() string {
	for i := len(kh.app.snap.Elements) - 1; i >= 0; i-- {
		if m, ok := kh.app.snap.Elements[i].Message(); ok && m.Kind == navigation.KindSection {
			return m.Title
		}
	}
	return ""
}

func (kh *KeyHandler) openSearch() {
	a := kh.app
	a.form.setScope(a.snap.Elements)
	a.form.focus = fieldText
	a.form.focusCurrent()
	a.previousView = a.view
	a.view = ViewSearch
}

func (kh *KeyHandler) openCompose() tea.Cmd {
	a := kh.app
	action := a.snap.Action
	if action == navigation.ActionNone {
		a.setStatus(MsgNothingToAdd, StatusWarn)
		return nil
	}
	var parent navigation.MessageContext
	if top, ok := a.snap.Top(); ok {
		parent, _ = top.Message()
	}
	a.compose.open(action, parent)
	a.view = ViewCompose
	return nil
}

func (kh *KeyHandler) read(m *storage.Message) tea.Cmd {
	a := kh.app
	r, err := a.getRenderer()
	if err != nil {
		a.err = wrapErr("renderer", err)
		return nil
	}
	a.previousView = a.view
	a.setStatus(MsgLoading, StatusInfo)
	return a.renderMessage(m, r)
}

func (kh *KeyHandler) openSource(url string) tea.Cmd {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		kh.app.setStatus(MsgNotImported, StatusWarn)
		return nil
	}
	return kh.app.openURL(url)
}

// GetHelpForCurrentView returns the short key hints for the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	k := kh.keys
	switch kh.app.view {
	case ViewBrowse:
		help := []string{"enter: open", "v: read", k.Back + ": back", k.HistoryBack + k.HistoryForward + ": history", k.Search + ": search"}
		if kh.app.page.HasNext() || kh.currentPage() > 0 {
			help = append(help, k.NextPage+"/"+k.PrevPage+": page")
		}
		return append(help, k.Help+": help")
	case ViewReader:
		return []string{"↑↓: scroll", "enter: replies", "o: open link", k.Back + ": back"}
	case ViewSearch:
		return []string{"enter: search", "tab: next field", "space: toggle", kh.modifierKey + "t/" + kh.modifierKey + "o: flags", k.Back + ": cancel"}
	case ViewCompose:
		return []string{"tab: switch field", kh.modifierKey + "s: save", "esc: cancel"}
	case ViewImport:
		return []string{"enter: import", "esc: cancel"}
	case ViewHelp:
		return []string{"any key: close"}
	default:
		return []string{}
	}
}

func (kh *KeyHandler) currentPage() int {
	top, ok := kh.app.snap.Top()
	if !ok {
		return 0
	}
	return top.Criteria.Page
}

func (kh *KeyHandler) renderHelpScreen() string {
	k := kh.keys
	rows := [][2]string{
		{"enter", "browse into the selected message"},
		{"v", "read the selected message"},
		{"o", "open the source link in a browser"},
		{k.Back, "back to the previous level"},
		{k.HistoryBack + " / " + k.HistoryForward, "history back / forward"},
		{k.NextPage + " / " + k.PrevPage, "next / previous page"},
		{"1-9", "jump to a breadcrumb"},
		{k.Search + " or /", "search"},
		{"a", "create here (" + kh.createHint() + ")"},
		{"i", "import a forum feed"},
		{"u", "refresh imported feeds"},
		{"r", "reload this page"},
		{k.Quit, "quit"},
	}
	lines := []string{TitleStyle.Render("› keys"), ""}
	for _, r := range rows {
		lines = append(lines, ModalHighlightStyle.Render(padRight(r[0], 10))+ModalTextStyle.Render(r[1]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (kh *KeyHandler) createHint() string {
	if s := kh.app.snap.Action.String(); s != "" {
		return s
	}
	return "nothing"
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s + " "
}
