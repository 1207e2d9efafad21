package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/history"
	"github.com/pders01/fora/internal/importer"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/search"
	"github.com/pders01/fora/internal/storage"
)

// App is the bubbletea model of one forum view. All navigation goes
// through the orchestrator; the App only renders what the Bridge reports.
type App struct {
	ctx        context.Context
	config     *config.Config
	store      *storage.Store
	orch       *navigation.Orchestrator
	history    *history.Browser
	importer   *importer.Manager
	listener   search.UpdateListener
	author     string
	startToken string
	keyHandler *KeyHandler

	results  list.Model
	form     searchForm
	compose  composeForm
	urlInput textinput.Model
	viewport viewport.Model

	view         View
	previousView View
	snap         navigation.Snapshot
	page         *search.ResultPage
	reading      *storage.Message
	enabled      bool
	notice       string
	status       string
	statusKind   StatusKind
	err          error

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// NewApp builds the model. History back and forward reach the
// orchestrator through a subscription on browser.
func NewApp(ctx context.Context, cfg *config.Config, store *storage.Store, orch *navigation.Orchestrator, browser *history.Browser) *App {
	results := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	results.Title = "› forum"
	results.SetShowStatusBar(false)
	results.SetFilteringEnabled(false)
	results.SetShowHelp(false)
	results.KeyMap.Quit.SetEnabled(false)

	ui := textinput.New()
	ui.Placeholder = "Forum, topic or feed URL..."

	maxText := cfg.Search.MaxTextLength
	if maxText <= 0 {
		maxText = 200
	}

	app := &App{
		ctx:      ctx,
		config:   cfg,
		store:    store,
		orch:     orch,
		history:  browser,
		results:  results,
		form:     newSearchForm(maxText),
		compose:  newComposeForm(),
		urlInput: ui,
		viewport: viewport.New(0, 0),
		view:     ViewBrowse,
		enabled:  true,
	}
	app.keyHandler = NewKeyHandler(app, cfg)

	browser.Subscribe(func(token string) {
		if err := orch.HandleTokenChange(ctx, token); err != nil {
			debuglog.Warnf("tui: history token %q: %v", token, err)
		}
	})
	return app
}

// SetImporter enables the import and refresh keys.
func (a *App) SetImporter(m *importer.Manager) {
	a.importer = m
}

// SetListener registers the index to notify about composed messages.
func (a *App) SetListener(l search.UpdateListener) {
	a.listener = l
}

// SetAuthor sets the login composed messages are attributed to.
func (a *App) SetAuthor(login string) {
	a.author = strings.TrimSpace(login)
}

// SetStartToken makes Init open token instead of the root.
func (a *App) SetStartToken(token string) {
	a.startToken = token
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Reader.WordWrapMaxWidth
	if maxWidth <= 0 {
		maxWidth = 120
	}
	minWidth := a.config.UI.Reader.WordWrapMinWidth
	if minWidth <= 0 {
		minWidth = 40
	}

	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.open(a.startToken),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		listHeight := msg.Height - 4
		if listHeight < 5 {
			listHeight = 5
		}
		a.results.SetSize(msg.Width, listHeight)
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 4

		inputWidth := msg.Width - 8
		if inputWidth < 20 {
			inputWidth = msg.Width
		}
		a.urlInput.Width = inputWidth
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case enabledMsg:
		a.enabled = msg.enabled
		if !msg.enabled && a.status == "" {
			a.setStatus(MsgLoading, StatusInfo)
		} else if a.status == MsgLoading {
			a.clearStatus()
		}
		return a, nil

	case mirrorMsg:
		a.form.mirror(msg.criteria)
		return a, nil

	case resultsMsg:
		a.showResults(msg.snap, msg.page)
		return a, nil

	case noticeMsg:
		a.notice = msg.notice.String()
		return a, nil

	case errorMsg:
		a.err = msg.err
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.kind)
		return a, nil

	case messageRenderedMsg:
		a.reading = msg.msg
		a.viewport.SetContent(msg.content)
		a.viewport.GotoTop()
		a.clearStatus()
		a.view = ViewReader
		return a, nil

	case composedMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.view = ViewBrowse
		a.setStatus(MsgCreated(msg.action), StatusSuccess)
		return a, a.navigate(a.orch.Refresh)

	case importedMsg:
		if msg.err != nil {
			a.err = msg.err
			a.clearStatus()
			return a, nil
		}
		a.view = ViewBrowse
		a.setStatus(MsgImported(msg.result.Topic.Title, msg.result.Added), StatusSuccess)
		return a, a.request(navigation.BrowseInto(msg.result.Topic))

	case refreshedMsg:
		topics, added := summarize(msg.results)
		errs := 0
		if msg.err != nil {
			a.err = msg.err
			errs = strings.Count(msg.err.Error(), "\n") + 1
		}
		a.setStatus(MsgRefreshSummary(topics, added, errs), StatusSuccess)
		return a, a.navigate(a.orch.Refresh)
	}

	var cmd tea.Cmd
	switch a.view {
	case ViewBrowse:
		a.results, cmd = a.results.Update(msg)
	case ViewReader:
		switch msg.(type) {
		case tea.MouseMsg:
			a.viewport, cmd = a.viewport.Update(msg)
		}
	case ViewSearch:
		cmd = a.form.update(msg)
	case ViewCompose:
		cmd = a.compose.update(msg)
	case ViewImport:
		a.urlInput, cmd = a.urlInput.Update(msg)
	}
	return a, cmd
}

// showResults replaces the listing with the orchestrator's latest page.
func (a *App) showResults(snap navigation.Snapshot, page *search.ResultPage) {
	a.snap = snap
	a.page = page
	a.notice = ""
	a.err = nil
	if a.statusKind == StatusInfo {
		a.clearStatus()
	}

	maxSnippet := a.config.UI.Reader.MaxSnippetLength
	items := make([]list.Item, 0, len(page.Items))
	for _, m := range page.Items {
		items = append(items, messageItem{msg: m, snippet: page.Snippets[m.ID], maxSnippet: maxSnippet})
	}
	a.results.SetItems(items)
	a.results.Select(0)
	if snap.ReturnedTo() {
		a.selectMessage(snap.ReturnedFrom)
	}

	if top, ok := snap.Top(); ok {
		a.results.Title = "› " + truncateEnd(top.Label(), 60)
		if !top.IsReply() && !top.Criteria.IsRoot() {
			a.setStatus(MsgResultsCount(page.TotalCount), StatusInfo)
		}
	}
	if a.view == ViewSearch || a.view == ViewReader {
		a.view = ViewBrowse
	}
}

// selectMessage moves the cursor to the listed message id, if present.
func (a *App) selectMessage(id criteria.MessageID) {
	for i, item := range a.results.Items() {
		if m, ok := item.(messageItem); ok && m.msg.ID == id {
			a.results.Select(i)
			return
		}
	}
}

func (a *App) selected() (*storage.Message, bool) {
	item, ok := a.results.SelectedItem().(messageItem)
	if !ok {
		return nil, false
	}
	return item.msg, true
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusKind = StatusInfo
}

func (a *App) busy() bool {
	return !a.enabled || a.snap.Busy
}

func (a *App) View() string {
	contentHeight := a.height - 4
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch a.view {
	case ViewBrowse:
		switch {
		case a.page == nil:
			content = renderCentered(a.width, contentHeight, renderMuted(MsgLoading))
		case a.page.Empty() && a.snap.Len() <= 1 && a.notice != "":
			content = renderCentered(a.width, contentHeight, GetWelcomeMessage())
		case a.page.Empty():
			content = renderCentered(a.width, contentHeight, renderMuted(a.notice))
		default:
			content = a.results.View()
		}
	case ViewReader:
		content = a.viewport.View()
	case ViewSearch:
		content = a.form.view(a.width)
	case ViewCompose:
		content = a.compose.view(a.width, a.height)
	case ViewImport:
		content = renderCentered(a.width, contentHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			TitleStyle.Render("› import feed"),
			"",
			renderInputFrame(a.urlInput.View(), true, a.urlInput.Width),
			"",
			renderHelp("Enter: import • Esc: cancel"),
		))
	case ViewHelp:
		content = renderCentered(a.width, contentHeight, a.keyHandler.renderHelpScreen())
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	header := renderBreadcrumbs(a.snap.Elements, a.width-4)
	if a.busy() {
		header += " " + ModalHighlightStyle.Render("⟳")
	}

	separatorWidth := a.width - 2
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := SeparatorStyle.Render("─" + strings.Repeat("─", separatorWidth))

	return lipgloss.JoinVertical(lipgloss.Top, header, content, separator, a.statusBar())
}

func (a *App) statusBar() string {
	style := StatusBarStyle.Width(a.width)
	switch {
	case a.err != nil:
		return style.Render(ErrorMessageStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	case a.status != "":
		return style.Render(statusStyle(a.statusKind).Render(a.status))
	}

	commands := a.keyHandler.GetHelpForCurrentView()
	if a.view == ViewBrowse && a.snap.Action != navigation.ActionNone {
		commands = append([]string{"a: " + a.snap.Action.String()}, commands...)
	}
	return style.Render(strings.Join(commands, " • "))
}

type messageItem struct {
	msg        *storage.Message
	snippet    string
	maxSnippet int
}

func (i messageItem) Title() string {
	title := i.msg.Title
	if title == "" {
		title = fmt.Sprintf("%s #%d", i.msg.Kind, i.msg.ID)
	}
	switch i.msg.Kind {
	case storage.KindSection:
		return SectionItemStyle.Render("▸ " + title)
	case storage.KindTopic:
		return TopicItemStyle.Render("● " + title)
	default:
		return PostItemStyle.Render(title)
	}
}

func (i messageItem) Description() string {
	limit := i.maxSnippet
	if limit <= 0 {
		limit = 80
	}
	desc := i.snippet
	if desc == "" {
		desc = i.msg.Body
	}
	desc = truncateEnd(oneLine(desc), limit)

	var meta []string
	if i.msg.AuthorLogin != "" {
		meta = append(meta, i.msg.AuthorLogin)
	}
	if !i.msg.Created.IsZero() {
		meta = append(meta, i.msg.Created.Format("Jan 2, 15:04"))
	}
	if i.msg.ReplyCount > 0 {
		meta = append(meta, replies(i.msg.ReplyCount))
	}

	out := renderMuted(desc)
	if len(meta) > 0 {
		if desc != "" {
			out += TimeStyle.Render(" • ")
		}
		out += TimeStyle.Render(strings.Join(meta, " • "))
	}
	return out
}

func (i messageItem) FilterValue() string { return i.msg.Title }
