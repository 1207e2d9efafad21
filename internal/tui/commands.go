package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/importer"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/storage"
)

// navigate runs an orchestrator call off the event loop. The orchestrator
// reports back through the Bridge, so only a failed call produces a
// message here.
func (a *App) navigate(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(a.ctx); err != nil {
			return errorMsg{err: err}
		}
		return nil
	}
}

func (a *App) request(e navigation.Element) tea.Cmd {
	return a.navigate(func(ctx context.Context) error {
		return a.orch.Request(ctx, e, false)
	})
}

func (a *App) open(token string) tea.Cmd {
	return a.navigate(func(ctx context.Context) error {
		return a.orch.Open(ctx, token)
	})
}

// moveHistory steps the history browser. Its subscriber hands the new
// token to the orchestrator.
func (a *App) moveHistory(forward bool) tea.Cmd {
	return func() tea.Msg {
		var ok bool
		if forward {
			_, ok = a.history.Forward()
		} else {
			_, ok = a.history.Back()
		}
		if !ok {
			return statusMsg{text: MsgNoHistory, kind: StatusWarn}
		}
		return nil
	}
}

func (a *App) renderMessage(msg *storage.Message, r *glamour.TermRenderer) tea.Cmd {
	return func() tea.Msg {
		md := messageMarkdown(msg)
		out, err := r.Render(md)
		if err != nil {
			debuglog.Warnf("tui: rendering message %d: %v", msg.ID, err)
			out = md
		}
		return messageRenderedMsg{msg: msg, content: out}
	}
}

func messageMarkdown(msg *storage.Message) string {
	var b strings.Builder
	title := msg.Title
	if title == "" {
		title = fmt.Sprintf("%s #%d", msg.Kind, msg.ID)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var meta []string
	if msg.AuthorLogin != "" {
		meta = append(meta, "by "+msg.AuthorLogin)
	}
	if !msg.Created.IsZero() {
		meta = append(meta, msg.Created.Format("Jan 2, 2006 15:04"))
	}
	if msg.ReplyCount > 0 {
		meta = append(meta, replies(msg.ReplyCount))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " • "))
	}
	if msg.Body != "" {
		b.WriteString(msg.Body)
		b.WriteString("\n")
	}
	if msg.SourceURL != "" && strings.HasPrefix(msg.SourceURL, "http") {
		fmt.Fprintf(&b, "\n---\n\n%s\n", msg.SourceURL)
	}
	return b.String()
}

func replies(n int) string {
	if n == 1 {
		return "1 reply"
	}
	return fmt.Sprintf("%d replies", n)
}

// saveComposed stores the compose form's message and its author.
func (a *App) saveComposed(action navigation.Action, msg *storage.Message) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.SaveMessage(msg); err != nil {
			return composedMsg{action: action, err: wrapErr("saving message", err)}
		}
		if a.listener != nil {
			a.listener.OnMessageSaved(msg)
		}
		return composedMsg{action: action, msg: msg}
	}
}

// authorUser returns the stored user for the configured login, creating it
// on first use.
func (a *App) authorUser() (*storage.User, error) {
	if a.author == "" {
		return nil, nil
	}
	u := &storage.User{Login: a.author, DisplayName: a.author}
	if err := a.store.SaveUser(u); err != nil {
		return nil, wrapErr("saving author", err)
	}
	return u, nil
}

func (a *App) importFeed(section, url string) tea.Cmd {
	return func() tea.Msg {
		res, err := a.importer.Import(a.ctx, section, url)
		return importedMsg{result: res, err: err}
	}
}

func (a *App) refreshFeeds() tea.Cmd {
	return func() tea.Msg {
		results, err := a.importer.RefreshAll(a.ctx)
		return refreshedMsg{results: results, err: err}
	}
}

func summarize(results []*importer.Result) (topics, added int) {
	for _, r := range results {
		if !r.NotModified {
			topics++
		}
		added += r.Added
	}
	return topics, added
}

// openCommand builds the platform command that opens url in a browser.
var openCommand = func(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("cmd", "/c", "start", "", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

func (a *App) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		if err := openCommand(url).Start(); err != nil {
			return errorMsg{err: wrapErr("opening "+truncateMiddle(url, 60), err)}
		}
		return statusMsg{text: "Opened " + truncateMiddle(url, 60), kind: StatusInfo}
	}
}

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
