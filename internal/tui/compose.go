package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/storage"
)

var errEmptyMessage = errors.New("a title or a body is required")

// composeForm creates whatever the current stack top offers: a section at
// the root, a topic inside a section, a reply anywhere below.
type composeForm struct {
	action    navigation.Action
	parent    navigation.MessageContext
	title     textinput.Model
	body      textarea.Model
	bodyFocus bool
}

func newComposeForm() composeForm {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200

	body := textarea.New()
	body.Placeholder = "Write your message..."
	body.ShowLineNumbers = false

	return composeForm{title: title, body: body}
}

// open prepares the form for action below parent.
func (f *composeForm) open(action navigation.Action, parent navigation.MessageContext) {
	f.action = action
	f.parent = parent
	f.title.SetValue("")
	f.body.SetValue("")
	if action == navigation.ActionReply {
		f.title.SetValue("Re: " + parent.Title)
	}
	f.bodyFocus = action == navigation.ActionReply
	f.focusCurrent()
}

func (f *composeForm) hasBody() bool {
	return f.action != navigation.ActionNewSection
}

func (f *composeForm) switchFocus() {
	if !f.hasBody() {
		return
	}
	f.bodyFocus = !f.bodyFocus
	f.focusCurrent()
}

func (f *composeForm) focusCurrent() {
	if f.bodyFocus {
		f.title.Blur()
		f.body.Focus()
		return
	}
	f.body.Blur()
	f.title.Focus()
}

// message builds the unsaved message for the form's contents.
func (f *composeForm) message(author *storage.User) (*storage.Message, error) {
	title := strings.TrimSpace(f.title.Value())
	body := strings.TrimSpace(f.body.Value())

	msg := &storage.Message{Title: title, Body: body}
	switch f.action {
	case navigation.ActionNewSection:
		msg.Kind = storage.KindSection
		msg.ParentID = criteria.NoMessage
		if title == "" {
			return nil, errEmptyMessage
		}
	case navigation.ActionNewTopic:
		msg.Kind = storage.KindTopic
		msg.ParentID = f.parent.ID
		if title == "" {
			return nil, errEmptyMessage
		}
	case navigation.ActionReply:
		msg.Kind = storage.KindPost
		msg.ParentID = f.parent.ID
		if body == "" {
			return nil, errEmptyMessage
		}
	default:
		return nil, errors.New("nothing can be created here")
	}
	if author != nil {
		msg.AuthorID = author.ID
		msg.AuthorLogin = author.Login
	}
	return msg, nil
}

func (f *composeForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.bodyFocus {
		f.body, cmd = f.body.Update(msg)
	} else {
		f.title, cmd = f.title.Update(msg)
	}
	return cmd
}

func (f *composeForm) view(width, height int) string {
	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = width - 4
	}
	f.title.Width = inputWidth
	f.body.SetWidth(inputWidth)
	bodyHeight := height - 12
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	f.body.SetHeight(bodyHeight)

	subtitle := ""
	if f.parent.Title != "" {
		subtitle = "in " + f.parent.Title
	}
	rows := []string{
		renderHeader("› "+f.action.String(), subtitle, width),
		"",
		renderInputFrame(f.title.View(), !f.bodyFocus, inputWidth),
	}
	if f.hasBody() {
		rows = append(rows, renderInputFrame(f.body.View(), f.bodyFocus, inputWidth))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}
