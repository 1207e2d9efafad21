package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/navigation"
)

type searchField int

const (
	fieldText searchField = iota
	fieldAuthor
	fieldOnlyTopics
	fieldCurrentTopic
	fieldCount
)

// searchForm collects custom search criteria. The current topic scope is
// taken from the navigation stack when the form opens.
type searchForm struct {
	text             textinput.Model
	author           textinput.Model
	onlyTopics       bool
	onlyCurrentTopic bool
	focus            searchField
	topic            navigation.MessageContext
	hasTopic         bool
}

func newSearchForm(maxTextLength int) searchForm {
	text := textinput.New()
	text.Placeholder = "Search sections, topics and posts..."
	text.CharLimit = maxTextLength

	author := textinput.New()
	author.Placeholder = "Author login (optional)"
	author.CharLimit = 64

	f := searchForm{text: text, author: author}
	f.focusCurrent()
	return f
}

// setScope records the innermost topic of elems as the target of the
// only-current-topic flag.
func (f *searchForm) setScope(elems []navigation.Element) {
	f.topic, f.hasTopic = navigation.MessageContext{}, false
	for i := len(elems) - 1; i >= 0; i-- {
		if m, ok := elems[i].Message(); ok && m.Kind == navigation.KindTopic {
			f.topic, f.hasTopic = m, true
			return
		}
	}
	f.onlyCurrentTopic = false
}

// mirror fills the form from criteria the orchestrator is about to show.
func (f *searchForm) mirror(c criteria.Criteria) {
	if c.IsRoot() {
		f.reset()
		return
	}
	f.text.SetValue(c.Text)
	f.author.SetValue(authorField(c))
	f.onlyTopics = c.OnlyTopics
	f.onlyCurrentTopic = c.OnlyInCurrentTopic
	if c.OnlyInCurrentTopic && f.topic.ID != c.BaseMessageID {
		f.topic = navigation.MessageContext{ID: c.BaseMessageID, Kind: navigation.KindTopic}
		f.hasTopic = true
	}
}

func (f *searchForm) reset() {
	f.text.SetValue("")
	f.author.SetValue("")
	f.onlyTopics = false
	f.onlyCurrentTopic = false
}

// authorField is the author input for c. Authors known only by id show
// as #<id>.
func authorField(c criteria.Criteria) string {
	if c.AuthorLogin != "" || c.AuthorID == criteria.UnknownUser {
		return c.AuthorLogin
	}
	return "#" + strconv.FormatInt(int64(c.AuthorID), 10)
}

// parseAuthor reads the author input back into c.
func parseAuthor(c *criteria.Criteria, value string) {
	value = strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(value, "#"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id > 0 {
			c.AuthorID = criteria.UserID(id)
			return
		}
	}
	c.AuthorLogin = value
}

// criteria builds the query. An empty form browses the root.
func (f *searchForm) criteria() criteria.Criteria {
	c := criteria.Criteria{
		Text:       strings.TrimSpace(f.text.Value()),
		OnlyTopics: f.onlyTopics,
	}
	parseAuthor(&c, f.author.Value())
	if f.onlyCurrentTopic && f.hasTopic {
		c.OnlyInCurrentTopic = true
		c.BaseMessageID = f.topic.ID
	}
	if c.Text == "" && c.AuthorLogin == "" && c.AuthorID == criteria.UnknownUser && !c.OnlyTopics && !c.OnlyInCurrentTopic {
		return criteria.Root()
	}
	return c
}

func (f *searchForm) next() {
	f.focus = (f.focus + 1) % fieldCount
	f.focusCurrent()
}

func (f *searchForm) prev() {
	f.focus = (f.focus + fieldCount - 1) % fieldCount
	f.focusCurrent()
}

func (f *searchForm) focusCurrent() {
	f.text.Blur()
	f.author.Blur()
	switch f.focus {
	case fieldText:
		f.text.Focus()
	case fieldAuthor:
		f.author.Focus()
	}
}

func (f *searchForm) typing() bool {
	return f.focus == fieldText || f.focus == fieldAuthor
}

// toggle flips a flag. The two flags exclude each other.
func (f *searchForm) toggle(field searchField) {
	switch field {
	case fieldOnlyTopics:
		f.onlyTopics = !f.onlyTopics
		if f.onlyTopics {
			f.onlyCurrentTopic = false
		}
	case fieldCurrentTopic:
		if !f.hasTopic {
			return
		}
		f.onlyCurrentTopic = !f.onlyCurrentTopic
		if f.onlyCurrentTopic {
			f.onlyTopics = false
		}
	}
}

func (f *searchForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldText:
		f.text, cmd = f.text.Update(msg)
	case fieldAuthor:
		f.author, cmd = f.author.Update(msg)
	}
	return cmd
}

func (f *searchForm) view(width int) string {
	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = width - 4
	}
	f.text.Width = inputWidth
	f.author.Width = inputWidth

	topicLabel := "only in current topic"
	if f.hasTopic {
		topicLabel += ": " + truncateEnd(f.topic.Title, width/2)
	} else {
		topicLabel += " (open a topic first)"
	}

	return lipgloss.JoinVertical(
		lipgloss.Top,
		renderHeader("› search", "", width),
		"",
		renderInputFrame(f.text.View(), f.focus == fieldText, inputWidth),
		renderInputFrame(f.author.View(), f.focus == fieldAuthor, inputWidth),
		"",
		renderToggle("only topics", f.onlyTopics, f.focus == fieldOnlyTopics),
		renderToggle(topicLabel, f.onlyCurrentTopic, f.focus == fieldCurrentTopic),
	)
}
