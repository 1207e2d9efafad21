package criteria

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MessageID identifies a forum message. Real ids are positive.
type MessageID int64

const (
	// NoMessage means no base message is set.
	NoMessage MessageID = 0
	// RootMessage is the virtual parent of all sections.
	RootMessage MessageID = -1
)

// IsReal reports whether id refers to a stored message.
func (id MessageID) IsReal() bool {
	return id > 0
}

func (id MessageID) String() string {
	switch {
	case id == RootMessage:
		return "root"
	case id == NoMessage:
		return ""
	default:
		return strconv.FormatInt(int64(id), 10)
	}
}

// UserID identifies a forum user. UnknownUser means no author filter.
type UserID int64

const UnknownUser UserID = 0

const (
	// MinPage is the index of the first result page.
	MinPage = 0
	// MaxTextLength bounds the free-text part of a query, in runes.
	MaxTextLength = 200
)

// ErrInvalidCriteria is returned by Validate.
var ErrInvalidCriteria = errors.New("invalid search criteria")

// Criteria describes one query against the forum. Treat it as a value:
// use the With* helpers instead of editing fields of a shared copy.
type Criteria struct {
	Text               string
	AuthorID           UserID
	AuthorLogin        string
	OnlyTopics         bool
	OnlyInCurrentTopic bool
	BaseMessageID      MessageID
	OnlyThisMessage    bool
	Page               int
}

// Root returns the criteria for browsing all top-level sections.
func Root() Criteria {
	return Criteria{BaseMessageID: RootMessage}
}

// Replies returns the criteria for browsing the replies of a message.
func Replies(id MessageID) Criteria {
	return Criteria{BaseMessageID: id}
}

// IsRoot reports whether c equals the root criteria.
func (c Criteria) IsRoot() bool {
	return Equal(c, Root())
}

// BrowsesMessage reports whether c lists the replies of a concrete message
// (as opposed to a free search, possibly scoped to a topic).
func (c Criteria) BrowsesMessage() bool {
	return c.BaseMessageID.IsReal() && !c.OnlyInCurrentTopic
}

// WithPage returns a copy of c pointing at page n.
func (c Criteria) WithPage(n int) Criteria {
	c.Page = n
	return c
}

// Validate checks the invariants a producer of criteria must honor.
func Validate(c Criteria) error {
	if n := utf8.RuneCountInString(c.Text); n > MaxTextLength {
		return fmt.Errorf("%w: search text is %d characters (max %d)", ErrInvalidCriteria, n, MaxTextLength)
	}
	if c.OnlyInCurrentTopic && !c.BaseMessageID.IsReal() {
		return fmt.Errorf("%w: topic-scoped search needs a topic", ErrInvalidCriteria)
	}
	if c.OnlyTopics && c.OnlyInCurrentTopic {
		return fmt.Errorf("%w: only-topics and only-in-current-topic are exclusive", ErrInvalidCriteria)
	}
	if c.AuthorID < UnknownUser {
		return fmt.Errorf("%w: author id %d", ErrInvalidCriteria, c.AuthorID)
	}
	if c.BaseMessageID < RootMessage {
		return fmt.Errorf("%w: base message id %d", ErrInvalidCriteria, c.BaseMessageID)
	}
	if c.Page < MinPage {
		return fmt.Errorf("%w: page %d below %d", ErrInvalidCriteria, c.Page, MinPage)
	}
	return nil
}

// Equal compares a and b by their serialized form.
func Equal(a, b Criteria) bool {
	return Serialize(a) == Serialize(b)
}

// EqualIgnoringPage compares a and b with both pages reset to MinPage.
func EqualIgnoringPage(a, b Criteria) bool {
	return Equal(a.WithPage(MinPage), b.WithPage(MinPage))
}

// String renders a short human description, e.g. for breadcrumbs.
func (c Criteria) String() string {
	if c.IsRoot() {
		return "all sections"
	}
	var parts []string
	if c.Text != "" {
		parts = append(parts, strconv.Quote(c.Text))
	}
	switch {
	case c.AuthorLogin != "":
		parts = append(parts, "by "+c.AuthorLogin)
	case c.AuthorID != UnknownUser:
		parts = append(parts, fmt.Sprintf("by #%d", c.AuthorID))
	}
	if c.OnlyTopics {
		parts = append(parts, "topics only")
	}
	if c.OnlyInCurrentTopic {
		parts = append(parts, fmt.Sprintf("in topic #%s", c.BaseMessageID))
	} else if c.BaseMessageID.IsReal() {
		if c.OnlyThisMessage {
			parts = append(parts, fmt.Sprintf("message #%s", c.BaseMessageID))
		} else {
			parts = append(parts, fmt.Sprintf("replies to #%s", c.BaseMessageID))
		}
	}
	if c.Page > MinPage {
		parts = append(parts, fmt.Sprintf("page %d", c.Page+1))
	}
	if len(parts) == 0 {
		return "everything"
	}
	return strings.Join(parts, " ")
}
