package navigation

import (
	"fmt"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/storage"
)

// MessageKind tells which level of the forum tree a browsed message sits on.
type MessageKind int

const (
	KindSection MessageKind = iota
	KindTopic
	KindPost
)

func (k MessageKind) String() string {
	switch k {
	case KindSection:
		return "section"
	case KindTopic:
		return "topic"
	case KindPost:
		return "post"
	default:
		return "unknown"
	}
}

// KindOf maps a stored message kind onto a MessageKind.
func KindOf(k storage.Kind) MessageKind {
	switch k {
	case storage.KindSection:
		return KindSection
	case storage.KindTopic:
		return KindTopic
	default:
		return KindPost
	}
}

// MessageContext identifies the message whose replies are being browsed.
type MessageContext struct {
	ID    criteria.MessageID
	Title string
	Kind  MessageKind
}

// ContextOf builds the context for browsing into m.
func ContextOf(m *storage.Message) MessageContext {
	return MessageContext{ID: m.ID, Title: m.Title, Kind: KindOf(m.Kind)}
}

// Payload is either SearchPayload or ReplyPayload.
type Payload interface {
	isPayload()
}

// SearchPayload marks a plain search-result view.
type SearchPayload struct{}

// ReplyPayload marks a view of the replies to Message.
type ReplyPayload struct {
	Message MessageContext
}

func (SearchPayload) isPayload() {}
func (ReplyPayload) isPayload()  {}

// Element is one entry of the navigation stack. Elements are values;
// pagination produces a new element through WithPage.
type Element struct {
	Criteria criteria.Criteria
	Payload  Payload
}

// NewSearch returns a non-reply element for c.
func NewSearch(c criteria.Criteria) Element {
	return Element{Criteria: c, Payload: SearchPayload{}}
}

// NewReply returns an element browsing the replies of msg.
func NewReply(c criteria.Criteria, msg MessageContext) Element {
	return Element{Criteria: c, Payload: ReplyPayload{Message: msg}}
}

// BrowseInto is the element for opening m: its replies, first page.
func BrowseInto(m *storage.Message) Element {
	return NewReply(criteria.Replies(m.ID), ContextOf(m))
}

// RootElement is the permanent base of every stack.
func RootElement() Element {
	return NewSearch(criteria.Root())
}

func (e Element) IsReply() bool {
	_, ok := e.Payload.(ReplyPayload)
	return ok
}

// Message returns the browsed message of a reply element.
func (e Element) Message() (MessageContext, bool) {
	if p, ok := e.Payload.(ReplyPayload); ok {
		return p.Message, true
	}
	return MessageContext{}, false
}

// IsRoot reports whether e is the root element.
func (e Element) IsRoot() bool {
	return ExactEqual(e, RootElement())
}

// WithPage returns a copy of e pointing at page n.
func (e Element) WithPage(n int) Element {
	e.Criteria = e.Criteria.WithPage(n)
	return e
}

// ExactEqual reports whether a and b are the same kind of element with the
// same serialized criteria.
func ExactEqual(a, b Element) bool {
	return a.IsReply() == b.IsReply() && criteria.Equal(a.Criteria, b.Criteria)
}

// PageRelaxedEqual is ExactEqual ignoring the page.
func PageRelaxedEqual(a, b Element) bool {
	return a.IsReply() == b.IsReply() && criteria.EqualIgnoringPage(a.Criteria, b.Criteria)
}

// Label is the breadcrumb text for e.
func (e Element) Label() string {
	var label string
	switch p := e.Payload.(type) {
	case ReplyPayload:
		label = p.Message.Title
		if label == "" {
			label = fmt.Sprintf("%s #%d", p.Message.Kind, p.Message.ID)
		}
	default:
		if e.Criteria.IsRoot() {
			return "Forum"
		}
		if criteria.EqualIgnoringPage(e.Criteria, criteria.Root()) {
			label = "Forum"
		} else {
			return "Search: " + e.Criteria.String()
		}
	}
	if e.Criteria.Page > criteria.MinPage {
		label = fmt.Sprintf("%s (page %d)", label, e.Criteria.Page+1)
	}
	return label
}

func (e Element) String() string {
	if m, ok := e.Message(); ok {
		return fmt.Sprintf("reply(%s #%d, %s)", m.Kind, m.ID, criteria.Serialize(e.Criteria))
	}
	return fmt.Sprintf("search(%s)", criteria.Serialize(e.Criteria))
}
