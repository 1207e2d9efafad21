package navigation

import (
	"strings"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/search"
)

// ViewID names a forum view. The synchronizer only writes tokens while its
// view is the active one.
type ViewID string

// TokenSink is the externally visible navigation token and its history.
// SetToken with suppressEvent=false makes the sink emit a token change
// event; with true it stays silent.
type TokenSink interface {
	CurrentToken() string
	SetToken(token string, suppressEvent bool)
	ActiveView() ViewID
}

// Synchronizer maps the stack top onto a token and tokens back onto
// elements.
type Synchronizer struct {
	sink   TokenSink
	prefix string
	view   ViewID
	log    *debuglog.FieldLogger
}

func NewSynchronizer(sink TokenSink, prefix string, view ViewID) *Synchronizer {
	return &Synchronizer{
		sink:   sink,
		prefix: prefix,
		view:   view,
		log:    debuglog.WithFields(map[string]interface{}{"component": "sync", "view": view}),
	}
}

// Token returns the token for the current top of stack.
func (s *Synchronizer) Token(stack *Stack) string {
	top, ok := stack.Top()
	if !ok {
		return s.prefix
	}
	return s.prefix + criteria.Serialize(top.Criteria)
}

// Publish writes the token for the stack top to the sink. It reports
// whether it wrote, which happens only when the token changed and this
// synchronizer's view is active.
func (s *Synchronizer) Publish(stack *Stack) bool {
	token := s.Token(stack)
	if s.sink.ActiveView() != s.view {
		s.log.Debugf("publish skipped, view inactive: %q", token)
		return false
	}
	if s.sink.CurrentToken() == token {
		return false
	}
	s.sink.SetToken(token, true)
	s.log.Debugf("published %q", token)
	return true
}

// Owns reports whether token belongs to this synchronizer.
func (s *Synchronizer) Owns(token string) bool {
	return strings.HasPrefix(token, s.prefix)
}

// Resolve turns token into an element. Message context for reply views is
// taken from the stack (above the root) first, then from lastPage. When
// neither knows the message the element degrades to a plain search.
func (s *Synchronizer) Resolve(token string, stack *Stack, lastPage *search.ResultPage) Element {
	query := strings.TrimPrefix(token, s.prefix)
	c := criteria.Root()
	if query != "" {
		c = criteria.Deserialize(query)
	}

	if !c.BrowsesMessage() {
		return NewSearch(c)
	}
	if m, ok := stack.findMessage(c.BaseMessageID); ok {
		return NewReply(c, m)
	}
	if msg, ok := lastPage.Find(c.BaseMessageID); ok {
		return NewReply(c, ContextOf(msg))
	}
	s.log.Debugf("ambiguous token %q: message %d unknown, resolving as search", token, c.BaseMessageID)
	return NewSearch(c)
}
