package navigation

import (
	"sync"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/search"
)

// Session is the navigation state of one forum view: its stack, its
// synchronizer and the page the executor returned last. All access goes
// through the orchestrator, which holds mu while mutating.
type Session struct {
	mu       sync.Mutex
	id       ViewID
	stack    *Stack
	sync     *Synchronizer
	lastPage *search.ResultPage
	busy     bool
	seq      uint64
}

// NewSession creates the session for view id, publishing tokens with
// prefix into sink.
func NewSession(sink TokenSink, prefix string, id ViewID) *Session {
	return &Session{
		id:    id,
		stack: NewStack(),
		sync:  NewSynchronizer(sink, prefix, id),
	}
}

func (s *Session) ID() ViewID {
	return s.id
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	Elements []Element
	Action   Action
	Busy     bool
	Token    string
	// LastReply is the reply view Back returned to, nil once navigation
	// has moved away from it.
	LastReply *Element
	// ReturnedFrom is the message the view was left from, zero if unknown.
	ReturnedFrom criteria.MessageID
}

// Top returns the last element of the snapshot.
func (s Snapshot) Top() (Element, bool) {
	if len(s.Elements) == 0 {
		return Element{}, false
	}
	return s.Elements[len(s.Elements)-1], true
}

func (s Snapshot) Len() int {
	return len(s.Elements)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Elements: s.stack.Elements(),
		Action:   s.stack.CreateAction(),
		Busy:     s.busy,
		Token:    s.sync.Token(s.stack),
	}
	if last, ok := s.stack.LastReply(); ok {
		snap.LastReply = &last
		snap.ReturnedFrom, _ = s.stack.ReturnedFrom()
	}
	return snap
}

// ReturnedTo reports whether the snapshot's top is the reply view Back
// returned to.
func (s Snapshot) ReturnedTo() bool {
	top, ok := s.Top()
	return ok && s.LastReply != nil && ExactEqual(top, *s.LastReply)
}

// LastPage returns the page most recently shown.
func (s *Session) LastPage() *search.ResultPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPage
}

// Owns reports whether token was published by this session.
func (s *Session) Owns(token string) bool {
	return s.sync.Owns(token)
}
