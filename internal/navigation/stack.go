package navigation

import "github.com/pders01/fora/internal/criteria"

// Action is the create affordance the view should offer for the current top.
type Action int

const (
	ActionNone Action = iota
	ActionNewSection
	ActionNewTopic
	ActionReply
)

func (a Action) String() string {
	switch a {
	case ActionNewSection:
		return "new section"
	case ActionNewTopic:
		return "new topic"
	case ActionReply:
		return "reply"
	default:
		return ""
	}
}

// Stack is the linear record of where the user is. Element 0 is the root
// once anything has been pushed, and no two adjacent elements are
// exact-equal. It is not safe for concurrent use; Session guards it.
type Stack struct {
	elems     []Element
	lastReply *Element
	// returnedFrom is the message the element popped by RemoveTop was
	// browsing, zero for searches.
	returnedFrom criteria.MessageID
}

func NewStack() *Stack {
	return &Stack{}
}

// Integrate makes candidate the top of the stack.
func (s *Stack) Integrate(candidate Element) {
	s.integrate(candidate)
	if s.lastReply != nil && !s.contains(*s.lastReply) {
		s.clearLastReply()
	}
}

func (s *Stack) integrate(candidate Element) {
	// Already visited: pop back to it.
	for i := len(s.elems) - 1; i >= 0; i-- {
		if ExactEqual(s.elems[i], candidate) {
			s.truncate(i + 1)
			return
		}
	}

	if !candidate.IsReply() {
		// A fresh search starts a new session on top of the root.
		if len(s.elems) > 0 {
			s.truncate(1)
		}
		s.push(candidate)
		return
	}

	// Older pages of the same reply view are dropped. Element 0 is the root
	// and never goes.
	kept := s.elems[:0]
	for i, e := range s.elems {
		if i > 0 && PageRelaxedEqual(e, candidate) {
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.elems); i++ {
		s.elems[i] = Element{}
	}
	s.elems = kept
	s.push(candidate)
}

func (s *Stack) push(e Element) {
	if len(s.elems) == 0 && !e.IsRoot() {
		s.elems = append(s.elems, RootElement())
	}
	s.elems = append(s.elems, e)
}

func (s *Stack) truncate(n int) {
	for i := n; i < len(s.elems); i++ {
		s.elems[i] = Element{}
	}
	s.elems = s.elems[:n]
}

// IsChangeNeeded reports whether integrating candidate would change the top.
func (s *Stack) IsChangeNeeded(candidate Element) bool {
	top, ok := s.Top()
	return !ok || !ExactEqual(top, candidate)
}

// RemoveTop pops the top element unless only the root is left. When the
// new top is a reply view it becomes the last reply element.
func (s *Stack) RemoveTop() bool {
	if len(s.elems) <= 1 {
		return false
	}
	popped := s.elems[len(s.elems)-1]
	s.truncate(len(s.elems) - 1)
	top := s.elems[len(s.elems)-1]
	if !top.IsReply() {
		s.clearLastReply()
		return true
	}
	s.lastReply = &top
	s.returnedFrom = 0
	if m, ok := popped.Message(); ok {
		s.returnedFrom = m.ID
	}
	return true
}

// LastReply returns the reply element most recently exposed by RemoveTop
// while it is still on the stack.
func (s *Stack) LastReply() (Element, bool) {
	if s.lastReply == nil {
		return Element{}, false
	}
	return *s.lastReply, true
}

// ReturnedFrom returns the message browsed by the element that RemoveTop
// popped to expose LastReply.
func (s *Stack) ReturnedFrom() (criteria.MessageID, bool) {
	if s.lastReply == nil || s.returnedFrom == 0 {
		return 0, false
	}
	return s.returnedFrom, true
}

func (s *Stack) clearLastReply() {
	s.lastReply = nil
	s.returnedFrom = 0
}

func (s *Stack) contains(e Element) bool {
	for _, el := range s.elems {
		if ExactEqual(el, e) {
			return true
		}
	}
	return false
}

func (s *Stack) Top() (Element, bool) {
	if len(s.elems) == 0 {
		return Element{}, false
	}
	return s.elems[len(s.elems)-1], true
}

func (s *Stack) Len() int {
	return len(s.elems)
}

// At returns element i, counting from the bottom.
func (s *Stack) At(i int) (Element, bool) {
	if i < 0 || i >= len(s.elems) {
		return Element{}, false
	}
	return s.elems[i], true
}

// Elements returns a copy of the stack, bottom first.
func (s *Stack) Elements() []Element {
	out := make([]Element, len(s.elems))
	copy(out, s.elems)
	return out
}

// CreateAction reports what can be created under the current top.
func (s *Stack) CreateAction() Action {
	top, ok := s.Top()
	if !ok {
		return ActionNone
	}
	if m, ok := top.Message(); ok {
		if m.Kind == KindSection {
			return ActionNewTopic
		}
		return ActionReply
	}
	if top.Criteria.IsRoot() {
		return ActionNewSection
	}
	return ActionNone
}

// findMessage looks for a reply element browsing id above the root.
func (s *Stack) findMessage(id criteria.MessageID) (MessageContext, bool) {
	for i := len(s.elems) - 1; i >= 1; i-- {
		if m, ok := s.elems[i].Message(); ok && m.ID == id {
			return m, true
		}
	}
	return MessageContext{}, false
}
