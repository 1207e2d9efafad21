package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/search"
)

// ErrSearchExecutionFailed is reported to the view when the executor fails.
var ErrSearchExecutionFailed = errors.New("search execution failed")

// ExecutionError carries the failed criteria and the executor's error. It
// matches both ErrSearchExecutionFailed and the underlying cause.
type ExecutionError struct {
	Criteria criteria.Criteria
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrSearchExecutionFailed, e.Criteria, e.Err)
}

func (e *ExecutionError) Unwrap() []error {
	return []error{ErrSearchExecutionFailed, e.Err}
}

// Executor runs a query. It must be side-effect free and return the same
// page for identical criteria.
type Executor interface {
	Execute(ctx context.Context, c criteria.Criteria) (*search.ResultPage, error)
}

// Notice tells the view why a page came back empty.
type Notice int

const (
	NoticeSectionHasNoTopics Notice = iota + 1
	NoticeTopicHasNoPosts
	NoticeMessageHasNoReplies
	NoticeSearchHasNoMatches
)

func (n Notice) String() string {
	switch n {
	case NoticeSectionHasNoTopics:
		return "This section has no topics yet."
	case NoticeTopicHasNoPosts:
		return "This topic has no posts yet."
	case NoticeMessageHasNoReplies:
		return "This message has no replies yet."
	case NoticeSearchHasNoMatches:
		return "No messages match your search."
	default:
		return ""
	}
}

// noticeFor picks the empty-result notice for e.
func noticeFor(e Element) Notice {
	m, ok := e.Message()
	if !ok {
		return NoticeSearchHasNoMatches
	}
	switch m.Kind {
	case KindSection:
		return NoticeSectionHasNoTopics
	case KindTopic:
		return NoticeTopicHasNoPosts
	default:
		return NoticeMessageHasNoReplies
	}
}

// View renders a session. Methods are called from the requesting goroutine
// and from executor goroutines, always with the session locked, so calls
// arrive in navigation order. Implementations must not block on the
// orchestrator or the session.
type View interface {
	SetEnabled(enabled bool)
	MirrorCriteria(c criteria.Criteria)
	ShowResults(snap Snapshot, page *search.ResultPage)
	ShowNotice(n Notice)
	ShowError(err error)
}

// Orchestrator is the entry point for navigation changes of one session.
type Orchestrator struct {
	session *Session
	exec    Executor
	view    View
	wg      sync.WaitGroup
	log     *debuglog.FieldLogger
}

func NewOrchestrator(session *Session, exec Executor, view View) *Orchestrator {
	return &Orchestrator{
		session: session,
		exec:    exec,
		view:    view,
		log:     debuglog.WithFields(map[string]interface{}{"component": "orchestrator", "view": session.id}),
	}
}

func (o *Orchestrator) Session() *Session {
	return o.session
}

// Request navigates to e. Invalid criteria are rejected before any state
// changes. Unless force is set, requesting the current top only re-enables
// the view. Otherwise the stack and token are updated at once and the
// search runs in the background; only the latest request's result is shown.
func (o *Orchestrator) Request(ctx context.Context, e Element, force bool) error {
	if err := criteria.Validate(e.Criteria); err != nil {
		return err
	}

	s := o.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if !force && !s.stack.IsChangeNeeded(e) {
		o.log.Debugf("no change for %s", e)
		o.view.SetEnabled(true)
		return nil
	}

	s.busy = true
	s.seq++
	seq := s.seq
	s.stack.Integrate(e)
	published := s.sync.Publish(s.stack)

	o.log.With("seq", seq).Debugf("integrated %s (published=%v)", e, published)

	o.view.SetEnabled(false)
	if !e.IsReply() {
		o.view.MirrorCriteria(e.Criteria)
	}

	o.wg.Add(1)
	go o.run(ctx, seq, e)
	return nil
}

func (o *Orchestrator) run(ctx context.Context, seq uint64, e Element) {
	defer o.wg.Done()
	log := o.log.With("seq", seq)

	page, err := o.exec.Execute(ctx, e.Criteria)

	// The view is updated under the lock so a newer request cannot render
	// between the staleness check and this response's rendering.
	s := o.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		log.Debugf("dropping stale response for %s (latest %d)", e, s.seq)
		return
	}
	if err == nil {
		s.lastPage = page
	}
	s.busy = false
	snap := s.snapshotLocked()

	if err != nil {
		cause := eris.Wrap(err, "executing search")
		log.Warnf("%s", eris.ToString(cause, debuglog.Enabled(debuglog.LevelDebug)))
		o.view.ShowError(&ExecutionError{Criteria: e.Criteria, Err: cause})
		o.view.SetEnabled(true)
		return
	}

	o.view.ShowResults(snap, page)
	o.view.SetEnabled(true)
	if page.Empty() {
		o.view.ShowNotice(noticeFor(e))
	}
}

// HandleTokenChange reacts to an external token change such as history
// back or forward. Tokens of other views are ignored.
func (o *Orchestrator) HandleTokenChange(ctx context.Context, token string) error {
	s := o.session
	if !s.Owns(token) {
		return nil
	}
	s.mu.Lock()
	e := s.sync.Resolve(token, s.stack, s.lastPage)
	s.mu.Unlock()
	o.log.Debugf("token %q resolved to %s", token, e)
	return o.Request(ctx, e, false)
}

// Open starts the session at token, or at the root when token is empty or
// foreign.
func (o *Orchestrator) Open(ctx context.Context, token string) error {
	if token != "" && o.session.Owns(token) {
		return o.HandleTokenChange(ctx, token)
	}
	return o.Request(ctx, RootElement(), false)
}

// Back pops the top of the stack and shows the element below it. At the
// root it does nothing.
func (o *Orchestrator) Back(ctx context.Context) error {
	s := o.session
	s.mu.Lock()
	if !s.stack.RemoveTop() {
		s.mu.Unlock()
		return nil
	}
	top, _ := s.stack.Top()
	s.mu.Unlock()
	return o.Request(ctx, top, true)
}

// Page moves the current view by delta pages. Moving before the first page
// is a no-op.
func (o *Orchestrator) Page(ctx context.Context, delta int) error {
	s := o.session
	s.mu.Lock()
	top, ok := s.stack.Top()
	s.mu.Unlock()
	if !ok {
		return nil
	}
	page := top.Criteria.Page + delta
	if page < criteria.MinPage {
		return nil
	}
	return o.Request(ctx, top.WithPage(page), false)
}

// Refresh re-runs the current top.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	s := o.session
	s.mu.Lock()
	top, ok := s.stack.Top()
	s.mu.Unlock()
	if !ok {
		top = RootElement()
	}
	return o.Request(ctx, top, true)
}

// JumpTo re-requests the breadcrumb at index i.
func (o *Orchestrator) JumpTo(ctx context.Context, i int) error {
	s := o.session
	s.mu.Lock()
	e, ok := s.stack.At(i)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return o.Request(ctx, e, false)
}

// Busy reports whether the latest request is still running.
func (o *Orchestrator) Busy() bool {
	s := o.session
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Wait blocks until every dispatched search has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
