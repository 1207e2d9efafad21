package navigation

import (
	"context"
	"sync"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/search"
	"github.com/pders01/fora/internal/storage"
)

const testPrefix = "forum:"

const (
	testView  ViewID = "forum"
	otherView ViewID = "inbox"
)

// fakeSink records every token write.
type fakeSink struct {
	mu     sync.Mutex
	token  string
	active ViewID
	writes []string
	events []string
}

func newFakeSink() *fakeSink {
	return &fakeSink{active: testView}
}

func (f *fakeSink) CurrentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSink) SetToken(token string, suppressEvent bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.writes = append(f.writes, token)
	if !suppressEvent {
		f.events = append(f.events, token)
	}
}

func (f *fakeSink) ActiveView() ViewID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeSink) setActive(v ViewID) {
	f.mu.Lock()
	f.active = v
	f.mu.Unlock()
}

func (f *fakeSink) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

// fakeView records what the orchestrator showed.
type fakeView struct {
	mu       sync.Mutex
	enabled  []bool
	mirrored []criteria.Criteria
	results  []*search.ResultPage
	snaps    []Snapshot
	notices  []Notice
	errs     []error
}

func (v *fakeView) SetEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = append(v.enabled, enabled)
}

func (v *fakeView) MirrorCriteria(c criteria.Criteria) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mirrored = append(v.mirrored, c)
}

func (v *fakeView) ShowResults(snap Snapshot, page *search.ResultPage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snaps = append(v.snaps, snap)
	v.results = append(v.results, page)
}

func (v *fakeView) ShowNotice(n Notice) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, n)
}

func (v *fakeView) ShowError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, err)
}

// lastEnabled reports the most recent SetEnabled value.
func (v *fakeView) lastEnabled() (bool, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.enabled) == 0 {
		return false, false
	}
	return v.enabled[len(v.enabled)-1], true
}

func (v *fakeView) calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.enabled) + len(v.mirrored) + len(v.results) + len(v.notices) + len(v.errs)
}

type executorFunc func(ctx context.Context, c criteria.Criteria) (*search.ResultPage, error)

func (f executorFunc) Execute(ctx context.Context, c criteria.Criteria) (*search.ResultPage, error) {
	return f(ctx, c)
}

func pageOf(msgs ...*storage.Message) *search.ResultPage {
	if msgs == nil {
		msgs = []*storage.Message{}
	}
	return &search.ResultPage{Items: msgs, TotalCount: len(msgs)}
}

// staticExecutor returns page for every query.
func staticExecutor(page *search.ResultPage) Executor {
	return executorFunc(func(context.Context, criteria.Criteria) (*search.ResultPage, error) {
		return page, nil
	})
}
