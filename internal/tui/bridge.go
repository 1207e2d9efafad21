package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/search"
)

// Bridge implements navigation.View by turning each call into a bubbletea
// message. The orchestrator calls it from its own goroutines, so Bridge
// never touches App state directly. Messages sent before Attach are
// queued and delivered on Attach.
type Bridge struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []tea.Msg
}

var _ navigation.View = (*Bridge)(nil)

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach delivers all further messages through send, usually
// (*tea.Program).Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, msg := range pending {
		send(msg)
	}
}

func (b *Bridge) emit(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	if send == nil {
		b.pending = append(b.pending, msg)
	}
	b.mu.Unlock()

	if send != nil {
		send(msg)
	}
}

// drain returns and clears the queued messages.
func (b *Bridge) drain() []tea.Msg {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

func (b *Bridge) SetEnabled(enabled bool) {
	b.emit(enabledMsg{enabled: enabled})
}

func (b *Bridge) MirrorCriteria(c criteria.Criteria) {
	b.emit(mirrorMsg{criteria: c})
}

func (b *Bridge) ShowResults(snap navigation.Snapshot, page *search.ResultPage) {
	b.emit(resultsMsg{snap: snap, page: page})
}

func (b *Bridge) ShowNotice(n navigation.Notice) {
	b.emit(noticeMsg{notice: n})
}

func (b *Bridge) ShowError(err error) {
	b.emit(errorMsg{err: err})
}
