package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/search"
	"github.com/pders01/fora/internal/storage"
)

const view navigation.ViewID = "forum"

func TestBrowser_SetTokenAndMove(t *testing.T) {
	b := NewBrowser(10, view)
	assert.Equal(t, "", b.CurrentToken())
	assert.False(t, b.CanBack())
	_, ok := b.Back()
	assert.False(t, ok)

	b.SetToken("a", true)
	b.SetToken("b", true)
	b.SetToken("c", true)
	assert.Equal(t, "c", b.CurrentToken())
	assert.True(t, b.CanBack())
	assert.False(t, b.CanForward())

	token, ok := b.Back()
	require.True(t, ok)
	assert.Equal(t, "b", token)
	assert.True(t, b.CanForward())

	token, ok = b.Forward()
	require.True(t, ok)
	assert.Equal(t, "c", token)

	// Writing after going back drops the forward entries.
	b.Back()
	b.Back()
	b.SetToken("d", true)
	entries, pos := b.Entries()
	assert.Equal(t, []string{"a", "d"}, entries)
	assert.Equal(t, 1, pos)
	assert.False(t, b.CanForward())
}

func TestBrowser_SameTokenIsNotDuplicated(t *testing.T) {
	b := NewBrowser(10, view)
	b.SetToken("a", true)
	b.SetToken("a", true)
	assert.Equal(t, 1, b.Len())
}

func TestBrowser_MaxEntries(t *testing.T) {
	b := NewBrowser(3, view)
	for _, tok := range []string{"a", "b", "c", "d", "e"} {
		b.SetToken(tok, true)
	}
	entries, pos := b.Entries()
	assert.Equal(t, []string{"c", "d", "e"}, entries)
	assert.Equal(t, 2, pos)
}

func TestBrowser_Events(t *testing.T) {
	b := NewBrowser(10, view)
	var events []string
	b.Subscribe(func(token string) { events = append(events, token) })

	b.SetToken("a", true)
	b.SetToken("b", false)
	b.Back()
	b.Forward()
	b.Forward() // nothing ahead

	assert.Equal(t, []string{"b", "a", "b"}, events)
}

func TestBrowser_ActiveView(t *testing.T) {
	b := NewBrowser(0, view)
	assert.Equal(t, view, b.ActiveView())
	b.SetActiveView("help")
	assert.Equal(t, navigation.ViewID("help"), b.ActiveView())
}

func TestBrowser_PersistRestore(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	token, err := Restore(store)
	require.NoError(t, err)
	assert.Equal(t, "", token)

	b := NewBrowser(10, view)
	require.NoError(t, b.Persist(store), "an empty history persists nothing")

	b.SetToken("forum:q=cats", true)
	require.NoError(t, b.Persist(store))

	token, err = Restore(store)
	require.NoError(t, err)
	assert.Equal(t, "forum:q=cats", token)
}

// The browser drives an orchestrator the way the terminal UI does: history
// back and forward resolve tokens into stack changes without feedback
// writes.
func TestBrowser_DrivesOrchestrator(t *testing.T) {
	topic := &storage.Message{ID: 42, Kind: storage.KindTopic, Title: "Cats"}
	exec := executorFunc(func(_ context.Context, c criteria.Criteria) (*search.ResultPage, error) {
		return &search.ResultPage{Items: []*storage.Message{topic}, TotalCount: 1}, nil
	})

	b := NewBrowser(10, view)
	session := navigation.NewSession(b, "forum:", view)
	o := navigation.NewOrchestrator(session, exec, nopView{})
	ctx := context.Background()
	b.Subscribe(func(token string) {
		require.NoError(t, o.HandleTokenChange(ctx, token))
	})

	require.NoError(t, o.Open(ctx, ""))
	o.Wait()
	require.NoError(t, o.Request(ctx, navigation.BrowseInto(topic), false))
	o.Wait()
	require.Equal(t, 2, b.Len())

	_, ok := b.Back()
	require.True(t, ok)
	o.Wait()
	assert.Equal(t, 1, session.Snapshot().Len())

	_, ok = b.Forward()
	require.True(t, ok)
	o.Wait()
	top, _ := session.Snapshot().Top()
	m, isReply := top.Message()
	require.True(t, isReply, "forward must resolve the message from the last page")
	assert.Equal(t, "Cats", m.Title)

	entries, pos := b.Entries()
	assert.Len(t, entries, 2, "history navigation must not write tokens back")
	assert.Equal(t, 1, pos)
}

type executorFunc func(ctx context.Context, c criteria.Criteria) (*search.ResultPage, error)

func (f executorFunc) Execute(ctx context.Context, c criteria.Criteria) (*search.ResultPage, error) {
	return f(ctx, c)
}

type nopView struct{}

func (nopView) SetEnabled(bool) {}
func (nopView) MirrorCriteria(criteria.Criteria) {}
func (nopView) ShowResults(navigation.Snapshot, *search.ResultPage) {}
func (nopView) ShowNotice(navigation.Notice) {}
func (nopView) ShowError(error) {}
