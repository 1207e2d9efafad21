package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/storage"
)

type fixture struct {
	store                *storage.Store
	general, offTopic    *storage.Message
	welcome, rules       *storage.Message
	hello, reHello, rule *storage.Message
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(n int) time.Time { return t0.Add(time.Duration(n) * time.Minute) }

	f := &fixture{store: store}
	save := func(m *storage.Message) *storage.Message {
		require.NoError(t, store.SaveMessage(m))
		return m
	}
	f.general = save(&storage.Message{Kind: storage.KindSection, Title: "General", Created: at(0)})
	f.offTopic = save(&storage.Message{Kind: storage.KindSection, Title: "Off-topic", Created: at(1)})
	f.welcome = save(&storage.Message{Kind: storage.KindTopic, ParentID: f.general.ID, Title: "Welcome to fora", AuthorID: 1, AuthorLogin: "alice", Created: at(2)})
	f.rules = save(&storage.Message{Kind: storage.KindTopic, ParentID: f.general.ID, Title: "Rules", AuthorID: 2, AuthorLogin: "bob", Created: at(3)})
	f.hello = save(&storage.Message{Kind: storage.KindPost, ParentID: f.welcome.ID, Title: "Hello", Body: "golang is great", AuthorID: 1, AuthorLogin: "alice", Created: at(4)})
	f.reHello = save(&storage.Message{Kind: storage.KindPost, ParentID: f.hello.ID, Title: "Re: Hello", Body: "bleve search rocks with golang", AuthorID: 2, AuthorLogin: "bob", Created: at(5)})
	f.rule = save(&storage.Message{Kind: storage.KindPost, ParentID: f.rules.ID, Title: "Rule one", Body: "be nice", AuthorID: 2, AuthorLogin: "bob", Created: at(6)})
	return f
}

func ids(page *ResultPage) []criteria.MessageID {
	out := make([]criteria.MessageID, 0, len(page.Items))
	for _, m := range page.Items {
		out = append(out, m.ID)
	}
	return out
}

func TestNewEngine(t *testing.T) {
	store := &storage.Store{}
	engine := NewEngine(store, 0)
	assert.NotNil(t, engine)
	assert.Equal(t, store, engine.store)
	assert.Equal(t, DefaultPageSize, engine.pageSize)
}

func TestEngine_Execute(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, 10)

	tests := []struct {
		name     string
		criteria criteria.Criteria
		want     []criteria.MessageID
	}{
		{
			name:     "root lists sections oldest first",
			criteria: criteria.Root(),
			want:     []criteria.MessageID{f.general.ID, f.offTopic.ID},
		},
		{
			name:     "section lists its topics",
			criteria: criteria.Replies(f.general.ID),
			want:     []criteria.MessageID{f.welcome.ID, f.rules.ID},
		},
		{
			name:     "post lists its replies",
			criteria: criteria.Replies(f.hello.ID),
			want:     []criteria.MessageID{f.reHello.ID},
		},
		{
			name:     "only this message",
			criteria: criteria.Criteria{BaseMessageID: f.welcome.ID, OnlyThisMessage: true},
			want:     []criteria.MessageID{f.welcome.ID},
		},
		{
			name:     "missing base yields an empty page",
			criteria: criteria.Replies(999),
			want:     []criteria.MessageID{},
		},
		{
			name:     "only topics newest first",
			criteria: criteria.Criteria{OnlyTopics: true},
			want:     []criteria.MessageID{f.rules.ID, f.welcome.ID},
		},
		{
			name:     "posts in current topic",
			criteria: criteria.Criteria{BaseMessageID: f.welcome.ID, OnlyInCurrentTopic: true},
			want:     []criteria.MessageID{f.reHello.ID, f.hello.ID},
		},
		{
			name:     "author login is case-insensitive",
			criteria: criteria.Criteria{AuthorLogin: "BOB"},
			want:     []criteria.MessageID{f.rule.ID, f.reHello.ID, f.rules.ID},
		},
		{
			name:     "author id",
			criteria: criteria.Criteria{AuthorID: 1, OnlyTopics: true},
			want:     []criteria.MessageID{f.welcome.ID},
		},
		{
			name:     "no match",
			criteria: criteria.Criteria{Text: "haskell"},
			want:     []criteria.MessageID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := engine.Execute(context.Background(), tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page))
			assert.Equal(t, len(tt.want), page.TotalCount)
		})
	}
}

func TestEngine_TextSearch(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, 10)

	page, err := engine.Execute(context.Background(), criteria.Criteria{Text: "golang"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []criteria.MessageID{f.hello.ID, f.reHello.ID}, ids(page))
	assert.Equal(t, "golang is great", page.Snippets[f.hello.ID])

	// Title hits outrank body hits.
	page, err = engine.Execute(context.Background(), criteria.Criteria{Text: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	assert.Equal(t, "Hello", page.Items[0].Title)

	// Text inside a topic scope.
	page, err = engine.Execute(context.Background(), criteria.Criteria{Text: "nice", BaseMessageID: f.welcome.ID, OnlyInCurrentTopic: true})
	require.NoError(t, err)
	assert.True(t, page.Empty())
}

func TestEngine_Pagination(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, 1)

	first, err := engine.Execute(context.Background(), criteria.Root())
	require.NoError(t, err)
	assert.Equal(t, []criteria.MessageID{f.general.ID}, ids(first))
	assert.True(t, first.HasNext())

	second, err := engine.Execute(context.Background(), criteria.Root().WithPage(1))
	require.NoError(t, err)
	assert.Equal(t, []criteria.MessageID{f.offTopic.ID}, ids(second))
	assert.Equal(t, 1, second.Offset)
	assert.False(t, second.HasNext())

	beyond, err := engine.Execute(context.Background(), criteria.Root().WithPage(5))
	require.NoError(t, err)
	assert.True(t, beyond.Empty())
	assert.Equal(t, 2, beyond.TotalCount)
}

func TestEngine_Idempotent(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, 10)
	c := criteria.Criteria{Text: "golang", AuthorLogin: "bob"}

	a, err := engine.Execute(context.Background(), c)
	require.NoError(t, err)
	b, err := engine.Execute(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, ids(a), ids(b))
}

func TestEngine_CanceledContext(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Execute(ctx, criteria.Root())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultPage_Find(t *testing.T) {
	page := &ResultPage{Items: []*storage.Message{{ID: 3, Title: "three"}}}

	m, ok := page.Find(3)
	assert.True(t, ok)
	assert.Equal(t, "three", m.Title)

	_, ok = page.Find(4)
	assert.False(t, ok)

	var nilPage *ResultPage
	_, ok = nilPage.Find(3)
	assert.False(t, ok)
	assert.True(t, nilPage.Empty())
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"a b c", nil},
		{"Go1.22 rocks", []string{"go1", "22", "rocks"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tokenize(tt.input), tt.input)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestNew_SelectsScan(t *testing.T) {
	f := newFixture(t)
	cfg := config.TestConfig()

	exec := New(cfg, f.store)
	engine, ok := exec.(*Engine)
	require.True(t, ok, "expected the scan engine, got %T", exec)
	assert.Equal(t, cfg.Search.PageSize, engine.pageSize)
}
