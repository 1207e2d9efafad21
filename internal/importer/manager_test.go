package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/storage"
	"github.com/pders01/fora/internal/validation"
)

const thirdItem = `
  <item>
    <title>Third</title>
    <guid>g3</guid>
    <pubDate>Wed, 03 Jan 2024 10:00:00 GMT</pubDate>
    <description>third body</description>
    <dc:creator>alice</dc:creator>
  </item>
</channel>`

// feedServer serves rssFixture at /feed.xml with an ETag that changes
// whenever the body does.
type feedServer struct {
	mu   sync.Mutex
	body string
	etag string
	hits int
}

func (s *feedServer) set(body, etag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body, s.etag = body, etag
}

func (s *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++
	if r.URL.Path != "/feed.xml" {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("If-None-Match") == s.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", s.etag)
	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(s.body))
}

type recordingListener struct {
	mu    sync.Mutex
	saved []*storage.Message
}

func (l *recordingListener) OnMessageSaved(msg *storage.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.saved = append(l.saved, msg)
}

func newTestManager(t *testing.T) (*Manager, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := NewManager(store, config.TestConfig())
	m.SetPermissiveValidation(true)
	return m, store
}

func TestManager_Import(t *testing.T) {
	srv := &feedServer{body: rssFixture, etag: `"v1"`}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	m, store := newTestManager(t)
	listener := &recordingListener{}
	m.SetListener(listener)
	ctx := context.Background()

	res, err := m.Import(ctx, "Go", ts.URL+"/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.False(t, res.NotModified)
	assert.Equal(t, "Go", res.Section.Title)
	assert.Equal(t, "Gophers", res.Topic.Title)
	assert.Equal(t, 2, res.Topic.ReplyCount)
	assert.Equal(t, `"v1"`, res.Topic.ETag)
	assert.Len(t, listener.saved, 4, "section, topic and two posts")

	posts, err := store.Children(res.Topic.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "First", posts[0].Title)
	assert.Equal(t, "alice", posts[0].AuthorLogin)
	assert.NotEqual(t, criteria.UnknownUser, posts[0].AuthorID)
	assert.Equal(t, res.Topic.ID, posts[1].TopicID)

	t.Run("unchanged feed is not modified", func(t *testing.T) {
		again, err := m.Import(ctx, "Go", ts.URL+"/feed.xml")
		require.NoError(t, err)
		assert.True(t, again.NotModified)
		assert.Equal(t, res.Topic.ID, again.Topic.ID)
		assert.Equal(t, 0, again.Added)
	})

	t.Run("new items only", func(t *testing.T) {
		srv.set(strings.Replace(rssFixture, "</channel>", thirdItem, 1), `"v2"`)
		again, err := m.Refresh(ctx, res.Topic.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, again.Added)
		assert.Equal(t, 3, again.Topic.ReplyCount)
		assert.Equal(t, `"v2"`, again.Topic.ETag)
	})

	t.Run("force refresh adds nothing twice", func(t *testing.T) {
		m.SetForceRefresh(true)
		defer m.SetForceRefresh(false)
		again, err := m.Import(ctx, "", ts.URL+"/feed.xml")
		require.NoError(t, err)
		assert.False(t, again.NotModified)
		assert.Equal(t, 0, again.Added)
	})

	sections, err := store.Children(criteria.NoMessage)
	require.NoError(t, err)
	assert.Len(t, sections, 1)
}

func TestManager_ImportReusesSectionCaseInsensitively(t *testing.T) {
	ts := httptest.NewServer(&feedServer{body: rssFixture, etag: `"v1"`})
	defer ts.Close()

	m, store := newTestManager(t)
	require.NoError(t, store.SaveMessage(&storage.Message{Kind: storage.KindSection, Title: "Go"}))

	res, err := m.Import(context.Background(), "go", ts.URL+"/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, "Go", res.Section.Title)

	sections, err := store.Children(criteria.NoMessage)
	require.NoError(t, err)
	assert.Len(t, sections, 1)
}

func TestManager_ImportDefaultsSectionToHost(t *testing.T) {
	ts := httptest.NewServer(&feedServer{body: rssFixture, etag: `"v1"`})
	defer ts.Close()

	m, _ := newTestManager(t)
	res, err := m.Import(context.Background(), "", ts.URL+"/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimPrefix(ts.URL, "http://"), res.Section.Title)
}

func TestManager_ImportRejectsUnsafeURLs(t *testing.T) {
	m, _ := newTestManager(t)
	m.SetPermissiveValidation(false)

	_, err := m.Import(context.Background(), "Go", "http://127.0.0.1:9/feed.xml")
	assert.ErrorIs(t, err, validation.ErrInvalidURL)

	_, err = m.Import(context.Background(), "Go", "ftp://forum.example.org/feed")
	assert.ErrorIs(t, err, validation.ErrInvalidURL)
}

func TestManager_ImportAll(t *testing.T) {
	srv := &feedServer{body: rssFixture, etag: `"v1"`}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	m, store := newTestManager(t)
	results, err := m.ImportAll(context.Background(), "Go", []string{
		ts.URL + "/feed.xml",
		ts.URL + "/missing.xml",
	})

	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)

	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Added)

	all, err := store.AllMessages()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestManager_RefreshAll(t *testing.T) {
	m, _ := newTestManager(t)
	results, err := m.RefreshAll(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, results, "nothing imported yet")

	ts := httptest.NewServer(&feedServer{body: rssFixture, etag: `"v1"`})
	defer ts.Close()
	_, err = m.Import(context.Background(), "Go", ts.URL+"/feed.xml")
	require.NoError(t, err)

	results, err = m.RefreshAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].NotModified)
}

func TestManager_RefreshRejectsNonImportedTopic(t *testing.T) {
	m, store := newTestManager(t)
	section := &storage.Message{Kind: storage.KindSection, Title: "Local"}
	require.NoError(t, store.SaveMessage(section))

	_, err := m.Refresh(context.Background(), section.ID)
	assert.Error(t, err)
}

func TestNewManager_RegistersSources(t *testing.T) {
	m, _ := newTestManager(t)
	names := map[string]bool{}
	for _, s := range m.Registry().Sources() {
		names[s.Name()] = true
	}
	for _, want := range []string{"discourse", "phpbb", "subreddit", "hacker-news"} {
		assert.True(t, names[want], want)
	}
}
