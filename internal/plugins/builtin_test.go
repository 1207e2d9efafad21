package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscourseSource(t *testing.T) {
	s := DiscourseSource{}
	ctx := context.Background()

	tests := []struct {
		name        string
		url         string
		wantFeed    string
		wantTitle   string
		wantSection string
	}{
		{
			name:        "topic",
			url:         "https://meta.discourse.org/t/welcome-to-meta/12345",
			wantFeed:    "https://meta.discourse.org/t/welcome-to-meta/12345.rss",
			wantTitle:   "Welcome To Meta",
			wantSection: "meta.discourse.org",
		},
		{
			name:        "post permalink",
			url:         "https://meta.discourse.org/t/welcome-to-meta/12345/7?u=someone",
			wantFeed:    "https://meta.discourse.org/t/welcome-to-meta/12345.rss",
			wantTitle:   "Welcome To Meta",
			wantSection: "meta.discourse.org",
		},
		{
			name:        "category",
			url:         "https://forum.golangbridge.org/c/getting-help/8",
			wantFeed:    "https://forum.golangbridge.org/c/getting-help/8.rss",
			wantTitle:   "Getting Help",
			wantSection: "Getting Help",
		},
		{
			name:        "latest",
			url:         "https://forum.golangbridge.org/latest",
			wantFeed:    "https://forum.golangbridge.org/latest.rss",
			wantTitle:   "Latest on forum.golangbridge.org",
			wantSection: "forum.golangbridge.org",
		},
		{
			name:        "already a feed",
			url:         "https://forum.golangbridge.org/latest.rss",
			wantFeed:    "https://forum.golangbridge.org/latest.rss",
			wantTitle:   "Latest on forum.golangbridge.org",
			wantSection: "forum.golangbridge.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, s.CanHandle(tt.url))
			feed, err := s.Resolve(ctx, tt.url, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFeed, feed.FeedURL)
			assert.Equal(t, tt.wantTitle, feed.Title)
			assert.Equal(t, tt.wantSection, feed.Section)
		})
	}

	assert.False(t, s.CanHandle("https://forum.test/viewforum.php?f=2"))
	assert.False(t, s.CanHandle("https://blog.test/2024/01/post"))
}

func TestPhpBBSource(t *testing.T) {
	s := PhpBBSource{}
	ctx := context.Background()

	tests := []struct {
		name     string
		url      string
		wantFeed string
		handled  bool
	}{
		{name: "forum view", url: "https://www.phpbb.com/community/viewforum.php?f=46", wantFeed: "https://www.phpbb.com/community/feed.php?f=46", handled: true},
		{name: "topic view", url: "https://forum.test/viewtopic.php?t=99&start=20", wantFeed: "https://forum.test/feed.php?t=99", handled: true},
		{name: "forum view without id", url: "https://forum.test/viewforum.php", handled: false},
		{name: "index", url: "https://forum.test/index.php", handled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.handled, s.CanHandle(tt.url))
			if !tt.handled {
				return
			}
			feed, err := s.Resolve(ctx, tt.url, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFeed, feed.FeedURL)
		})
	}
}

func TestDefaultRules(t *testing.T) {
	rules, err := DefaultRules()
	require.NoError(t, err)
	require.NotEmpty(t, rules)
	for _, r := range rules {
		_, err := NewRuleSource(r)
		assert.NoError(t, err, r.Name)
	}
}

func TestRuleSource_Resolve(t *testing.T) {
	reg := NewRegistry(time.Second)
	RegisterBuiltins(reg)
	require.NoError(t, RegisterRules(reg, ""))
	ctx := context.Background()

	tests := []struct {
		url         string
		wantRule    string
		wantFeed    string
		wantSection string
	}{
		{"https://lobste.rs/t/go", "lobsters-tag", "https://lobste.rs/t/go.rss", "Lobsters"},
		{"https://news.ycombinator.com/", "hacker-news", "https://news.ycombinator.com/rss", "Hacker News"},
		{"https://unix.stackexchange.com/questions/tagged/bash", "stackexchange-tag", "https://unix.stackexchange.com/feeds/tag/bash", "unix.stackexchange.com"},
		// Lemmy communities look like Discourse categories; the rule wins.
		{"https://lemmy.ml/c/golang", "lemmy-community", "https://lemmy.ml/feeds/c/golang.xml", "lemmy.ml"},
	}

	for _, tt := range tests {
		t.Run(tt.wantRule, func(t *testing.T) {
			feed, err := reg.Resolve(ctx, tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRule, feed.Metadata["rule"])
			assert.Equal(t, tt.wantFeed, feed.FeedURL)
			assert.Equal(t, tt.wantSection, feed.Section)
		})
	}
}

func TestRegisterRules_UserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.toml")
	content := `
[[source]]
name = "hacker-news"
match = '^https?://news\.ycombinator\.com/best$'
feed = "https://news.ycombinator.com/bestrss"
title = "HN best"

[[source]]
name = "my-forum"
match = '^https://forum\.mine\.test/board/(\d+)$'
feed = "https://forum.mine.test/rss/$1"
section = "Mine"
priority = 90
colour = "blue"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	reg := NewRegistry(time.Second)
	require.NoError(t, RegisterRules(reg, path))
	ctx := context.Background()

	feed, err := reg.Resolve(ctx, "https://forum.mine.test/board/3")
	require.NoError(t, err)
	assert.Equal(t, "https://forum.mine.test/rss/3", feed.FeedURL)
	assert.Equal(t, "Mine", feed.Section)

	// The user rule replaced the embedded one of the same name.
	assert.Nil(t, reg.FindSource("https://news.ycombinator.com/"))
	feed, err = reg.Resolve(ctx, "https://news.ycombinator.com/best")
	require.NoError(t, err)
	assert.Equal(t, "HN best", feed.Title)
	assert.Equal(t, defaultRulePriority, reg.FindSource("https://news.ycombinator.com/best").Priority())
}

func TestRegisterRules_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[source]]\nname = \"bad\"\nmatch = '('\nfeed = \"x\"\n"), 0o600))
	assert.Error(t, RegisterRules(NewRegistry(time.Second), path))

	require.NoError(t, os.WriteFile(path, []byte("not toml ="), 0o600))
	assert.Error(t, RegisterRules(NewRegistry(time.Second), path))

	rules, err := LoadRules(filepath.Join(t.TempDir(), "missing.toml"))
	assert.NoError(t, err)
	assert.Empty(t, rules)
}
