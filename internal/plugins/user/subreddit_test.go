package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fora/internal/plugins"
)

func TestSubredditSource_CanHandle(t *testing.T) {
	s := NewSubredditSource()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{name: "subreddit", url: "https://www.reddit.com/r/golang", expected: true},
		{name: "without www", url: "https://reddit.com/r/programming", expected: true},
		{name: "old reddit", url: "https://old.reddit.com/r/golang/", expected: true},
		{name: "comment thread", url: "https://www.reddit.com/r/golang/comments/abc123/generics_are_here/", expected: true},
		{name: "user page", url: "https://www.reddit.com/user/someone", expected: false},
		{name: "lookalike host", url: "https://notreddit.com/r/golang", expected: false},
		{name: "other site", url: "https://forum.golangbridge.org/r/golang", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.CanHandle(tt.url))
		})
	}
}

func TestSubredditSource_Resolve(t *testing.T) {
	s := NewSubredditSource()
	ctx := context.Background()

	tests := []struct {
		name        string
		url         string
		wantFeed    string
		wantTitle   string
		wantSection string
	}{
		{
			name:        "subreddit listing",
			url:         "https://reddit.com/r/golang/",
			wantFeed:    "https://www.reddit.com/r/golang.rss",
			wantTitle:   "r/golang",
			wantSection: "r/golang",
		},
		{
			name:        "already a feed",
			url:         "https://www.reddit.com/r/golang.rss",
			wantFeed:    "https://www.reddit.com/r/golang.rss",
			wantTitle:   "r/golang",
			wantSection: "r/golang",
		},
		{
			name:        "comment thread",
			url:         "https://old.reddit.com/r/golang/comments/abc123/generics_are_here/?sort=new",
			wantFeed:    "https://www.reddit.com/r/golang/comments/abc123/generics_are_here.rss",
			wantTitle:   "generics are here",
			wantSection: "r/golang",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed, err := s.Resolve(ctx, tt.url, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.url, feed.OriginalURL)
			assert.Equal(t, tt.wantFeed, feed.FeedURL)
			assert.Equal(t, tt.wantTitle, feed.Title)
			assert.Equal(t, tt.wantSection, feed.Section)
			assert.Equal(t, "golang", feed.Metadata["subreddit"])
		})
	}

	_, err := s.Resolve(ctx, "https://www.reddit.com/user/someone", nil)
	assert.Error(t, err)
}

func TestSubredditSource_BeatsRulesInRegistry(t *testing.T) {
	reg := plugins.NewRegistry(5 * time.Second)
	plugins.RegisterBuiltins(reg)
	require.NoError(t, plugins.RegisterRules(reg, ""))
	reg.Register(NewSubredditSource())

	src := reg.FindSource("https://www.reddit.com/r/golang")
	require.NotNil(t, src)
	assert.Equal(t, "subreddit", src.Name())

	feed, err := reg.Resolve(context.Background(), "https://www.reddit.com/r/golang")
	require.NoError(t, err)
	assert.Equal(t, "subreddit", feed.Metadata["source"])
}
