// Package user holds sources for sites that are forums in all but name.
package user

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pders01/fora/internal/plugins"
)

// SubredditSource treats a subreddit as a section and its front page or a
// comment thread as a topic.
type SubredditSource struct{}

func NewSubredditSource() *SubredditSource {
	return &SubredditSource{}
}

func (s *SubredditSource) Name() string {
	return "subreddit"
}

func (s *SubredditSource) Priority() int {
	return 50
}

func (s *SubredditSource) CanHandle(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "reddit.com" && host != "old.reddit.com" {
		return false
	}
	parts := pathParts(u.Path)
	return len(parts) >= 2 && parts[0] == "r"
}

// Resolve appends .rss, which reddit serves for both subreddit listings
// and comment threads.
func (s *SubredditSource) Resolve(_ context.Context, raw string, _ *http.Client) (*plugins.ForumFeed, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("subreddit: %w", err)
	}
	parts := pathParts(strings.TrimSuffix(u.Path, ".rss"))
	if len(parts) < 2 || parts[0] != "r" {
		return nil, fmt.Errorf("subreddit: %s is not a subreddit URL", raw)
	}
	sub := parts[1]

	feed := &plugins.ForumFeed{
		OriginalURL: raw,
		Section:     "r/" + sub,
		Title:       "r/" + sub,
		Metadata:    map[string]string{"subreddit": sub},
	}
	if len(parts) >= 4 && parts[2] == "comments" {
		feed.Metadata["thread"] = parts[3]
		if len(parts) >= 5 {
			feed.Title = strings.ReplaceAll(parts[4], "_", " ")
		}
	}

	feedURL := *u
	feedURL.Host = "www.reddit.com"
	feedURL.Path = "/" + strings.Join(parts, "/") + ".rss"
	feedURL.RawQuery = ""
	feedURL.Fragment = ""
	feed.FeedURL = feedURL.String()
	return feed, nil
}

func pathParts(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
}
