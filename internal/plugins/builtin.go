package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// RegisterBuiltins adds the sources for forum software fora knows natively.
func RegisterBuiltins(r *Registry) {
	r.Register(&DiscourseSource{})
	r.Register(&PhpBBSource{})
}

var (
	discourseTopic    = regexp.MustCompile(`^/t/([^/]+)/(\d+)(?:/\d+)?/?$`)
	discourseCategory = regexp.MustCompile(`^/c/((?:[^/]+/)*[^/]+?)/?$`)
)

// DiscourseSource handles Discourse topic, category and latest pages, all
// of which expose an RSS feed at the same path plus ".rss".
type DiscourseSource struct{}

func (DiscourseSource) Name() string  { return "discourse" }
func (DiscourseSource) Priority() int { return 30 }

func (DiscourseSource) CanHandle(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.TrimSuffix(u.Path, ".rss")
	return path == "/latest" ||
		discourseTopic.MatchString(path) ||
		discourseCategory.MatchString(path)
}

func (DiscourseSource) Resolve(_ context.Context, raw string, _ *http.Client) (*ForumFeed, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("discourse: %w", err)
	}
	path := strings.TrimSuffix(strings.TrimSuffix(u.Path, ".rss"), "/")

	feed := &ForumFeed{
		OriginalURL: raw,
		Section:     u.Host,
		Metadata:    map[string]string{"host": u.Host},
	}

	switch {
	case path == "/latest":
		feed.Title = "Latest on " + u.Host
	case discourseTopic.MatchString(path):
		m := discourseTopic.FindStringSubmatch(path)
		// Post permalinks /t/slug/id/n share the topic feed.
		path = "/t/" + m[1] + "/" + m[2]
		feed.Title = titleFromSlug(m[1])
		feed.Metadata["topic_id"] = m[2]
	default:
		m := discourseCategory.FindStringSubmatch(path)
		parts := strings.Split(m[1], "/")
		slug := parts[0]
		feed.Title = titleFromSlug(slug)
		feed.Section = titleFromSlug(slug)
		feed.Metadata["category"] = slug
	}

	feedURL := *u
	feedURL.Path = path + ".rss"
	feedURL.RawQuery = ""
	feedURL.Fragment = ""
	feed.FeedURL = feedURL.String()
	return feed, nil
}

// PhpBBSource handles phpBB forum and topic views, which publish feeds
// through feed.php with the same id parameter.
type PhpBBSource struct{}

func (PhpBBSource) Name() string  { return "phpbb" }
func (PhpBBSource) Priority() int { return 30 }

func (PhpBBSource) CanHandle(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	q := u.Query()
	switch {
	case strings.HasSuffix(u.Path, "/viewforum.php"):
		return q.Get("f") != ""
	case strings.HasSuffix(u.Path, "/viewtopic.php"):
		return q.Get("t") != ""
	}
	return false
}

func (PhpBBSource) Resolve(_ context.Context, raw string, _ *http.Client) (*ForumFeed, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("phpbb: %w", err)
	}
	q := u.Query()
	feedQuery := url.Values{}
	feed := &ForumFeed{
		OriginalURL: raw,
		Section:     u.Host,
		Metadata:    map[string]string{"host": u.Host},
	}

	if strings.HasSuffix(u.Path, "/viewtopic.php") {
		feedQuery.Set("t", q.Get("t"))
		feed.Metadata["topic_id"] = q.Get("t")
	} else {
		feedQuery.Set("f", q.Get("f"))
		feed.Metadata["forum_id"] = q.Get("f")
	}

	feedURL := *u
	feedURL.Path = strings.TrimSuffix(u.Path, "/viewtopic.php")
	feedURL.Path = strings.TrimSuffix(feedURL.Path, "/viewforum.php") + "/feed.php"
	feedURL.RawQuery = feedQuery.Encode()
	feedURL.Fragment = ""
	feed.FeedURL = feedURL.String()
	return feed, nil
}

func titleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
