// Package plugins turns the URL of a forum page into the RSS or Atom feed
// the importer can read.
package plugins

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// ForumFeed describes where to fetch a forum page's feed and how to file
// it in the local tree.
type ForumFeed struct {
	// OriginalURL is the page the user asked for.
	OriginalURL string
	FeedURL     string
	// Title names the topic created for the feed. Empty lets the importer
	// use the feed's own title.
	Title string
	// Section is the suggested section when the caller names none.
	Section  string
	Metadata map[string]string
}

// Source resolves URLs for one kind of forum software or site.
type Source interface {
	Name() string

	// CanHandle reports whether url belongs to this source.
	CanHandle(url string) bool

	// Resolve maps url to its feed. It may use client for discovery.
	Resolve(ctx context.Context, url string, client *http.Client) (*ForumFeed, error)

	// Priority breaks ties when several sources handle the same URL;
	// higher wins.
	Priority() int
}

type Registry struct {
	sources []Source
	client  *http.Client
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		client: &http.Client{Timeout: timeout},
	}
}

func (r *Registry) Register(s Source) {
	r.sources = append(r.sources, s)
}

// FindSource returns the highest priority source that handles url, or nil.
// Ties go to the source registered first.
func (r *Registry) FindSource(url string) Source {
	var best Source
	for _, s := range r.sources {
		if s.CanHandle(url) && (best == nil || s.Priority() > best.Priority()) {
			best = s
		}
	}
	return best
}

// Resolve maps url through the best source. URLs no source claims are
// taken to be feeds already.
func (r *Registry) Resolve(ctx context.Context, url string) (*ForumFeed, error) {
	s := r.FindSource(url)
	if s == nil {
		return &ForumFeed{
			OriginalURL: url,
			FeedURL:     url,
			Metadata:    map[string]string{},
		}, nil
	}
	feed, err := s.Resolve(ctx, url, r.client)
	if err != nil {
		return nil, err
	}
	if feed.Metadata == nil {
		feed.Metadata = map[string]string{}
	}
	if _, ok := feed.Metadata["source"]; !ok {
		feed.Metadata["source"] = s.Name()
	}
	return feed, nil
}

// Sources lists the registered sources by descending priority.
func (r *Registry) Sources() []Source {
	out := append([]Source(nil), r.sources...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() > out[j].Priority() })
	return out
}
