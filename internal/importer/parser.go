package importer

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one feed item, ready to become a post.
type Entry struct {
	GUID    string
	Title   string
	Body    string
	Author  string
	Link    string
	Created time.Time
}

// Key identifies the entry across fetches.
func (e Entry) Key() string {
	if e.GUID != "" {
		return e.GUID
	}
	return e.Link
}

// ParsedFeed is a feed reduced to what the forum tree stores.
type ParsedFeed struct {
	Title       string
	Description string
	Link        string
	Entries     []Entry
}

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

// Parse reads an RSS, Atom or JSON feed. Entries come back oldest first so
// that stored post ids follow the thread order.
func (p *Parser) Parse(r io.Reader) (*ParsedFeed, error) {
	feed, err := p.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	out := &ParsedFeed{
		Title:       strings.TrimSpace(feed.Title),
		Description: toText(feed.Description),
		Link:        feed.Link,
		Entries:     make([]Entry, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		e := Entry{
			GUID:   item.GUID,
			Title:  strings.TrimSpace(html.UnescapeString(item.Title)),
			Body:   toText(content(item)),
			Author: author(item),
			Link:   item.Link,
		}
		switch {
		case item.PublishedParsed != nil:
			e.Created = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			e.Created = *item.UpdatedParsed
		}
		if e.Key() == "" {
			continue
		}
		out.Entries = append(out.Entries, e)
	}

	// Feeds list newest first.
	for i, j := 0, len(out.Entries)-1; i < j; i, j = i+1, j-1 {
		out.Entries[i], out.Entries[j] = out.Entries[j], out.Entries[i]
	}
	return out, nil
}

func content(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func author(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	if dc := item.DublinCoreExt; dc != nil && len(dc.Creator) > 0 {
		return dc.Creator[0]
	}
	return ""
}

var (
	blockTags  = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li|/h[1-6]|/blockquote|/pre)\s*/?>`)
	anyTag     = regexp.MustCompile(`<[^>]*>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// toText flattens post HTML to plain paragraphs for the reader.
func toText(s string) string {
	s = blockTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
