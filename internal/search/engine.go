package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/storage"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 20

// Match represents where text was found
type Match struct {
	Field  string // "title", "body"
	Text   string // matched text snippet
	Weight float64
}

type scored struct {
	msg     *storage.Message
	score   float64
	matches []Match
}

// Engine executes criteria by scanning the store. It needs no index and
// suits small forums; BleveEngine covers larger ones.
type Engine struct {
	store    *storage.Store
	pageSize int
}

// NewEngine creates a new scanning search engine
func NewEngine(store *storage.Store, pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{store: store, pageSize: pageSize}
}

// Execute resolves c into one page of messages.
func (e *Engine) Execute(ctx context.Context, c criteria.Criteria) (*ResultPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err := e.candidates(c)
	if err != nil {
		return nil, err
	}

	terms := tokenize(c.Text)
	var hits []scored
	for _, m := range candidates {
		if !matchesAuthor(m, c) {
			continue
		}
		if len(terms) == 0 {
			hits = append(hits, scored{msg: m})
			continue
		}
		if s := e.scoreMessage(m, terms); s.score > 0 {
			hits = append(hits, s)
		}
	}

	switch {
	case len(terms) > 0:
		// Sort by relevance score (highest first)
		sort.SliceStable(hits, func(i, j int) bool {
			return hits[i].score > hits[j].score
		})
	case !c.BrowsesMessage() && c.BaseMessageID != criteria.RootMessage:
		// Plain filtered listing: newest first.
		sort.SliceStable(hits, func(i, j int) bool {
			return hits[i].msg.Created.After(hits[j].msg.Created)
		})
	}

	all := make([]*storage.Message, len(hits))
	for i, h := range hits {
		all[i] = h.msg
	}
	page := paginate(all, c.Page, e.pageSize)
	if len(terms) > 0 && len(page.Items) > 0 {
		page.Snippets = make(map[criteria.MessageID]string, len(page.Items))
		for _, h := range hits[page.Offset : page.Offset+len(page.Items)] {
			if len(h.matches) > 0 {
				page.Snippets[h.msg.ID] = h.matches[len(h.matches)-1].Text
			}
		}
	}
	return page, nil
}

// candidates narrows the store down to the messages c can address before
// any text or author filtering.
func (e *Engine) candidates(c criteria.Criteria) ([]*storage.Message, error) {
	switch {
	case c.BaseMessageID == criteria.RootMessage:
		return e.store.Children(criteria.NoMessage)
	case c.BrowsesMessage():
		if c.OnlyThisMessage {
			m, err := e.store.GetMessage(c.BaseMessageID)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("loading message: %w", err)
			}
			return []*storage.Message{m}, nil
		}
		return e.store.Children(c.BaseMessageID)
	}

	all, err := e.store.AllMessages()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	out := all[:0]
	for _, m := range all {
		if c.OnlyTopics && m.Kind != storage.KindTopic {
			continue
		}
		if c.OnlyInCurrentTopic && (m.Kind != storage.KindPost || m.TopicID != c.BaseMessageID) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func matchesAuthor(m *storage.Message, c criteria.Criteria) bool {
	if c.AuthorID != criteria.UnknownUser && m.AuthorID != c.AuthorID {
		return false
	}
	if c.AuthorLogin != "" && !strings.EqualFold(m.AuthorLogin, c.AuthorLogin) {
		return false
	}
	return true
}

// scoreMessage searches within a message's title and body
func (e *Engine) scoreMessage(m *storage.Message, terms []string) scored {
	res := scored{msg: m}

	// Search title (highest weight)
	if titleScore := e.scoreField(m.Title, terms, 4.0); titleScore > 0 {
		res.matches = append(res.matches, Match{
			Field:  "title",
			Text:   m.Title,
			Weight: titleScore,
		})
		res.score += titleScore
	}

	// Search body (medium weight)
	if bodyScore := e.scoreField(m.Body, terms, 1.0); bodyScore > 0 {
		snippet := e.findBestSnippet(m.Body, terms, 200)
		res.matches = append(res.matches, Match{
			Field:  "body",
			Text:   snippet,
			Weight: bodyScore,
		})
		res.score += bodyScore
	}

	// Topics are what a searcher usually wants to land on.
	if m.Kind == storage.KindTopic {
		res.score *= 1.1
	}
	return res
}

// scoreField calculates relevance score for a field
func (e *Engine) scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		// Exact phrase match (highest score)
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		// Word boundary matches (medium score)
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, term):
				score += 0.5
				matchedTerms++
			}
		}
	}

	// Boost score if multiple terms match
	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	// Apply TF-IDF-like scoring
	tf := float64(matchedTerms) / float64(len(words))
	score *= (1.0 + math.Log(1.0+tf))

	return score * weight
}

// findBestSnippet finds the most relevant text snippet containing search terms
func (e *Engine) findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	bestScore := 0.0
	bestStart := 0
	windowSize := maxLength / 8 // Approximate words in snippet

	if windowSize > len(words) {
		return truncate(text, maxLength)
	}

	// Sliding window to find best snippet
	for i := 0; i <= len(words)-windowSize; i++ {
		windowText := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0.0

		for _, term := range terms {
			if strings.Contains(windowText, term) {
				score += 1.0
			}
		}

		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	snippet := strings.Join(words[bestStart:bestStart+windowSize], " ")
	return truncate(snippet, maxLength)
}

// tokenize breaks text into lower-cased searchable terms
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len([]rune(term)) > 1 { // Skip single chars
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if term := current.String(); len([]rune(term)) > 1 {
		terms = append(terms, term)
	}

	return terms
}

// truncate limits text length with ellipsis
func truncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-1]) + "…"
}
