package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/storage"
)

// BleveEngine executes criteria against a bleve index of the store.
// Hits are reloaded from the store so pages always carry current data.
type BleveEngine struct {
	store    *storage.Store
	idx      bleve.Index
	pageSize int
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes current data.
func NewBleveEngine(store *storage.Store, indexPath string, pageSize int) (*BleveEngine, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	// Try open first
	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &BleveEngine{store: store, idx: idx, pageSize: pageSize}
	// Initial load
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = false
	title.IncludeTermVectors = true

	body := bleve.NewTextFieldMapping()
	body.Analyzer = standard.Name
	body.Store = false
	body.IncludeTermVectors = false

	// Exact-match fields used for structural filters
	for _, name := range []string{"kind", "parent_id", "topic_id", "author_id", "author_login"} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = false
		f.IncludeInAll = false
		dm.AddFieldMappingsAt(name, f)
	}

	created := bleve.NewDateTimeFieldMapping()
	created.DocValues = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("body", body)
	dm.AddFieldMappingsAt("created", created)

	im.DefaultMapping = dm
	return im
}

func docID(id criteria.MessageID) string { return "msg:" + strconv.FormatInt(int64(id), 10) }

func parseDocID(s string) (criteria.MessageID, bool) {
	n, err := strconv.ParseInt(strings.TrimPrefix(s, "msg:"), 10, 64)
	if err != nil || !strings.HasPrefix(s, "msg:") {
		return criteria.NoMessage, false
	}
	return criteria.MessageID(n), true
}

func document(m *storage.Message) map[string]any {
	return map[string]any{
		"kind":         m.Kind.String(),
		"parent_id":    strconv.FormatInt(int64(m.ParentID), 10),
		"topic_id":     strconv.FormatInt(int64(m.TopicID), 10),
		"author_id":    strconv.FormatInt(int64(m.AuthorID), 10),
		"author_login": strings.ToLower(m.AuthorLogin),
		"title":        m.Title,
		"body":         m.Body,
		"created":      m.Created,
	}
}

func (b *BleveEngine) reindexAll() error {
	messages, err := b.store.AllMessages()
	if err != nil {
		return err
	}

	batch := b.idx.NewBatch()
	for _, m := range messages {
		if err := batch.Index(docID(m.ID), document(m)); err != nil {
			return fmt.Errorf("indexing message %d: %w", m.ID, err)
		}
	}
	return b.idx.Batch(batch)
}

func keywordQuery(field, value string) bleveQuery.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func idTerm(id criteria.MessageID) string { return strconv.FormatInt(int64(id), 10) }

// buildQuery translates c into a bleve query. The structure mirrors
// Engine.candidates so both executors agree on what a criteria addresses.
func buildQuery(c criteria.Criteria) bleveQuery.Query {
	var must []bleveQuery.Query

	switch {
	case c.BaseMessageID == criteria.RootMessage:
		must = append(must, keywordQuery("parent_id", idTerm(criteria.NoMessage)))
	case c.BrowsesMessage():
		if c.OnlyThisMessage {
			must = append(must, bleve.NewDocIDQuery([]string{docID(c.BaseMessageID)}))
		} else {
			must = append(must, keywordQuery("parent_id", idTerm(c.BaseMessageID)))
		}
	default:
		if c.OnlyTopics {
			must = append(must, keywordQuery("kind", storage.KindTopic.String()))
		}
		if c.OnlyInCurrentTopic {
			must = append(must,
				keywordQuery("kind", storage.KindPost.String()),
				keywordQuery("topic_id", idTerm(c.BaseMessageID)))
		}
	}

	if c.AuthorID != criteria.UnknownUser {
		must = append(must, keywordQuery("author_id", strconv.FormatInt(int64(c.AuthorID), 10)))
	}
	if c.AuthorLogin != "" {
		must = append(must, keywordQuery("author_login", strings.ToLower(c.AuthorLogin)))
	}

	if text := textQuery(c.Text); text != nil {
		must = append(must, text)
	}

	if len(must) == 0 {
		return bleve.NewMatchAllQuery()
	}
	return bleve.NewConjunctionQuery(must...)
}

// textQuery builds an OR of per-term matches across title and body with boosts.
func textQuery(text string) bleveQuery.Query {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		// title^4
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("title")
		qt.SetBoost(4.0)
		qs = append(qs, qt)
		qtp := bleve.NewPrefixQuery(tok)
		qtp.SetField("title")
		qtp.SetBoost(3.5)
		qs = append(qs, qtp)
		// body^1
		qb := bleve.NewMatchQuery(tok)
		qb.SetField("body")
		qb.SetBoost(1.0)
		qs = append(qs, qb)
		qbp := bleve.NewPrefixQuery(tok)
		qbp.SetField("body")
		qbp.SetBoost(0.8)
		qs = append(qs, qbp)
	}
	return bleve.NewDisjunctionQuery(qs...)
}

// Execute resolves c into one page of messages.
func (b *BleveEngine) Execute(ctx context.Context, c criteria.Criteria) (*ResultPage, error) {
	offset := c.Page * b.pageSize
	req := bleve.NewSearchRequestOptions(buildQuery(c), b.pageSize, offset, false)

	terms := tokenize(c.Text)
	switch {
	case len(terms) > 0:
		// score order
	case c.BaseMessageID == criteria.RootMessage || c.BrowsesMessage():
		req.SortBy([]string{"created", "_id"})
	default:
		req.SortBy([]string{"-created", "_id"})
	}

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	page := &ResultPage{
		Items:      make([]*storage.Message, 0, len(res.Hits)),
		TotalCount: int(res.Total),
		Offset:     offset,
	}
	if len(terms) > 0 {
		page.Snippets = make(map[criteria.MessageID]string, len(res.Hits))
	}
	scan := &Engine{store: b.store}
	for _, h := range res.Hits {
		id, ok := parseDocID(h.ID)
		if !ok {
			continue
		}
		m, err := b.store.GetMessage(id)
		if errors.Is(err, storage.ErrNotFound) {
			// Index is ahead of the store; drop the stale document.
			debuglog.Debugf("bleve: dropping stale doc %s", h.ID)
			_ = b.idx.Delete(h.ID)
			page.TotalCount--
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading hit %d: %w", id, err)
		}
		page.Items = append(page.Items, m)
		if len(terms) > 0 && m.Body != "" {
			page.Snippets[m.ID] = scan.findBestSnippet(m.Body, terms, 200)
		}
	}
	return page, nil
}

// OnMessageSaved indexes the provided message.
func (b *BleveEngine) OnMessageSaved(msg *storage.Message) {
	if msg == nil {
		return
	}
	if err := b.idx.Index(docID(msg.ID), document(msg)); err != nil {
		debuglog.Warnf("bleve: indexing message %d: %v", msg.ID, err)
	}
}

// OnMessageDeleted removes id and every indexed descendant of it.
func (b *BleveEngine) OnMessageDeleted(id criteria.MessageID) {
	queue := []criteria.MessageID{id}
	batch := b.idx.NewBatch()
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		batch.Delete(docID(next))

		from := 0
		size := 1000
		for {
			req := bleve.NewSearchRequestOptions(keywordQuery("parent_id", idTerm(next)), size, from, false)
			res, err := b.idx.Search(req)
			if err != nil || res == nil || len(res.Hits) == 0 {
				break
			}
			for _, h := range res.Hits {
				if child, ok := parseDocID(h.ID); ok {
					queue = append(queue, child)
				}
			}
			if len(res.Hits) < size {
				break
			}
			from += size
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		debuglog.Warnf("bleve: deleting subtree of %d: %v", id, err)
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
