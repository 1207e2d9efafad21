package search

import (
	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/storage"
)

// ResultPage is one page of an executed query.
type ResultPage struct {
	Items      []*storage.Message
	TotalCount int
	Offset     int
	// Snippets holds the best matching excerpt per message for text queries.
	Snippets map[criteria.MessageID]string
}

// Find returns the message with the given id if it is on this page.
func (p *ResultPage) Find(id criteria.MessageID) (*storage.Message, bool) {
	if p == nil {
		return nil, false
	}
	for _, m := range p.Items {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

func (p *ResultPage) Empty() bool {
	return p == nil || len(p.Items) == 0
}

// HasNext reports whether a further page exists.
func (p *ResultPage) HasNext() bool {
	return p != nil && p.Offset+len(p.Items) < p.TotalCount
}

// paginate cuts page number page out of all.
func paginate(all []*storage.Message, page, pageSize int) *ResultPage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	offset := page * pageSize
	res := &ResultPage{TotalCount: len(all), Offset: offset}
	if offset >= len(all) {
		res.Items = []*storage.Message{}
		return res
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	res.Items = all[offset:end]
	return res
}
