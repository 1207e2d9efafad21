package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/storage"
)

func custom(text string, page int) Element {
	return NewSearch(criteria.Criteria{Text: text, Page: page})
}

func reply(id criteria.MessageID, kind MessageKind, page int) Element {
	return NewReply(criteria.Replies(id).WithPage(page), MessageContext{ID: id, Title: "msg", Kind: kind})
}

func TestElementEquality(t *testing.T) {
	tests := []struct {
		name         string
		a, b         Element
		exact, relax bool
	}{
		{"same search", custom("cats", 1), custom("cats", 1), true, true},
		{"search pages differ", custom("cats", 1), custom("cats", 2), false, true},
		{"different text", custom("cats", 0), custom("dogs", 0), false, false},
		{"same reply", reply(42, KindTopic, 0), reply(42, KindTopic, 0), true, true},
		{"reply pages differ", reply(42, KindTopic, 1), reply(42, KindTopic, 2), false, true},
		{"reply vs search with same criteria", reply(42, KindTopic, 0), NewSearch(criteria.Replies(42)), false, false},
		{"title does not matter", reply(42, KindTopic, 0), NewReply(criteria.Replies(42), MessageContext{ID: 42, Title: "other"}), true, true},
		{"root", RootElement(), NewSearch(criteria.Root()), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.exact, ExactEqual(tt.a, tt.b))
			assert.Equal(t, tt.exact, ExactEqual(tt.b, tt.a))
			assert.Equal(t, tt.relax, PageRelaxedEqual(tt.a, tt.b))
		})
	}
}

func TestElementPayload(t *testing.T) {
	e := reply(7, KindSection, 0)
	assert.True(t, e.IsReply())
	m, ok := e.Message()
	assert.True(t, ok)
	assert.Equal(t, criteria.MessageID(7), m.ID)

	s := custom("x", 0)
	assert.False(t, s.IsReply())
	_, ok = s.Message()
	assert.False(t, ok)

	// The zero element is a search.
	assert.False(t, Element{}.IsReply())
}

func TestElementWithPageDoesNotEdit(t *testing.T) {
	e := custom("cats", 0)
	next := e.WithPage(3)
	assert.Equal(t, 0, e.Criteria.Page)
	assert.Equal(t, 3, next.Criteria.Page)
	assert.True(t, PageRelaxedEqual(e, next))
}

func TestElementLabel(t *testing.T) {
	assert.Equal(t, "Forum", RootElement().Label())
	assert.Equal(t, "Forum (page 2)", RootElement().WithPage(1).Label())
	assert.Equal(t, `Search: "cats"`, custom("cats", 0).Label())
	assert.Equal(t, "General", NewReply(criteria.Replies(1), MessageContext{ID: 1, Title: "General"}).Label())
	assert.Equal(t, "General (page 3)", NewReply(criteria.Replies(1).WithPage(2), MessageContext{ID: 1, Title: "General"}).Label())
	assert.Equal(t, "topic #9", NewReply(criteria.Replies(9), MessageContext{ID: 9, Kind: KindTopic}).Label())
}

func TestBrowseInto(t *testing.T) {
	m := &storage.Message{ID: 5, Kind: storage.KindTopic, Title: "Welcome"}
	e := BrowseInto(m)
	ctx, ok := e.Message()
	assert.True(t, ok)
	assert.Equal(t, MessageContext{ID: 5, Title: "Welcome", Kind: KindTopic}, ctx)
	assert.True(t, e.Criteria.BrowsesMessage())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSection, KindOf(storage.KindSection))
	assert.Equal(t, KindTopic, KindOf(storage.KindTopic))
	assert.Equal(t, KindPost, KindOf(storage.KindPost))
}
