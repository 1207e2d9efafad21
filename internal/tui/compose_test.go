package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/storage"
)

func TestComposeForm_Message(t *testing.T) {
	section := navigation.MessageContext{ID: 1, Title: "Go", Kind: navigation.KindSection}
	topic := navigation.MessageContext{ID: 2, Title: "Generics", Kind: navigation.KindTopic}
	author := &storage.User{ID: 7, Login: "carol"}

	tests := []struct {
		name     string
		action   navigation.Action
		parent   navigation.MessageContext
		title    string
		body     string
		wantKind storage.Kind
		wantPID  criteria.MessageID
		wantErr  error
	}{
		{name: "section", action: navigation.ActionNewSection, title: "Python", wantKind: storage.KindSection, wantPID: criteria.NoMessage},
		{name: "section without title", action: navigation.ActionNewSection, wantErr: errEmptyMessage},
		{name: "topic", action: navigation.ActionNewTopic, parent: section, title: "Modules", body: "go.mod", wantKind: storage.KindTopic, wantPID: 1},
		{name: "topic without title", action: navigation.ActionNewTopic, parent: section, body: "text", wantErr: errEmptyMessage},
		{name: "reply", action: navigation.ActionReply, parent: topic, body: "agreed", wantKind: storage.KindPost, wantPID: 2},
		{name: "reply without body", action: navigation.ActionReply, parent: topic, wantErr: errEmptyMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newComposeForm()
			f.open(tt.action, tt.parent)
			if tt.title != "" {
				f.title.SetValue(tt.title)
			} else if tt.action != navigation.ActionReply {
				f.title.SetValue("")
			}
			f.body.SetValue(tt.body)

			msg, err := f.message(author)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, msg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, msg.Kind)
			assert.Equal(t, tt.wantPID, msg.ParentID)
			assert.Equal(t, criteria.UserID(7), msg.AuthorID)
			assert.Equal(t, "carol", msg.AuthorLogin)
		})
	}
}

func TestComposeForm_OpenReply(t *testing.T) {
	f := newComposeForm()
	f.open(navigation.ActionReply, navigation.MessageContext{ID: 2, Title: "Generics"})

	assert.Equal(t, "Re: Generics", f.title.Value())
	assert.True(t, f.bodyFocus)
	assert.True(t, f.body.Focused())
	assert.True(t, f.hasBody())
}

func TestComposeForm_SectionHasNoBody(t *testing.T) {
	f := newComposeForm()
	f.open(navigation.ActionNewSection, navigation.MessageContext{})

	assert.False(t, f.hasBody())
	f.switchFocus()
	assert.False(t, f.bodyFocus, "sections only have a title")
	assert.True(t, f.title.Focused())
}

func TestComposeForm_NothingToCreate(t *testing.T) {
	f := newComposeForm()
	f.open(navigation.ActionNone, navigation.MessageContext{})
	f.title.SetValue("x")
	_, err := f.message(nil)
	assert.Error(t, err)
}
