package storage

import (
	"time"

	"github.com/pders01/fora/internal/criteria"
)

// Kind is the position of a message in the forum tree.
type Kind int

const (
	KindSection Kind = iota
	KindTopic
	KindPost
)

func (k Kind) String() string {
	switch k {
	case KindSection:
		return "section"
	case KindTopic:
		return "topic"
	case KindPost:
		return "post"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "section":
		return KindSection, true
	case "topic":
		return KindTopic, true
	case "post":
		return KindPost, true
	default:
		return 0, false
	}
}

// Message is a node of the forum tree. Sections hang off the root (ParentID
// 0), topics off sections, posts off topics or other posts.
type Message struct {
	ID           criteria.MessageID `json:"id"`
	ParentID     criteria.MessageID `json:"parent_id"`
	TopicID      criteria.MessageID `json:"topic_id"`
	Kind         Kind               `json:"kind"`
	Title        string             `json:"title"`
	Body         string             `json:"body"`
	AuthorID     criteria.UserID    `json:"author_id"`
	AuthorLogin  string             `json:"author_login"`
	Created      time.Time          `json:"created"`
	Updated      time.Time          `json:"updated"`
	ReplyCount   int                `json:"reply_count"`
	SourceURL    string             `json:"source_url,omitempty"`
	ETag         string             `json:"etag,omitempty"`
	LastModified string             `json:"last_modified,omitempty"`
}

type User struct {
	ID          criteria.UserID `json:"id"`
	Login       string          `json:"login"`
	DisplayName string          `json:"display_name"`
	Joined      time.Time       `json:"joined"`
}
