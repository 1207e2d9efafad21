package criteria

import (
	"net/url"
	"strconv"
)

// Query-string keys of a serialized Criteria.
const (
	keyText               = "q"
	keyAuthorID           = "aid"
	keyAuthorLogin        = "al"
	keyOnlyTopics         = "ot"
	keyOnlyInCurrentTopic = "ct"
	keyBaseMessage        = "b"
	keyOnlyThisMessage    = "om"
	keyPage               = "p"

	rootValue = "root"
	trueValue = "1"
)

// Serialize encodes c as a canonical, URL-safe token. Keys are sorted and
// zero fields are omitted, so equal criteria always yield equal tokens.
func Serialize(c Criteria) string {
	v := url.Values{}
	if c.Text != "" {
		v.Set(keyText, c.Text)
	}
	if c.AuthorID != UnknownUser {
		v.Set(keyAuthorID, strconv.FormatInt(int64(c.AuthorID), 10))
	}
	if c.AuthorLogin != "" {
		v.Set(keyAuthorLogin, c.AuthorLogin)
	}
	if c.OnlyTopics {
		v.Set(keyOnlyTopics, trueValue)
	}
	if c.OnlyInCurrentTopic {
		v.Set(keyOnlyInCurrentTopic, trueValue)
	}
	switch {
	case c.BaseMessageID == RootMessage:
		v.Set(keyBaseMessage, rootValue)
	case c.BaseMessageID != NoMessage:
		v.Set(keyBaseMessage, strconv.FormatInt(int64(c.BaseMessageID), 10))
	}
	if c.OnlyThisMessage {
		v.Set(keyOnlyThisMessage, trueValue)
	}
	if c.Page != MinPage {
		v.Set(keyPage, strconv.Itoa(c.Page))
	}
	return v.Encode()
}

// Deserialize decodes a token produced by Serialize. It never fails: unknown
// keys are ignored, unparsable values fall back to their defaults and the
// result is repaired so that it passes Validate.
func Deserialize(token string) Criteria {
	// ParseQuery keeps every pair it could decode even when it reports an
	// error for a malformed one.
	v, _ := url.ParseQuery(token)

	var c Criteria
	c.Text = truncateRunes(v.Get(keyText), MaxTextLength)
	if n, err := strconv.ParseInt(v.Get(keyAuthorID), 10, 64); err == nil && n > 0 {
		c.AuthorID = UserID(n)
	}
	c.AuthorLogin = v.Get(keyAuthorLogin)
	c.OnlyTopics = parseFlag(v.Get(keyOnlyTopics))
	c.OnlyInCurrentTopic = parseFlag(v.Get(keyOnlyInCurrentTopic))
	c.BaseMessageID = parseMessageID(v.Get(keyBaseMessage))
	c.OnlyThisMessage = parseFlag(v.Get(keyOnlyThisMessage))
	if n, err := strconv.Atoi(v.Get(keyPage)); err == nil && n > MinPage {
		c.Page = n
	}

	if c.OnlyInCurrentTopic && !c.BaseMessageID.IsReal() {
		c.OnlyInCurrentTopic = false
	}
	if c.OnlyTopics && c.OnlyInCurrentTopic {
		c.OnlyTopics = false
	}
	return c
}

func parseFlag(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseMessageID(s string) MessageID {
	if s == rootValue {
		return RootMessage
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return NoMessage
	}
	return MessageID(n)
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
