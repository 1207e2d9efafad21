package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/fora/internal/criteria"
)

var (
	messagesBucket = []byte("messages")
	usersBucket    = []byte("users")
	metaBucket     = []byte("metadata")
)

// ErrNotFound is returned when a message or user does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{messagesBucket, usersBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func itob(id criteria.MessageID) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func getMessage(b *bolt.Bucket, id criteria.MessageID) (*Message, error) {
	data := b.Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decoding message %d: %w", id, err)
	}
	return &msg, nil
}

func putMessage(b *bolt.Bucket, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.Put(itob(msg.ID), data)
}

// SaveMessage inserts or updates msg. New messages (ID 0) get the next id
// from the bucket sequence and bump the reply count of their parent.
func (s *Store) SaveMessage(msg *Message) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(messagesBucket)

		var parent *Message
		if msg.ParentID != criteria.NoMessage {
			p, err := getMessage(b, msg.ParentID)
			if err != nil {
				return fmt.Errorf("parent: %w", err)
			}
			parent = p
		}
		if err := checkPlacement(msg.Kind, parent); err != nil {
			return err
		}

		isNew := msg.ID == criteria.NoMessage
		if isNew {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			msg.ID = criteria.MessageID(seq)
		}

		now := time.Now()
		if msg.Created.IsZero() {
			msg.Created = now
		}
		msg.Updated = now

		switch msg.Kind {
		case KindSection:
			msg.TopicID = criteria.NoMessage
		case KindTopic:
			msg.TopicID = msg.ID
		case KindPost:
			msg.TopicID = parent.TopicID
		}

		if err := putMessage(b, msg); err != nil {
			return err
		}

		if isNew && parent != nil {
			parent.ReplyCount++
			return putMessage(b, parent)
		}
		return nil
	})
}

func checkPlacement(kind Kind, parent *Message) error {
	switch kind {
	case KindSection:
		if parent != nil {
			return fmt.Errorf("a section cannot have a parent")
		}
	case KindTopic:
		if parent == nil || parent.Kind != KindSection {
			return fmt.Errorf("a topic must belong to a section")
		}
	case KindPost:
		if parent == nil || parent.Kind == KindSection {
			return fmt.Errorf("a post must reply to a topic or post")
		}
	default:
		return fmt.Errorf("unknown message kind %d", kind)
	}
	return nil
}

func (s *Store) GetMessage(id criteria.MessageID) (*Message, error) {
	var msg *Message
	err := s.db.View(func(tx *bolt.Tx) error {
		m, err := getMessage(tx.Bucket(messagesBucket), id)
		msg = m
		return err
	})
	return msg, err
}

// Children returns the direct replies of parentID, oldest first. Parent 0
// lists the sections.
func (s *Store) Children(parentID criteria.MessageID) ([]*Message, error) {
	return s.filter(func(m *Message) bool { return m.ParentID == parentID })
}

// AllMessages returns every message, oldest first.
func (s *Store) AllMessages() ([]*Message, error) {
	return s.filter(func(*Message) bool { return true })
}

func (s *Store) filter(keep func(*Message) bool) ([]*Message, error) {
	var messages []*Message
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(messagesBucket)
		return b.ForEach(func(_ []byte, v []byte) error {
			var msg Message
			if err := json.Unmarshal(v, &msg); err != nil {
				return nil
			}
			if keep(&msg) {
				messages = append(messages, &msg)
			}
			return nil
		})
	})
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Created.Equal(messages[j].Created) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Created.Before(messages[j].Created)
	})
	return messages, err
}

// DeleteMessage removes id and all of its descendants.
func (s *Store) DeleteMessage(id criteria.MessageID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(messagesBucket)
		msg, err := getMessage(b, id)
		if err != nil {
			return err
		}

		children := map[criteria.MessageID][]criteria.MessageID{}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var m Message
			if err := json.Unmarshal(v, &m); err != nil {
				continue
			}
			children[m.ParentID] = append(children[m.ParentID], m.ID)
		}

		queue := []criteria.MessageID{id}
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			queue = append(queue, children[next]...)
			if err := b.Delete(itob(next)); err != nil {
				return err
			}
		}

		if msg.ParentID == criteria.NoMessage {
			return nil
		}
		parent, err := getMessage(b, msg.ParentID)
		if err != nil {
			return nil
		}
		if parent.ReplyCount > 0 {
			parent.ReplyCount--
		}
		return putMessage(b, parent)
	})
}

// SaveUser stores u, assigning an id to new users. Logins are unique and
// compared case-insensitively.
func (s *Store) SaveUser(u *User) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		key := []byte(strings.ToLower(strings.TrimSpace(u.Login)))
		if len(key) == 0 {
			return fmt.Errorf("user login cannot be empty")
		}
		if existing := b.Get(key); existing != nil && u.ID == criteria.UnknownUser {
			var prev User
			if err := json.Unmarshal(existing, &prev); err != nil {
				return err
			}
			u.ID = prev.ID
		}
		if u.ID == criteria.UnknownUser {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			u.ID = criteria.UserID(seq)
		}
		if u.Joined.IsZero() {
			u.Joined = time.Now()
		}
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (s *Store) GetUserByLogin(login string) (*User, error) {
	var user User
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(usersBucket).Get([]byte(strings.ToLower(login)))
		if data == nil {
			return fmt.Errorf("user %q: %w", login, ErrNotFound)
		}
		return json.Unmarshal(data, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetMeta stores a small string value under key.
func (s *Store) SetMeta(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(key), []byte(value))
	})
}

// GetMeta returns the value stored under key and whether it exists.
func (s *Store) GetMeta(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(metaBucket).Get([]byte(key)); data != nil {
			value = string(data)
			found = true
		}
		return nil
	})
	return value, found, err
}
