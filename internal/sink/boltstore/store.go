// Package boltstore keeps collected sessions in a bbolt file. Each run of the
// collector is a session; its bucket is replaced wholesale on every flush.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/glove/internal/database"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/sink"
)

const (
	sessionKeys = "session:keys:"
	prefix      = "session:"
)

var _ sink.Persister = (*Store)(nil)

func New(db *database.DB, session uuid.UUID) *Store {
	return &Store{sDB: db, session: session}
}

type Store struct {
	sDB     *database.DB
	session uuid.UUID
}

func (s *Store) Name() string { return "bolt" }

func (s *Store) Session() uuid.UUID { return s.session }

func (s *Store) bucket() []byte {
	return []byte(prefix + s.session.String())
}

func (s *Store) Flush(ctx context.Context, entries []reading.Entry) error {
	if err := s.sDB.DB.Update(func(tx *bolt.Tx) error {
		name := s.bucket()
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("drop session bucket: %w", err)
			}
		}
		b, err := tx.CreateBucket(name)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		for i, e := range entries {
			bytes, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := b.Put(itob(uint64(i)), bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
		}
		keys, err := tx.CreateBucketIfNotExists([]byte(sessionKeys))
		if err != nil {
			return fmt.Errorf("unable create sessions bucket: %w", err)
		}
		if err := keys.Put(name, []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to sessions bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	logging.FromContext(ctx).Debugf("bolt session %s: stored %d entries", s.session, len(entries))
	return nil
}

// Sessions lists every session stored in db.
func Sessions(db *database.DB) ([]uuid.UUID, error) {
	var sessions []uuid.UUID
	err := db.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			id, err := uuid.Parse(strings.TrimPrefix(string(k), prefix))
			if err != nil {
				return fmt.Errorf("malformed session key %q: %w", k, err)
			}
			sessions = append(sessions, id)
		}
		return nil
	})
	return sessions, err
}

// Entries returns the stored entries of a session in collection order.
func Entries(db *database.DB, session uuid.UUID) ([]reading.Entry, error) {
	var list []reading.Entry
	if err := db.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + session.String()))
		if b == nil {
			return fmt.Errorf("session %s not found", session)
		}
		return b.ForEach(func(_, v []byte) error {
			var e reading.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			list = append(list, e)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	return list, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
