// Package store provides Badger DB-backed persistence for boost state:
// tweak flags, game profiles, the activity history and the armed manifest.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

// Key prefixes for different data types
const (
	prefixTweak    = "t:" // t:<id> -> {"enabled":bool}
	prefixProfile  = "p:" // p:<position> -> profile JSON
	prefixActivity = "a:" // a:<seq> -> activity entry JSON
	prefixMeta     = "m:" // Metadata (schema, armed set, markers)
)

const (
	keyArmed         = prefixMeta + "armed"
	keyProfilesSaved = prefixMeta + "profiles"
)

// Options configures Open.
type Options struct {
	// InMemory keeps everything in RAM; path is ignored.
	InMemory bool

	// Retention is how long activity entries live. Zero keeps them forever.
	Retention time.Duration
}

// Store is the boost state storage backed by Badger DB.
type Store struct {
	db        *badger.DB
	retention time.Duration
}

var (
	_ profile.Repository = (*Store)(nil)
	_ activity.Sink      = (*Store)(nil)
)

// Open opens or creates a store at the given path.
func Open(path string, opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = badgerLogger{logging.Get("badger")}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, retention: opts.Retention}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadTweaks returns the persisted tweak flags, ordered by id. A store that
// never saved tweaks returns nil.
func (s *Store) LoadTweaks() ([]tweak.State, error) {
	var states []tweak.State
	err := s.scan(prefixTweak, func(key, val []byte) error {
		var st struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.Unmarshal(val, &st); err != nil {
			return fmt.Errorf("decoding tweak %s: %w", key, err)
		}
		states = append(states, tweak.State{ID: string(key[len(prefixTweak):]), Enabled: st.Enabled})
		return nil
	})
	return states, err
}

// SaveTweaks stores the flag of every tweak in ts.
func (s *Store) SaveTweaks(ts []tweak.Tweak) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, st := range tweak.States(ts) {
			data, err := json.Marshal(struct {
				Enabled bool `json:"enabled"`
			}{st.Enabled})
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(prefixTweak+st.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadProfiles returns the stored profiles in list order. It returns nil
// when profiles were never saved, and an empty slice when an empty list
// was saved.
func (s *Store) LoadProfiles() ([]profile.Profile, error) {
	if !s.has(keyProfilesSaved) {
		return nil, nil
	}
	ps := []profile.Profile{}
	err := s.scan(prefixProfile, func(key, val []byte) error {
		var p profile.Profile
		if err := json.Unmarshal(val, &p); err != nil {
			return fmt.Errorf("decoding profile %s: %w", key, err)
		}
		ps = append(ps, p)
		return nil
	})
	return ps, err
}

// SaveProfiles replaces the stored list with ps in a single transaction.
func (s *Store) SaveProfiles(ps []profile.Profile) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, prefixProfile); err != nil {
			return err
		}
		for i, p := range ps {
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := txn.Set(seqKey(prefixProfile, uint64(i)), data); err != nil {
				return err
			}
		}
		return txn.Set([]byte(keyProfilesSaved), []byte{1})
	})
}

// AppendActivity stores one activity entry. Entries expire after the
// configured retention.
func (s *Store) AppendActivity(e activity.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	entry := badger.NewEntry(seqKey(prefixActivity, e.Seq), data)
	if s.retention > 0 {
		entry = entry.WithTTL(s.retention)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// LoadActivity returns up to limit of the newest entries, oldest first.
// A limit <= 0 returns everything still retained.
func (s *Store) LoadActivity(limit int) ([]activity.Entry, error) {
	var newest []activity.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixActivity)
		// Reverse iteration must start past the last key of the prefix.
		seek := append([]byte(prefixActivity), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(newest) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var e activity.Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return nil //nolint:nilerr // skip malformed history lines
				}
				newest = append(newest, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]activity.Entry, len(newest))
	for i, e := range newest {
		out[len(newest)-1-i] = e
	}
	return out, nil
}

// PruneActivity deletes entries older than cutoff and returns how many
// were removed.
func (s *Store) PruneActivity(cutoff time.Time) (int, error) {
	var stale [][]byte
	err := s.scan(prefixActivity, func(key, val []byte) error {
		var e activity.Entry
		if err := json.Unmarshal(val, &e); err != nil || e.Time.Before(cutoff) {
			stale = append(stale, append([]byte(nil), key...))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// ClearActivity removes the whole activity history.
func (s *Store) ClearActivity() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return deletePrefix(txn, prefixActivity)
	})
}

// SaveArmed records the tweak ids applied by the running boost session.
func (s *Store) SaveArmed(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyArmed), data)
	})
}

// ClearArmed forgets the armed set after a completed revert.
func (s *Store) ClearArmed() error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(keyArmed))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// LoadArmed returns the armed set left by a session that never reverted,
// or nil.
func (s *Store) LoadArmed() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyArmed))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ids)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return ids, err
}

// scan calls fn for each key under prefix in key order.
func (s *Store) scan(prefix string, fn func(key, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if err := item.Value(func(val []byte) error { return fn(key, val) }); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) has(key string) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	return err == nil
}

func deletePrefix(txn *badger.Txn, prefix string) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var keysToDelete [][]byte
	prefixBytes := []byte(prefix)
	for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
		keysToDelete = append(keysToDelete, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keysToDelete {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// seqKey builds prefix + big-endian n so keys sort numerically.
func seqKey(prefix string, n uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], n)
	return key
}

// badgerLogger routes badger's printf-style logging into the component
// logger. Badger is chatty at info level, so info is demoted to debug.
type badgerLogger struct{ l *logging.Logger }

func (b badgerLogger) Errorf(f string, args ...any)   { b.l.Error(trim(f, args)) }
func (b badgerLogger) Warningf(f string, args ...any) { b.l.Warn(trim(f, args)) }
func (b badgerLogger) Infof(f string, args ...any)    { b.l.Debug(trim(f, args)) }
func (b badgerLogger) Debugf(f string, args ...any)   { b.l.Debug(trim(f, args)) }

func trim(f string, args []any) string {
	msg := fmt.Sprintf(f, args...)
	for len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	return msg
}
