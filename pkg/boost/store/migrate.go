package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

// MigrationProgress reports migration progress.
type MigrationProgress struct {
	FromVersion int
	ToVersion   int
	Step        string
}

// MigrationProgressFunc is called with progress updates during migration.
type MigrationProgressFunc func(MigrationProgress)

// Migrate runs any pending migrations to bring the database up to current schema.
// Returns the number of migrations run, or an error.
func (s *Store) Migrate(ctx context.Context, onProgress MigrationProgressFunc) (int, error) {
	schema := s.GetSchema()
	fromVersion := 0
	if schema != nil {
		fromVersion = schema.Version
	} else if s.hasLegacyDocuments() {
		fromVersion = 1
	} else {
		// Fresh database: stamp it and move on.
		return 0, s.SetSchema(&Schema{Version: CurrentSchemaVersion, UpdatedAt: time.Now()})
	}

	if fromVersion >= CurrentSchemaVersion {
		return 0, nil
	}

	migrationsRun := 0

	for version := fromVersion + 1; version <= CurrentSchemaVersion; version++ {
		select {
		case <-ctx.Done():
			return migrationsRun, ctx.Err()
		default:
		}

		var err error
		switch version {
		case 2:
			err = s.migrateToV2(onProgress)
		}

		if err != nil {
			return migrationsRun, fmt.Errorf("migrating to schema %d: %w", version, err)
		}

		// Update schema version after each successful migration
		if err := s.SetSchema(&Schema{
			Version:   version,
			UpdatedAt: time.Now(),
		}); err != nil {
			return migrationsRun, err
		}

		migrationsRun++
	}

	return migrationsRun, nil
}

// migrateToV2 splits the schema 1 documents into per-record keys. The
// legacy tweak document carries full tweak records; only id and flag are
// kept. Documents that fail to decode are left in place and reported.
func (s *Store) migrateToV2(onProgress MigrationProgressFunc) error {
	report := func(step string) {
		if onProgress != nil {
			onProgress(MigrationProgress{FromVersion: 1, ToVersion: 2, Step: step})
		}
	}

	if data, ok, err := s.rawGet(legacyTweaksKey); err != nil {
		return err
	} else if ok {
		report("tweaks")
		states, err := tweak.DecodeStates(data)
		if err != nil {
			return err
		}
		ts := make([]tweak.Tweak, len(states))
		for i, st := range states {
			ts[i] = tweak.Tweak{ID: st.ID, Enabled: st.Enabled}
		}
		if err := s.SaveTweaks(ts); err != nil {
			return err
		}
		if err := s.rawDelete(legacyTweaksKey); err != nil {
			return err
		}
	}

	if data, ok, err := s.rawGet(legacyProfilesKey); err != nil {
		return err
	} else if ok {
		report("profiles")
		var ps []profile.Profile
		if err := json.Unmarshal(data, &ps); err != nil {
			return fmt.Errorf("decoding legacy profiles: %w", err)
		}
		if ps == nil {
			ps = []profile.Profile{}
		}
		if err := s.SaveProfiles(ps); err != nil {
			return err
		}
		if err := s.rawDelete(legacyProfilesKey); err != nil {
			return err
		}
	}

	report("done")
	return nil
}

func (s *Store) rawGet(key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	return data, err == nil, err
}

func (s *Store) rawDelete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
