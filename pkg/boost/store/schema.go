package store

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Schema versions:
// 1 - Tweaks and profiles as whole JSON documents under "tweaks" and "profiles"
// 2 - One key per tweak (t:) and per profile (p:), activity (a:), metadata (m:)
const CurrentSchemaVersion = 2

const schemaKey = "m:__schema__"

// Legacy document keys of schema 1.
const (
	legacyTweaksKey   = "tweaks"
	legacyProfilesKey = "profiles"
)

// Schema holds database schema information.
type Schema struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetSchema returns the current schema version, or nil if not set.
func (s *Store) GetSchema() *Schema {
	var schema *Schema

	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			schema = &Schema{}
			return json.Unmarshal(val, schema)
		})
	})

	return schema
}

// SetSchema stores the schema version.
func (s *Store) SetSchema(schema *Schema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(schemaKey), data)
	})
}

// NeedsMigration returns true if the database needs migration.
func (s *Store) NeedsMigration() bool {
	schema := s.GetSchema()
	if schema == nil {
		// No schema: either brand new or a version 1 database.
		return s.hasLegacyDocuments()
	}
	return schema.Version < CurrentSchemaVersion
}

// hasLegacyDocuments checks for the whole-document keys of schema 1.
func (s *Store) hasLegacyDocuments() bool {
	return s.has(legacyTweaksKey) || s.has(legacyProfilesKey)
}

// PutLegacyDocument writes a schema 1 document. It exists to seed databases
// in the old layout, for instance from an exported JSON file.
func (s *Store) PutLegacyDocument(key string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}
