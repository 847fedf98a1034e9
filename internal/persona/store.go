// Package persona manages synthetic identities: the SQLite document store
// holding narrative documents and flattened trait metadata, the catalog of
// known personas with their mention handles, and seeding from JSON files.
package persona

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"focusroom/internal/logging"
	"focusroom/internal/types"
)

// SQLiteStore implements types.PersonaStore on a local SQLite database.
// Metadata is stored flattened: nested keys joined with "_", list values
// JSON-encoded — the same shape the record carries in memory.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewSQLiteStore initializes the persona database at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// initialize creates the required tables.
func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS personas (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		metadata TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create personas table: %w", err)
	}
	return nil
}

// Get fetches a persona record by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (types.PersonaRecord, error) {
	timer := logging.StartTimer(logging.CategoryStore, "persona get")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var document, metaJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT document, metadata FROM personas WHERE id = ?", id,
	).Scan(&document, &metaJSON)
	if err == sql.ErrNoRows {
		return types.PersonaRecord{}, fmt.Errorf("%w: %s", types.ErrUnknownPersona, id)
	}
	if err != nil {
		return types.PersonaRecord{}, fmt.Errorf("failed to query persona %s: %w", id, err)
	}

	meta := make(map[string]string)
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return types.PersonaRecord{}, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
	}

	logging.StoreDebug("Loaded persona %s (document %d bytes, %d metadata fields)", id, len(document), len(meta))
	return types.PersonaRecord{ID: id, Document: document, Metadata: meta}, nil
}

// Upsert inserts or replaces a persona record.
func (s *SQLiteStore) Upsert(ctx context.Context, rec types.PersonaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO personas (id, document, metadata) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   document = excluded.document,
		   metadata = excluded.metadata,
		   updated_at = CURRENT_TIMESTAMP`,
		rec.ID, rec.Document, string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert persona %s: %w", rec.ID, err)
	}

	logging.Store("Upserted persona %s", rec.ID)
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FlattenMetadata flattens a nested metadata document the way the seed files
// carry it: nested maps get "_"-joined keys, lists become JSON strings,
// scalars are stringified.
func FlattenMetadata(meta map[string]interface{}) map[string]string {
	flat := make(map[string]string)
	flattenInto(flat, "", meta)
	return flat
}

func flattenInto(flat map[string]string, prefix string, meta map[string]interface{}) {
	for k, v := range meta {
		key := k
		if prefix != "" {
			key = prefix + "_" + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flattenInto(flat, key, val)
		case []interface{}:
			encoded, err := json.Marshal(val)
			if err != nil {
				flat[key] = fmt.Sprintf("%v", val)
				continue
			}
			flat[key] = string(encoded)
		case string:
			flat[key] = val
		case nil:
			flat[key] = ""
		default:
			flat[key] = fmt.Sprintf("%v", val)
		}
	}
}
