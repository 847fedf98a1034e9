package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"focusroom/internal/logging"
	"focusroom/internal/types"
)

// seedFile is the on-disk persona shape: an id, a narrative document, and a
// nested metadata document that gets flattened at seed time.
type seedFile struct {
	ID       string                 `json:"id"`
	Document string                 `json:"document"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Seed loads every catalog entry's persona file from dir and upserts it into
// the store. Run once, or any time persona files change.
func Seed(ctx context.Context, store types.PersonaStore, catalog *Catalog, dir string) error {
	for _, entry := range catalog.Entries() {
		if entry.File == "" {
			continue
		}
		if err := SeedFile(ctx, store, filepath.Join(dir, entry.File)); err != nil {
			return fmt.Errorf("seeding %s: %w", entry.Name, err)
		}
	}
	return nil
}

// SeedFile loads one persona JSON file and upserts it into the store.
func SeedFile(ctx context.Context, store types.PersonaStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read persona file: %w", err)
	}

	var sf seedFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("failed to parse persona file %s: %w", path, err)
	}
	if sf.ID == "" {
		return fmt.Errorf("persona file %s has no id", path)
	}

	rec := types.PersonaRecord{
		ID:       sf.ID,
		Document: sf.Document,
		Metadata: FlattenMetadata(sf.Metadata),
	}
	if err := store.Upsert(ctx, rec); err != nil {
		return err
	}

	logging.Get(logging.CategoryBoot).Info("Seeded persona %s from %s", sf.ID, filepath.Base(path))
	return nil
}
