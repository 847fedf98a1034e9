package persona

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusroom/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "personas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := types.PersonaRecord{
		ID:       "persona_german_transfer_student_23",
		Document: "Lena is a 23-year-old transfer student from Hamburg.",
		Metadata: map[string]string{
			"evaluation_framework_primary_filter": "value for money",
			"disagreeable":                        "0.7",
			"motivations":                         `["independence","belonging"]`,
		},
	}
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Document, got.Document)
	assert.Equal(t, rec.Metadata, got.Metadata)
}

func TestStoreUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := types.PersonaRecord{ID: "p1", Document: "v1", Metadata: map[string]string{}}
	require.NoError(t, store.Upsert(ctx, rec))

	rec.Document = "v2"
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Document)
}

func TestStoreGetUnknownPersona(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnknownPersona))
}

func TestFlattenMetadata(t *testing.T) {
	meta := map[string]interface{}{
		"evaluation_framework": map[string]interface{}{
			"primary_filter": "durability",
		},
		"purchase_hesitation_triggers": []interface{}{"hidden fees", "lock-in"},
		"disagreeable":                 0.25,
		"is_custom":                    true,
	}

	flat := FlattenMetadata(meta)

	assert.Equal(t, "durability", flat["evaluation_framework_primary_filter"])
	assert.Equal(t, `["hidden fees","lock-in"]`, flat["purchase_hesitation_triggers"])
	assert.Equal(t, "0.25", flat["disagreeable"])
	assert.Equal(t, "true", flat["is_custom"])
}
