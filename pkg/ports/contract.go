package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore
// implementation adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	id := "contract-test-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		record := domain.NewRecord(id, []byte(`{"details":{"name":"Blizzard"},"levels":{"magic":3}}`))

		err := store.Save(ctx, id, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, id, loaded.ID)
		assert.JSONEq(t, string(record.Data), string(loaded.Data))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, domain.NewRecord(id, []byte(`{"v":1}`))))
		require.NoError(t, store.Save(ctx, id, domain.NewRecord(id, []byte(`{"v":2}`))))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		var data map[string]any
		require.NoError(t, json.Unmarshal(loaded.Data, &data))
		assert.EqualValues(t, 2, data["v"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, domain.NewRecord(id, []byte(`{}`))))

		err := store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, id), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, id1, domain.NewRecord(id1, []byte(`{}`)))
		_ = store.Save(ctx, id2, domain.NewRecord(id2, []byte(`{}`)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunSheetEngineContract verifies the calls the renderer relies on.
func RunSheetEngineContract(t *testing.T, engine SheetEngine) {
	ctx := context.Background()
	key := "contract-sheet-" + time.Now().Format("20060102150405")

	document := []byte(`{
		"userValues": {"strength": {"number": 10}},
		"activeFeatures": [{
			"name": "Character", "description": "", "features": [{
				"name": "defense", "description": "", "baseType": "combat_stats",
				"definitions": [{"name": "strength", "selector": {"identifier": "highest", "arguments": []}}],
				"modifiers": [{"property": "defense", "value": {"script": {"script": "$speed + $resilience", "dependencies": ["speed", "resilience"]}}}]
			}]
		}],
		"inactiveFeatures": []
	}`)

	require.NoError(t, engine.Create(ctx, key, document))

	t.Run("Snapshot", func(t *testing.T) {
		raw, err := engine.Snapshot(ctx, key)
		require.NoError(t, err)
		snap, err := domain.DecodeSnapshot(raw)
		require.NoError(t, err)
		v, ok := snap.UserValue("strength")
		require.True(t, ok)
		assert.Equal(t, "10", v.String())
		require.Len(t, snap.ActiveFeatures, 1)
	})

	t.Run("SetUserValue", func(t *testing.T) {
		require.NoError(t, engine.SetUserValue(ctx, key, "speed", []byte(`{"dice":{"dice":[{"amount":2,"sides":4,"modifiers":[]}],"bonus":2}}`)))
		raw, err := engine.Snapshot(ctx, key)
		require.NoError(t, err)
		snap, err := domain.DecodeSnapshot(raw)
		require.NoError(t, err)
		v, ok := snap.UserValue("speed")
		require.True(t, ok)
		assert.Equal(t, "2d4+2", v.String())
	})

	t.Run("SetUserValue rejects bad JSON", func(t *testing.T) {
		assert.Error(t, engine.SetUserValue(ctx, key, "speed", []byte(`{"number":`)))
	})

	t.Run("SetUserValue null unsets", func(t *testing.T) {
		require.NoError(t, engine.SetUserValue(ctx, key, "luck", []byte(`{"number":3}`)))
		require.NoError(t, engine.SetUserValue(ctx, key, "luck", []byte(`null`)))
		raw, err := engine.Snapshot(ctx, key)
		require.NoError(t, err)
		snap, err := domain.DecodeSnapshot(raw)
		require.NoError(t, err)
		_, ok := snap.UserValue("luck")
		assert.False(t, ok)
	})

	t.Run("MinimumRequiredUserValues", func(t *testing.T) {
		names, err := engine.MinimumRequiredUserValues(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{"resilience", "speed", "strength"}, names)
	})

	t.Run("Unknown key", func(t *testing.T) {
		_, err := engine.Snapshot(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrSheetNotFound)
		assert.ErrorIs(t, engine.SetUserValue(ctx, "missing-"+key, "a", []byte(`{"number":1}`)), domain.ErrSheetNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, engine.Delete(ctx, key))
		_, err := engine.Snapshot(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSheetNotFound)
		assert.NoError(t, engine.Delete(ctx, key), "Deleting twice should not fail")
	})
}
