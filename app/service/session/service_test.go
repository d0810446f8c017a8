package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"varconf/app/config"
	"varconf/app/model"
	"varconf/app/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *resolver.State {
	return &resolver.State{
		Knowledge: &model.Knowledge{
			Entities: []*model.Entity{{
				Purpose:       "CAR",
				Variant:       "ECONOMY",
				Quantity:      1,
				FeatureValues: []model.FeatureValue{{Feature: "DOORS", Value: "5"}},
				PossibleFeatures: []*model.FeatureChoice{
					{ParentVariant: "ECONOMY", Feature: "COLOR", Values: []string{"red", "blue"}},
				},
			}},
			Stable: true,
		},
		Handler: &resolver.Handler{
			Events:    map[string]resolver.EventStatus{"E1": resolver.EventTriggered},
			Relations: map[string]resolver.RelationStatus{"R1": resolver.RelationActive},
			Rules:     map[string]resolver.RuleStatus{},
		},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()

	file, err := NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)

	db, err := NewBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   file,
		"badger": db,
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, resolver.ErrSessionNotFound)

			require.NoError(t, store.Put(ctx, "s1", []byte(`{"a":1}`)))
			require.NoError(t, store.Put(ctx, "s1", []byte(`{"a":2}`)))

			data, err := store.Get(ctx, "s1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(data))

			assert.Error(t, store.Put(ctx, "../escape", []byte(`{}`)))
		})
	}
}

func TestService_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			svc := NewWithStore(store)

			_, err := svc.Load(ctx, "s1")
			assert.ErrorIs(t, err, resolver.ErrSessionNotFound)

			want := sampleState()
			require.NoError(t, svc.Save(ctx, "s1", want))

			got, err := svc.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestService_RejectsIncompleteState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "s1", []byte(`{"knowledge": {"stable": true}}`)))

	_, err := NewWithStore(store).Load(ctx, "s1")
	assert.Error(t, err)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "s1", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.json", entries[0].Name())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: "memory"},
		{backend: "file"},
		{backend: "badger"},
		{backend: "redis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			store, err := Open(config.Session{Backend: tt.backend, Dir: filepath.Join(dir, tt.backend)})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NoError(t, store.Close())
		})
	}
}
