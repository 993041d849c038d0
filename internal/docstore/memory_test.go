package docstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMergeSemantics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	coupleID := uuid.New()

	_, err := store.Read(ctx, coupleID)
	assert.ErrorIs(t, err, ErrNotFound)

	theme, err := Field("theme", "dark")
	require.NoError(t, err)
	require.NoError(t, store.MergeWrite(ctx, coupleID, theme))

	gameField, err := Field("balanceGame", map[string]string{"questionId": "bg-007"})
	require.NoError(t, err)
	require.NoError(t, store.MergeWrite(ctx, coupleID, gameField))

	settings, err := store.Read(ctx, coupleID)
	require.NoError(t, err)

	var themeVal string
	ok, err := settings.Get("theme", &themeVal)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", themeVal)
}

func TestMemoryStoreUpdateBuildsOnCurrentValue(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	coupleID := uuid.New()

	addKey := func(key string) func(json.RawMessage) (json.RawMessage, error) {
		return func(current json.RawMessage) (json.RawMessage, error) {
			entries := map[string]string{}
			if len(current) > 0 {
				if err := json.Unmarshal(current, &entries); err != nil {
					return nil, err
				}
			}
			entries[key] = "x"
			return json.Marshal(entries)
		}
	}

	require.NoError(t, store.Update(ctx, coupleID, "balanceGame", addKey("u1")))
	require.NoError(t, store.Update(ctx, coupleID, "balanceGame", addKey("u2")))

	settings, err := store.Read(ctx, coupleID)
	require.NoError(t, err)
	var entries map[string]string
	_, err = settings.Get("balanceGame", &entries)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "second update must build on the first, not replace it")
}

func TestMemoryStoreUpdateNilSkipsWriteAndEvents(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	coupleID := uuid.New()

	seed, err := Field("balanceGame", map[string]string{"questionId": "bg-001"})
	require.NoError(t, err)
	require.NoError(t, store.MergeWrite(ctx, coupleID, seed))

	events := 0
	unsubscribe, err := store.Subscribe(ctx, coupleID, func(*Settings) { events++ })
	require.NoError(t, err)
	defer unsubscribe()
	require.Equal(t, 1, events) // snapshot

	var sawCurrent bool
	require.NoError(t, store.Update(ctx, coupleID, "balanceGame", func(current json.RawMessage) (json.RawMessage, error) {
		sawCurrent = len(current) > 0
		return nil, nil
	}))

	assert.True(t, sawCurrent)
	assert.Equal(t, 1, events, "declined update must not fan out an event")
}

func TestMemoryStoreSubscribe(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	coupleID := uuid.New()

	seed, err := Field("balanceGame", map[string]string{"questionId": "bg-001"})
	require.NoError(t, err)
	require.NoError(t, store.MergeWrite(ctx, coupleID, seed))

	var seen []*Settings
	unsubscribe, err := store.Subscribe(ctx, coupleID, func(s *Settings) {
		seen = append(seen, s)
	})
	require.NoError(t, err)

	// Snapshot delivered immediately.
	require.Len(t, seen, 1)

	update, err := Field("balanceGame", map[string]string{"questionId": "bg-002"})
	require.NoError(t, err)
	require.NoError(t, store.MergeWrite(ctx, coupleID, update))
	require.Len(t, seen, 2)

	unsubscribe()
	require.NoError(t, store.MergeWrite(ctx, coupleID, update))
	assert.Len(t, seen, 2, "no events after unsubscribe")
}
