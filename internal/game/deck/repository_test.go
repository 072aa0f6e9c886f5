package deck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoCreateAndFetch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	created, err := repo.Create(ctx, "mono-red", "alice", "Mono Red", []Entry{
		{CardID: "mountain", Quantity: 20},
		{CardID: "bolt", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 24, created.TotalCards())

	fetched, ok, err := repo.Fetch(ctx, "mono-red")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, fetched)

	fetched.Entries[0].Quantity = 1
	again, _, _ := repo.Fetch(ctx, "mono-red")
	assert.Equal(t, 20, again.Entries[0].Quantity, "fetch must hand out copies")

	_, err = repo.Create(ctx, "mono-red", "bob", "Dup", nil)
	assert.Error(t, err)

	_, ok, err = repo.Fetch(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRepoHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewMemoryRepo().Fetch(ctx, "any")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadDeckFile(t *testing.T) {
	doc := `
decks:
  - id: green
    owner: alice
    name: Green Stompy
    cards:
      - card: forest
        count: 24
      - card: bears
        count: 4
  - id: red
    name: Burn
    cards:
      - card: mountain
        count: 20
`
	path := filepath.Join(t.TempDir(), "decks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	decks, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, decks, 2)
	assert.Equal(t, "green", decks[0].ID)
	assert.Equal(t, "alice", decks[0].OwnerID)
	assert.Equal(t, []Entry{{CardID: "forest", Quantity: 24}, {CardID: "bears", Quantity: 4}}, decks[0].Entries)

	repo := NewMemoryRepo()
	require.NoError(t, repo.Seed(context.Background(), decks))
	assert.Equal(t, 2, repo.Len())

	_, err = ParseFile([]byte("decks:\n  - name: anonymous\n"))
	assert.Error(t, err)
}

func TestFormatByName(t *testing.T) {
	f, err := FormatByName("Limited")
	require.NoError(t, err)
	assert.Equal(t, 40, f.MinDeckSize)

	f, err = FormatByName("")
	require.NoError(t, err)
	assert.Equal(t, Standard, f)

	_, err = FormatByName("vintage")
	assert.Error(t, err)

	bad := Standard
	bad.OpeningHandSize = 100
	assert.Error(t, bad.Validate())
	assert.NoError(t, Limited.Validate())
}
