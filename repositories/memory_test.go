package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBracket(tournamentID string) *models.Bracket {
	return &models.Bracket{
		TournamentID: tournamentID,
		Kind:         models.BracketSingle,
		CreatedAt:    time.Now().UTC(),
		Rounds: models.Rounds{
			Winners: []models.Round{{Matches: []*models.Match{{
				ID:    "m1",
				Side:  models.SideWinners,
				State: models.MatchReady,
				Slot1: models.FilledSlot("a"),
				Slot2: models.FilledSlot("b"),
			}}}},
		},
	}
}

func TestMemoryBracketRepositoryCreateOnce(t *testing.T) {
	repo := NewMemoryBracketRepository()
	ctx := context.Background()

	_, created, err := repo.Create(ctx, testBracket("t1"))
	require.NoError(t, err)
	assert.True(t, created)

	stored, created, err := repo.Create(ctx, testBracket("t1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), stored.Version)
}

func TestMemoryBracketRepositoryConditionalUpdate(t *testing.T) {
	repo := NewMemoryBracketRepository()
	ctx := context.Background()

	stored, _, err := repo.Create(ctx, testBracket("t1"))
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, stored, 1))

	// The version moved, a second update with the stale token must fail.
	err = repo.Update(ctx, stored, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	current, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), current.Version)
}

func TestMemoryBracketRepositoryGetReturnsCopy(t *testing.T) {
	repo := NewMemoryBracketRepository()
	ctx := context.Background()

	_, _, err := repo.Create(ctx, testBracket("t1"))
	require.NoError(t, err)

	first, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	first.Rounds.Winners[0].Matches[0].State = models.MatchReported

	second, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchReady, second.Rounds.Winners[0].Matches[0].State)
}

func TestMemoryBracketRepositoryMissing(t *testing.T) {
	repo := NewMemoryBracketRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrBracketNotFound)

	err = repo.Update(ctx, testBracket("missing"), 1)
	assert.ErrorIs(t, err, ErrBracketNotFound)
}

func TestMemoryPayoutRepository(t *testing.T) {
	repo := NewMemoryPayoutRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "t1")
	assert.ErrorIs(t, err, ErrPayoutNotFound)

	payout := &models.Payout{
		TournamentID: "t1",
		PrizePool:    100,
		Lines:        []models.PayoutLine{{Place: 1, SeedID: "a", Amount: 100}},
		CreatedAt:    time.Now().UTC(),
	}
	_, created, err := repo.Create(ctx, payout)
	require.NoError(t, err)
	assert.True(t, created)

	other := &models.Payout{TournamentID: "t1", PrizePool: 5}
	stored, created, err := repo.Create(ctx, other)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, float64(100), stored.PrizePool)
}
