package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dosada05/bracket-engine/models"
)

// In-memory implementations with the same conditional-update semantics as
// the Postgres ones. Used by the test suites; also handy for local runs
// without a database.

type MemoryBracketRepository struct {
	mu       sync.Mutex
	brackets map[string]*models.Bracket
}

func NewMemoryBracketRepository() *MemoryBracketRepository {
	return &MemoryBracketRepository{brackets: make(map[string]*models.Bracket)}
}

func (r *MemoryBracketRepository) Create(ctx context.Context, bracket *models.Bracket) (*models.Bracket, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.brackets[bracket.TournamentID]; ok {
		out, err := existing.Clone()
		if err != nil {
			return nil, false, err
		}
		return out, false, nil
	}

	bracket.Version = 1
	stored, err := bracket.Clone()
	if err != nil {
		return nil, false, err
	}
	r.brackets[bracket.TournamentID] = stored
	return bracket, true, nil
}

func (r *MemoryBracketRepository) Get(ctx context.Context, tournamentID string) (*models.Bracket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.brackets[tournamentID]
	if !ok {
		return nil, ErrBracketNotFound
	}
	return stored.Clone()
}

func (r *MemoryBracketRepository) Update(ctx context.Context, bracket *models.Bracket, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.brackets[bracket.TournamentID]
	if !ok {
		return ErrBracketNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: expected %d, found %d", ErrVersionConflict, expectedVersion, stored.Version)
	}

	bracket.Version = expectedVersion + 1
	next, err := bracket.Clone()
	if err != nil {
		return err
	}
	r.brackets[bracket.TournamentID] = next
	return nil
}

type MemoryPayoutRepository struct {
	mu      sync.Mutex
	payouts map[string]*models.Payout
}

func NewMemoryPayoutRepository() *MemoryPayoutRepository {
	return &MemoryPayoutRepository{payouts: make(map[string]*models.Payout)}
}

func (r *MemoryPayoutRepository) Create(ctx context.Context, payout *models.Payout) (*models.Payout, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.payouts[payout.TournamentID]; ok {
		out := *existing
		out.Lines = append([]models.PayoutLine(nil), existing.Lines...)
		return &out, false, nil
	}
	stored := *payout
	stored.Lines = append([]models.PayoutLine(nil), payout.Lines...)
	r.payouts[payout.TournamentID] = &stored
	return payout, true, nil
}

func (r *MemoryPayoutRepository) Get(ctx context.Context, tournamentID string) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.payouts[tournamentID]
	if !ok {
		return nil, ErrPayoutNotFound
	}
	out := *stored
	out.Lines = append([]models.PayoutLine(nil), stored.Lines...)
	return &out, nil
}
