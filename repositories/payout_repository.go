package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

var ErrPayoutNotFound = errors.New("payout not found")

// PayoutRepository stores at most one payout per tournament. Creation uses
// the same insert-if-absent discipline as brackets so finalize stays
// idempotent under concurrent calls.
type PayoutRepository interface {
	Create(ctx context.Context, payout *models.Payout) (*models.Payout, bool, error)
	Get(ctx context.Context, tournamentID string) (*models.Payout, error)
}

type postgresPayoutRepository struct {
	db *sql.DB
}

func NewPostgresPayoutRepository(db *sql.DB) PayoutRepository {
	return &postgresPayoutRepository{db: db}
}

func (r *postgresPayoutRepository) Create(ctx context.Context, payout *models.Payout) (*models.Payout, bool, error) {
	doc, err := json.Marshal(payout)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal payout for tournament %s: %w", payout.TournamentID, err)
	}

	query := `
		INSERT INTO payouts (tournament_id, document, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tournament_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, payout.TournamentID, doc, payout.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert payout for tournament %s: %w", payout.TournamentID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		existing, err := r.Get(ctx, payout.TournamentID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return payout, true, nil
}

func (r *postgresPayoutRepository) Get(ctx context.Context, tournamentID string) (*models.Payout, error) {
	query := `SELECT document FROM payouts WHERE tournament_id = $1`

	var doc []byte
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to scan payout for tournament %s: %w", tournamentID, err)
	}

	var payout models.Payout
	if err := json.Unmarshal(doc, &payout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payout document for tournament %s: %w", tournamentID, err)
	}
	return &payout, nil
}
