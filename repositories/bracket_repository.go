package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

var (
	ErrBracketNotFound = errors.New("bracket not found")
	ErrVersionConflict = errors.New("bracket version changed since read")
)

// BracketRepository is a keyed document store: one bracket per tournament,
// stored whole, with a version counter for conditional updates.
type BracketRepository interface {
	// Create persists the bracket unless one already exists for the
	// tournament. Race-safe: under concurrent first calls exactly one insert
	// wins and every caller gets the winner's bracket back. The returned
	// flag reports whether this call created it.
	Create(ctx context.Context, bracket *models.Bracket) (*models.Bracket, bool, error)

	Get(ctx context.Context, tournamentID string) (*models.Bracket, error)

	// Update persists the bracket conditioned on the stored version still
	// being expectedVersion, and bumps the version. ErrVersionConflict when
	// a concurrent mutation won the race.
	Update(ctx context.Context, bracket *models.Bracket, expectedVersion int64) error
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) Create(ctx context.Context, bracket *models.Bracket) (*models.Bracket, bool, error) {
	bracket.Version = 1
	doc, err := json.Marshal(bracket)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal bracket for tournament %s: %w", bracket.TournamentID, err)
	}

	query := `
		INSERT INTO brackets (tournament_id, document, version, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tournament_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, bracket.TournamentID, doc, bracket.Version, bracket.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert bracket for tournament %s: %w", bracket.TournamentID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		// Lost the race or repeat call: return what is already stored.
		existing, err := r.Get(ctx, bracket.TournamentID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return bracket, true, nil
}

func (r *postgresBracketRepository) Get(ctx context.Context, tournamentID string) (*models.Bracket, error) {
	query := `SELECT document, version FROM brackets WHERE tournament_id = $1`

	var doc []byte
	var version int64
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to scan bracket for tournament %s: %w", tournamentID, err)
	}

	var bracket models.Bracket
	if err := json.Unmarshal(doc, &bracket); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bracket document for tournament %s: %w", tournamentID, err)
	}
	// The column is authoritative for the concurrency token.
	bracket.Version = version
	return &bracket, nil
}

func (r *postgresBracketRepository) Update(ctx context.Context, bracket *models.Bracket, expectedVersion int64) error {
	bracket.Version = expectedVersion + 1
	doc, err := json.Marshal(bracket)
	if err != nil {
		return fmt.Errorf("failed to marshal bracket for tournament %s: %w", bracket.TournamentID, err)
	}

	query := `
		UPDATE brackets
		SET document = $2, version = $3
		WHERE tournament_id = $1 AND version = $4`

	result, err := r.db.ExecContext(ctx, query, bracket.TournamentID, doc, bracket.Version, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update bracket for tournament %s: %w", bracket.TournamentID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		var current int64
		err := r.db.QueryRowContext(ctx, `SELECT version FROM brackets WHERE tournament_id = $1`, bracket.TournamentID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBracketNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to inspect bracket version for tournament %s: %w", bracket.TournamentID, err)
		}
		return fmt.Errorf("%w: expected %d, found %d", ErrVersionConflict, expectedVersion, current)
	}
	return nil
}
