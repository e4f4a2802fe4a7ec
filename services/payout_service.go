package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/Dosada05/bracket-engine/storage"
	"golang.org/x/sync/errgroup"
)

// Default split when the caller supplies no placement table.
var defaultPercentages = map[int]float64{1: 60, 2: 25, 3: 7.5, 4: 7.5}

type FinalizeInput struct {
	PrizePool   float64         `json:"prizePool"`
	Percentages map[int]float64 `json:"percentages,omitempty"`
}

type TournamentSummary struct {
	Bracket    *models.Bracket `json:"bracket"`
	Payout     *models.Payout  `json:"payout,omitempty"`
	ChampionID *string         `json:"championId,omitempty"`
}

// PayoutService turns a terminal bracket into a prize distribution, exactly
// once per tournament.
type PayoutService interface {
	Finalize(ctx context.Context, tournamentID string, input FinalizeInput) (*models.Payout, error)
	GetPayout(ctx context.Context, tournamentID string) (*models.Payout, error)
	GetSummary(ctx context.Context, tournamentID string) (*TournamentSummary, error)
}

type payoutService struct {
	payoutRepo     repositories.PayoutRepository
	bracketService BracketService
	archive        storage.FileUploader // optional, nil disables archival
	logger         *slog.Logger
}

func NewPayoutService(
	payoutRepo repositories.PayoutRepository,
	bracketService BracketService,
	archive storage.FileUploader,
	logger *slog.Logger,
) PayoutService {
	return &payoutService{
		payoutRepo:     payoutRepo,
		bracketService: bracketService,
		archive:        archive,
		logger:         logger,
	}
}

func (s *payoutService) Finalize(ctx context.Context, tournamentID string, input FinalizeInput) (*models.Payout, error) {
	// Fast idempotent path: a stored payout is returned as-is, whatever the
	// arguments are this time.
	existing, err := s.payoutRepo.Get(ctx, tournamentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrPayoutNotFound) {
		return nil, fmt.Errorf("failed to check payout for tournament %s: %w", tournamentID, err)
	}

	if input.PrizePool <= 0 {
		return nil, fmt.Errorf("%w: prize pool must be positive", ErrValidationFailed)
	}
	percentages := input.Percentages
	if len(percentages) == 0 {
		percentages = defaultPercentages
	}
	total := 0.0
	for place, pct := range percentages {
		if place < 1 || pct <= 0 {
			return nil, fmt.Errorf("%w: invalid percentage entry %d: %v", ErrValidationFailed, place, pct)
		}
		total += pct
	}
	if total > 100.0+1e-9 {
		return nil, fmt.Errorf("%w: percentages sum to %.2f, above 100", ErrValidationFailed, total)
	}

	bracket, err := s.bracketService.GetBracket(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	placements, err := brackets.Placements(bracket)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBracketNotComplete, err)
	}

	lines := make([]models.PayoutLine, 0, len(placements))
	for _, p := range placements {
		pct, ok := percentages[p.Place]
		if !ok {
			continue
		}
		lines = append(lines, models.PayoutLine{
			Place:  p.Place,
			SeedID: p.SeedID,
			Amount: math.Round(input.PrizePool*pct) / 100,
		})
	}

	payout := &models.Payout{
		TournamentID: tournamentID,
		PrizePool:    input.PrizePool,
		Lines:        lines,
		CreatedAt:    time.Now().UTC(),
	}

	stored, created, err := s.payoutRepo.Create(ctx, payout)
	if err != nil {
		return nil, fmt.Errorf("failed to persist payout for tournament %s: %w", tournamentID, err)
	}
	if !created {
		// Concurrent finalize won the insert; its payout is the truth.
		return stored, nil
	}

	s.logger.Info("tournament finalized",
		slog.String("tournament_id", tournamentID),
		slog.Float64("prize_pool", input.PrizePool),
		slog.Int("payout_lines", len(lines)),
	)
	s.archiveBracket(ctx, tournamentID, bracket, stored)
	return stored, nil
}

func (s *payoutService) GetPayout(ctx context.Context, tournamentID string) (*models.Payout, error) {
	payout, err := s.payoutRepo.Get(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPayoutNotFound) {
			return nil, fmt.Errorf("%w: tournament %s", ErrPayoutNotFound, tournamentID)
		}
		return nil, fmt.Errorf("failed to load payout for tournament %s: %w", tournamentID, err)
	}
	return payout, nil
}

// GetSummary fetches the bracket and payout in parallel. A missing payout is
// not an error: the tournament simply has not been finalized yet.
func (s *payoutService) GetSummary(ctx context.Context, tournamentID string) (*TournamentSummary, error) {
	summary := &TournamentSummary{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bracket, err := s.bracketService.GetBracket(gCtx, tournamentID)
		if err != nil {
			return err
		}
		summary.Bracket = bracket
		return nil
	})
	g.Go(func() error {
		payout, err := s.payoutRepo.Get(gCtx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrPayoutNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load payout for tournament %s: %w", tournamentID, err)
		}
		summary.Payout = payout
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.ChampionID = summary.Bracket.ChampionID()
	return summary, nil
}

// archiveBracket uploads the terminal bracket and payout to object storage.
// Best-effort: archival failures are logged, never surfaced to the caller.
func (s *payoutService) archiveBracket(ctx context.Context, tournamentID string, bracket *models.Bracket, payout *models.Payout) {
	if s.archive == nil {
		return
	}

	doc, err := json.Marshal(struct {
		Bracket *models.Bracket `json:"bracket"`
		Payout  *models.Payout  `json:"payout"`
	}{Bracket: bracket, Payout: payout})
	if err != nil {
		s.logger.Error("failed to marshal archive document", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	key := fmt.Sprintf("archives/%s.json", tournamentID)
	if _, err := s.archive.Upload(ctx, key, "application/json", bytes.NewReader(doc)); err != nil {
		s.logger.Error("failed to archive finalized bracket",
			slog.String("tournament_id", tournamentID),
			slog.Any("error", err),
		)
		return
	}
	s.logger.Info("finalized bracket archived", slog.String("tournament_id", tournamentID), slog.String("key", key))
}
