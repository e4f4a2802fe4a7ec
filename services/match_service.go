package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
)

type ReportInput struct {
	Score1   int     `json:"score1"`
	Score2   int     `json:"score2"`
	WinnerID *string `json:"winnerId,omitempty"`
}

type OverrideInput struct {
	WinnerID string `json:"winnerId"`
	Score1   *int   `json:"score1,omitempty"`
	Score2   *int   `json:"score2,omitempty"`
}

// MatchService runs the match state machine against stored brackets. Every
// operation is all-or-nothing: it mutates a private copy and persists it
// conditionally, so a failed call leaves the bracket exactly as it was.
type MatchService interface {
	ReportResult(ctx context.Context, tournamentID, matchID string, input ReportInput, actorID string) (*models.Bracket, error)
	OverrideResult(ctx context.Context, tournamentID, matchID string, input OverrideInput, actorID string) (*models.Bracket, error)
	EditScore(ctx context.Context, tournamentID, matchID string, score1, score2 int, actorID string) (*models.Bracket, error)
	ResetResult(ctx context.Context, tournamentID, matchID string, actorID string) (*models.Bracket, error)
}

type matchService struct {
	bracketService BracketService
	logger         *slog.Logger
}

func NewMatchService(bracketService BracketService, logger *slog.Logger) MatchService {
	return &matchService{bracketService: bracketService, logger: logger}
}

func (s *matchService) ReportResult(ctx context.Context, tournamentID, matchID string, input ReportInput, actorID string) (*models.Bracket, error) {
	if input.Score1 < 0 || input.Score2 < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", ErrValidationFailed)
	}

	bracket, err := s.bracketService.ApplyMutation(ctx, tournamentID, func(b *models.Bracket) error {
		coord, err := coordinateOf(b, matchID)
		if err != nil {
			return err
		}
		return mapProgressionError(brackets.Report(b, coord, input.Score1, input.Score2, input.WinnerID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match result reported",
		slog.String("tournament_id", tournamentID),
		slog.String("match_id", matchID),
		slog.String("actor_id", actorID),
	)
	return bracket, nil
}

func (s *matchService) OverrideResult(ctx context.Context, tournamentID, matchID string, input OverrideInput, actorID string) (*models.Bracket, error) {
	if input.WinnerID == "" {
		return nil, fmt.Errorf("%w: winnerId is required for an override", ErrValidationFailed)
	}
	if (input.Score1 != nil && *input.Score1 < 0) || (input.Score2 != nil && *input.Score2 < 0) {
		return nil, fmt.Errorf("%w: scores must be non-negative", ErrValidationFailed)
	}

	bracket, err := s.bracketService.ApplyMutation(ctx, tournamentID, func(b *models.Bracket) error {
		coord, err := coordinateOf(b, matchID)
		if err != nil {
			return err
		}
		return mapProgressionError(brackets.Override(b, coord, input.WinnerID, input.Score1, input.Score2))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match result overridden",
		slog.String("tournament_id", tournamentID),
		slog.String("match_id", matchID),
		slog.String("winner_id", input.WinnerID),
		slog.String("actor_id", actorID),
	)
	return bracket, nil
}

func (s *matchService) EditScore(ctx context.Context, tournamentID, matchID string, score1, score2 int, actorID string) (*models.Bracket, error) {
	if score1 < 0 || score2 < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", ErrValidationFailed)
	}

	bracket, err := s.bracketService.ApplyMutation(ctx, tournamentID, func(b *models.Bracket) error {
		coord, err := coordinateOf(b, matchID)
		if err != nil {
			return err
		}
		return mapProgressionError(brackets.Edit(b, coord, score1, score2))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match score edited",
		slog.String("tournament_id", tournamentID),
		slog.String("match_id", matchID),
		slog.String("actor_id", actorID),
	)
	return bracket, nil
}

func (s *matchService) ResetResult(ctx context.Context, tournamentID, matchID string, actorID string) (*models.Bracket, error) {
	bracket, err := s.bracketService.ApplyMutation(ctx, tournamentID, func(b *models.Bracket) error {
		coord, err := coordinateOf(b, matchID)
		if err != nil {
			return err
		}
		return mapProgressionError(brackets.Reset(b, coord))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match result reset",
		slog.String("tournament_id", tournamentID),
		slog.String("match_id", matchID),
		slog.String("actor_id", actorID),
	)
	return bracket, nil
}

func coordinateOf(b *models.Bracket, matchID string) (models.Coordinate, error) {
	m := b.MatchByID(matchID)
	if m == nil {
		return models.Coordinate{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return m.Coordinate(), nil
}

// mapProgressionError translates the engine's errors into the service
// taxonomy: bad references become validation errors, everything else is an
// invalid-state precondition.
func mapProgressionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, brackets.ErrMatchNotFound):
		return fmt.Errorf("%w: %w", ErrMatchNotFound, err)
	case errors.Is(err, brackets.ErrWinnerNotInMatch):
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidMatchState, err)
	}
}
