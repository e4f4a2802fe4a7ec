package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

const (
	maxMutationAttempts = 4
	initialRetryBackoff = 25 * time.Millisecond
)

type BracketService interface {
	// CreateBracket generates and persists the bracket for a tournament.
	// Idempotent: if a bracket already exists the stored one is returned
	// unchanged and the arguments are ignored, no error.
	CreateBracket(ctx context.Context, tournamentID string, seeds []string, kind models.BracketKind) (*models.Bracket, error)

	GetBracket(ctx context.Context, tournamentID string) (*models.Bracket, error)

	// ApplyMutation fetches the current bracket, runs mutate on a private
	// copy and persists it conditioned on the version not having moved,
	// retrying with backoff on conflicts. Exactly one broadcast per
	// successful mutation; a failed mutation leaves the bracket untouched.
	ApplyMutation(ctx context.Context, tournamentID string, mutate func(*models.Bracket) error) (*models.Bracket, error)
}

type bracketService struct {
	bracketRepo repositories.BracketRepository
	broadcaster *brackets.Broadcaster
	logger      *slog.Logger
}

func NewBracketService(
	bracketRepo repositories.BracketRepository,
	broadcaster *brackets.Broadcaster,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		bracketRepo: bracketRepo,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *bracketService) CreateBracket(ctx context.Context, tournamentID string, seeds []string, kind models.BracketKind) (*models.Bracket, error) {
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrValidationFailed)
	}

	generated, err := brackets.Generate(tournamentID, seeds, kind)
	if err != nil {
		// The arguments only matter on first creation. If a bracket already
		// exists this call is a repeat and returns it, whatever was sent.
		if existing, getErr := s.bracketRepo.Get(ctx, tournamentID); getErr == nil {
			s.logger.Info("bracket create was idempotent", slog.String("tournament_id", tournamentID))
			return existing, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	stored, created, err := s.bracketRepo.Create(ctx, generated)
	if err != nil {
		return nil, fmt.Errorf("failed to persist bracket for tournament %s: %w", tournamentID, err)
	}
	if !created {
		// Repeat call or lost race: the stored structure wins, whatever the
		// arguments were this time.
		s.logger.Info("bracket create was idempotent", slog.String("tournament_id", tournamentID))
		return stored, nil
	}

	s.logger.Info("bracket created",
		slog.String("tournament_id", tournamentID),
		slog.String("kind", string(kind)),
		slog.Int("seeds", len(seeds)),
	)
	s.broadcaster.Publish(tournamentID, stored)
	return stored, nil
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID string) (*models.Bracket, error) {
	bracket, err := s.bracketRepo.Get(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketNotFound) {
			return nil, fmt.Errorf("%w: tournament %s", ErrBracketNotFound, tournamentID)
		}
		return nil, fmt.Errorf("failed to load bracket for tournament %s: %w", tournamentID, err)
	}
	return bracket, nil
}

func (s *bracketService) ApplyMutation(ctx context.Context, tournamentID string, mutate func(*models.Bracket) error) (*models.Bracket, error) {
	backoff := initialRetryBackoff

	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		current, err := s.GetBracket(ctx, tournamentID)
		if err != nil {
			return nil, err
		}

		next, err := current.Clone()
		if err != nil {
			return nil, err
		}
		if err := mutate(next); err != nil {
			return nil, err
		}

		err = s.bracketRepo.Update(ctx, next, current.Version)
		if err == nil {
			s.broadcaster.Publish(tournamentID, next)
			return next, nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			if errors.Is(err, repositories.ErrBracketNotFound) {
				return nil, fmt.Errorf("%w: tournament %s", ErrBracketNotFound, tournamentID)
			}
			return nil, fmt.Errorf("failed to persist mutation for tournament %s: %w", tournamentID, err)
		}

		s.logger.Warn("bracket mutation conflict, retrying",
			slog.String("tournament_id", tournamentID),
			slog.Int("attempt", attempt),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("%w: tournament %s", ErrVersionConflict, tournamentID)
}
