package brackets

import (
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/google/uuid"
)

var (
	ErrNotEnoughSeeds   = errors.New("at least 2 seeds are required to generate a bracket")
	ErrDuplicateSeed    = errors.New("seed list contains duplicates")
	ErrUnknownKind      = errors.New("unknown bracket kind")
	ErrDoubleElimRoster = errors.New("double elimination requires a power-of-two seed count of at least 4")
)

// BracketSize returns the smallest power of two >= n.
func BracketSize(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Generate builds a fully wired bracket for the given ordered seed list.
// Deterministic and side-effect free. Byes occupy the trailing round-0
// positions, and bye chains are collapsed before the bracket is returned,
// so a caller never has to act on a match that only exists structurally.
func Generate(tournamentID string, seeds []string, kind models.BracketKind) (*models.Bracket, error) {
	n := len(seeds)
	if n < 2 {
		return nil, ErrNotEnoughSeeds
	}
	seen := make(map[string]struct{}, n)
	for _, s := range seeds {
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSeed, s)
		}
		seen[s] = struct{}{}
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	size := BracketSize(n)
	numRounds := bits.Len(uint(size)) - 1

	if kind == models.BracketDouble && (n < 4 || n != size) {
		// The config-validation collaborator rejects these upstream; the
		// check here keeps the generator safe to call directly.
		return nil, fmt.Errorf("%w: got %d seeds", ErrDoubleElimRoster, n)
	}

	b := &models.Bracket{
		TournamentID: tournamentID,
		Kind:         kind,
		Version:      1,
		CreatedAt:    time.Now().UTC(),
	}

	b.Rounds.Winners = buildWinnersRounds(seeds, size, numRounds)
	wireWinners(b, numRounds)

	if kind == models.BracketDouble {
		b.Rounds.Losers = buildLosersRounds(numRounds)
		wireLosers(b, numRounds)
		b.Rounds.Grand = buildGrandFinal(numRounds)
	}

	// Collapse bye chains: every round-0 pairing that contains a bye resolves
	// at construction time and propagates, possibly several rounds deep.
	worklist := make([]models.Coordinate, 0, size/2)
	for p := range b.Rounds.Winners[0].Matches {
		worklist = append(worklist, models.Coordinate{Side: models.SideWinners, Round: 0, Position: p})
	}
	resolveAuto(b, worklist)

	return b, nil
}

func buildWinnersRounds(seeds []string, size, numRounds int) []models.Round {
	rounds := make([]models.Round, numRounds)
	for r := 0; r < numRounds; r++ {
		count := size >> (r + 1)
		matches := make([]*models.Match, count)
		for p := 0; p < count; p++ {
			m := &models.Match{
				ID:       uuid.NewString(),
				Side:     models.SideWinners,
				Round:    r,
				Position: p,
				State:    models.MatchPending,
			}
			if r == 0 {
				m.Slot1 = seedOrBye(seeds, 2*p)
				m.Slot2 = seedOrBye(seeds, 2*p+1)
			} else {
				m.Slot1 = models.PendingSlot(models.Coordinate{Side: models.SideWinners, Round: r - 1, Position: 2 * p}, models.RoleWinner)
				m.Slot2 = models.PendingSlot(models.Coordinate{Side: models.SideWinners, Round: r - 1, Position: 2*p + 1}, models.RoleWinner)
			}
			matches[p] = m
		}
		rounds[r] = models.Round{Matches: matches}
	}
	return rounds
}

func seedOrBye(seeds []string, idx int) models.Slot {
	if idx < len(seeds) {
		return models.FilledSlot(seeds[idx])
	}
	return models.ByeSlot()
}

func wireWinners(b *models.Bracket, numRounds int) {
	for r, round := range b.Rounds.Winners {
		for p, m := range round.Matches {
			if r < numRounds-1 {
				m.WinnerTo = &models.Coordinate{Side: models.SideWinners, Round: r + 1, Position: p / 2}
				m.WinnerToSlot = p%2 + 1
			} else if b.Kind == models.BracketDouble {
				m.WinnerTo = &models.Coordinate{Side: models.SideGrand, Round: 0, Position: 0}
				m.WinnerToSlot = 1
			}
			// Single elimination: the winners final has no forward pointer,
			// its winner is the champion.
		}
	}
}
