package brackets

import (
	"github.com/Dosada05/bracket-engine/models"
	"github.com/google/uuid"
)

// Losers-bracket topology for a winners bracket of numRounds rounds
// (power-of-two field). Round 0 pairs the winners round-0 losers among
// themselves; after that the rounds alternate between intake rounds, which
// pair the losers dropping out of winners round k against the surviving
// losers-bracket entrants, and consolidation rounds, which pair survivors
// only. The winners final drops nobody: its loser is done after one loss and
// the sole losers-bracket finalist advances to the grand final.
//
// Round index layout: 0 = initial pairing, 2k-1 = intake for winners round k,
// 2k = consolidation after it, for k in [1, numRounds-2]. The last round is
// therefore 2*numRounds-4 (round 0 when numRounds == 2).

func lastLosersRound(numRounds int) int {
	return 2*numRounds - 4
}

func losersRoundSizes(numRounds int) []int {
	sizes := []int{1 << (numRounds - 2)}
	for k := 1; k <= numRounds-2; k++ {
		sizes = append(sizes, 1<<(numRounds-1-k)) // intake
		sizes = append(sizes, 1<<(numRounds-2-k)) // consolidation
	}
	return sizes
}

// dropPosition maps the loser of winners match (k, p) to its intake
// position. Odd winners rounds are mirrored so that entrants who met in the
// winners bracket are kept apart for as long as the topology allows.
func dropPosition(numRounds, k, p int) int {
	count := 1 << (numRounds - 1 - k)
	if k%2 == 1 {
		return count - 1 - p
	}
	return p
}

func buildLosersRounds(numRounds int) []models.Round {
	sizes := losersRoundSizes(numRounds)
	rounds := make([]models.Round, len(sizes))
	for l, count := range sizes {
		matches := make([]*models.Match, count)
		for p := 0; p < count; p++ {
			m := &models.Match{
				ID:       uuid.NewString(),
				Side:     models.SideLosers,
				Round:    l,
				Position: p,
				State:    models.MatchPending,
			}
			switch {
			case l == 0:
				m.Slot1 = models.PendingSlot(models.Coordinate{Side: models.SideWinners, Round: 0, Position: 2 * p}, models.RoleLoser)
				m.Slot2 = models.PendingSlot(models.Coordinate{Side: models.SideWinners, Round: 0, Position: 2*p + 1}, models.RoleLoser)
			case l%2 == 1:
				// Intake: slot 1 receives the drop from winners round k,
				// slot 2 the survivor of the previous losers round.
				k := (l + 1) / 2
				m.Slot1 = models.PendingSlot(models.Coordinate{Side: models.SideWinners, Round: k, Position: dropPosition(numRounds, k, p)}, models.RoleLoser)
				m.Slot2 = models.PendingSlot(models.Coordinate{Side: models.SideLosers, Round: l - 1, Position: p}, models.RoleWinner)
			default:
				// Consolidation: survivors only.
				m.Slot1 = models.PendingSlot(models.Coordinate{Side: models.SideLosers, Round: l - 1, Position: 2 * p}, models.RoleWinner)
				m.Slot2 = models.PendingSlot(models.Coordinate{Side: models.SideLosers, Round: l - 1, Position: 2*p + 1}, models.RoleWinner)
			}
			matches[p] = m
		}
		rounds[l] = models.Round{Matches: matches}
	}
	return rounds
}

func wireLosers(b *models.Bracket, numRounds int) {
	last := lastLosersRound(numRounds)

	// Loser drops out of the winners bracket. Every winners-side match except
	// the winners final has exactly one loser-forward pointer.
	for r, round := range b.Rounds.Winners {
		for p, m := range round.Matches {
			switch {
			case r == 0:
				m.LoserTo = &models.Coordinate{Side: models.SideLosers, Round: 0, Position: p / 2}
				m.LoserToSlot = p%2 + 1
			case r <= numRounds-2:
				m.LoserTo = &models.Coordinate{Side: models.SideLosers, Round: 2*r - 1, Position: dropPosition(numRounds, r, p)}
				m.LoserToSlot = 1
			}
		}
	}

	// Winner advancement inside the losers bracket.
	for l, round := range b.Rounds.Losers {
		for p, m := range round.Matches {
			if l == last {
				m.WinnerTo = &models.Coordinate{Side: models.SideGrand, Round: 0, Position: 0}
				m.WinnerToSlot = 2
				continue
			}
			if l%2 == 1 {
				// Intake feeds the consolidation round at half the size.
				m.WinnerTo = &models.Coordinate{Side: models.SideLosers, Round: l + 1, Position: p / 2}
				m.WinnerToSlot = p%2 + 1
			} else {
				// Round 0 and consolidation rounds feed the next intake at
				// the same size, always into the survivor slot.
				m.WinnerTo = &models.Coordinate{Side: models.SideLosers, Round: l + 1, Position: p}
				m.WinnerToSlot = 2
			}
		}
	}
}

// buildGrandFinal creates the two grand-final matches. Match 1 pits the
// winners-bracket champion (slot 1) against the losers-bracket champion
// (slot 2). Match 2 is the bracket reset: its slots stay pending forever
// unless the losers-bracket champion wins match 1.
func buildGrandFinal(numRounds int) []models.Round {
	gf1Coord := models.Coordinate{Side: models.SideGrand, Round: 0, Position: 0}

	gf1 := &models.Match{
		ID:    uuid.NewString(),
		Side:  models.SideGrand,
		Round: 0,
		State: models.MatchPending,
		Slot1: models.PendingSlot(models.Coordinate{Side: models.SideWinners, Round: numRounds - 1, Position: 0}, models.RoleWinner),
		Slot2: models.PendingSlot(models.Coordinate{Side: models.SideLosers, Round: lastLosersRound(numRounds), Position: 0}, models.RoleWinner),

		WinnerTo:     &models.Coordinate{Side: models.SideGrand, Round: 1, Position: 0},
		WinnerToSlot: 1,
		LoserTo:      &models.Coordinate{Side: models.SideGrand, Round: 1, Position: 0},
		LoserToSlot:  2,
	}

	gf2 := &models.Match{
		ID:    uuid.NewString(),
		Side:  models.SideGrand,
		Round: 1,
		State: models.MatchPending,
		Slot1: models.PendingSlot(gf1Coord, models.RoleWinner),
		Slot2: models.PendingSlot(gf1Coord, models.RoleLoser),
	}

	return []models.Round{
		{Matches: []*models.Match{gf1}},
		{Matches: []*models.Match{gf2}},
	}
}
