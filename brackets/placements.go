package brackets

import (
	"errors"

	"github.com/Dosada05/bracket-engine/models"
)

var ErrBracketNotComplete = errors.New("bracket has not reached a terminal state")

type Placement struct {
	Place  int
	SeedID string
}

// Placements derives the final standings from a terminal bracket, best place
// first. Placement follows elimination order: participants knocked out later
// rank higher, and losers of the same round take consecutive places. Bye
// walkovers and void pairings eliminate nobody and contribute no entries.
func Placements(b *models.Bracket) ([]Placement, error) {
	champion := b.ChampionID()
	if champion == nil {
		return nil, ErrBracketNotComplete
	}

	out := []Placement{{Place: 1, SeedID: *champion}}

	if b.Kind == models.BracketSingle {
		final := b.WinnersFinal()
		place := 2
		if final.LoserID != nil {
			out = append(out, Placement{Place: place, SeedID: *final.LoserID})
			place++
		}
		for r := len(b.Rounds.Winners) - 2; r >= 0; r-- {
			for _, m := range b.Rounds.Winners[r].Matches {
				if m.LoserID != nil {
					out = append(out, Placement{Place: place, SeedID: *m.LoserID})
					place++
				}
			}
		}
		return out, nil
	}

	// Double elimination: second place is the other grand-final participant,
	// third the winners-final loser (one loss, but nowhere left to drop),
	// then the losers bracket unwinds in reverse round order.
	gf1 := b.GrandFinal(1)
	if gf1.Slot1.SeedID != nil && *gf1.Slot1.SeedID != *champion {
		out = append(out, Placement{Place: 2, SeedID: *gf1.Slot1.SeedID})
	} else if gf1.Slot2.SeedID != nil {
		out = append(out, Placement{Place: 2, SeedID: *gf1.Slot2.SeedID})
	}

	place := 3
	if wf := b.WinnersFinal(); wf.LoserID != nil {
		out = append(out, Placement{Place: place, SeedID: *wf.LoserID})
		place++
	}
	for l := len(b.Rounds.Losers) - 1; l >= 0; l-- {
		for _, m := range b.Rounds.Losers[l].Matches {
			if m.LoserID != nil {
				out = append(out, Placement{Place: place, SeedID: *m.LoserID})
				place++
			}
		}
	}
	return out, nil
}
