package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBracketJSONShape(t *testing.T) {
	seed := "a"
	b := &Bracket{
		TournamentID: "t1",
		Kind:         BracketSingle,
		Version:      1,
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Rounds: Rounds{
			Winners: []Round{{Matches: []*Match{{
				ID:    "m1",
				Side:  SideWinners,
				State: MatchReady,
				Slot1: FilledSlot(seed),
				Slot2: ByeSlot(),
			}}}},
		},
	}

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Contains(t, doc, "tournamentId")
	assert.Contains(t, doc, "kind")
	assert.Contains(t, doc, "rounds")
	assert.Contains(t, doc, "createdAt")

	rounds := doc["rounds"].(map[string]interface{})
	assert.Contains(t, rounds, "winners")

	match := rounds["winners"].([]interface{})[0].(map[string]interface{})["matches"].([]interface{})[0].(map[string]interface{})
	assert.Contains(t, match, "slot1")
	assert.Contains(t, match, "slot2")
	assert.Equal(t, "ready", match["state"])

	slot1 := match["slot1"].(map[string]interface{})
	assert.Equal(t, "filled", slot1["kind"])
	assert.Equal(t, "a", slot1["seedId"])
}

func TestCloneIsDeep(t *testing.T) {
	seed := "a"
	b := &Bracket{
		TournamentID: "t1",
		Kind:         BracketSingle,
		Version:      3,
		CreatedAt:    time.Now().UTC(),
		Rounds: Rounds{
			Winners: []Round{{Matches: []*Match{{
				ID:    "m1",
				Side:  SideWinners,
				State: MatchReady,
				Slot1: FilledSlot(seed),
				Slot2: FilledSlot("b"),
			}}}},
		},
	}

	clone, err := b.Clone()
	require.NoError(t, err)
	require.Equal(t, b.Version, clone.Version)

	// Mutating the clone must not leak into the original.
	clone.Rounds.Winners[0].Matches[0].State = MatchReported
	w := "a"
	clone.Rounds.Winners[0].Matches[0].WinnerID = &w

	assert.Equal(t, MatchReady, b.Rounds.Winners[0].Matches[0].State)
	assert.Nil(t, b.Rounds.Winners[0].Matches[0].WinnerID)
}

func TestChampionIDDoubleElimination(t *testing.T) {
	wb := "a"
	lb := "b"

	newBracket := func() *Bracket {
		return &Bracket{
			Kind: BracketDouble,
			Rounds: Rounds{
				Grand: []Round{
					{Matches: []*Match{{Side: SideGrand, Round: 0, Slot1: FilledSlot(wb), Slot2: FilledSlot(lb), State: MatchPending}}},
					{Matches: []*Match{{Side: SideGrand, Round: 1, State: MatchPending}}},
				},
			},
		}
	}

	t.Run("undecided", func(t *testing.T) {
		assert.Nil(t, newBracket().ChampionID())
	})

	t.Run("winners champion holds", func(t *testing.T) {
		b := newBracket()
		gf1 := b.GrandFinal(1)
		gf1.State = MatchReported
		gf1.WinnerID = &wb
		require.NotNil(t, b.ChampionID())
		assert.Equal(t, "a", *b.ChampionID())
	})

	t.Run("reset pending", func(t *testing.T) {
		b := newBracket()
		gf1 := b.GrandFinal(1)
		gf1.State = MatchReported
		gf1.WinnerID = &lb
		assert.Nil(t, b.ChampionID())
	})

	t.Run("reset decided", func(t *testing.T) {
		b := newBracket()
		gf1 := b.GrandFinal(1)
		gf1.State = MatchReported
		gf1.WinnerID = &lb
		gf2 := b.GrandFinal(2)
		gf2.State = MatchReported
		gf2.WinnerID = &lb
		require.NotNil(t, b.ChampionID())
		assert.Equal(t, "b", *b.ChampionID())
	})
}
