package brackets

import (
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coord(side models.Side, round, position int) models.Coordinate {
	return models.Coordinate{Side: side, Round: round, Position: position}
}

func mustReport(t *testing.T, b *models.Bracket, c models.Coordinate, s1, s2 int) {
	t.Helper()
	require.NoError(t, Report(b, c, s1, s2, nil))
}

func strPtr(s string) *string { return &s }

func TestReportTwoPlayerFinal(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b"}, models.BracketSingle)
	require.NoError(t, err)

	final := b.WinnersFinal()
	assert.Equal(t, models.MatchReady, final.State)

	mustReport(t, b, coord(models.SideWinners, 0, 0), 3, 1)

	assert.Equal(t, models.MatchReported, final.State)
	require.NotNil(t, final.WinnerID)
	assert.Equal(t, "a", *final.WinnerID)
	require.NotNil(t, final.LoserID)
	assert.Equal(t, "b", *final.LoserID)
	assert.True(t, b.Complete())
	assert.Equal(t, "a", *b.ChampionID())
}

func TestReportErrors(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c", "d"}, models.BracketSingle)
	require.NoError(t, err)

	t.Run("pending match rejects a result", func(t *testing.T) {
		err := Report(b, coord(models.SideWinners, 1, 0), 1, 0, nil)
		assert.ErrorIs(t, err, ErrMatchNotReady)
	})

	t.Run("tie without a winner", func(t *testing.T) {
		err := Report(b, coord(models.SideWinners, 0, 0), 2, 2, nil)
		assert.ErrorIs(t, err, ErrScoresTied)
	})

	t.Run("tie with an explicit winner", func(t *testing.T) {
		bb, err := Generate("t1", []string{"a", "b"}, models.BracketSingle)
		require.NoError(t, err)
		require.NoError(t, Report(bb, coord(models.SideWinners, 0, 0), 2, 2, strPtr("b")))
		assert.Equal(t, "b", *bb.ChampionID())
	})

	t.Run("winner not a participant", func(t *testing.T) {
		err := Report(b, coord(models.SideWinners, 0, 0), 1, 0, strPtr("zz"))
		assert.ErrorIs(t, err, ErrWinnerNotInMatch)
	})

	t.Run("unknown coordinate", func(t *testing.T) {
		err := Report(b, coord(models.SideWinners, 9, 0), 1, 0, nil)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("double report", func(t *testing.T) {
		mustReport(t, b, coord(models.SideWinners, 0, 0), 1, 0)
		err := Report(b, coord(models.SideWinners, 0, 0), 0, 1, nil)
		assert.ErrorIs(t, err, ErrMatchNotReady)
	})
}

func TestReportScoreOntoWalkover(t *testing.T) {
	// A bye walkover is reported without scores at generation time; a real
	// score may be attached once, but the winner cannot flip to the bye side.
	b, err := Generate("t1", []string{"a", "b", "c"}, models.BracketSingle)
	require.NoError(t, err)

	walkover := coord(models.SideWinners, 0, 1)

	err = Report(b, walkover, 0, 2, nil)
	assert.ErrorIs(t, err, ErrWinnerNotInMatch)

	require.NotPanics(t, func() {
		err = Report(b, walkover, 2, 0, nil)
	})
	require.NoError(t, err)
	m := b.MatchAt(walkover)
	assert.Equal(t, "c", *m.WinnerID)
	require.NotNil(t, m.Score1)
	assert.Equal(t, 2, *m.Score1)

	// The winner had already advanced at generation time; attaching the score
	// must leave the downstream slot exactly as it was.
	final := b.WinnersFinal()
	assert.Equal(t, models.SlotFilled, final.Slot2.Kind)
	assert.Equal(t, "c", *final.Slot2.SeedID)
	assert.Equal(t, models.MatchPending, final.State)

	// Only once: with scores attached the walkover is an ordinary result.
	err = Report(b, walkover, 3, 0, nil)
	assert.ErrorIs(t, err, ErrMatchNotReady)
}

func TestPropagationFillsDownstreamSlots(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c", "d"}, models.BracketSingle)
	require.NoError(t, err)

	mustReport(t, b, coord(models.SideWinners, 0, 0), 2, 0)
	final := b.WinnersFinal()
	assert.Equal(t, models.SlotFilled, final.Slot1.Kind)
	assert.Equal(t, "a", *final.Slot1.SeedID)
	assert.Equal(t, models.MatchPending, final.State)

	mustReport(t, b, coord(models.SideWinners, 0, 1), 0, 2)
	assert.Equal(t, "d", *final.Slot2.SeedID)
	assert.Equal(t, models.MatchReady, final.State)
}

func TestEdit(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c", "d"}, models.BracketSingle)
	require.NoError(t, err)
	c := coord(models.SideWinners, 0, 0)

	t.Run("before any result", func(t *testing.T) {
		assert.ErrorIs(t, Edit(b, c, 5, 3), ErrMatchNotReported)
	})

	mustReport(t, b, c, 2, 1)

	t.Run("same winner", func(t *testing.T) {
		require.NoError(t, Edit(b, c, 5, 3))
		m := b.MatchAt(c)
		assert.Equal(t, 5, *m.Score1)
		assert.Equal(t, 3, *m.Score2)
		assert.Equal(t, models.MatchEdited, m.State)
		assert.Equal(t, "a", *m.WinnerID)
	})

	t.Run("winner would change", func(t *testing.T) {
		assert.ErrorIs(t, Edit(b, c, 1, 4), ErrWinnerWouldChange)
	})

	t.Run("tie", func(t *testing.T) {
		assert.ErrorIs(t, Edit(b, c, 4, 4), ErrWinnerWouldChange)
	})
}

func TestResetCascades(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c", "d"}, models.BracketSingle)
	require.NoError(t, err)

	m0 := coord(models.SideWinners, 0, 0)
	m1 := coord(models.SideWinners, 0, 1)
	fc := coord(models.SideWinners, 1, 0)

	mustReport(t, b, m0, 2, 0)
	mustReport(t, b, m1, 2, 0)
	mustReport(t, b, fc, 1, 0)
	require.True(t, b.Complete())

	require.NoError(t, Reset(b, m0))

	src := b.MatchAt(m0)
	assert.Equal(t, models.MatchReady, src.State)
	assert.Nil(t, src.WinnerID)
	assert.Nil(t, src.Score1)

	// The final consumed the invalidated winner: its result is gone, the fed
	// slot reverted, the other slot untouched.
	final := b.MatchAt(fc)
	assert.Equal(t, models.MatchPending, final.State)
	assert.Equal(t, models.SlotPending, final.Slot1.Kind)
	assert.Equal(t, models.SlotFilled, final.Slot2.Kind)
	assert.Equal(t, "c", *final.Slot2.SeedID)
	assert.Nil(t, final.WinnerID)
	assert.False(t, b.Complete())

	// Replaying restores a consistent bracket.
	mustReport(t, b, m0, 0, 2)
	assert.Equal(t, "b", *final.Slot1.SeedID)
	assert.Equal(t, models.MatchReady, final.State)
}

func TestResetErrors(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c"}, models.BracketSingle)
	require.NoError(t, err)

	t.Run("undecided match", func(t *testing.T) {
		assert.ErrorIs(t, Reset(b, coord(models.SideWinners, 0, 0)), ErrMatchNotReported)
	})

	t.Run("bye walkover", func(t *testing.T) {
		assert.ErrorIs(t, Reset(b, coord(models.SideWinners, 0, 1)), ErrByeWalkover)
	})
}

func TestOverrideChangesWinnerAndCascades(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c", "d"}, models.BracketSingle)
	require.NoError(t, err)

	m0 := coord(models.SideWinners, 0, 0)
	m1 := coord(models.SideWinners, 0, 1)
	fc := coord(models.SideWinners, 1, 0)

	mustReport(t, b, m0, 2, 0)
	mustReport(t, b, m1, 2, 0)
	mustReport(t, b, fc, 1, 0)

	require.NoError(t, Override(b, m0, "b", nil, nil))

	src := b.MatchAt(m0)
	assert.Equal(t, "b", *src.WinnerID)
	assert.Equal(t, "a", *src.LoserID)
	assert.Nil(t, src.Score1)

	// The final's stale result was cleared and the corrected winner advanced.
	final := b.MatchAt(fc)
	assert.Equal(t, "b", *final.Slot1.SeedID)
	assert.Equal(t, "c", *final.Slot2.SeedID)
	assert.Equal(t, models.MatchReady, final.State)
	assert.Nil(t, final.WinnerID)
}

func TestOverrideSameWinnerKeepsDownstream(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c", "d"}, models.BracketSingle)
	require.NoError(t, err)

	m0 := coord(models.SideWinners, 0, 0)
	fc := coord(models.SideWinners, 1, 0)
	mustReport(t, b, m0, 2, 0)
	mustReport(t, b, coord(models.SideWinners, 0, 1), 2, 0)
	mustReport(t, b, fc, 1, 0)

	s1, s2 := 7, 5
	require.NoError(t, Override(b, m0, "a", &s1, &s2))

	assert.Equal(t, 7, *b.MatchAt(m0).Score1)
	// Same winner, so the decided final stays decided.
	assert.Equal(t, models.MatchReported, b.MatchAt(fc).State)
	assert.True(t, b.Complete())
}

func TestOverrideErrors(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c", "d"}, models.BracketSingle)
	require.NoError(t, err)

	t.Run("pending match", func(t *testing.T) {
		err := Override(b, coord(models.SideWinners, 1, 0), "a", nil, nil)
		assert.ErrorIs(t, err, ErrMatchNotReady)
	})

	t.Run("non-participant", func(t *testing.T) {
		err := Override(b, coord(models.SideWinners, 0, 0), "zz", nil, nil)
		assert.ErrorIs(t, err, ErrWinnerNotInMatch)
	})
}

func TestOverrideDecidesReadyMatch(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b"}, models.BracketSingle)
	require.NoError(t, err)

	require.NoError(t, Override(b, coord(models.SideWinners, 0, 0), "b", nil, nil))
	assert.True(t, b.Complete())
	assert.Equal(t, "b", *b.ChampionID())
}

func TestDoubleEliminationFullRun(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c", "d"}, models.BracketDouble)
	require.NoError(t, err)

	// Winners round 0.
	mustReport(t, b, coord(models.SideWinners, 0, 0), 1, 0) // a beats b
	mustReport(t, b, coord(models.SideWinners, 0, 1), 1, 0) // c beats d

	// Both losers landed in the losers bracket.
	lb := b.MatchAt(coord(models.SideLosers, 0, 0))
	assert.Equal(t, "b", *lb.Slot1.SeedID)
	assert.Equal(t, "d", *lb.Slot2.SeedID)
	assert.Equal(t, models.MatchReady, lb.State)

	// Winners final: its loser stays put, one loss is not elimination here
	// but there is no further drop.
	mustReport(t, b, coord(models.SideWinners, 1, 0), 1, 0) // a beats c
	gf1 := b.GrandFinal(1)
	assert.Equal(t, "a", *gf1.Slot1.SeedID)
	assert.Equal(t, models.SlotPending, gf1.Slot2.Kind)

	mustReport(t, b, coord(models.SideLosers, 0, 0), 1, 0) // b beats d
	assert.Equal(t, "b", *gf1.Slot2.SeedID)
	assert.Equal(t, models.MatchReady, gf1.State)
	assert.False(t, b.Complete())

	// Losers-bracket champion wins grand final 1: bracket reset.
	mustReport(t, b, coord(models.SideGrand, 0, 0), 0, 1) // b beats a
	require.False(t, b.Complete())

	gf2 := b.GrandFinal(2)
	assert.Equal(t, "b", *gf2.Slot1.SeedID)
	assert.Equal(t, "a", *gf2.Slot2.SeedID)
	assert.Equal(t, models.MatchReady, gf2.State)

	mustReport(t, b, coord(models.SideGrand, 1, 0), 0, 1) // a beats b
	require.True(t, b.Complete())
	assert.Equal(t, "a", *b.ChampionID())
}

func TestDoubleEliminationNoBracketReset(t *testing.T) {
	b, err := Generate("t1", []string{"a", "b", "c", "d"}, models.BracketDouble)
	require.NoError(t, err)

	mustReport(t, b, coord(models.SideWinners, 0, 0), 1, 0)
	mustReport(t, b, coord(models.SideWinners, 0, 1), 1, 0)
	mustReport(t, b, coord(models.SideWinners, 1, 0), 1, 0)
	mustReport(t, b, coord(models.SideLosers, 0, 0), 1, 0)

	// Winners-bracket champion wins grand final 1: done, no reset match.
	mustReport(t, b, coord(models.SideGrand, 0, 0), 1, 0)

	require.True(t, b.Complete())
	assert.Equal(t, "a", *b.ChampionID())

	gf2 := b.GrandFinal(2)
	assert.Equal(t, models.MatchPending, gf2.State)
	assert.Equal(t, models.SlotPending, gf2.Slot1.Kind)
	assert.Equal(t, models.SlotPending, gf2.Slot2.Kind)
}

func TestDoubleEliminationEightPlayers(t *testing.T) {
	seeds := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	b, err := Generate("t1", seeds, models.BracketDouble)
	require.NoError(t, err)

	// Higher seed (slot 1) wins everything on the winners side.
	for r := 0; r < 3; r++ {
		for p := range b.Rounds.Winners[r].Matches {
			mustReport(t, b, coord(models.SideWinners, r, p), 1, 0)
		}
	}

	// Losers round 0: b vs d, f vs h.
	lb0 := b.Rounds.Losers[0].Matches
	assert.Equal(t, "b", *lb0[0].Slot1.SeedID)
	assert.Equal(t, "d", *lb0[0].Slot2.SeedID)
	assert.Equal(t, "f", *lb0[1].Slot1.SeedID)
	assert.Equal(t, "h", *lb0[1].Slot2.SeedID)
	mustReport(t, b, coord(models.SideLosers, 0, 0), 1, 0) // b
	mustReport(t, b, coord(models.SideLosers, 0, 1), 1, 0) // f

	// Intake round 1: winners round-1 losers drop in mirrored, so g (loser of
	// winners 1/1) meets b, and c (loser of winners 1/0) meets f.
	lb1 := b.Rounds.Losers[1].Matches
	assert.Equal(t, "g", *lb1[0].Slot1.SeedID)
	assert.Equal(t, "b", *lb1[0].Slot2.SeedID)
	assert.Equal(t, "c", *lb1[1].Slot1.SeedID)
	assert.Equal(t, "f", *lb1[1].Slot2.SeedID)
	mustReport(t, b, coord(models.SideLosers, 1, 0), 0, 1) // b
	mustReport(t, b, coord(models.SideLosers, 1, 1), 1, 0) // c

	// Consolidation, then the grand final.
	lb2 := b.MatchAt(coord(models.SideLosers, 2, 0))
	assert.Equal(t, "b", *lb2.Slot1.SeedID)
	assert.Equal(t, "c", *lb2.Slot2.SeedID)
	mustReport(t, b, coord(models.SideLosers, 2, 0), 1, 0) // b

	gf1 := b.GrandFinal(1)
	assert.Equal(t, "a", *gf1.Slot1.SeedID)
	assert.Equal(t, "b", *gf1.Slot2.SeedID)
	mustReport(t, b, coord(models.SideGrand, 0, 0), 1, 0)
	assert.Equal(t, "a", *b.ChampionID())
}
