package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

var (
	ErrMatchNotFound     = errors.New("match not found in bracket")
	ErrMatchNotReady     = errors.New("match is not ready for a result")
	ErrScoresTied        = errors.New("scores are tied and no winner was given")
	ErrWinnerNotInMatch  = errors.New("winner is not a participant of this match")
	ErrMatchNotReported  = errors.New("match has no reported result")
	ErrWinnerWouldChange = errors.New("new scores would change the winner; use override or reset")
	ErrByeWalkover       = errors.New("match was resolved by a bye and cannot be reset")
)

// Report records a played result. The winner is the override if given,
// otherwise the higher-scoring side. On success the result is propagated
// into the slots that consume this match's winner and loser, and any bye
// chain downstream resolves immediately.
func Report(b *models.Bracket, coord models.Coordinate, score1, score2 int, winnerOverride *string) error {
	m := b.MatchAt(coord)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, coord)
	}
	if !reportable(m) {
		return fmt.Errorf("%w: %s is %s", ErrMatchNotReady, coord, m.State)
	}

	winner, err := decideWinner(m, score1, score2, winnerOverride)
	if err != nil {
		return err
	}

	// A walkover's winner already propagated at generation time; attaching a
	// score keeps the same winner, so the downstream slots must stay as they
	// are.
	alreadyDecided := m.Decided()

	s1, s2 := score1, score2
	m.Score1, m.Score2 = &s1, &s2
	setResult(m, winner)
	if !alreadyDecided {
		propagate(b, m)
	}
	return nil
}

// Override forces a winner regardless of scores, and is allowed even on an
// already decided match. When the forced winner differs from a previously
// propagated one, every downstream match that consumed the old result is
// cleared before the new result propagates.
func Override(b *models.Bracket, coord models.Coordinate, winnerID string, score1, score2 *int) error {
	m := b.MatchAt(coord)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, coord)
	}
	if m.State == models.MatchPending {
		return fmt.Errorf("%w: %s has an unresolved slot", ErrMatchNotReady, coord)
	}
	if !isParticipant(m, winnerID) {
		return fmt.Errorf("%w: %q", ErrWinnerNotInMatch, winnerID)
	}

	winnerChanged := m.Decided() && m.WinnerID != nil && *m.WinnerID != winnerID
	wasDecided := m.Decided()

	if winnerChanged {
		clearDownstream(b, m)
	}

	setScores(m, score1, score2)
	setResult(m, winnerID)

	if winnerChanged || !wasDecided {
		propagate(b, m)
	}
	return nil
}

// Edit replaces the scores of a reported match without touching propagation.
// The recomputed winner must equal the stored one; a winner-changing edit is
// rejected so results never change silently.
func Edit(b *models.Bracket, coord models.Coordinate, score1, score2 int) error {
	m := b.MatchAt(coord)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, coord)
	}
	if !m.Decided() || m.WinnerID == nil {
		return fmt.Errorf("%w: %s is %s", ErrMatchNotReported, coord, m.State)
	}
	if score1 == score2 {
		return fmt.Errorf("%w: scores are tied", ErrWinnerWouldChange)
	}

	var newWinner *string
	if score1 > score2 {
		newWinner = m.Slot1.SeedID
	} else {
		newWinner = m.Slot2.SeedID
	}
	if newWinner == nil || *newWinner != *m.WinnerID {
		return ErrWinnerWouldChange
	}

	s1, s2 := score1, score2
	m.Score1, m.Score2 = &s1, &s2
	m.State = models.MatchEdited
	return nil
}

// Reset clears a decided match back to ready (or pending, if one of its own
// inputs has been invalidated) and cascades forward: every match whose
// inputs depended, directly or transitively, on the cleared result loses its
// result and its fed slots revert to pending. No match ever keeps a result
// computed from now-invalid inputs.
func Reset(b *models.Bracket, coord models.Coordinate) error {
	m := b.MatchAt(coord)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, coord)
	}
	if !m.Decided() {
		return fmt.Errorf("%w: %s is %s", ErrMatchNotReported, coord, m.State)
	}
	if m.HasBye() {
		return fmt.Errorf("%w: %s", ErrByeWalkover, coord)
	}

	clearDownstream(b, m)
	m.Score1, m.Score2 = nil, nil
	m.WinnerID, m.LoserID = nil, nil
	if m.Slot1.Kind == models.SlotFilled && m.Slot2.Kind == models.SlotFilled {
		m.State = models.MatchReady
	} else {
		m.State = models.MatchPending
	}
	return nil
}

func reportable(m *models.Match) bool {
	if m.State == models.MatchReady {
		return true
	}
	// A bye walkover may still receive a real score once, as long as the
	// reported winner stays the non-bye side.
	return m.State == models.MatchReported && m.HasBye() &&
		m.WinnerID != nil && m.Score1 == nil && m.Score2 == nil
}

func decideWinner(m *models.Match, score1, score2 int, override *string) (string, error) {
	if override != nil {
		if !isParticipant(m, *override) {
			return "", fmt.Errorf("%w: %q", ErrWinnerNotInMatch, *override)
		}
		return *override, nil
	}
	if score1 == score2 {
		return "", ErrScoresTied
	}
	var winner *string
	if score1 > score2 {
		winner = m.Slot1.SeedID
	} else {
		winner = m.Slot2.SeedID
	}
	if winner == nil {
		return "", fmt.Errorf("%w: higher score on an empty side", ErrWinnerNotInMatch)
	}
	return *winner, nil
}

func isParticipant(m *models.Match, seedID string) bool {
	if m.Slot1.SeedID != nil && *m.Slot1.SeedID == seedID {
		return true
	}
	return m.Slot2.SeedID != nil && *m.Slot2.SeedID == seedID
}

func setScores(m *models.Match, score1, score2 *int) {
	m.Score1, m.Score2 = nil, nil
	if score1 != nil {
		s1 := *score1
		m.Score1 = &s1
	}
	if score2 != nil {
		s2 := *score2
		m.Score2 = &s2
	}
}

func setResult(m *models.Match, winnerID string) {
	w := winnerID
	m.WinnerID = &w
	m.LoserID = nil
	if m.Slot1.SeedID != nil && *m.Slot1.SeedID != winnerID {
		l := *m.Slot1.SeedID
		m.LoserID = &l
	}
	if m.Slot2.SeedID != nil && *m.Slot2.SeedID != winnerID {
		l := *m.Slot2.SeedID
		m.LoserID = &l
	}
	m.State = models.MatchReported
}

func propagate(b *models.Bracket, m *models.Match) {
	var queue []models.Coordinate
	emit(b, m, &queue)
	resolveAuto(b, queue)
}

// emit pushes a decided match's winner and loser into the slots wired to
// consume them and queues the receiving matches for auto-resolution. A nil
// winner or loser (walkovers, void pairings) forwards a bye instead.
func emit(b *models.Bracket, m *models.Match, queue *[]models.Coordinate) {
	if holdsGrandFinal(m) {
		// The winners-bracket champion won grand final 1: the title is
		// decided and the bracket-reset match is never activated.
		return
	}
	if m.WinnerTo != nil {
		fillSlot(b, *m.WinnerTo, m.WinnerToSlot, m.WinnerID)
		*queue = append(*queue, *m.WinnerTo)
	}
	if m.LoserTo != nil {
		fillSlot(b, *m.LoserTo, m.LoserToSlot, m.LoserID)
		*queue = append(*queue, *m.LoserTo)
	}
}

func holdsGrandFinal(m *models.Match) bool {
	return m.Side == models.SideGrand && m.Round == 0 &&
		m.WinnerID != nil && m.Slot1.SeedID != nil && *m.WinnerID == *m.Slot1.SeedID
}

func fillSlot(b *models.Bracket, coord models.Coordinate, slotNo int, seedID *string) {
	target := b.MatchAt(coord)
	if target == nil {
		panic(fmt.Sprintf("bracket invariant violated: forward pointer to missing match %s", coord))
	}
	slot := target.Slot(slotNo)
	if slot.Kind != models.SlotPending {
		panic(fmt.Sprintf("bracket invariant violated: slot %d of %s is %s, expected pending", slotNo, coord, slot.Kind))
	}
	if seedID == nil {
		slot.Kind = models.SlotBye
		slot.SeedID = nil
		return
	}
	v := *seedID
	slot.Kind = models.SlotFilled
	slot.SeedID = &v
}

// resolveAuto drains a worklist of matches whose slots may have just
// resolved. Matches with two filled slots become ready; a filled slot paired
// with a bye resolves as a walkover; two byes resolve as a void pairing that
// forwards byes. Walkovers and void pairings re-enter the worklist through
// their own forward pointers, so a chain of byes collapses without bounded
// recursion depth.
func resolveAuto(b *models.Bracket, queue []models.Coordinate) {
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		m := b.MatchAt(c)
		if m == nil || m.State != models.MatchPending {
			continue
		}
		if !m.Slot1.Resolved() || !m.Slot2.Resolved() {
			continue
		}
		switch {
		case m.Slot1.Kind == models.SlotFilled && m.Slot2.Kind == models.SlotFilled:
			m.State = models.MatchReady
		case m.Slot1.Kind == models.SlotBye && m.Slot2.Kind == models.SlotBye:
			m.State = models.MatchReported
			emit(b, m, &queue)
		default:
			var winner *string
			if m.Slot1.Kind == models.SlotFilled {
				winner = m.Slot1.SeedID
			} else {
				winner = m.Slot2.SeedID
			}
			w := *winner
			m.WinnerID = &w
			m.State = models.MatchReported
			emit(b, m, &queue)
		}
	}
}

// clearDownstream walks forward pointers from the origin with a worklist and
// reverts every slot the origin's result (directly or transitively) filled,
// wiping the results of the matches that consumed them on the way.
func clearDownstream(b *models.Bracket, origin *models.Match) {
	queue := []models.Coordinate{origin.Coordinate()}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		m := b.MatchAt(c)
		edges := []struct {
			to     *models.Coordinate
			slotNo int
		}{
			{m.WinnerTo, m.WinnerToSlot},
			{m.LoserTo, m.LoserToSlot},
		}
		for _, e := range edges {
			if e.to == nil {
				continue
			}
			target := b.MatchAt(*e.to)
			slot := target.Slot(e.slotNo)
			if slot.Kind == models.SlotPending {
				// Never consumed; nothing downstream along this edge.
				continue
			}
			slot.Kind = models.SlotPending
			slot.SeedID = nil
			target.Score1, target.Score2 = nil, nil
			target.WinnerID, target.LoserID = nil, nil
			target.State = models.MatchPending
			queue = append(queue, *e.to)
		}
	}
}
