package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type BracketKind string

const (
	BracketSingle BracketKind = "single"
	BracketDouble BracketKind = "double"
)

func (k BracketKind) Valid() bool {
	return k == BracketSingle || k == BracketDouble
}

type Side string

const (
	SideWinners Side = "winners"
	SideLosers  Side = "losers"
	SideGrand   Side = "grand"
)

type SlotRole string

const (
	RoleWinner SlotRole = "winner"
	RoleLoser  SlotRole = "loser"
)

type SlotKind string

const (
	SlotFilled  SlotKind = "filled"
	SlotBye     SlotKind = "bye"
	SlotPending SlotKind = "pending"
)

type MatchState string

const (
	MatchPending  MatchState = "pending"
	MatchReady    MatchState = "ready"
	MatchReported MatchState = "reported"
	MatchEdited   MatchState = "edited"
)

// Coordinate addresses a match inside its bracket. Forward pointers between
// matches are stored as coordinates, not object references, so the whole
// structure serializes flat.
type Coordinate struct {
	Side     Side `json:"side"`
	Round    int  `json:"round"`
	Position int  `json:"position"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%s/%d/%d", c.Side, c.Round, c.Position)
}

// Slot is one side of a match. Kind tells which variant is active:
// a concrete seed, a bye, or a placeholder waiting on an earlier match.
// Source and Role are kept after the slot fills so a cascading reset can
// revert exactly the slots that came from the invalidated match.
type Slot struct {
	Kind   SlotKind    `json:"kind"`
	SeedID *string     `json:"seedId,omitempty"`
	Source *Coordinate `json:"source,omitempty"`
	Role   SlotRole    `json:"role,omitempty"`
}

func FilledSlot(seedID string) Slot {
	return Slot{Kind: SlotFilled, SeedID: &seedID}
}

func ByeSlot() Slot {
	return Slot{Kind: SlotBye}
}

func PendingSlot(source Coordinate, role SlotRole) Slot {
	return Slot{Kind: SlotPending, Source: &source, Role: role}
}

// Resolved reports whether the slot no longer waits on an upstream result.
func (s *Slot) Resolved() bool {
	return s.Kind == SlotFilled || s.Kind == SlotBye
}

type Match struct {
	ID       string `json:"id"`
	Side     Side   `json:"side"`
	Round    int    `json:"round"`
	Position int    `json:"position"`

	Slot1 Slot `json:"slot1"`
	Slot2 Slot `json:"slot2"`

	State    MatchState `json:"state"`
	Score1   *int       `json:"score1,omitempty"`
	Score2   *int       `json:"score2,omitempty"`
	WinnerID *string    `json:"winnerId,omitempty"`
	LoserID  *string    `json:"loserId,omitempty"`

	WinnerTo     *Coordinate `json:"winnerTo,omitempty"`
	WinnerToSlot int         `json:"winnerToSlot,omitempty"`
	LoserTo      *Coordinate `json:"loserTo,omitempty"`
	LoserToSlot  int         `json:"loserToSlot,omitempty"`
}

func (m *Match) Coordinate() Coordinate {
	return Coordinate{Side: m.Side, Round: m.Round, Position: m.Position}
}

func (m *Match) Slot(n int) *Slot {
	if n == 1 {
		return &m.Slot1
	}
	return &m.Slot2
}

// HasBye reports whether either side of the match is a structural bye.
func (m *Match) HasBye() bool {
	return m.Slot1.Kind == SlotBye || m.Slot2.Kind == SlotBye
}

// Decided reports whether the match carries a result (reported or edited,
// including bye walkovers resolved at generation time).
func (m *Match) Decided() bool {
	return m.State == MatchReported || m.State == MatchEdited
}

type Round struct {
	Matches []*Match `json:"matches"`
}

type Rounds struct {
	Winners []Round `json:"winners"`
	Losers  []Round `json:"losers"`
	Grand   []Round `json:"grand"`
}

// Bracket is the unit of consistency: one per tournament, structure fixed
// after generation, only slot contents and match state mutate. Version is
// the optimistic-concurrency token bumped on every persisted mutation.
type Bracket struct {
	TournamentID string      `json:"tournamentId"`
	Kind         BracketKind `json:"kind"`
	Rounds       Rounds      `json:"rounds"`
	Version      int64       `json:"version"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func (b *Bracket) SideRounds(side Side) []Round {
	switch side {
	case SideWinners:
		return b.Rounds.Winners
	case SideLosers:
		return b.Rounds.Losers
	case SideGrand:
		return b.Rounds.Grand
	}
	return nil
}

// MatchAt resolves a coordinate against the bracket, nil if out of range.
func (b *Bracket) MatchAt(c Coordinate) *Match {
	rounds := b.SideRounds(c.Side)
	if c.Round < 0 || c.Round >= len(rounds) {
		return nil
	}
	round := rounds[c.Round]
	if c.Position < 0 || c.Position >= len(round.Matches) {
		return nil
	}
	return round.Matches[c.Position]
}

// MatchByID scans all sides for the match with the given id, nil if absent.
func (b *Bracket) MatchByID(id string) *Match {
	for _, side := range []Side{SideWinners, SideLosers, SideGrand} {
		for _, round := range b.SideRounds(side) {
			for _, m := range round.Matches {
				if m.ID == id {
					return m
				}
			}
		}
	}
	return nil
}

// WinnersFinal returns the last winners-bracket match.
func (b *Bracket) WinnersFinal() *Match {
	if len(b.Rounds.Winners) == 0 {
		return nil
	}
	last := b.Rounds.Winners[len(b.Rounds.Winners)-1]
	if len(last.Matches) == 0 {
		return nil
	}
	return last.Matches[0]
}

// LosersFinal returns the last losers-bracket match, nil for single elimination.
func (b *Bracket) LosersFinal() *Match {
	if len(b.Rounds.Losers) == 0 {
		return nil
	}
	last := b.Rounds.Losers[len(b.Rounds.Losers)-1]
	if len(last.Matches) == 0 {
		return nil
	}
	return last.Matches[0]
}

// GrandFinal returns grand-final match n (1 or 2), nil if absent.
func (b *Bracket) GrandFinal(n int) *Match {
	if n < 1 || n > len(b.Rounds.Grand) {
		return nil
	}
	round := b.Rounds.Grand[n-1]
	if len(round.Matches) == 0 {
		return nil
	}
	return round.Matches[0]
}

// Complete reports whether the bracket reached a terminal state: the winners
// final decided for single elimination; for double elimination either grand
// final 1 decided in favor of the winners-bracket champion, or grand final 2
// decided.
func (b *Bracket) Complete() bool {
	return b.ChampionID() != nil
}

// ChampionID returns the tournament champion once decided, nil before that.
func (b *Bracket) ChampionID() *string {
	if b.Kind == BracketSingle {
		final := b.WinnersFinal()
		if final != nil && final.Decided() {
			return final.WinnerID
		}
		return nil
	}

	gf1 := b.GrandFinal(1)
	if gf1 == nil || !gf1.Decided() || gf1.WinnerID == nil {
		return nil
	}
	// Slot1 of grand final 1 holds the winners-bracket champion. If they won,
	// the tournament ended without a bracket reset.
	if gf1.Slot1.SeedID != nil && *gf1.Slot1.SeedID == *gf1.WinnerID {
		return gf1.WinnerID
	}
	gf2 := b.GrandFinal(2)
	if gf2 != nil && gf2.Decided() {
		return gf2.WinnerID
	}
	return nil
}

// Clone deep-copies the bracket through its JSON form. Mutation operations
// work on clones so a failed operation never leaves a half-applied bracket
// visible to anyone.
func (b *Bracket) Clone() (*Bracket, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bracket for clone: %w", err)
	}
	var out Bracket
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bracket clone: %w", err)
	}
	return &out, nil
}
