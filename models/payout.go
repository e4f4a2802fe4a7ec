package models

import "time"

type PayoutLine struct {
	Place  int     `json:"place"`
	SeedID string  `json:"seedId"`
	Amount float64 `json:"amount"`
}

// Payout is the realized prize distribution for one tournament. Created
// exactly once; repeat finalize calls return the stored value unchanged.
type Payout struct {
	TournamentID string       `json:"tournamentId"`
	PrizePool    float64      `json:"prizePool"`
	Lines        []PayoutLine `json:"lines"`
	CreatedAt    time.Time    `json:"createdAt"`
}
