package curation

import "time"

// Candidate is a review competing for the best-review flag within a scope.
type Candidate struct {
	ID           int64
	LikeCount    int
	HelpfulCount int
	CreatedAt    time.Time
	IsBest       bool
}

// Score ranks a candidate. Likes weigh more than helpful votes; age only
// breaks ties, newer first.
func (c Candidate) Score() int {
	return c.LikeCount*3 + c.HelpfulCount*2
}

// PickWinner returns the id of the highest-ranked candidate, or 0 when the
// scope is empty. Re-running over unchanged counts always picks the same
// winner.
func PickWinner(candidates []Candidate) int64 {
	var winner *Candidate
	for i := range candidates {
		c := &candidates[i]
		if winner == nil {
			winner = c
			continue
		}
		switch {
		case c.Score() > winner.Score():
			winner = c
		case c.Score() == winner.Score() && c.CreatedAt.After(winner.CreatedAt):
			winner = c
		case c.Score() == winner.Score() && c.CreatedAt.Equal(winner.CreatedAt) && c.ID > winner.ID:
			winner = c
		}
	}
	if winner == nil {
		return 0
	}
	return winner.ID
}

// Reviewer level thresholds. LevelFor must stay in sync with the CASE
// expression in RecomputeReviewerStats.
func LevelFor(reviewCount, totalLikes int) string {
	switch {
	case reviewCount >= 50 && totalLikes >= 500:
		return "master"
	case reviewCount >= 20:
		return "expert"
	case reviewCount >= 5:
		return "regular"
	default:
		return "seedling"
	}
}
