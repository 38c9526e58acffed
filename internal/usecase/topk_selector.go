package usecase

import (
	"sort"

	"github.com/catalogrank/backend/internal/domain"
)

// SelectTopK keeps matches with a positive raw score, orders them by raw score
// descending (earlier catalog rows win ties) and returns the first k.
// A non-positive k returns every eligible match.
func SelectTopK(scored []domain.ScoredMatch, k int) []domain.ScoredMatch {
	eligible := make([]domain.ScoredMatch, 0, len(scored))
	for _, m := range scored {
		if m.RawScore > 0 {
			eligible = append(eligible, m)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].RawScore != eligible[j].RawScore {
			return eligible[i].RawScore > eligible[j].RawScore
		}
		return eligible[i].Index < eligible[j].Index
	})

	if k <= 0 || k >= len(eligible) {
		return eligible
	}
	return eligible[:k]
}
