package progression

import (
	"math/rand"

	"github.com/solrise/questforge/questforge/database/models"
)

// Sampler draws the random portion of a day's assignment. The source is
// injected so tests can pin the sequence and assert exact sampled sets.
type Sampler struct {
	rng *rand.Rand
}

func NewSampler(src rand.Source) *Sampler {
	return &Sampler{rng: rand.New(src)}
}

// CountBetween picks a count uniformly from the inclusive range [min, max].
func (s *Sampler) CountBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.Intn(max-min+1)
}

// Pick samples n distinct quests from the pool without replacement. A pool
// smaller than n is returned whole. The input slice is not modified.
func (s *Sampler) Pick(pool []*models.Quest, n int) []*models.Quest {
	if n >= len(pool) {
		picked := make([]*models.Quest, len(pool))
		copy(picked, pool)
		return picked
	}

	shuffled := make([]*models.Quest, len(pool))
	copy(shuffled, pool)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
