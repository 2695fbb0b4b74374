package progression

import (
	"math/rand"
	"testing"

	"github.com/solrise/questforge/questforge/database/models"
	"github.com/stretchr/testify/assert"
)

func questPool(n int) []*models.Quest {
	pool := make([]*models.Quest, 0, n)
	for i := 1; i <= n; i++ {
		pool = append(pool, &models.Quest{ID: int64(i), QuestType: models.QuestTypeRandom})
	}
	return pool
}

func TestCountBetween(t *testing.T) {
	s := NewSampler(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		got := s.CountBetween(3, 5)
		assert.GreaterOrEqual(t, got, 3)
		assert.LessOrEqual(t, got, 5)
	}

	assert.Equal(t, 3, s.CountBetween(3, 3), "degenerate range returns min")
	assert.Equal(t, 4, s.CountBetween(4, 2), "inverted range returns min")
}

func TestPickDistinctWithoutReplacement(t *testing.T) {
	s := NewSampler(rand.NewSource(42))
	pool := questPool(10)

	picked := s.Pick(pool, 5)
	assert.Len(t, picked, 5)

	seen := map[int64]bool{}
	for _, q := range picked {
		assert.False(t, seen[q.ID], "quest %d picked twice", q.ID)
		seen[q.ID] = true
	}
}

func TestPickSmallPoolReturnsWholePool(t *testing.T) {
	s := NewSampler(rand.NewSource(7))

	picked := s.Pick(questPool(2), 5)
	assert.Len(t, picked, 2)

	assert.Empty(t, s.Pick(nil, 4), "empty pool yields no quests")
}

func TestPickDeterministicForFixedSeed(t *testing.T) {
	pool := questPool(8)

	first := NewSampler(rand.NewSource(99)).Pick(pool, 3)
	second := NewSampler(rand.NewSource(99)).Pick(pool, 3)

	assert.Equal(t, first, second)
}

func TestPickDoesNotMutatePool(t *testing.T) {
	pool := questPool(6)
	ids := make([]int64, len(pool))
	for i, q := range pool {
		ids[i] = q.ID
	}

	NewSampler(rand.NewSource(3)).Pick(pool, 4)

	for i, q := range pool {
		assert.Equal(t, ids[i], q.ID, "pool order changed at %d", i)
	}
}
