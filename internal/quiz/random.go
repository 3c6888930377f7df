package quiz

import (
	"math/rand"
	"sync"
	"time"

	"github.com/example/engcoach/pkg/models"
)

// Random is the shuffling source. *rand.Rand satisfies it; tests pass a
// seeded one for deterministic order.
type Random interface {
	Shuffle(n int, swap func(i, j int))
}

// lockedRand makes a *rand.Rand safe for concurrent sessions
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom returns a goroutine-safe source seeded from the clock
func NewRandom() Random {
	return &lockedRand{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *lockedRand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rnd.Shuffle(n, swap)
}

// shuffled returns a shuffled copy of items
func shuffled(r Random, items []models.VocabularyItem) []models.VocabularyItem {
	out := make([]models.VocabularyItem, len(items))
	copy(out, items)
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
