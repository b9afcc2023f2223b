package services

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rickyzatnika/new-spinner/models"
)

// Drawer performs the weighted prize draw. It is safe for concurrent use.
type Drawer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewDrawer(seed int64) *Drawer {
	return &Drawer{rng: rand.New(rand.NewSource(seed))}
}

func NewTimeSeededDrawer() *Drawer {
	return NewDrawer(time.Now().UnixNano())
}

// Pick selects one prize with probability proportional to its weight. Prizes
// with a non-positive weight never win unless every weight is zero, in which
// case the pick is uniform. It returns nil for an empty list.
func (d *Drawer) Pick(prizes []models.Prize) *models.Prize {
	if len(prizes) == 0 {
		return nil
	}
	total := 0.0
	for _, p := range prizes {
		if p.Probability > 0 {
			total += p.Probability
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if total <= 0 {
		p := prizes[d.rng.Intn(len(prizes))]
		return &p
	}
	r := d.rng.Float64() * total
	cumulative := 0.0
	for i := range prizes {
		if prizes[i].Probability <= 0 {
			continue
		}
		cumulative += prizes[i].Probability
		if r < cumulative {
			p := prizes[i]
			return &p
		}
	}
	// float rounding can leave r just past the last boundary
	for i := len(prizes) - 1; i >= 0; i-- {
		if prizes[i].Probability > 0 {
			p := prizes[i]
			return &p
		}
	}
	return nil
}

// FullSpins returns the decorative number of whole turns, in [5,10).
func (d *Drawer) FullSpins() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return 5 + d.rng.Intn(5)
}
