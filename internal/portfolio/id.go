package portfolio

import (
	"sync"
	"time"
)

// IDGenerator issues clock-based ids for new projects and services. Ids are
// unix milliseconds, bumped past the last issued value when the clock has
// not advanced, so one generator never repeats itself.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator backed by the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns the next id.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// NextFree returns the next id that is not already in taken.
func (g *IDGenerator) NextFree(taken func(int64) bool) int64 {
	for {
		if id := g.Next(); !taken(id) {
			return id
		}
	}
}
