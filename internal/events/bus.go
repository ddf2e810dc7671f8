// Package events is the in-process "document changed" notification channel.
// Writers publish after a successful store write; every sync client and SSE
// stream subscribes and treats an event as a refresh trigger.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zachkp/folio/internal/portfolio"
)

// Changed announces that some sections of the document were written.
type Changed struct {
	Sections []portfolio.Section `json:"sections"`
	At       time.Time           `json:"at"`
}

// Subscription delivers events until Close is called.
type Subscription struct {
	ID string
	C  <-chan Changed

	bus *Bus
}

// Close unsubscribes and closes C.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.ID)
}

// Bus fans events out to subscribers. Delivery is best effort: a subscriber
// whose buffer is full misses the event, which is harmless because one
// pending event already guarantees a refresh.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan Changed
	logger *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subs: make(map[string]chan Changed), logger: logger}
}

// Subscribe registers a new subscriber with a one-slot buffer.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan Changed, 1)
	id := uuid.NewString()

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	b.logger.Debug("events: subscribed", "subscriber", id)
	return &Subscription{ID: id, C: ch, bus: b}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
		b.logger.Debug("events: unsubscribed", "subscriber", id)
	}
}

// Publish delivers ev to every subscriber without blocking.
func (b *Bus) Publish(ev Changed) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("events: subscriber busy, coalesced", "subscriber", id)
		}
	}
}

// Len returns the number of live subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
