package store

import (
	"context"
	"sync"

	"github.com/Zachkp/folio/internal/portfolio"
)

// MemoryBackend keeps the document in process memory. On serverless
// platforms every instance has its own copy, so a write served by one
// invocation is not guaranteed to be visible to the next.
type MemoryBackend struct {
	mu  sync.RWMutex
	doc *portfolio.Document
}

// NewMemoryBackend returns an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Name() string  { return "memory" }
func (m *MemoryBackend) Durable() bool { return false }

func (m *MemoryBackend) Load(_ context.Context) (portfolio.Partial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc == nil {
		return nil, ErrNotFound
	}
	return portfolio.PartialOf(*m.doc, portfolio.Sections...)
}

func (m *MemoryBackend) Save(_ context.Context, doc portfolio.Document) error {
	c := doc.Clone()
	m.mu.Lock()
	m.doc = &c
	m.mu.Unlock()
	return nil
}
