// Package store is the single source of truth for the resource document. A
// Store wraps one Backend (file, memory or local key/value) chosen at startup
// and applies the read-merge-write rules of the portfolio package on top of it.
package store

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/portfolio"
)

// ErrNotFound is returned by a Backend when nothing has been persisted yet.
var ErrNotFound = apperr.New(apperr.CodeNotFound, "no stored document")

// Backend is a persistence strategy for the document.
type Backend interface {
	// Name identifies the backend in logs and the health payload.
	Name() string
	// Durable reports whether writes survive a process restart.
	Durable() bool
	// Load returns the stored sections, or ErrNotFound when nothing is stored.
	// Sections missing from storage are simply absent from the result.
	Load(ctx context.Context) (portfolio.Partial, error)
	// Save persists the full document. A failed Save must leave the previously
	// stored document readable.
	Save(ctx context.Context, doc portfolio.Document) error
}

// Origin tells where a read document came from.
type Origin string

const (
	OriginStored  Origin = "stored"
	OriginMissing Origin = "missing"
	OriginCorrupt Origin = "corrupt"
)

// Store serializes in-process access to a Backend. Writers in other
// processes sharing the same file are not coordinated.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Backend returns the backend the store was created over.
func (s *Store) Backend() Backend { return s.backend }

// BackendName returns the name of the configured backend.
func (s *Store) BackendName() string { return s.backend.Name() }

// Durable reports whether the configured backend survives restarts.
func (s *Store) Durable() bool { return s.backend.Durable() }

// Read returns the current document merged over the defaults. It never fails:
// missing or unreadable storage yields the default document.
func (s *Store) Read(ctx context.Context) portfolio.Document {
	doc, _ := s.ReadStatus(ctx)
	return doc
}

// ReadStatus is Read that also reports whether the document came from
// storage or was substituted because storage was missing or corrupt.
func (s *Store) ReadStatus(ctx context.Context) (portfolio.Document, Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *Store) read(ctx context.Context) (portfolio.Document, Origin) {
	stored, err := s.backend.Load(ctx)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			s.logger.Debug("store: no document yet, using defaults", "backend", s.backend.Name())
			return portfolio.Defaults(), OriginMissing
		}
		s.logger.Warn("store: unreadable document, using defaults", "backend", s.backend.Name(), "error", err)
		return portfolio.Defaults(), OriginCorrupt
	}
	doc, err := portfolio.Defaults().Apply(stored)
	if err != nil {
		s.logger.Warn("store: malformed document, using defaults", "backend", s.backend.Name(), "error", err)
		return portfolio.Defaults(), OriginCorrupt
	}
	return doc, OriginStored
}

// Section returns the current value of one section.
func (s *Store) Section(ctx context.Context, sec portfolio.Section) any {
	return s.Read(ctx).Get(sec)
}

// Write merges p into the stored document and persists the result. It
// returns a VALIDATION_FAILED error for payloads that cannot be merged and a
// WRITE_FAILED error when the backend rejects the write; in both cases the
// stored document is unchanged.
func (s *Store) Write(ctx context.Context, p portfolio.Partial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, _ := s.read(ctx)
	merged, err := current.Apply(p)
	if err != nil {
		return err
	}
	if err := s.backend.Save(ctx, merged); err != nil {
		s.logger.Error("store: write failed", "backend", s.backend.Name(), "sections", p.Sections(), "error", err)
		return apperr.Wrap(apperr.CodeWrite, "failed to save "+s.backend.Name()+" document", err)
	}
	s.logger.Debug("store: document written", "backend", s.backend.Name(), "sections", p.Sections())
	return nil
}

// Init persists the default document when the backend holds nothing yet. An
// existing document, even a corrupt one, is left alone.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, origin := s.read(ctx); origin != OriginMissing {
		return nil
	}
	if err := s.backend.Save(ctx, portfolio.Defaults()); err != nil {
		return apperr.Wrap(apperr.CodeWrite, "failed to create default document", err)
	}
	s.logger.Info("store: created default document", "backend", s.backend.Name())
	return nil
}
