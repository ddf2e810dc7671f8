package syncclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Zachkp/folio/internal/client"
	"github.com/Zachkp/folio/internal/events"
	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/store"
)

// HTTPFetcher reads sections from the resource API.
type HTTPFetcher struct {
	Client *client.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, sec portfolio.Section) (json.RawMessage, error) {
	return f.Client.Section(ctx, sec)
}

// StoreFetcher reads sections straight from a local store. It backs the
// local-only mode used when no server answers.
type StoreFetcher struct {
	Store *store.Store
}

func (f StoreFetcher) Fetch(ctx context.Context, sec portfolio.Section) (json.RawMessage, error) {
	return json.Marshal(f.Store.Section(ctx, sec))
}

// BusNotifier signals on every event published to an in-process bus.
type BusNotifier struct {
	Bus *events.Bus
}

func (n BusNotifier) Run(ctx context.Context, signal func()) error {
	sub := n.Bus.Subscribe()
	defer sub.Close()
	for {
		select {
		case _, ok := <-sub.C:
			if !ok {
				return nil
			}
			signal()
		case <-ctx.Done():
			return nil
		}
	}
}

// StreamNotifier signals on every "changed" event of a server's event stream
// and reconnects after RetryDelay when the stream drops.
type StreamNotifier struct {
	Client     *client.Client
	RetryDelay time.Duration
	Logger     *slog.Logger
	// Ready, when set, is called each time the stream (re)connects.
	Ready func()
	// ResyncOnConnect signals on every (re)connect, so changes published
	// while the stream was down are not missed.
	ResyncOnConnect bool
}

func (n StreamNotifier) Run(ctx context.Context, signal func()) error {
	delay := n.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ready := n.Ready
	if n.ResyncOnConnect {
		ready = func() {
			if n.Ready != nil {
				n.Ready()
			}
			signal()
		}
	}
	for {
		err := n.Client.Watch(ctx, ready, func(events.Changed) { signal() })
		if ctx.Err() != nil {
			return nil
		}
		logger.Debug("sync: event stream ended, reconnecting", "error", err, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
	}
}

// Versioner reports a token that changes whenever the stored document does.
// store.LocalBackend implements it with MAX(updated_at).
type Versioner interface {
	Version(ctx context.Context) (int64, error)
}

// Default LocalNotifier timings.
const (
	DefaultPollInterval = time.Second
	DefaultPollDebounce = 250 * time.Millisecond
)

// LocalNotifier polls a Versioner and signals once a new version has been
// quiet for Debounce. It stands in for the event stream in local-only mode,
// where another process (an editor or an import) writes the same file.
type LocalNotifier struct {
	Source   Versioner
	Interval time.Duration
	Debounce time.Duration
	Logger   *slog.Logger
}

func (n LocalNotifier) Run(ctx context.Context, signal func()) error {
	interval := n.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	version, err := n.Source.Version(ctx)
	if err != nil {
		logger.Warn("sync: initial version check failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	pending := int64(-1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	fire := func() {
		version = pending
		pending = -1
		signal()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			cur, err := n.Source.Version(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn("sync: version check failed", "error", err)
				continue
			}
			if cur == version || cur == pending {
				continue
			}
			pending = cur
			if n.Debounce <= 0 {
				fire()
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(n.Debounce)
			debounceCh = debounceTimer.C
			logger.Debug("sync: local change detected, debouncing", "version", cur)

		case <-debounceCh:
			debounceCh = nil
			if pending >= 0 {
				fire()
			}
		}
	}
}
