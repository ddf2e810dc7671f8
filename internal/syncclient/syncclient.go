// Package syncclient keeps a presentation context's copy of the resource
// document fresh. Refreshes are serialized by a small state machine
// (Idle -> Loading -> Cooldown -> Idle): triggers that arrive while a refresh
// is loading or cooling down are dropped, never queued.
package syncclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Zachkp/folio/internal/portfolio"
)

// Default timings.
const (
	DefaultCooldown        = 2 * time.Second
	DefaultVisibilityDelay = 800 * time.Millisecond
	DefaultFocusDelay      = 1500 * time.Millisecond
)

// State is the refresh state of a Client.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateCooldown State = "cooldown"
)

// Fetcher retrieves the current value of one section.
type Fetcher interface {
	Fetch(ctx context.Context, sec portfolio.Section) (json.RawMessage, error)
}

// Notifier delivers external "document changed" signals until ctx is done.
type Notifier interface {
	Run(ctx context.Context, signal func()) error
}

// Stats are point-in-time counters.
type Stats struct {
	Cycles          int64 `json:"cycles"`
	Dropped         int64 `json:"dropped"`
	SectionFailures int64 `json:"section_failures"`
}

// Client is one presentation context's view of the document.
type Client struct {
	fetcher  Fetcher
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	cooldown        time.Duration
	visibilityDelay time.Duration
	focusDelay      time.Duration
	pollInterval    time.Duration
	pollDebounce    time.Duration
	onRefresh       func(portfolio.Document)

	mu         sync.Mutex
	doc        portfolio.Document
	loading    bool
	lastDone   time.Time
	stats      Stats
	visTimer   *time.Timer
	focusTimer *time.Timer
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCooldown sets the minimum gap between the end of one refresh and the
// start of the next.
func WithCooldown(d time.Duration) Option {
	return func(c *Client) { c.cooldown = d }
}

// WithDebounce sets the visibility and focus debounce delays.
func WithDebounce(visibility, focus time.Duration) Option {
	return func(c *Client) {
		c.visibilityDelay = visibility
		c.focusDelay = focus
	}
}

// WithLocalPoll sets how often local-only mode checks the store for writes
// and how long a change must be quiet before it triggers a refresh.
func WithLocalPoll(interval, debounce time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.pollDebounce = debounce
	}
}

// WithNotifier subscribes the client to external change signals on Start.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// OnRefresh registers a callback run after every completed refresh cycle.
func OnRefresh(fn func(portfolio.Document)) Option {
	return func(c *Client) { c.onRefresh = fn }
}

// New creates a Client that starts from the built-in default document.
func New(f Fetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:         f,
		logger:          slog.Default(),
		now:             time.Now,
		cooldown:        DefaultCooldown,
		visibilityDelay: DefaultVisibilityDelay,
		focusDelay:      DefaultFocusDelay,
		pollInterval:    DefaultPollInterval,
		pollDebounce:    DefaultPollDebounce,
		doc:             portfolio.Defaults(),
		ctx:             context.Background(),
		cancel:          func() {},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start performs the initial load and, if a notifier is configured, listens
// for external change signals until ctx is cancelled or Close is called.
func (c *Client) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.ctx, c.cancel = ctx, cancel
	c.mu.Unlock()

	c.Refresh(ctx, "initial load")

	if c.notifier == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.notifier.Run(ctx, func() { c.Refresh(ctx, "external update") })
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("sync: notifier stopped", "error", err)
		}
	}()
}

// Close stops pending debounced triggers and the notifier.
func (c *Client) Close() {
	c.mu.Lock()
	if c.visTimer != nil {
		c.visTimer.Stop()
	}
	if c.focusTimer != nil {
		c.focusTimer.Stop()
	}
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
}

// VisibilityChanged is called when the presentation context is shown or
// hidden. Becoming visible schedules a debounced refresh.
func (c *Client) VisibilityChanged(visible bool) {
	if !visible {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visTimer = c.debounceLocked(c.visTimer, c.visibilityDelay, "visibility")
}

// Focused is called when the presentation context gains focus and schedules
// a debounced refresh.
func (c *Client) Focused() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focusTimer = c.debounceLocked(c.focusTimer, c.focusDelay, "focus")
}

// Notify is the external-update trigger, e.g. a same-origin broadcast.
func (c *Client) Notify() bool {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	return c.Refresh(ctx, "external update")
}

func (c *Client) debounceLocked(t *time.Timer, d time.Duration, reason string) *time.Timer {
	if t != nil {
		t.Stop()
	}
	ctx := c.ctx
	return time.AfterFunc(d, func() { c.Refresh(ctx, reason) })
}

// State reports the current refresh state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Client) stateLocked() State {
	switch {
	case c.loading:
		return StateLoading
	case !c.lastDone.IsZero() && c.now().Sub(c.lastDone) < c.cooldown:
		return StateCooldown
	default:
		return StateIdle
	}
}

// Snapshot returns the current in-memory document.
func (c *Client) Snapshot() portfolio.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

// Stats returns the refresh counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Refresh runs one fetch cycle if the client is idle and reports whether it
// did. All sections are fetched concurrently; a section whose fetch fails
// keeps its previous value.
func (c *Client) Refresh(ctx context.Context, reason string) bool {
	c.mu.Lock()
	if state := c.stateLocked(); state != StateIdle {
		c.stats.Dropped++
		c.mu.Unlock()
		c.logger.Debug("sync: trigger dropped", "reason", reason, "state", state)
		return false
	}
	c.loading = true
	prev := c.doc.Clone()
	c.mu.Unlock()

	c.logger.Debug("sync: refresh started", "reason", reason)
	next, failures := c.fetchAll(ctx, prev)

	c.mu.Lock()
	c.doc = next
	c.loading = false
	c.lastDone = c.now()
	c.stats.Cycles++
	c.stats.SectionFailures += int64(failures)
	cb := c.onRefresh
	c.mu.Unlock()

	c.logger.Info("sync: refresh completed", "reason", reason, "failed_sections", failures)
	if cb != nil {
		cb(next.Clone())
	}
	return true
}

type fetchResult struct {
	raw json.RawMessage
	err error
}

func (c *Client) fetchAll(ctx context.Context, prev portfolio.Document) (portfolio.Document, int) {
	results := make([]fetchResult, len(portfolio.Sections))
	var wg sync.WaitGroup
	for i, sec := range portfolio.Sections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := c.fetcher.Fetch(ctx, sec)
			results[i] = fetchResult{raw: raw, err: err}
		}()
	}
	wg.Wait()

	next := prev
	failures := 0
	for i, sec := range portfolio.Sections {
		res := results[i]
		if res.err == nil {
			merged, err := next.Apply(portfolio.Partial{sec: res.raw})
			if err == nil {
				next = merged
				continue
			}
			res.err = err
		}
		failures++
		c.logger.Warn("sync: section fetch failed, keeping last known value", "section", sec, "error", res.err)
	}
	return next, failures
}
