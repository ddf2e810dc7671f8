package syncclient

import (
	"context"
	"time"

	"github.com/Zachkp/folio/internal/client"
	"github.com/Zachkp/folio/internal/store"
)

// Mode is the operating mode picked by capability detection.
type Mode string

const (
	ModeNetworked Mode = "networked"
	ModeLocal     Mode = "local"
)

// healthTimeout bounds the capability probe so a dead server falls back to
// local mode quickly.
const healthTimeout = 3 * time.Second

// CheckBackendAvailable reports whether a resource API answers its health
// probe at baseURL.
func CheckBackendAvailable(ctx context.Context, baseURL string) bool {
	return checkBackend(ctx, client.New(baseURL))
}

func checkBackend(ctx context.Context, c *client.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	h, err := c.Health(ctx)
	return err == nil && h.Status == "OK"
}

// Dial builds a Client for baseURL. When the server answers its health
// probe the client reads over HTTP and follows the server's event stream,
// refreshing again on every reconnect. Otherwise it reads from local, the
// returned mode is ModeLocal, and a local backend that reports a version is
// polled for writes made by other processes.
func Dial(ctx context.Context, baseURL string, local *store.Store, opts ...Option) (*Client, Mode) {
	api := client.New(baseURL)
	if checkBackend(ctx, api) {
		c := New(HTTPFetcher{Client: api}, opts...)
		if c.notifier == nil {
			c.notifier = StreamNotifier{Client: api, Logger: c.logger, ResyncOnConnect: true}
		}
		return c, ModeNetworked
	}
	c := New(StoreFetcher{Store: local}, opts...)
	if v, ok := local.Backend().(Versioner); ok && c.notifier == nil {
		c.notifier = LocalNotifier{
			Source:   v,
			Interval: c.pollInterval,
			Debounce: c.pollDebounce,
			Logger:   c.logger,
		}
	}
	return c, ModeLocal
}
