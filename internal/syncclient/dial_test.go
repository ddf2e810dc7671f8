package syncclient

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/api"
	"github.com/Zachkp/folio/internal/client"
	"github.com/Zachkp/folio/internal/events"
	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/store"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := quietLogger()
	st := store.New(store.NewMemoryBackend(), store.WithLogger(logger))
	auth := api.NewAuthenticator("admin", "admin123", "secret", time.Hour)
	ts := httptest.NewServer(api.New(st, events.NewBus(logger), auth, api.WithLogger(logger)).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestCheckBackendAvailable(t *testing.T) {
	ts := newAPIServer(t)
	if !CheckBackendAvailable(context.Background(), ts.URL) {
		t.Fatal("expected live server to be available")
	}

	dead := httptest.NewServer(nil)
	url := dead.URL
	dead.Close()
	if CheckBackendAvailable(context.Background(), url) {
		t.Fatal("expected closed server to be unavailable")
	}
}

func TestDialNetworkedFollowsServerChanges(t *testing.T) {
	ts := newAPIServer(t)
	refreshed := make(chan portfolio.Document, 10)
	c, mode := Dial(context.Background(), ts.URL, nil,
		WithLogger(quietLogger()),
		WithCooldown(0),
		OnRefresh(func(d portfolio.Document) { refreshed <- d }),
	)
	if mode != ModeNetworked {
		t.Fatalf("mode = %s", mode)
	}
	c.Start(context.Background())
	defer c.Close()
	<-refreshed

	// Writes made before the stream is subscribed are missed, so keep
	// writing until one arrives.
	writer := client.New(ts.URL)
	deadline := time.After(3 * time.Second)
	for {
		if err := writer.PutSection(context.Background(), portfolio.SectionAbout, map[string]string{"name": "Remote Edit"}); err != nil {
			t.Fatal(err)
		}
		select {
		case d := <-refreshed:
			if d.About.Name == "Remote Edit" {
				return
			}
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("server change never reached the sync client")
		}
	}
}

func TestDialFallsBackToLocalStore(t *testing.T) {
	dead := httptest.NewServer(nil)
	url := dead.URL
	dead.Close()

	lb, err := store.OpenLocalBackend(filepath.Join(t.TempDir(), "local.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer lb.Close()
	local := store.New(lb, store.WithLogger(quietLogger()))
	p := portfolio.Partial{portfolio.SectionContact: []byte(`{"email":"offline@example.com"}`)}
	if err := local.Write(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	c, mode := Dial(context.Background(), url, local, WithLogger(quietLogger()))
	if mode != ModeLocal {
		t.Fatalf("mode = %s", mode)
	}
	if !c.Refresh(context.Background(), "load") {
		t.Fatal("refresh dropped")
	}
	snap := c.Snapshot()
	if snap.Contact.Email != "offline@example.com" {
		t.Fatalf("email = %q", snap.Contact.Email)
	}
	if got := c.Stats().SectionFailures; got != 0 {
		t.Fatalf("section failures = %d", got)
	}
}

func TestDialLocalFollowsOtherWriters(t *testing.T) {
	dead := httptest.NewServer(nil)
	url := dead.URL
	dead.Close()

	path := filepath.Join(t.TempDir(), "local.db")
	lb, err := store.OpenLocalBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	defer lb.Close()

	refreshed := make(chan portfolio.Document, 10)
	c, mode := Dial(context.Background(), url, store.New(lb, store.WithLogger(quietLogger())),
		WithLogger(quietLogger()),
		WithCooldown(0),
		WithLocalPoll(20*time.Millisecond, 30*time.Millisecond),
		OnRefresh(func(d portfolio.Document) { refreshed <- d }),
	)
	if mode != ModeLocal {
		t.Fatalf("mode = %s", mode)
	}
	c.Start(context.Background())
	defer c.Close()
	<-refreshed

	// A second handle on the same file stands in for an editor process.
	other, err := store.OpenLocalBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	writer := store.New(other, store.WithLogger(quietLogger()))
	p := portfolio.Partial{portfolio.SectionAbout: []byte(`{"name":"Offline Edit"}`)}

	// The poller seeds its version after the initial load, so a write racing
	// that seed goes unseen; keep writing until one is picked up.
	deadline := time.After(3 * time.Second)
	for {
		if err := writer.Write(context.Background(), p); err != nil {
			t.Fatal(err)
		}
		select {
		case d := <-refreshed:
			if d.About.Name == "Offline Edit" {
				if got := c.Snapshot().About.Name; got != "Offline Edit" {
					t.Fatalf("snapshot name = %q", got)
				}
				return
			}
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatal("local write never reached the sync client")
		}
	}
}

type counterVersion struct{ v atomic.Int64 }

func (c *counterVersion) Version(context.Context) (int64, error) { return c.v.Load(), nil }

func TestLocalNotifierDebouncesBursts(t *testing.T) {
	src := &counterVersion{}
	src.v.Store(5)
	var signals atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		n := LocalNotifier{Source: src, Interval: 5 * time.Millisecond, Debounce: 60 * time.Millisecond, Logger: quietLogger()}
		_ = n.Run(ctx, func() { signals.Add(1) })
	}()

	time.Sleep(40 * time.Millisecond)
	if got := signals.Load(); got != 0 {
		t.Fatalf("signalled %d times without a change", got)
	}

	for i := 0; i < 3; i++ {
		src.v.Add(1)
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)
	if got := signals.Load(); got != 1 {
		t.Fatalf("burst of writes signalled %d times, want 1", got)
	}

	src.v.Add(1)
	time.Sleep(200 * time.Millisecond)
	if got := signals.Load(); got != 2 {
		t.Fatalf("later write: signals = %d, want 2", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier did not stop on cancel")
	}
}

func TestStreamNotifierResyncsOnConnect(t *testing.T) {
	ts := newAPIServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan struct{}, 4)
	var readies atomic.Int64
	n := StreamNotifier{
		Client:          client.New(ts.URL),
		Logger:          quietLogger(),
		Ready:           func() { readies.Add(1) },
		ResyncOnConnect: true,
	}
	go func() { _ = n.Run(ctx, func() { signals <- struct{}{} }) }()

	select {
	case <-signals:
	case <-time.After(3 * time.Second):
		t.Fatal("no refresh signal after the stream connected")
	}
	if readies.Load() != 1 {
		t.Fatalf("ready callbacks = %d", readies.Load())
	}
}
