package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/api"
	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/events"
	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(store.NewMemoryBackend(), store.WithLogger(logger))
	bus := events.NewBus(logger)
	auth := api.NewAuthenticator("admin", "admin123", "secret", time.Hour)
	ts := httptest.NewServer(api.New(st, bus, auth, api.WithLogger(logger)).Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func TestHealth(t *testing.T) {
	ts, _ := newServer(t)
	h, err := New(ts.URL + "/").Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != "OK" || h.Backend != "memory" {
		t.Fatalf("health = %+v", h)
	}
}

func TestSectionRoundTrip(t *testing.T) {
	ts, st := newServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	contact := map[string]string{"email": "hello@example.com"}
	if err := c.PutSection(ctx, portfolio.SectionContact, contact); err != nil {
		t.Fatal(err)
	}

	raw, err := c.Section(ctx, portfolio.SectionContact)
	if err != nil {
		t.Fatal(err)
	}
	var got portfolio.Contact
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.Email != "hello@example.com" || got.Phone != portfolio.Defaults().Contact.Phone {
		t.Fatalf("contact = %+v", got)
	}

	doc, err := c.Document(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Contact != st.Read(ctx).Contact {
		t.Fatalf("document contact = %+v", doc.Contact)
	}
}

func TestPutDocument(t *testing.T) {
	ts, st := newServer(t)
	ctx := context.Background()

	p := portfolio.Partial{portfolio.SectionSettings: json.RawMessage(`{"primaryColor":"#111111"}`)}
	if err := New(ts.URL).PutDocument(ctx, p); err != nil {
		t.Fatal(err)
	}
	if got := st.Read(ctx).Settings.PrimaryColor; got != "#111111" {
		t.Fatalf("primaryColor = %q", got)
	}
}

func TestErrorsCarryServerCodes(t *testing.T) {
	ts, _ := newServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	_, err := c.Section(ctx, portfolio.Section("blog"))
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("unknown section: %v", err)
	}

	err = c.PutSection(ctx, portfolio.SectionPortfolio, []portfolio.Project{{ID: 1}, {ID: 1}})
	if apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("duplicate ids: %v", err)
	}
	if msg := apperr.Message(err); msg != "duplicate id 1 in portfolio" {
		t.Fatalf("message = %q", msg)
	}
}

func TestLogin(t *testing.T) {
	ts, _ := newServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	if _, err := c.Login(ctx, "admin", "nope"); apperr.CodeOf(err) != apperr.CodeAuth {
		t.Fatalf("bad password: %v", err)
	}
	if c.Token() != "" {
		t.Fatal("failed login stored a token")
	}

	if _, err := c.AdminStats(ctx); apperr.CodeOf(err) != apperr.CodeAuth {
		t.Fatalf("stats before login: %v", err)
	}

	token, err := c.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatal(err)
	}
	if token == "" || c.Token() != token {
		t.Fatalf("token not kept: %q", c.Token())
	}

	stats, err := c.AdminStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Backend != "memory" || stats.Writes != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestUploadAndDeleteImage(t *testing.T) {
	ts, st := newServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	uri, err := c.UploadImage(ctx, portfolio.SlotBackground, "image/gif", gif)
	if err != nil {
		t.Fatal(err)
	}
	if uri != portfolio.DataURI("image/gif", gif) {
		t.Fatalf("uri = %q", uri)
	}
	if got := st.Read(ctx).Images.HomeBackgroundImage; got == nil || *got != uri {
		t.Fatal("background not stored")
	}

	if err := c.DeleteImage(ctx, portfolio.SlotBackground); err != nil {
		t.Fatal(err)
	}
	if got := st.Read(ctx).Images.HomeBackgroundImage; got != nil {
		t.Fatal("background not cleared")
	}
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	ts, _ := newServer(t)
	url := ts.URL
	ts.Close()

	_, err := New(url).Health(context.Background())
	if apperr.CodeOf(err) != apperr.CodeNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
}

func TestWatchDeliversChanges(t *testing.T) {
	ts, _ := newServer(t)
	c := New(ts.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{}, 1)
	changes := make(chan events.Changed, 4)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx,
			func() { ready <- struct{}{} },
			func(ev events.Changed) { changes <- ev },
		)
	}()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("stream never became ready")
	}

	if err := c.PutSection(context.Background(), portfolio.SectionAbout, map[string]string{"bio": "new bio"}); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-changes:
		if len(ev.Sections) != 1 || ev.Sections[0] != portfolio.SectionAbout {
			t.Fatalf("sections = %v", ev.Sections)
		}
		if ev.At.IsZero() {
			t.Fatal("event has no timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}

func TestSendContactMessageWithoutMailer(t *testing.T) {
	ts, _ := newServer(t)
	err := New(ts.URL).SendContactMessage(context.Background(), ContactMessage{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Hi",
		Message: "Hello",
	})
	if code := apperr.CodeOf(err); code != apperr.CodeUnavailable {
		t.Fatalf("code = %s (%v)", code, err)
	}
}

func TestCodeForStatusUnavailable(t *testing.T) {
	if got := codeForStatus(http.StatusServiceUnavailable); got != apperr.CodeUnavailable {
		t.Fatalf("503 maps to %s", got)
	}
}
