package editor

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/api"
	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/client"
	"github.com/Zachkp/folio/internal/events"
	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newEditor(t *testing.T) (*Editor, *store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(store.NewMemoryBackend(), store.WithLogger(logger))
	auth := api.NewAuthenticator("admin", "admin123", "secret", time.Hour)
	ts := httptest.NewServer(api.New(st, events.NewBus(logger), auth, api.WithLogger(logger)).Handler())
	t.Cleanup(ts.Close)
	return New(client.New(ts.URL)), st
}

func TestProjects(t *testing.T) {
	e, st := newEditor(t)
	ctx := context.Background()
	before := len(portfolio.Defaults().Portfolio)

	added, err := e.AddProject(ctx, portfolio.Project{Title: "Lighthouse", Category: "web"})
	if err != nil {
		t.Fatal(err)
	}
	if added.ID == 0 {
		t.Fatal("new project has no id")
	}
	doc := st.Read(ctx)
	if len(doc.Portfolio) != before+1 || doc.Portfolio[before] != added {
		t.Fatalf("portfolio = %+v", doc.Portfolio)
	}

	second, err := e.AddProject(ctx, portfolio.Project{Title: "Harbor"})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == added.ID {
		t.Fatal("two projects share an id")
	}

	added.Title = "Lighthouse v2"
	if err := e.UpdateProject(ctx, added); err != nil {
		t.Fatal(err)
	}
	if got := st.Read(ctx).Portfolio[before].Title; got != "Lighthouse v2" {
		t.Fatalf("title = %q", got)
	}

	if err := e.DeleteProject(ctx, added.ID); err != nil {
		t.Fatal(err)
	}
	doc = st.Read(ctx)
	if slices.ContainsFunc(doc.Portfolio, func(p portfolio.Project) bool { return p.ID == added.ID }) {
		t.Fatal("deleted project still present")
	}
	if len(doc.Portfolio) != before+1 {
		t.Fatalf("expected %d projects, got %d", before+1, len(doc.Portfolio))
	}

	if err := e.DeleteProject(ctx, added.ID); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("second delete: %v", err)
	}
	if err := e.UpdateProject(ctx, portfolio.Project{ID: 1}); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("update missing: %v", err)
	}
}

func TestServices(t *testing.T) {
	e, st := newEditor(t)
	ctx := context.Background()

	for _, s := range st.Read(ctx).Services {
		if err := e.DeleteService(ctx, s.ID); err != nil {
			t.Fatal(err)
		}
	}
	if got := st.Read(ctx).Services; len(got) != 0 {
		t.Fatalf("services not emptied: %+v", got)
	}

	added, err := e.AddService(ctx, portfolio.Service{Title: "Audits", Icon: "fas fa-search"})
	if err != nil {
		t.Fatal(err)
	}
	added.Description = "Accessibility audits"
	if err := e.UpdateService(ctx, added); err != nil {
		t.Fatal(err)
	}
	got := st.Read(ctx).Services
	if len(got) != 1 || got[0] != added {
		t.Fatalf("services = %+v", got)
	}
}

func TestSkills(t *testing.T) {
	e, st := newEditor(t)
	ctx := context.Background()
	defaults := portfolio.Defaults().About.Skills

	if err := e.AddSkill(ctx, "  Go  "); err != nil {
		t.Fatal(err)
	}
	if err := e.AddSkill(ctx, "Go"); err != nil {
		t.Fatal(err)
	}
	skills := st.Read(ctx).About.Skills
	if len(skills) != len(defaults)+1 || skills[len(skills)-1] != "Go" {
		t.Fatalf("skills = %v", skills)
	}

	if err := e.RemoveSkill(ctx, defaults[0]); err != nil {
		t.Fatal(err)
	}
	if err := e.RemoveSkill(ctx, "COBOL"); err != nil {
		t.Fatal(err)
	}
	if slices.Contains(st.Read(ctx).About.Skills, defaults[0]) {
		t.Fatal("removed skill still present")
	}

	if err := e.AddSkill(ctx, "   "); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("blank skill: %v", err)
	}
	if name := st.Read(ctx).About.Name; name != portfolio.Defaults().About.Name {
		t.Fatalf("skill edits touched name: %q", name)
	}
}

func TestSingletons(t *testing.T) {
	e, st := newEditor(t)
	ctx := context.Background()

	about := portfolio.Defaults().About
	about.Bio = "Builds quiet, fast websites."
	if err := e.SaveAbout(ctx, about); err != nil {
		t.Fatal(err)
	}
	contact := portfolio.Contact{Email: "me@example.com"}
	if err := e.SaveContact(ctx, contact); err != nil {
		t.Fatal(err)
	}
	settings := portfolio.Defaults().Settings
	settings.PrimaryColor = "#222222"
	if err := e.SaveSettings(ctx, settings); err != nil {
		t.Fatal(err)
	}
	if err := e.SetBackgroundOpacity(ctx, 75); err != nil {
		t.Fatal(err)
	}

	doc := st.Read(ctx)
	if doc.About.Bio != about.Bio || doc.Contact != contact || doc.Settings != settings {
		t.Fatalf("singletons not saved: %+v %+v %+v", doc.About, doc.Contact, doc.Settings)
	}
	if doc.Images.BackgroundOpacity != "75" {
		t.Fatalf("opacity = %q", doc.Images.BackgroundOpacity)
	}
	if err := e.SetBackgroundOpacity(ctx, 101); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("opacity 101: %v", err)
	}
}

func TestImages(t *testing.T) {
	e, st := newEditor(t)
	ctx := context.Background()
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	uri, err := e.SetHeroImage(ctx, "image/png", png)
	if err != nil {
		t.Fatal(err)
	}
	if got := st.Read(ctx).Images.HeroImage; got == nil || *got != uri {
		t.Fatal("hero not stored")
	}
	if _, err := e.SetBackgroundImage(ctx, "image/png", png); err != nil {
		t.Fatal(err)
	}

	if err := e.ClearHeroImage(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.ClearBackgroundImage(ctx); err != nil {
		t.Fatal(err)
	}
	images := st.Read(ctx).Images
	if images.HeroImage != nil || images.HomeBackgroundImage != nil {
		t.Fatalf("images not cleared: %+v", images)
	}
}

func TestInvalidImagesAreNeverSent(t *testing.T) {
	var requests atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	e := New(client.New(ts.URL))
	ctx := context.Background()

	tests := []struct {
		name string
		set  func() (string, error)
	}{
		{"hero over 5MB", func() (string, error) { return e.SetHeroImage(ctx, "image/png", make([]byte, 6<<20)) }},
		{"background over 10MB", func() (string, error) { return e.SetBackgroundImage(ctx, "image/jpeg", make([]byte, 11<<20)) }},
		{"not an image", func() (string, error) { return e.SetHeroImage(ctx, "application/pdf", []byte("%PDF")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.set(); apperr.CodeOf(err) != apperr.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if n := requests.Load(); n != 0 {
		t.Fatalf("%d requests reached the server", n)
	}
}

func TestLogin(t *testing.T) {
	e, _ := newEditor(t)
	ctx := context.Background()

	if err := e.Login(ctx, "admin", "letmein"); apperr.CodeOf(err) != apperr.CodeAuth {
		t.Fatalf("bad login: %v", err)
	}
	if err := e.Login(ctx, "admin", "admin123"); err != nil {
		t.Fatal(err)
	}
}
