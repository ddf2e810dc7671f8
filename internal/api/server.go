// Package api exposes the resource store over HTTP: one endpoint per document
// section, an aggregate endpoint, image upload/delete, login, a health probe,
// a server-sent event stream of change notifications, a token-guarded admin
// summary and a contact form that mails the site owner.
package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/events"
	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/store"
)

// Server holds the collaborators shared by every handler.
type Server struct {
	store     *store.Store
	bus       *events.Bus
	auth      *Authenticator
	logger    *slog.Logger
	now       func() time.Time
	keepAlive time.Duration
	mailer    Mailer
	toEmail   string

	mu        sync.Mutex
	writes    int64
	lastWrite time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithKeepAlive sets the interval of SSE keep-alive pings. Default: 25s.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) { s.keepAlive = d }
}

// WithMailer enables POST /api/contact-message. Messages go to toEmail, or
// to the stored contact email when toEmail is empty.
func WithMailer(m Mailer, toEmail string) Option {
	return func(s *Server) {
		s.mailer = m
		s.toEmail = toEmail
	}
}

// New creates a Server.
func New(st *store.Store, bus *events.Bus, auth *Authenticator, opts ...Option) *Server {
	s := &Server{
		store:     st,
		bus:       bus,
		auth:      auth,
		logger:    slog.Default(),
		now:       time.Now,
		keepAlive: 25 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), cors(), limitBody(maxBodyBytes))
	s.setupRoutes(r)
	return r
}

func (s *Server) setupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", s.health)
	api.POST("/login", s.login)
	api.POST("/contact-message", s.contactMessage)
	api.GET("/events", s.streamEvents)

	api.GET("/resources", s.getDocument)
	api.PUT("/resources", s.putDocument)
	api.GET("/resources/:section", s.getSection)
	api.PUT("/resources/:section", s.putSection)

	api.POST("/upload/:slot", s.uploadImage)
	api.DELETE("/images/:slot", s.deleteImage)

	admin := api.Group("/admin")
	admin.Use(s.requireToken())
	admin.GET("/stats", s.adminStats)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"backend":   s.store.BackendName(),
		"durable":   s.store.Durable(),
	})
}

// loginRequest fields are not required: a missing credential is a mismatch
// like any other.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.Wrap(apperr.CodeValidation, "login body must be a JSON object", err))
		return
	}
	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		s.logger.Warn("failed admin login attempt", "user", req.Username, "remote", s.hashIP(c.ClientIP()))
		s.fail(c, err)
		return
	}
	s.logger.Info("admin login successful", "user", req.Username)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": req.Username})
}

// write applies p, publishes a change event and answers the request.
func (s *Server) write(c *gin.Context, p portfolio.Partial, message string, extra gin.H) {
	if err := p.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.store.Write(c.Request.Context(), p); err != nil {
		s.fail(c, err)
		return
	}
	now := s.now().UTC()
	s.mu.Lock()
	s.writes++
	s.lastWrite = now
	s.mu.Unlock()
	s.bus.Publish(events.Changed{Sections: p.Sections(), At: now})

	body := gin.H{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// fail writes the error response for err.
func (s *Server) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   apperr.Message(err),
		"code":    apperr.CodeOf(err),
	})
}
