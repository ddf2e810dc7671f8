package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/apperr"
)

// AdminStats summarizes the document and server activity for the admin
// dashboard.
type AdminStats struct {
	Backend     string     `json:"backend"`
	Durable     bool       `json:"durable"`
	Projects    int        `json:"projects"`
	Services    int        `json:"services"`
	Skills      int        `json:"skills"`
	HeroImage   bool       `json:"hero_image"`
	Background  bool       `json:"background_image"`
	Subscribers int        `json:"subscribers"`
	Writes      int64      `json:"writes"`
	LastWrite   *time.Time `json:"last_write,omitempty"`
}

// requireToken rejects requests without a valid bearer token.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			s.fail(c, apperr.New(apperr.CodeAuth, "Authentication required"))
			c.Abort()
			return
		}
		claims, err := s.auth.Verify(token)
		if err != nil {
			s.logger.Warn("rejected admin token", "remote", s.hashIP(c.ClientIP()), "error", err)
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Set("admin", claims.Subject)
		c.Next()
	}
}

func (s *Server) adminStats(c *gin.Context) {
	doc := s.store.Read(c.Request.Context())

	s.mu.Lock()
	stats := AdminStats{Writes: s.writes}
	if !s.lastWrite.IsZero() {
		t := s.lastWrite
		stats.LastWrite = &t
	}
	s.mu.Unlock()

	stats.Backend = s.store.BackendName()
	stats.Durable = s.store.Durable()
	stats.Projects = len(doc.Portfolio)
	stats.Services = len(doc.Services)
	stats.Skills = len(doc.About.Skills)
	stats.HeroImage = doc.Images.HeroImage != nil
	stats.Background = doc.Images.HomeBackgroundImage != nil
	stats.Subscribers = s.bus.Len()

	c.JSON(http.StatusOK, stats)
}

// hashIP keeps client addresses out of the logs while still letting
// repeated attempts from one address be correlated.
func (s *Server) hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.auth.salt()))
	return hex.EncodeToString(sum[:])[:16]
}
