package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

// streamEvents relays bus events to the client as server-sent events. The
// first event, "ready", confirms the subscription is live.
func (s *Server) streamEvents(c *gin.Context) {
	sub := s.bus.Subscribe()
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	s.logger.Debug("event stream opened", "subscriber", sub.ID, "remote", c.ClientIP())
	defer s.logger.Debug("event stream closed", "subscriber", sub.ID)

	c.SSEvent("ready", gin.H{"subscriber": sub.ID, "backend": s.store.BackendName()})
	c.Writer.Flush()

	ping := time.NewTicker(s.keepAlive)
	defer ping.Stop()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("changed", ev)
			return true
		case t := <-ping.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			return true
		case <-ctx.Done():
			return false
		}
	})
}
