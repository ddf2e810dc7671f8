package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/mail"
)

// Mailer delivers contact form submissions. *mail.SMTPSender implements it.
type Mailer interface {
	Send(ctx context.Context, to string, m mail.Message) error
}

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email,max=320"`
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=10000"`
}

func (s *Server) contactMessage(c *gin.Context) {
	if s.mailer == nil {
		s.fail(c, apperr.New(apperr.CodeUnavailable, "Contact form is not configured"))
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.Wrap(apperr.CodeValidation, "Please fill in all fields with a valid email address", err))
		return
	}
	// Name, email and subject end up in mail headers.
	for _, v := range []string{req.Name, req.Email, req.Subject} {
		if strings.ContainsAny(v, "\r\n") {
			s.fail(c, apperr.New(apperr.CodeValidation, "Name, email and subject must be a single line"))
			return
		}
	}

	ctx := c.Request.Context()
	to := s.toEmail
	if to == "" {
		to = s.store.Read(ctx).Contact.Email
	}
	if to == "" {
		s.fail(c, apperr.New(apperr.CodeUnavailable, "Contact form has no recipient"))
		return
	}

	err := s.mailer.Send(ctx, to, mail.Message{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Message,
	})
	if err != nil {
		s.fail(c, apperr.Wrap(apperr.CodeNetwork, "Sorry, there was an error sending your message. Please try again later.", err))
		return
	}
	s.logger.Info("contact message sent", "remote", s.hashIP(c.ClientIP()))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Thank you for your message! I'll get back to you soon."})
}
