// Package mail delivers contact form submissions to the site owner over SMTP.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

// Message is one contact form submission.
type Message struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// Compose renders m as an RFC 5322 message from from to to. Replies go to the
// visitor's address.
func Compose(from, to string, m Message) []byte {
	subject := "Portfolio Contact: " + m.Name
	if m.Subject != "" {
		subject += " - " + m.Subject
	}
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Subject: %s
Message:
%s

---
Sent from your portfolio contact form
`, m.Name, m.Email, m.Subject, m.Body)

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("Reply-To: " + m.Email + "\r\n")
	b.WriteString("\r\n")
	body = strings.ReplaceAll(body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends messages through one SMTP relay with PLAIN auth.
type SMTPSender struct {
	Host string
	Port string
	User string
	Pass string

	send SendFunc
}

// NewSMTPSender returns a sender for host:port authenticating as user.
func NewSMTPSender(host, port, user, pass string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, User: user, Pass: pass, send: smtp.SendMail}
}

// Send delivers m to the address to. smtp.SendMail takes no context, so ctx
// is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, to string, m Message) error {
	if s.User == "" || s.Pass == "" {
		return errors.New("SMTP credentials not configured")
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	addr := net.JoinHostPort(s.Host, s.Port)
	if err := send(addr, auth, s.User, []string{to}, Compose(s.User, to, m)); err != nil {
		return errors.Wrapf(err, "send mail via %s", addr)
	}
	return nil
}
