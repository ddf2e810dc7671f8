// Package client is a typed HTTP client for the resource API. The sync client
// reads through it and the admin editor writes through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/portfolio"
)

// Client talks to one API server.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for the server at baseURL (scheme and host, no /api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the token from the last successful Login.
func (c *Client) Token() string { return c.token }

// Health is the liveness payload.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Backend   string `json:"backend"`
	Durable   bool   `json:"durable"`
}

// Health probes /api/health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &h)
	return h, err
}

// Document fetches the whole document.
func (c *Client) Document(ctx context.Context) (portfolio.Document, error) {
	var d portfolio.Document
	err := c.do(ctx, http.MethodGet, "/api/resources", nil, &d)
	return d, err
}

// Section fetches one section as raw JSON.
func (c *Client) Section(ctx context.Context, sec portfolio.Section) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, http.MethodGet, "/api/resources/"+string(sec), nil, &raw)
	return raw, err
}

// PutSection replaces (lists) or merges (singletons) one section.
func (c *Client) PutSection(ctx context.Context, sec portfolio.Section, value any) error {
	return c.do(ctx, http.MethodPut, "/api/resources/"+string(sec), value, nil)
}

// PutDocument merges a partial document.
func (c *Client) PutDocument(ctx context.Context, p portfolio.Partial) error {
	return c.do(ctx, http.MethodPut, "/api/resources", p, nil)
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// Login checks the admin credentials. A mismatch is an AUTH_FAILED error.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

// ContactMessage is a visitor's contact form submission.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SendContactMessage submits the contact form. A server without mail
// configured answers with UNAVAILABLE.
func (c *Client) SendContactMessage(ctx context.Context, m ContactMessage) error {
	return c.do(ctx, http.MethodPost, "/api/contact-message", m, nil)
}

type uploadResponse struct {
	ImageData string `json:"imageData"`
}

// UploadImage sends image bytes with their declared MIME type and returns the
// stored data URI.
func (c *Client) UploadImage(ctx context.Context, slot portfolio.ImageSlot, mime string, data []byte) (string, error) {
	var resp uploadResponse
	body := map[string]string{"imageData": portfolio.DataURI(mime, data), "mimeType": mime}
	if err := c.do(ctx, http.MethodPost, "/api/upload/"+string(slot), body, &resp); err != nil {
		return "", err
	}
	return resp.ImageData, nil
}

// DeleteImage clears one image slot.
func (c *Client) DeleteImage(ctx context.Context, slot portfolio.ImageSlot) error {
	return c.do(ctx, http.MethodDelete, "/api/images/"+string(slot), nil, nil)
}

// AdminStats is the dashboard summary served to logged-in admins.
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

// AdminStats fetches the dashboard summary. It needs a prior Login.
func (c *Client) AdminStats(ctx context.Context) (AdminStats, error) {
	var st AdminStats
	err := c.do(ctx, http.MethodGet, "/api/admin/stats", nil, &st)
	return st, err
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  apperr.Code `json:"code"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return apperr.Wrap(apperr.CodeValidation, "encode request", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Wrap(apperr.CodeNetwork, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.CodeNetwork, method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.CodeNetwork, "decode "+path+" response", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var er errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&er)
	code := er.Code
	if code == "" {
		code = codeForStatus(resp.StatusCode)
	}
	msg := er.Error
	if msg == "" {
		msg = resp.Status
	}
	return &apperr.Error{
		Code:    code,
		Message: msg,
		Cause:   errors.Errorf("HTTP %d from %s", resp.StatusCode, resp.Request.URL.Path),
	}
}

func codeForStatus(status int) apperr.Code {
	switch status {
	case http.StatusBadRequest:
		return apperr.CodeValidation
	case http.StatusUnauthorized:
		return apperr.CodeAuth
	case http.StatusNotFound:
		return apperr.CodeNotFound
	case http.StatusInternalServerError:
		return apperr.CodeWrite
	case http.StatusServiceUnavailable:
		return apperr.CodeUnavailable
	}
	return apperr.CodeNetwork
}
