package api

import (
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Zachkp/folio/internal/apperr"
)

// Authenticator checks the single admin credential pair and issues tokens.
// Issued tokens are not required by the resource endpoints.
type Authenticator struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthenticator returns an Authenticator for one fixed credential pair.
func NewAuthenticator(username, password, secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{
		username: username,
		password: password,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login returns a signed token when the credentials match, and an AUTH_FAILED
// error otherwise.
func (a *Authenticator) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK || password == "" {
		return "", apperr.New(apperr.CodeAuth, "Invalid credentials")
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeUnknown, "failed to sign token", err)
	}
	return token, nil
}

// Verify checks a token issued by Login and returns its claims.
func (a *Authenticator) Verify(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeAuth, "Invalid or expired token", err)
	}
	if claims.Subject != a.username {
		return nil, apperr.New(apperr.CodeAuth, "Invalid or expired token")
	}
	return claims, nil
}

func (a *Authenticator) salt() string { return string(a.secret) }
