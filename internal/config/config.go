// Package config loads runtime settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/pkg/errors"
)

// Config holds every setting the server and the CLI read.
type Config struct {
	Port           string `env:"PORT" envDefault:"8080"`
	StorageBackend string `env:"STORAGE_BACKEND"`
	DataFile       string `env:"DATA_FILE" envDefault:"portfolio-data.json"`
	LocalDB        string `env:"LOCAL_DB" envDefault:"portfolio-local.db"`

	AdminUsername string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	TokenSecret   string        `env:"TOKEN_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	SyncCooldown time.Duration `env:"SYNC_COOLDOWN" envDefault:"2s"`

	// Contact form delivery. TO_EMAIL falls back to the stored contact email.
	SMTPHost string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	ToEmail  string `env:"TO_EMAIL"`

	// Set by hosting platforms; used only to pick a default backend.
	Vercel       string `env:"VERCEL"`
	LambdaFnName string `env:"AWS_LAMBDA_FUNCTION_NAME"`
}

// LoadEnvFile loads an extra dotenv file. Variables already set in the
// environment win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load env file %s", path)
	}
	return nil
}

// Load parses the environment into a Config and fills derived defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(err, "parse env")
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = "file"
		if cfg.Serverless() {
			cfg.StorageBackend = "memory"
		}
	}
	switch cfg.StorageBackend {
	case "file", "memory", "local":
	default:
		return cfg, errors.Errorf("STORAGE_BACKEND must be file, memory or local, got %q", cfg.StorageBackend)
	}
	if cfg.TokenSecret == "" {
		secret, err := randomHex(32)
		if err != nil {
			return cfg, errors.Wrap(err, "generate token secret")
		}
		cfg.TokenSecret = secret
	}
	return cfg, nil
}

// Serverless reports whether the process runs on a function platform where
// memory is not shared between invocations.
func (c Config) Serverless() bool {
	return c.Vercel != "" || c.LambdaFnName != ""
}

// UsingDefaultCredentials reports whether the demo admin credential is active.
func (c Config) UsingDefaultCredentials() bool {
	return c.AdminUsername == "admin" && c.AdminPassword == "admin123"
}

// SMTPConfigured reports whether contact form mail can be sent.
func (c Config) SMTPConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPass != ""
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) Logger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
