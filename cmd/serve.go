package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/api"
	"github.com/Zachkp/folio/internal/events"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/store"
)

//nolint:gochecknoglobals // Cobra boilerplate
var servePort string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the content API",
	Long: `Run the content API on PORT (default 8080).

The storage backend comes from STORAGE_BACKEND: "file" keeps an indented JSON
document at DATA_FILE, "local" keeps one row per section in the sqlite file at
LOCAL_DB, and "memory" keeps nothing across restarts. On serverless hosts the
memory backend is the default.

The contact form mails submissions through SMTP_HOST:SMTP_PORT once SMTP_USER
and SMTP_PASS are set. TO_EMAIL defaults to the stored contact email.

Example:
  folio serve
  STORAGE_BACKEND=local folio serve --port 3001`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (default from PORT)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	backend, closeBackend, err := store.OpenBackend(cfg.StorageBackend, cfg.DataFile, cfg.LocalDB)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeBackend(); cerr != nil {
			logger.Warn("close storage", "error", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New(backend, store.WithLogger(logger))
	if err = st.Init(ctx); err != nil {
		return err
	}
	if !backend.Durable() {
		logger.Warn("memory storage in use: edits are lost on restart and not shared between instances")
	}
	if cfg.UsingDefaultCredentials() {
		logger.Warn("using default admin credentials; set ADMIN_USERNAME and ADMIN_PASSWORD")
	}

	auth := api.NewAuthenticator(cfg.AdminUsername, cfg.AdminPassword, cfg.TokenSecret, cfg.TokenTTL)
	opts := []api.Option{api.WithLogger(logger)}
	if cfg.SMTPConfigured() {
		sender := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
		opts = append(opts, api.WithMailer(sender, cfg.ToEmail))
	} else {
		logger.Warn("contact form disabled; set SMTP_USER and SMTP_PASS to enable it")
	}
	server := api.New(st, events.NewBus(logger), auth, opts...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "backend", backend.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
