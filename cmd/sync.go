package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/syncclient"
)

//nolint:gochecknoglobals // Cobra boilerplate
var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Report whether a content API answers at url",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if syncclient.CheckBackendAvailable(cmd.Context(), args[0]) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: available\n", args[0])
			return nil
		}
		return errors.Errorf("%s: no content API answered", args[0])
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var watchCmd = &cobra.Command{
	Use:   "watch <url>",
	Short: "Keep a synced copy of the document and log every refresh",
	Long: `Keep a copy of the document in sync with the API at url, the way an open
page does, and log each refresh. When nothing answers at url the local store
(LOCAL_DB) is read instead.

Example:
  folio watch http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(checkCmd, watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, err := store.OpenLocalBackend(cfg.LocalDB)
	if err != nil {
		return err
	}
	defer local.Close()

	c, mode := syncclient.Dial(ctx, args[0], store.New(local, store.WithLogger(logger)),
		syncclient.WithLogger(logger),
		syncclient.WithCooldown(cfg.SyncCooldown),
		syncclient.OnRefresh(func(d portfolio.Document) {
			logger.Info("document refreshed",
				"projects", len(d.Portfolio),
				"services", len(d.Services),
				"name", d.About.Name,
				"title", d.Settings.PortfolioTitle,
			)
		}),
	)
	logger.Info("sync client started", "url", args[0], "mode", mode)

	c.Start(ctx)
	<-ctx.Done()
	c.Close()

	st := c.Stats()
	logger.Info("sync client stopped", "cycles", st.Cycles, "dropped", st.Dropped, "section_failures", st.SectionFailures)
	return nil
}
