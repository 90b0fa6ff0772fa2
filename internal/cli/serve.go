package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knolstudy/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(withApp runner) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := web.NewServer(a.study, a.analytics, a.importer.Confine(a.cfg.Import.LocalRoot))
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(a.cfg.Server.Addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}),
	}
}
