package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/Protoscribe/internal/server"
	"github.com/turtacn/Protoscribe/internal/session"
	"github.com/turtacn/Protoscribe/pkg/logger"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the authoring session HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			store, err := openStore(cfg.Store.Driver, cfg.Store.Path)
			if err != nil {
				return err
			}
			mgr := session.NewManager(store)
			defer mgr.Close()

			srv, err := server.New(cfg, mgr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Log.Info("Booting Protoscribe session API", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func openStore(driver, path string) (session.Store, error) {
	if driver == "sqlite" {
		return session.OpenSQLite(path)
	}
	return session.NewMemoryStore(), nil
}

// Personal.AI order the ending
