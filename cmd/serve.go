package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rtgrab/internal/daemon"
	"rtgrab/internal/db"
	"rtgrab/internal/logger"
	"rtgrab/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP control API",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		repo, ctl, err := newClient()
		if err != nil {
			return err
		}

		port := cfg.DaemonPort
		if servePort != 0 {
			port = servePort
		}

		srv := daemon.NewServer(repo, ctl, repository.NewHistoryRepository(db.DB), port)
		srv.Start()

		return waitForShutdown(srv)
	},
}

// waitForShutdown blocks until a signal or an API stop request arrives.
func waitForShutdown(srv *daemon.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (defaults to daemon_port)")
	rootCmd.AddCommand(serveCmd)
}
