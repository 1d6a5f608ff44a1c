package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"rtgrab/internal/config"
	"rtgrab/internal/db"
	"rtgrab/internal/logger"
	"rtgrab/internal/repository"
	"rtgrab/internal/rtorrent"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool
)

// Commands that never mutate the daemon or read history run without the
// history database.
var noHistoryCmds = map[string]bool{
	"help": true, "completion": true, "version": true, "status": true,
	"list": true, "show": true, "rate": true, "books": true, "indexers": true,
	"stop": true, "install": true, "uninstall": true,
}

var rootCmd = &cobra.Command{
	Use:           "rtgrab",
	Short:         "Add and manage rTorrent downloads over XML-RPC",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if !noHistoryCmds[cmd.Name()] {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

// newClient wires a session into a repository and control pair. Mutations
// are recorded when the history database is open.
func newClient() (*rtorrent.Repository, *rtorrent.Control, error) {
	session, err := rtorrent.NewSession(cfg.Session())
	if err != nil {
		return nil, nil, err
	}

	repo := rtorrent.NewRepository(session, cfg.RTorrent.View)
	ctl := rtorrent.NewControl(session, repo, rtorrent.NewPayloadFetcher(cfg.Fetch.Timeout), cfg.AddDefaults())
	if db.DB != nil {
		ctl.SetRecorder(repository.NewHistoryRepository(db.DB))
	}

	return repo, ctl, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
