package cmd

import (
	"context"
	"fmt"
	"time"

	"rtgrab/internal/daemon"
	"rtgrab/internal/db"
	"rtgrab/internal/logger"
	"rtgrab/internal/repository"
	"rtgrab/internal/watcher"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchDir    string
	watchSettle time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Submit payload files dropped into the watch directory",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	dir := cfg.Watch.Dir
	if watchDir != "" {
		dir = watchDir
	}
	if dir == "" {
		return fmt.Errorf("no watch directory: set watch.dir or pass --dir")
	}

	repo, ctl, err := newClient()
	if err != nil {
		return err
	}

	w, err := watcher.New(256)
	if err != nil {
		return err
	}
	if err := w.Watch(dir); err != nil {
		w.Stop()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	intake := watcher.NewIntake(ctl, cfg.AddDefaults(), cfg.Watch.IgnoreList, watchSettle)

	backlog, err := intake.Backlog(dir)
	if err != nil {
		logger.Log.Warn("failed to scan backlog", zap.Error(err))
	}
	for _, event := range backlog {
		if res := intake.Submit(ctx, event); res.Err != nil {
			logger.Log.Warn("backlog payload rejected",
				zap.String("path", event.Path),
				zap.Error(res.Err))
		}
	}

	results := intake.Run(ctx, w.Events())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			if res.Err != nil {
				logger.Log.Warn("payload rejected",
					zap.String("path", res.Event.Path),
					zap.Error(res.Err))
			}
		}
	}()

	srv := daemon.NewServer(repo, ctl, repository.NewHistoryRepository(db.DB), cfg.DaemonPort)
	srv.Start()

	logger.Log.Info("rtgrab watching",
		zap.String("dir", dir),
		zap.Int("backlog", len(backlog)),
		zap.Int("port", cfg.DaemonPort))

	err = waitForShutdown(srv)
	w.Stop()
	<-done
	return err
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "directory to watch (defaults to watch.dir)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 2*time.Second, "quiet period before a new file is submitted")
	rootCmd.AddCommand(watchCmd)
}
