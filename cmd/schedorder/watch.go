package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/schedorder/internal/async"
	"github.com/joseph-ayodele/schedorder/internal/common"
	coreasync "github.com/joseph-ayodele/schedorder/internal/core/async"
	"github.com/joseph-ayodele/schedorder/internal/ingest"
)

var (
	watchDir      string
	watchInitial  bool
	watchDebounce time.Duration
)

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "inbox directory to watch (required)")
	watchCmd.Flags().BoolVar(&watchInitial, "initial-scan", true, "process files already in the inbox")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait for writes to settle before processing")
	_ = watchCmd.MarkFlagRequired("dir")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch an inbox directory and extract orders as they arrive",
	Long: `Watch an inbox directory and extract orders as they arrive. Review-cleared
documents are stored; everything else is logged for follow-up. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = common.WithSource(ctx, "watch")

	a, logger, err := loadApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// The watcher goes first so a bad inbox fails before any worker starts.
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{watchDir},
		InitialScan: watchInitial,
		Debounce:    watchDebounce,
	}, logger)
	if err != nil {
		return err
	}

	queue := coreasync.NewProcessorQueue(func(jobCtx context.Context, job async.Job) {
		jobCtx = common.WithSource(jobCtx, "watch")
		res := a.Service.ProcessFile(jobCtx, job.Path)
		logger.Info("watch.processed",
			"path", job.Path,
			"success", res.Outcome.Success,
			"needs_review", res.Outcome.NeedsReview,
			"error", res.Outcome.ErrorMessage(),
			"stored", res.OrderID != nil,
		)
	}, logger,
		coreasync.WithWorkers(a.Config.Extraction.WatchWorkers),
		coreasync.WithQueueSize(a.Config.Extraction.WatchQueueSize),
		coreasync.WithProcessTimeout(a.Config.Server.ProcessTimeout),
	)

	logger.Info("watch.started", "dir", watchDir)

	for {
		select {
		case path, ok := <-events:
			if !ok {
				return drain(queue, a.Config.Server.ShutdownTimeout)
			}
			if err := queue.Enqueue(ctx, async.Job{Path: path}); err != nil {
				logger.Warn("watch.enqueue.failed", "path", path, "err", err)
			}
		case err, ok := <-errs:
			if ok {
				logger.Warn("watch.error", "err", err)
			}
		case <-ctx.Done():
			return drain(queue, a.Config.Server.ShutdownTimeout)
		}
	}
}

func drain(q async.Queue, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	q.Shutdown(ctx)
	return nil
}
