package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brainworx/scorecard/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch an inbox directory and dispatch dropped runs",
		Long: `Run in inbox mode: watch the configured inbox directory for dropped run
files and dispatch each named run through the send pipeline.

A drop file is a small JSON document naming one run:
  {"run_id": "7f9c2e14-8a30-4a9f-b6d1-2f4f4f6a9b21"}
  {"run_id": "7f9c2e14-8a30-4a9f-b6d1-2f4f4f6a9b21", "resend": true}

Processed files are renamed with a .done suffix, rejected or failed ones
with .failed, so restarts never redeliver. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			watcher, err := watch.NewInboxWatcher(env.cfg.Watch.InboxDir, env.cfg.Watch.Pattern)
			if err != nil {
				return err
			}
			defer watcher.Close()
			if env.cfg.Watch.DebounceDelay > 0 {
				watcher.SetDebounceDelay(env.cfg.Watch.DebounceDelay)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env.log.Infof("watching %s for %s drop files", watcher.RootDir(), watcher.Pattern())

			processor := watch.NewProcessor(watcher, env.dispatchRun, env.log)
			if err := processor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			env.log.Infof("inbox watcher stopped")
			return nil
		},
	}
}
