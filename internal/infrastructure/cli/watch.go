package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/render"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/watch"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-review a PRD every time the file is saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return NewCLIError("cannot watch file", "Check the file path", err)
		}

		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Close()

		r := render.New(services.Tags)
		out := cmd.OutOrStdout()
		var printMu sync.Mutex
		unsubscribe := services.Session.Subscribe(func(snap submission.Snapshot) {
			printMu.Lock()
			defer printMu.Unlock()
			switch snap.Status {
			case submission.StatusPending:
				fmt.Fprintf(out, "\nChange detected at %s, analyzing...\n", snap.SubmittedAt.Format("15:04:05"))
			case submission.StatusSuccess, submission.StatusFailure:
				fmt.Fprintln(out, r.Snapshot(snap))
			}
		})
		defer unsubscribe()

		resubmitter := watch.NewResubmitter(services.Session, buildRequest, services.Logger.Named("watch"))
		watcher, err := watch.NewFileWatcher(path, watchDebounce, services.Logger.Named("watch"), resubmitter.OnChange)
		if err != nil {
			return NewCLIError("cannot watch file", "Check that the directory is readable", err)
		}

		fmt.Fprintf(out, "Watching %s (API %s). Press Ctrl+C to stop.\n", watcher.Path(), services.Client.BaseURL())
		if _, err := resubmitter.Submit(watcher.Path()); err != nil {
			_ = watcher.Close()
			return MapError(err)
		}

		if os.Getenv("PRDREVIEW_SKIP_WATCH_RUN") == "true" {
			return watcher.Close()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watch stopped: %w", err)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period after a save before resubmitting")
	watchCmd.Flags().BoolVar(&reviewMock, "mock", false, "Ask the API for its deterministic mock review")
	watchCmd.Flags().StringVar(&reviewAudience, "audience", "", "Who the review is written for")
	watchCmd.Flags().StringToStringVar(&reviewContext, "context", nil, "Product context as key=value pairs")
	RootCmd.AddCommand(watchCmd)
}
