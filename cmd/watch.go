package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/zjrosen/walkabout/internal/log"
	"github.com/zjrosen/walkabout/internal/watcher"
)

func addWatchFlag(cmd *cobra.Command, watch *bool) {
	cmd.Flags().BoolVarP(watch, "watch", "w", false, "rerun whenever the manifest changes (Ctrl+C to stop)")
}

// rerun runs fn, or with watch set runs it once and again after every
// change to the manifest until interrupted. Failures while watching are
// reported and do not stop the watch.
func (a *app) rerun(cmd *cobra.Command, path string, watch bool, fn func() error) error {
	if !watch {
		return fn()
	}

	resolved, err := a.manifestPath(path)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()
	return a.watchLoop(ctx, cmd, resolved, fn)
}

func (a *app) watchLoop(ctx context.Context, cmd *cobra.Command, path string, fn func() error) error {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	report := func() {
		if err := fn(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		}
	}
	report()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			log.Debug(log.CatCLI, "Manifest changed", "path", path)
			report()
		}
	}
}
