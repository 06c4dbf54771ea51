package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/prompts"
	"github.com/existflow/promptpicker/internal/sync"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the bar every time another window changes it",
	Long: `Keep running and print the bar whenever the shared store changes.
Changes are picked up from notifications, the change trigger, or a changed
prompt count, whichever comes first.

Examples:
  promptpicker watch
  promptpicker watch --interval 5s`,
	RunE: runWatch,
}

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "Poll interval (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := a.lib.LoadAll(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printBar(out, snap)

	interval := a.cfg.PollInterval()
	if watchInterval > 0 {
		interval = watchInterval
	}
	w := sync.NewWatcher(a.lib, a.channel, sync.WithInterval(interval))
	w.Observe(snap)
	w.SetOnReload(func(snap *prompts.Snapshot, reason sync.Reason) {
		fmt.Fprintf(out, "🔄 %s (%s)\n", time.Now().Format("15:04:05"), reason)
		if snap.Recovered {
			fmt.Fprintln(out, "⚠️  The prompt store was unreadable and has been reset to the defaults.")
		}
		printBar(out, snap)
	})
	w.SetOnError(func(err error) {
		logger.Warn("Reload failed", logger.F("error", err))
	})

	w.Start(ctx)
	defer w.Stop()

	fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes. Press Ctrl+C to stop.")
	<-ctx.Done()
	return nil
}
