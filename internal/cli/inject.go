package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/inject"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/prompts"
)

var injectCmd = &cobra.Command{
	Use:   "inject [slot]",
	Short: "Type the prompt in a bar slot into the focused app",
	Long: `Inject the prompt shown in bar slot 1-9. Bind this to a global hotkey
(for example cmd+alt+N) in your window manager.

Examples:
  promptpicker inject 1
  promptpicker inject 3 --print`,
	Args: cobra.ExactArgs(1),
	RunE: runInject,
}

var injectPrint bool

func init() {
	injectCmd.Flags().BoolVarP(&injectPrint, "print", "p", false, "Print the prompt instead of injecting it")
}

func runInject(cmd *cobra.Command, args []string) error {
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 1 || slot > prompts.MaxSlots {
		return fmt.Errorf("slot must be a number from 1 to %d", prompts.MaxSlots)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	snap, err := a.lib.LoadAll(ctx)
	if err != nil {
		return err
	}
	p, ok := snap.Slot(slot - 1)
	if !ok {
		return fmt.Errorf("slot %d is empty", slot)
	}

	if injectPrint {
		fmt.Fprint(cmd.OutOrStdout(), p.Content)
		return nil
	}

	injector, err := inject.FromConfig(a.cfg.InjectMode, a.cfg.InjectCommand)
	if err != nil {
		return err
	}
	if err := injector.Inject(ctx, p.Content); err != nil {
		logger.Error("Injection failed", logger.F("prompt", p.ID), logger.F("error", err))
		return err
	}

	logger.Info("Prompt injected", logger.F("prompt", p.ID), logger.F("slot", slot))
	return nil
}
