package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/prompts"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Show or change the shared settings.

Commands:
  promptpicker settings                       # Show settings
  promptpicker settings shortcut ctrl+space   # Change the toggle shortcut`,
	RunE: runSettingsShow,
}

var settingsShortcutCmd = &cobra.Command{
	Use:   "shortcut [combo]",
	Short: "Set the shortcut that shows and hides the bar",
	Long: `Set the toggle shortcut. Modifiers are cmd, ctrl, alt and shift
(command, control, option, meta and super are accepted too) followed by one key.

Examples:
  promptpicker settings shortcut alt+shift+space
  promptpicker settings shortcut "Option+Command+P"`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsShortcut,
}

func init() {
	settingsCmd.AddCommand(settingsShortcutCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.lib.LoadAll(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "⚙️  Settings")
	fmt.Fprintf(out, "   Toggle shortcut: %s\n", snap.Settings.ToggleShortcut)
	fmt.Fprintf(out, "   Slot shortcuts:  %s … %s\n", model.SlotShortcut(0), model.SlotShortcut(prompts.MaxSlots-1))
	fmt.Fprintf(out, "   Store:           %s (%s)\n", a.cfg.DataDir, a.cfg.StoreBackend)
	if a.cfg.RelayURL != "" {
		fmt.Fprintf(out, "   Relay:           %s\n", a.cfg.RelayURL)
	}
	fmt.Fprintf(out, "   Poll interval:   %s\n", a.cfg.PollInterval())
	return nil
}

func runSettingsShortcut(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if _, err := a.mutate(ctx, prompts.SetSetting{ToggleShortcut: args[0]}); err != nil {
		return err
	}

	snap, err := a.lib.LoadAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Toggle shortcut set to %s\n", snap.Settings.ToggleShortcut)
	return nil
}
