package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/prompts"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List prompts",
	Long: `List the prompts in the bar and the folders they belong to.

Examples:
  promptpicker list
  promptpicker list --all
  promptpicker list --json`,
	RunE: runList,
}

var (
	listAll  bool
	listJSON bool
)

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Also show prompts in collapsed folders")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print the library as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.lib.LoadAll(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"prompts": snap.Prompts,
			"folders": snap.Folders,
		})
	}

	if snap.Recovered {
		fmt.Fprintln(out, "⚠️  The prompt store was unreadable and has been reset to the defaults.")
	}

	printBar(out, snap)
	if listAll {
		printFolders(out, snap)
	}
	printLimit(out, snap)
	return nil
}

// printBar prints the prompts in slot order with their hotkeys
func printBar(out io.Writer, snap *prompts.Snapshot) {
	display := snap.Display()
	fmt.Fprintf(out, "\n📋 Bar (%d prompts)\n", len(display))
	fmt.Fprintln(out, strings.Repeat("─", 60))

	if len(display) == 0 {
		fmt.Fprintln(out, "  No prompts. Add one with: promptpicker add \"Title\" \"Content\"")
	}
	for i, p := range display {
		printPrompt(out, fmt.Sprintf("%d", i+1), model.SlotShortcut(i), p)
	}
	fmt.Fprintln(out)
}

func printFolders(out io.Writer, snap *prompts.Snapshot) {
	for _, f := range snap.Folders {
		state := "▾"
		if !f.IsExpanded {
			state = "▸"
		}
		fmt.Fprintf(out, "%s 📁 %s (%d)  %s\n", state, f.Name, len(f.Prompts), f.ID)
		for _, p := range f.Prompts {
			printPrompt(out, " ", "", p)
		}
	}
	if len(snap.Folders) > 0 {
		fmt.Fprintln(out)
	}
}

func printPrompt(out io.Writer, slot, shortcut string, p model.Prompt) {
	content := clip(strings.Join(strings.Fields(p.Content), " "), 40)
	fmt.Fprintf(out, "  %s  %-14s  %-13s  %-24s  %s\n", slot, p.ID, shortcut, clip(p.Title, 24), content)
}

// clip shortens s to n runes
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func printLimit(out io.Writer, snap *prompts.Snapshot) {
	if snap.Tier == model.TierPro {
		fmt.Fprintln(out, "✨ PRO: unlimited prompts")
		return
	}
	switch {
	case snap.Limit.IsAtLimit:
		fmt.Fprintf(out, "🔒 Free plan limit reached (%d/%d). Upgrade to PRO for unlimited prompts.\n",
			len(snap.Prompts), snap.Limit.Total)
	case snap.Limit.IsNearLimit:
		fmt.Fprintf(out, "⚠️  %d prompt slots left on the free plan\n", snap.Limit.Remaining)
	default:
		fmt.Fprintf(out, "Free plan: %d/%d prompts\n", len(snap.Prompts), snap.Limit.Total)
	}
}
