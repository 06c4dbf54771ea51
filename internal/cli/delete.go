package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/prompts"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [prompt-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a prompt",
	Long: `Delete a prompt by its ID. Asks for confirmation unless --yes is given
or confirm_delete is off in the config.

Examples:
  promptpicker delete 1712345678901
  promptpicker rm 4 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteYes bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var deleted model.Prompt
	_, err = a.mutate(context.Background(), prompts.DeletePrompt{
		ID: args[0],
		Confirm: func(p model.Prompt) bool {
			deleted = p
			if deleteYes || !a.cfg.ConfirmDelete {
				return true
			}
			fmt.Fprintf(cmd.OutOrStdout(), "About to delete: \"%s\" (ID: %s)\n", p.Title, p.ID)
			return confirm(cmd, "Are you sure?")
		},
	})
	switch {
	case errors.Is(err, prompts.ErrNotConfirmed):
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	case errors.Is(err, prompts.ErrPromptNotFound):
		return fmt.Errorf("prompt not found: %s", args[0])
	case err != nil:
		return fmt.Errorf("failed to delete prompt: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted: \"%s\"\n", deleted.Title)
	return nil
}
