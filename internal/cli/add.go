package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/prompts"
)

var addCmd = &cobra.Command{
	Use:   "add [title] [content...]",
	Short: "Add a new prompt",
	Long: `Add a new prompt to the bar.

Pass "-" as the content to read it from stdin.

Examples:
  promptpicker add "Review" "Review this diff for bugs"
  promptpicker add "Spec" - < spec-prompt.txt
  promptpicker add "Tests" "Write table tests" --folder folder-0190...`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit [prompt-id]",
	Short: "Edit a prompt",
	Long: `Change a prompt's title, content or color. Unset flags keep the
current value.

Examples:
  promptpicker edit 3 --title "Refactor for clarity"
  promptpicker edit 1712345678901 --content - < better.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	addColor    string
	addFolder   string
	editTitle   string
	editContent string
	editColor   string
)

func init() {
	addCmd.Flags().StringVarP(&addColor, "color", "c", "", "Gradient color classes")
	addCmd.Flags().StringVarP(&addFolder, "folder", "f", "", "Folder to file the prompt in (PRO)")

	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	editCmd.Flags().StringVar(&editContent, "content", "", "New content, - reads stdin")
	editCmd.Flags().StringVarP(&editColor, "color", "c", "", "New color")
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	content, err := textArg(cmd, args[1:])
	if err != nil {
		return err
	}

	ack, err := a.mutate(context.Background(), prompts.AddPrompt{
		Title:    args[0],
		Content:  content,
		Color:    addColor,
		FolderID: addFolder,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added \"%s\" (ID: %s)\n", args[0], ack.PromptID)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
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
	current, ok := snap.Prompt(args[0])
	if !ok {
		return fmt.Errorf("prompt not found: %s", args[0])
	}

	change := prompts.EditPrompt{ID: current.ID, Title: current.Title, Content: current.Content, Color: editColor}
	if cmd.Flags().Changed("title") {
		change.Title = editTitle
	}
	if cmd.Flags().Changed("content") {
		if change.Content, err = textArg(cmd, []string{editContent}); err != nil {
			return err
		}
	}

	if _, err := a.mutate(ctx, change); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated \"%s\"\n", change.Title)
	return nil
}
