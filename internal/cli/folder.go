package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/prompts"
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage folders (PRO)",
	Long:  `Create, list, and organize folders of prompts. Folders are a PRO feature.`,
}

var folderNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a new folder",
	Long: `Create a new, expanded folder.

Examples:
  promptpicker folder new "Debugging"
  promptpicker folder new "Reviews" --color "from-green-500 to-emerald-500"`,
	Args: cobra.ExactArgs(1),
	RunE: runFolderNew,
}

var folderListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all folders",
	RunE:    runFolderList,
}

var folderToggleCmd = &cobra.Command{
	Use:   "toggle [folder-id]",
	Short: "Expand or collapse a folder in the bar",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderToggle,
}

var folderAssignCmd = &cobra.Command{
	Use:   "assign [prompt-id] [folder-id]",
	Short: "Move a prompt into a folder, or out of any folder when folder-id is omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runFolderAssign,
}

var folderMergeCmd = &cobra.Command{
	Use:   "merge [prompt-id] [prompt-id]",
	Short: "Group two prompts into a new folder",
	Args:  cobra.ExactArgs(2),
	RunE:  runFolderMerge,
}

var folderDeleteCmd = &cobra.Command{
	Use:     "delete [folder-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a folder; its prompts go back to the bar",
	Args:    cobra.ExactArgs(1),
	RunE:    runFolderDelete,
}

var folderColor string

func init() {
	folderNewCmd.Flags().StringVarP(&folderColor, "color", "c", "", "Folder color")

	folderCmd.AddCommand(folderNewCmd)
	folderCmd.AddCommand(folderListCmd)
	folderCmd.AddCommand(folderToggleCmd)
	folderCmd.AddCommand(folderAssignCmd)
	folderCmd.AddCommand(folderMergeCmd)
	folderCmd.AddCommand(folderDeleteCmd)
}

func runFolderNew(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ack, err := a.mutate(context.Background(), prompts.CreateFolder{Name: args[0], Color: folderColor})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created folder: %s (ID: %s)\n", args[0], ack.FolderID)
	return nil
}

func runFolderList(cmd *cobra.Command, args []string) error {
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
	if len(snap.Folders) == 0 {
		fmt.Fprintln(out, "No folders. Create one with: promptpicker folder new \"Name\"")
		return nil
	}
	printFolders(out, snap)
	return nil
}

func runFolderToggle(cmd *cobra.Command, args []string) error {
	return folderChange(cmd, prompts.ToggleFolder{ID: args[0]}, "✓ Toggled folder")
}

func runFolderAssign(cmd *cobra.Command, args []string) error {
	change := prompts.AssignToFolder{PromptID: args[0]}
	if len(args) == 2 {
		change.FolderID = args[1]
	}
	return folderChange(cmd, change, "✓ Moved prompt")
}

func runFolderMerge(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	ack, err := a.mutate(ctx, prompts.MergePrompts{FirstID: args[0], SecondID: args[1]})
	if err != nil {
		return notFound(err, args)
	}

	snap, err := a.lib.LoadAll(ctx)
	if err != nil {
		return err
	}
	name := ack.FolderID
	if f, ok := snap.Folder(ack.FolderID); ok {
		name = f.Name
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Grouped into folder: %s (ID: %s)\n", name, ack.FolderID)
	return nil
}

func runFolderDelete(cmd *cobra.Command, args []string) error {
	return folderChange(cmd, prompts.DeleteFolder{ID: args[0]}, "🗑️  Deleted folder")
}

func folderChange(cmd *cobra.Command, change prompts.Change, done string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.mutate(context.Background(), change); err != nil {
		return notFound(err, nil)
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}

func notFound(err error, ids []string) error {
	switch {
	case errors.Is(err, prompts.ErrPromptNotFound):
		if len(ids) > 0 {
			return fmt.Errorf("prompt not found: one of %v", ids)
		}
		return fmt.Errorf("prompt not found")
	case errors.Is(err, prompts.ErrFolderNotFound):
		return fmt.Errorf("folder not found")
	}
	return err
}
