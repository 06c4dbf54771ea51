package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/prompts"
)

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Improve or write prompts with AI (PRO)",
	Long: `Use an OpenAI compatible model (OpenRouter by default) to improve an
existing prompt or draft a new one. Needs ai.api_key in the config file or
OPENROUTER_API_KEY in the environment.`,
}

var aiEnhanceCmd = &cobra.Command{
	Use:   "enhance [prompt-id] [request...]",
	Short: "Improve a prompt",
	Long: `Ask the model to improve a prompt following your request.

Examples:
  promptpicker ai enhance 3 "make it focus on readability"
  promptpicker ai enhance 3 "shorter" --save`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAIEnhance,
}

var aiGenerateCmd = &cobra.Command{
	Use:   "generate [description...]",
	Short: "Draft a prompt from a description",
	Long: `Ask the model to write a prompt.

Examples:
  promptpicker ai generate "review SQL migrations for locking issues"
  promptpicker ai generate "explain a stack trace" --save --title "Stack Trace"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAIGenerate,
}

var (
	aiSave  bool
	aiTitle string
)

const aiTimeout = 2 * time.Minute

func init() {
	aiEnhanceCmd.Flags().BoolVarP(&aiSave, "save", "s", false, "Replace the prompt's content with the result")
	aiGenerateCmd.Flags().BoolVarP(&aiSave, "save", "s", false, "Add the result as a new prompt")
	aiGenerateCmd.Flags().StringVarP(&aiTitle, "title", "t", "", "Title for the saved prompt")

	aiCmd.AddCommand(aiEnhanceCmd)
	aiCmd.AddCommand(aiGenerateCmd)
}

func runAIEnhance(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
	defer cancel()

	snap, err := a.lib.LoadAll(ctx)
	if err != nil {
		return err
	}
	p, ok := snap.Prompt(args[0])
	if !ok {
		return fmt.Errorf("prompt not found: %s", args[0])
	}

	svc, err := a.aiService()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "✨ Enhancing...")
	result, err := svc.Enhance(ctx, p.Content, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)
	if !aiSave {
		return nil
	}
	if _, err := a.mutate(ctx, prompts.EditPrompt{ID: p.ID, Title: p.Title, Content: result}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Updated \"%s\"\n", p.Title)
	return nil
}

func runAIGenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
	defer cancel()

	svc, err := a.aiService()
	if err != nil {
		return err
	}
	description := strings.Join(args, " ")
	fmt.Fprintln(cmd.ErrOrStderr(), "✨ Generating...")
	result, err := svc.Generate(ctx, description)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)
	if !aiSave {
		return nil
	}

	title := aiTitle
	if title == "" {
		title = clip(description, 30)
	}
	ack, err := a.mutate(ctx, prompts.AddPrompt{Title: title, Content: result})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Added \"%s\" (ID: %s)\n", title, ack.PromptID)
	return nil
}
