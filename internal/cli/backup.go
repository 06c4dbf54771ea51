package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/promptpicker/internal/backup"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/prompts"
)

// passphraseEnv lets scripts supply the backup passphrase
const passphraseEnv = "PROMPTPICKER_BACKUP_PASSPHRASE"

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Save prompts, folders and settings to a backup file",
	Long: `Write a backup of the library. With --encrypt the backup is sealed with
a passphrase (AES-256-GCM, key derived with PBKDF2).

Examples:
  promptpicker export prompts-backup.json
  promptpicker export prompts-backup.json --encrypt`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace the library with a backup",
	Long: `Restore prompts, folders and settings from a backup made with export.
Every current prompt and folder is replaced.

Examples:
  promptpicker import prompts-backup.json
  promptpicker import prompts-backup.json --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	exportEncrypt bool
	importYes     bool
)

func init() {
	exportCmd.Flags().BoolVarP(&exportEncrypt, "encrypt", "e", false, "Seal the backup with a passphrase")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Do not ask for confirmation")
}

// readPassphrase reads without echo from a terminal, or a line from piped stdin
func readPassphrase(cmd *cobra.Command, label string) (string, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), label)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.lib.LoadAll(context.Background())
	if err != nil {
		return err
	}

	passphrase := ""
	if exportEncrypt {
		if passphrase, err = readPassphrase(cmd, "Passphrase: "); err != nil {
			return err
		}
		if passphrase == "" {
			return fmt.Errorf("passphrase cannot be empty")
		}
	}

	data, err := backup.Export(backup.Library{
		Prompts:  snap.Prompts,
		Folders:  snap.Folders,
		Settings: snap.Settings,
	}, passphrase, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	if err := os.WriteFile(args[0], data, 0600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	logger.Info("Backup exported", logger.F("prompts", len(snap.Prompts)), logger.F("encrypted", exportEncrypt))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d prompts and %d folders to %s\n", len(snap.Prompts), len(snap.Folders), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	info, err := backup.Inspect(data)
	if err != nil {
		return err
	}
	passphrase := ""
	if info.Encrypted {
		if passphrase, err = readPassphrase(cmd, "Passphrase: "); err != nil {
			return err
		}
	}
	lib, err := backup.Import(data, passphrase)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backup from %s: %d prompts, %d folders\n",
		info.CreatedAt.Local().Format("Jan 2, 2006 15:04"), len(lib.Prompts), len(lib.Folders))
	if !importYes && !confirm(cmd, "Replace all current prompts and folders?") {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if _, err := a.mutate(ctx, prompts.ImportLibrary{Prompts: lib.Prompts, Folders: lib.Folders}); err != nil {
		return err
	}
	if lib.Settings.ToggleShortcut != "" {
		if _, err := a.mutate(ctx, prompts.SetSetting{ToggleShortcut: lib.Settings.ToggleShortcut}); err != nil {
			logger.Warn("Backup settings not restored", logger.F("error", err))
		}
	}

	fmt.Fprintf(out, "✓ Imported %d prompts and %d folders\n", len(lib.Prompts), len(lib.Folders))
	return nil
}
