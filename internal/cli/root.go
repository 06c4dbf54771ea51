package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/config"
	"github.com/existflow/promptpicker/internal/inject"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/tui"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	dataDir    string
	backend    string
)

var rootCmd = &cobra.Command{
	Use:   "promptpicker",
	Short: "Prompt Picker - a bar of reusable prompts",
	Long: `Prompt Picker keeps a bar of reusable text snippets and types them into
the application you were using.

Every running copy shares one prompt store. Changes made in one window show
up in the others within a couple of seconds.

Run 'promptpicker' without arguments to open the interactive bar.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			loaded = config.DefaultConfig()
		}

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			loaded.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			loaded.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("data-dir") {
			loaded.DataDir = dataDir
			configChanged = true
		}
		if cmd.Flags().Changed("store") {
			loaded.StoreBackend = backend
			configChanged = true
		}

		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := loaded.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(loaded.LogLevel),
			FilePath:   loaded.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    loaded.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg = loaded
		logger.Info("Prompt Picker started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			logger.Error("Failed to open store", logger.F("error", err))
			return err
		}
		defer a.Close()

		injector, err := inject.FromConfig(a.cfg.InjectMode, a.cfg.InjectCommand)
		if err != nil {
			return err
		}

		logger.Info("Launching bar")
		m := tui.NewModel(a.lib, injector, a.cfg.PollInterval())
		defer m.Close()

		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("Bar closed")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("Prompt Picker exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	// Store flags
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the prompt store")
	rootCmd.PersistentFlags().StringVar(&backend, "store", "", "Store backend (json, sqlite)")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(injectCmd)
	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(licenseCmd)
	rootCmd.AddCommand(aiCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(watchCmd)
}
