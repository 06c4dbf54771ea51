package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/ai"
	"github.com/existflow/promptpicker/internal/config"
	"github.com/existflow/promptpicker/internal/db"
	"github.com/existflow/promptpicker/internal/license"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/notify"
	"github.com/existflow/promptpicker/internal/prompts"
	"github.com/existflow/promptpicker/internal/store"
)

// cfg is loaded by the root command before any subcommand runs
var cfg *config.Config

// app is one window's view of the shared store
type app struct {
	cfg      *config.Config
	store    *store.Store
	channel  notify.Channel
	relay    *notify.RelayClient
	licenses *license.Manager
	lib      *prompts.Library
}

// openApp wires the store backend, notification channel and license manager
// from the config
func openApp() (*app, error) {
	c := cfg
	if c == nil {
		c = config.DefaultConfig()
	}
	ensureDeviceID(c)

	var backend store.Backend
	switch c.StoreBackend {
	case config.BackendSQLite:
		database, err := db.Open(db.DefaultDBPath(c.DataDir))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		backend = database
	default:
		fb, err := store.NewFileBackend(c.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open data directory: %w", err)
		}
		backend = fb
	}
	s := store.New(backend)

	a := &app{cfg: c, store: s}

	if c.RelayURL != "" {
		a.relay = notify.NewRelayClient(c.RelayURL)
		a.channel = a.relay
	} else {
		a.channel = notify.NewBus()
	}

	var verifier license.Verifier
	if c.LicenseServerURL != "" {
		host, _ := os.Hostname()
		verifier = license.NewRemoteVerifier(c.LicenseServerURL, c.DeviceID, host)
	}
	a.licenses = license.NewManager(s, verifier)
	a.lib = prompts.New(s, a.channel, a.licenses)

	logger.Debug("Window opened",
		logger.F("backend", c.StoreBackend),
		logger.F("relay", c.RelayURL != ""),
	)
	return a, nil
}

// Close waits for pending broadcasts and releases the backend
func (a *app) Close() {
	if a.relay != nil {
		a.relay.Wait()
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close store", logger.F("error", err))
	}
}

// aiService builds the AI client gated on this window's license
func (a *app) aiService() (*ai.Service, error) {
	return ai.New(ai.Config{
		APIKey:  a.cfg.AI.APIKey,
		BaseURL: a.cfg.AI.BaseURL,
		Model:   a.cfg.AI.Model,
	}, a.licenses.Tier)
}

// ensureDeviceID gives this installation a stable id for license activations
func ensureDeviceID(c *config.Config) {
	if c.DeviceID != "" {
		return
	}
	c.DeviceID = uuid.NewString()
	if err := c.Save(); err != nil {
		logger.Warn("Failed to save device id", logger.F("error", err))
	}
}

// mutate applies change and turns a license denial into an error
func (a *app) mutate(ctx context.Context, change prompts.Change) (*prompts.Ack, error) {
	ack, err := a.lib.Mutate(ctx, change)
	if err != nil {
		return nil, err
	}
	if ack.Denied {
		return ack, fmt.Errorf("🔒 %s", ack.Reason)
	}
	if ack.Conflict {
		logger.Warn("Another window saved at the same time; its change was overwritten", logger.F("change", ack.Change))
	}
	return ack, nil
}

// confirm asks a y/N question on the command's streams
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// textArg returns the joined args, or stdin when the only arg is "-"
func textArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}
