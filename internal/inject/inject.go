// Package inject delivers a prompt's text to the application that had focus
// before the bar was opened.
package inject

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/existflow/promptpicker/internal/logger"
)

// FocusDelay gives the OS time to return focus to the previous window
const FocusDelay = 300 * time.Millisecond

// Injector types text into the last focused application
type Injector interface {
	Inject(ctx context.Context, text string) error
}

// Runner executes a command with text on stdin. Swappable in tests.
type Runner func(ctx context.Context, stdin string, name string, args ...string) error

func execRunner(ctx context.Context, stdin string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ClipboardInjector copies the text and sends the platform paste keystroke
type ClipboardInjector struct {
	Delay time.Duration
	// Paste is the keystroke command; nil uses the platform default
	Paste []string
	Run   Runner
	Write func(string) error
}

// NewClipboardInjector returns an injector for the current platform
func NewClipboardInjector() *ClipboardInjector {
	return &ClipboardInjector{
		Delay: FocusDelay,
		Paste: PasteCommand(runtime.GOOS),
		Run:   execRunner,
		Write: clipboard.WriteAll,
	}
}

// PasteCommand returns the paste keystroke command for goos
func PasteCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"osascript", "-e", `tell application "System Events" to keystroke "v" using command down`}
	case "windows":
		return []string{"powershell", "-NoProfile", "-Command",
			`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait('^v')`}
	default:
		return []string{"xdotool", "key", "--clearmodifiers", "ctrl+v"}
	}
}

func (c *ClipboardInjector) Inject(ctx context.Context, text string) error {
	if err := c.Write(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	if err := wait(ctx, c.Delay); err != nil {
		return err
	}
	if len(c.Paste) == 0 {
		return nil
	}
	if err := c.Run(ctx, "", c.Paste[0], c.Paste[1:]...); err != nil {
		// text is still on the clipboard for a manual paste
		logger.Warn("Paste keystroke failed", logger.F("error", err))
		return fmt.Errorf("copied to clipboard, but paste failed: %w", err)
	}
	logger.Debug("Injected prompt", logger.F("chars", len(text)))
	return nil
}

// CommandInjector pipes the text to a user configured command
type CommandInjector struct {
	Command string
	Delay   time.Duration
	Run     Runner
}

// NewCommandInjector splits command on whitespace
func NewCommandInjector(command string) *CommandInjector {
	return &CommandInjector{Command: command, Delay: FocusDelay, Run: execRunner}
}

func (c *CommandInjector) Inject(ctx context.Context, text string) error {
	fields := strings.Fields(c.Command)
	if len(fields) == 0 {
		return fmt.Errorf("inject command is empty")
	}
	if err := wait(ctx, c.Delay); err != nil {
		return err
	}
	return c.Run(ctx, text, fields[0], fields[1:]...)
}

// FromConfig picks the injector for mode
func FromConfig(mode, command string) (Injector, error) {
	switch mode {
	case "", "clipboard":
		return NewClipboardInjector(), nil
	case "command":
		return NewCommandInjector(command), nil
	default:
		return nil, fmt.Errorf("unknown inject mode %q", mode)
	}
}
