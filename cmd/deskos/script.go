package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Gaurav-Gosain/deskos/internal/session"
	"github.com/Gaurav-Gosain/deskos/internal/tape"
	"github.com/Gaurav-Gosain/deskos/internal/theme"
)

func newScriptCmd() *cobra.Command {
	scriptCmd := &cobra.Command{
		Use:     "script",
		Aliases: []string{"tape"},
		Short:   "Run and check tape scripts",
		Long: `Run and check tape scripts

A tape script is a list of window commands (Open, Close, Minimize, Restore,
Maximize, Focus, Sleep) and expectations (ExpectFocused, ExpectZOrder, ...).
Scripts run against a headless desktop; Sleep advances a virtual clock
unless --real-time is given.`,
	}

	var realTime, continueOnError, quiet bool

	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a tape script headlessly",
		Args:  cobra.ExactArgs(1),
		Example: `  # Run a script and print each step
  deskos script run demo.tape

  # Keep going after a failed command
  deskos script run --continue demo.tape`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, args[0], realTime, continueOnError, quiet)
		},
	}
	runCmd.Flags().BoolVar(&realTime, "real-time", false, "Wait for Sleep commands on the wall clock")
	runCmd.Flags().BoolVar(&continueOnError, "continue", false, "Keep running after a failed command")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the summary")

	validateCmd := &cobra.Command{
		Use:     "validate <file>",
		Aliases: []string{"check"},
		Short:   "Check that a tape script parses",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateScript(cmd.OutOrStdout(), args[0])
		},
	}

	scriptCmd.AddCommand(runCmd, validateCmd)
	return scriptCmd
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// paint renders s in c when color output is enabled.
func paint(color bool, s string, c lipgloss.Style) string {
	if !color {
		return s
	}
	return c.Render(s)
}

func validateScript(w io.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	color := isTerminal(w)
	if ok, errs := tape.ValidateScript(string(content)); !ok {
		for _, e := range errs {
			fmt.Fprintln(w, paint(color, e, lipgloss.NewStyle().Foreground(theme.NotificationError())))
		}
		return fmt.Errorf("%s: %d error(s)", path, len(errs))
	}
	fmt.Fprintln(w, paint(color, path+": ok", lipgloss.NewStyle().Foreground(theme.CLITableKey())))
	return nil
}

func runScript(cmd *cobra.Command, path string, realTime, continueOnError, quiet bool) error {
	out := cmd.OutOrStdout()
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	commands, err := tape.Parse(string(content))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	logger := newLogger(cmd.ErrOrStderr())
	cfg, _ := loadConfig(logger)
	applyLogLevel(logger, cfg)
	theme.Initialize(cfg.Desktop.Theme)

	executor := tape.NewScriptExecutor(commands, cfg)
	executor.Runner().RealTime = realTime
	executor.Runner().ContinueOnError = continueOnError
	executor.Runner().SetLogger(logger)

	stats := executor.Execute(cmd.Context())
	if !quiet {
		if err := executor.WriteOutput(out); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	color := isTerminal(out)
	fmt.Fprintln(out, renderFinalState(stats.Final, color))
	fmt.Fprintln(out, summarize(stats, color))

	if !stats.Success {
		return errors.New(stats.ErrorMessage)
	}
	if stats.FailedCount > 0 {
		return fmt.Errorf("%d command(s) failed", stats.FailedCount)
	}
	return nil
}

// renderFinalState prints the open windows of snap, topmost first.
func renderFinalState(snap session.Snapshot, color bool) string {
	if len(snap.Windows) == 0 {
		return "No windows open."
	}
	rows := make([][]string, 0, len(snap.Windows))
	for i := len(snap.Windows) - 1; i >= 0; i-- {
		w := snap.Windows[i]
		state := w.Phase.String()
		if w.Focused {
			state += " (focused)"
		}
		rows = append(rows, []string{
			w.ID,
			strconv.Itoa(w.ZIndex),
			state,
			w.Geometry.String(),
		})
	}
	if !color {
		var sb strings.Builder
		for _, r := range rows {
			fmt.Fprintf(&sb, "%-22s z=%-3s %-20s %s\n", r[0], r[1], r[2], r[3])
		}
		return strings.TrimRight(sb.String(), "\n")
	}
	return cliTable("Window", "Z", "State", "Geometry").Rows(rows...).Render()
}

func summarize(stats tape.ScriptExecutionStats, color bool) string {
	line := fmt.Sprintf("%d/%d commands, %d failed, %v",
		stats.ExecutedCount, stats.TotalCommands, stats.FailedCount, stats.ExecutedTime.Round(time.Microsecond))
	style := lipgloss.NewStyle().Bold(true).Foreground(theme.CLITableKey())
	if !stats.Success || stats.FailedCount > 0 {
		style = style.Foreground(theme.NotificationError())
	}
	return paint(color, line, style)
}
