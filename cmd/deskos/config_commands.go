package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/theme"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage deskos configuration",
		Long:  `Manage the deskos configuration file and settings`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printConfigPath(cmd.OutOrStdout())
		},
	}

	configEditCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit configuration in $EDITOR",
		Long: `Open the deskos configuration file in your default editor

The editor is determined by checking $EDITOR, $VISUAL, or common editors
like vim, vi, nano, and emacs in that order. A running desktop picks up
the saved file without a restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfigFile()
		},
	}

	var force bool
	configResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Long: `Reset the deskos configuration file to default settings

This will overwrite your existing configuration after confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetConfigToDefaults(cmd.InOrStdin(), cmd.OutOrStdout(), force)
		},
	}
	configResetCmd.Flags().BoolVarP(&force, "yes", "y", false, "Do not ask for confirmation")

	configCmd.AddCommand(configPathCmd, configEditCmd, configResetCmd)
	return configCmd
}

func newKeybindsCmd() *cobra.Command {
	keybindsCmd := &cobra.Command{
		Use:     "keybinds",
		Aliases: []string{"keys", "kb"},
		Short:   "View keybinding configuration",
		Long:    `View and inspect deskos keybinding configuration`,
	}

	keybindsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List all keybindings",
		Long:  `Display all configured keybindings in a formatted table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listKeybindings(cmd.OutOrStdout())
		},
	}

	keybindsCustomCmd := &cobra.Command{
		Use:   "list-custom",
		Short: "List customized keybindings",
		Long: `Display only keybindings that differ from defaults

Shows a comparison of default and custom keybindings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCustomKeybindings(cmd.OutOrStdout())
		},
	}

	keybindsCmd.AddCommand(keybindsListCmd, keybindsCustomCmd)
	return keybindsCmd
}

// printConfigPath prints the config file path
func printConfigPath(w io.Writer) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	fmt.Fprintln(w, path)
	return nil
}

// findEditor picks the editor from the environment or the first common one
// found on PATH.
func findEditor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}
	for _, e := range []string{"vim", "vi", "nano", "emacs"} {
		if _, err := exec.LookPath(e); err == nil {
			return e
		}
	}
	return ""
}

// editConfigFile opens the config file in $EDITOR
func editConfigFile() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Config file doesn't exist, creating default at: %s\n", configPath)
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("could not create config file: %w", err)
		}
	}

	editor := findEditor()
	if editor == "" {
		return errors.New("no editor found. Please set $EDITOR environment variable")
	}

	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}

	if _, err := config.Load(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: the saved configuration is invalid: %v\n", err)
	}
	return nil
}

// resetConfigToDefaults resets the configuration file to default settings
func resetConfigToDefaults(in io.Reader, out io.Writer, force bool) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Fprintf(out, "Warning: This will overwrite your existing configuration at:\n")
		fmt.Fprintf(out, "  %s\n\n", configPath)
		fmt.Fprintf(out, "Are you sure you want to reset to defaults? (yes/no): ")

		if !confirmed(in) {
			fmt.Fprintln(out, "Reset cancelled.")
			return nil
		}
	}

	if err := config.WriteDefault(configPath); err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration reset to defaults\n")
	fmt.Fprintf(out, "  Location: %s\n", configPath)
	fmt.Fprintln(out, "\nYou can customize it with: deskos config edit")
	return nil
}

// confirmed reads one answer line and reports whether it was yes.
func confirmed(in io.Reader) bool {
	line, _ := bufio.NewReader(in).ReadString('\n')
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "yes" || response == "y"
}

// cliTable returns a rounded table styled with the CLI palette.
func cliTable(headers ...string) *table.Table {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.CLITableHeader()).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.CLITableBorder())).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func heading(s string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.CLITableKey()).Render(s)
}

func dim(s string) string {
	return lipgloss.NewStyle().Foreground(theme.CLITableDim()).Italic(true).Render(s)
}

// listKeybindings prints all configured keybindings in a pretty table
func listKeybindings(w io.Writer) error {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintln(os.Stderr, "Using default keybindings...")
		userConfig = config.DefaultConfig()
	}
	theme.Initialize(userConfig.Desktop.Theme)

	registry := config.NewKeybindRegistry(userConfig)

	fmt.Fprintln(w)
	fmt.Fprintln(w, heading("deskos Keybindings"))
	fmt.Fprintln(w)

	for _, section := range config.GetKeybindings(registry) {
		t := cliTable("Keys", "Action")
		for _, b := range section.Bindings {
			t.Row(b.Key, b.Description)
		}
		fmt.Fprintln(w, heading(section.Title))
		fmt.Fprintln(w, t.Render())
		fmt.Fprintln(w)
	}
	return nil
}

// Customization represents a customized keybinding
type Customization struct {
	Action      string
	DefaultKeys string
	CustomKeys  string
}

// findCustomizations finds all keybindings that differ from defaults
func findCustomizations(userCfg, defaultCfg *config.Config) []Customization {
	var customizations []Customization

	for action, defaultKeys := range defaultCfg.Keybindings.Desktop {
		userKeys, exists := userCfg.Keybindings.Desktop[action]
		if !exists || slices.Equal(userKeys, defaultKeys) {
			continue
		}
		customizations = append(customizations, Customization{
			Action:      formatActionName(action),
			DefaultKeys: strings.Join(defaultKeys, ", "),
			CustomKeys:  strings.Join(userKeys, ", "),
		})
	}
	for action, userKeys := range userCfg.Keybindings.Desktop {
		if _, known := defaultCfg.Keybindings.Desktop[action]; known {
			continue
		}
		customizations = append(customizations, Customization{
			Action:     formatActionName(action),
			CustomKeys: strings.Join(userKeys, ", "),
		})
	}

	slices.SortFunc(customizations, func(a, b Customization) int {
		return strings.Compare(a.Action, b.Action)
	})
	return customizations
}

// formatActionName converts snake_case to Title Case
func formatActionName(action string) string {
	words := strings.Split(action, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// listCustomKeybindings shows only the keybindings that differ from defaults
func listCustomKeybindings(w io.Writer) error {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	theme.Initialize(userConfig.Desktop.Theme)

	customizations := findCustomizations(userConfig, config.DefaultConfig())
	if len(customizations) == 0 {
		fmt.Fprintln(w, dim("No custom keybindings configured. All keybindings are using defaults."))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Run 'deskos keybinds list' to see all keybindings.")
		return nil
	}

	t := cliTable("Action", "Default", "Custom")
	for _, c := range customizations {
		t.Row(c.Action, c.DefaultKeys, c.CustomKeys)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, heading("Custom Keybindings"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
	fmt.Fprintln(w, dim(fmt.Sprintf("Found %d customized keybinding(s)", len(customizations))))
	return nil
}
