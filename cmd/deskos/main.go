// Package main implements deskos, a desktop window manager simulation for
// the terminal. Five applications live in a dock and open into windows that
// can be focused, dragged, minimized into the dock, maximized and restored.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode   bool
	cpuProfile  string
	metricsAddr string
	themeName   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deskos",
		Short: "Desktop window manager for the terminal",
		Long: `deskos - a desktop in your terminal

A top bar, a dock and five applications. Windows open from the dock, can be
dragged by their title bar, and minimize into the dock with an animation.`,
		Example: `  # Run deskos
  deskos

  # Record the session as a tape script
  deskos --record session.tape

  # Serve desktops over SSH
  deskos ssh --port 2222

  # Replay a tape script without a terminal
  deskos script run demo.tape

  # Edit configuration
  deskos config edit`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(cmd.Context())
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "Color theme (bubbletint id), overrides the config file")
	rootCmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().StringVar(&recordPath, "record", "", "Record window commands to a tape file")

	var sshPort, sshHost, sshKeyPath string

	sshCmd := &cobra.Command{
		Use:   "ssh",
		Short: "Run deskos as SSH server",
		Long: `Run deskos as an SSH server

Every connection gets its own independent desktop. The server will generate
a host key automatically if not specified.`,
		Example: `  # Start SSH server on default port
  deskos ssh

  # Start on custom port
  deskos ssh --port 2222

  # Specify custom host key
  deskos ssh --key-path /path/to/host_key`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSSHServer(cmd.Context(), sshHost, sshPort, sshKeyPath)
		},
	}

	sshCmd.Flags().StringVar(&sshPort, "port", "2222", "SSH server port")
	sshCmd.Flags().StringVar(&sshHost, "host", "localhost", "SSH server host")
	sshCmd.Flags().StringVar(&sshKeyPath, "key-path", "", "Path to SSH host key (auto-generated if not specified)")

	rootCmd.AddCommand(sshCmd, newScriptCmd(), newConfigCmd(), newKeybindsCmd(), newAppsCmd())

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}
