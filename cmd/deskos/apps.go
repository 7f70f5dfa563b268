package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Gaurav-Gosain/deskos/internal/apps"
	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/session"
	"github.com/Gaurav-Gosain/deskos/internal/theme"
)

func newAppsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List the dock applications",
		Long: `List the applications in the dock in slot order, with their
configured window size. Press the slot number on the desktop to open one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr())
			cfg, _ := loadConfig(logger)
			theme.Initialize(cfg.Desktop.Theme)
			return listApps(cmd.OutOrStdout(), cfg)
		},
	}
}

// appRows returns one row per dock item in slot order.
func appRows(cfg *config.Config) [][]string {
	ids := session.DockOrder(cfg, apps.Builtin())
	slots := session.DockSlots(cfg, ids)

	rows := make([][]string, 0, len(ids))
	for i, id := range ids {
		w, _ := cfg.Window(id)
		minW, minH := w.MinSize()
		resizable := "no"
		if w.Resizable {
			resizable = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			id,
			w.Title,
			fmt.Sprintf("%gx%g", w.Width, w.Height),
			fmt.Sprintf("%gx%g", minW, minH),
			resizable,
			fmt.Sprintf("%g", slots[id].X),
		})
	}
	return rows
}

func listApps(w io.Writer, cfg *config.Config) error {
	rows := appRows(cfg)
	if len(rows) == 0 {
		fmt.Fprintln(w, dim("No applications configured."))
		return nil
	}

	t := cliTable("Slot", "ID", "Title", "Size", "Min", "Resizable", "Dock X").Rows(rows...)
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading("Dock"))
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
	return nil
}
