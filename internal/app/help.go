package app

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/theme"
)

// formatKeysWithStyle styles individual key combos as badges.
func formatKeysWithStyle(keys string) string {
	badge := lipgloss.NewStyle().
		Background(theme.HelpKeyBadge()).
		Foreground(lipgloss.Color("0"))

	var styled []string
	for _, key := range strings.Split(keys, ", ") {
		styled = append(styled, badge.Render(" "+key+" "))
	}
	return strings.Join(styled, " ")
}

// renderSectionTable renders one help section as a two column table.
func renderSectionTable(section config.KeybindingSection) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.HelpTableHeader()).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(section.Bindings))
	for _, b := range section.Bindings {
		rows = append(rows, []string{formatKeysWithStyle(b.Key), b.Description})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.HelpGray())).
		Headers(section.Title, "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// RenderHelpMenu renders the keybinding overlay from the live registry.
func (m *OS) RenderHelpMenu() string {
	sections := config.GetKeybindings(m.KeybindRegistry)

	tables := make([]string, 0, len(sections))
	for _, s := range sections {
		tables = append(tables, renderSectionTable(s))
	}

	// two columns keep the overlay inside small terminals
	var left, right []string
	for i, t := range tables {
		if i%2 == 0 {
			left = append(left, t)
		} else {
			right = append(right, t)
		}
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, left...),
		" ",
		lipgloss.JoinVertical(lipgloss.Left, right...),
	)

	footer := lipgloss.NewStyle().
		Foreground(theme.HelpGray()).
		Italic(true).
		Render("press ? or esc to close")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.HelpBorder()).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Center, body, "", footer))
}
