package app

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/Gaurav-Gosain/deskos/internal/pool"
	"github.com/Gaurav-Gosain/deskos/internal/session"
	"github.com/Gaurav-Gosain/deskos/internal/theme"
)

const (
	// Windows below this opacity are not drawn.
	hiddenOpacity = 0.05
	// Windows below this opacity are drawn faint.
	fadedOpacity = 0.6

	minBoxWidth  = 8
	minBoxHeight = 3

	clockFormat = "Mon Jan 2 15:04"
)

// Window border characters
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
	trafficLight      = "●"
)

// View renders the desktop.
func (m *OS) View() tea.View {
	view := tea.NewView(m.Render(m.now()))
	view.AltScreen = true
	view.MouseMode = tea.MouseModeAllMotion
	return view
}

// size returns the canvas size, falling back to the configured cell grid
// before the terminal has reported its size.
func (m *OS) size() (int, int) {
	if m.Width > 0 && m.Height > 0 {
		return m.Width, m.Height
	}
	cw, ch := m.CellSize()
	vp := session.Viewport(m.Config)
	return int(vp.Width / cw), int(vp.Height / ch)
}

// Render draws the whole desktop at now: windows by z-index, then the top
// bar and dock, then overlays.
func (m *OS) Render(now time.Time) string {
	width, height := m.size()
	bg := lipgloss.NewStyle().Background(theme.DesktopBg()).Render(" ")
	canvas := NewCanvas(width, height, bg)

	for _, w := range m.Snapshot.Windows {
		box, frame, ok := m.WindowBox(w.ID, now)
		if !ok || frame.Opacity < hiddenOpacity {
			continue
		}
		if box.Width < minBoxWidth || box.Height < minBoxHeight {
			continue
		}
		canvas.Draw(box.X, box.Y, m.renderWindow(w, box, frame.Opacity))
	}

	canvas.Draw(0, 0, m.renderTopBar(width, now))
	canvas.Draw(0, height-m.DockRows(), m.renderDock(width))

	if m.ShowHelp {
		help := m.RenderHelpMenu()
		hw, hh := lipgloss.Width(help), lipgloss.Height(help)
		canvas.Draw((width-hw)/2, (height-hh)/2, help)
	}

	return canvas.Render()
}

// renderWindow draws one window box: border, traffic lights and title on
// the first inner row, then the application view.
func (m *OS) renderWindow(w session.WindowSnapshot, box CellRect, opacity float64) string {
	borderColor := theme.BorderUnfocused()
	if w.Focused {
		borderColor = theme.BorderFocused()
	}
	faint := opacity < fadedOpacity
	border := lipgloss.NewStyle().Foreground(borderColor).Faint(faint)
	inner := box.Width - 2

	lines := pool.GetLineSlice()
	defer pool.PutLineSlice(lines)

	*lines = append(*lines, border.Render(borderTopLeft+strings.Repeat(borderHorizontal, inner)+borderTopRight))
	*lines = append(*lines, border.Render(borderVertical)+m.renderTitleBar(w, inner, faint)+border.Render(borderVertical))

	contentHeight := box.Height - 3
	var content []string
	if w.View != nil && contentHeight > 0 {
		content = strings.Split(w.View.Render(inner, contentHeight), "\n")
	}
	text := lipgloss.NewStyle().Faint(faint)
	for i := range contentHeight {
		line := ""
		if i < len(content) {
			line = content[i]
		}
		*lines = append(*lines, border.Render(borderVertical)+text.Render(padRight(line, inner))+border.Render(borderVertical))
	}

	*lines = append(*lines, border.Render(borderBottomLeft+strings.Repeat(borderHorizontal, inner)+borderBottomRight))
	return strings.Join(*lines, "\n")
}

func (m *OS) renderTitleBar(w session.WindowSnapshot, width int, faint bool) string {
	light := func(c lipgloss.Style) string {
		return c.Faint(faint).Render(trafficLight)
	}
	maxColor := theme.ButtonMaximize()
	if !w.Resizable {
		maxColor = theme.ButtonDisabled()
	}
	buttons := " " + light(lipgloss.NewStyle().Foreground(theme.ButtonClose())) +
		" " + light(lipgloss.NewStyle().Foreground(theme.ButtonMinimize())) +
		" " + light(lipgloss.NewStyle().Foreground(maxColor))

	titleWidth := width - ansi.StringWidth(buttons) - 2
	title := ""
	if titleWidth > 0 {
		title = lipgloss.NewStyle().
			Foreground(theme.WindowTitle()).
			Bold(w.Focused).
			Faint(faint).
			Render(centerText(w.Title, titleWidth))
	}
	return padRight(buttons+"  "+title, width)
}

// renderTopBar draws the menu bar: product name and focused title on the
// left, the newest notification and the clock on the right.
func (m *OS) renderTopBar(width int, now time.Time) string {
	left := " deskos"
	if w, ok := m.FocusedWindow(); ok {
		left += "  " + w.Title
	}
	right := now.Format(clockFormat) + " "
	if n := len(m.Notifications); n > 0 {
		note := m.Notifications[n-1]
		prefix := ""
		if note.Type == "error" {
			prefix = "! "
		}
		right = prefix + note.Message + "   " + right
	}
	gap := width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 1 {
		right = ansi.Truncate(right, max(width-ansi.StringWidth(left)-1, 0), "…")
		gap = max(width-ansi.StringWidth(left)-ansi.StringWidth(right), 0)
	}
	bar := padRight(left+strings.Repeat(" ", gap)+right, width)

	style := lipgloss.NewStyle().Background(theme.TopBarBg()).Foreground(theme.TopBarFg())
	rows := []string{style.Render(bar)}
	for range m.TopBarRows() - 1 {
		rows = append(rows, style.Render(strings.Repeat(" ", width)))
	}
	return strings.Join(rows, "\n")
}

// dockMarker is drawn under each dock item.
func (m *OS) dockMarker(id string) (string, lipgloss.Style) {
	base := lipgloss.NewStyle().Background(theme.DockBg())
	w, open := m.Snapshot.Window(id)
	switch {
	case !open:
		return " ", base
	case w.Minimized:
		return "◦", base.Foreground(theme.DockDimmed())
	default:
		return "•", base.Foreground(theme.DockHighlight())
	}
}

// renderDock draws the dock strip with one item per application, laid out
// on the same slots the session manager minimizes windows into.
func (m *OS) renderDock(width int) string {
	rows := m.DockRows()
	bg := lipgloss.NewStyle().Background(theme.DockBg()).Render(" ")
	dock := NewCanvas(width, rows, bg)

	labelRow, markerRow := 0, -1
	switch {
	case rows >= 3:
		labelRow, markerRow = 1, 2
	case rows == 2:
		labelRow, markerRow = 0, 1
	}

	for _, id := range m.Snapshot.DockOrder {
		slot, ok := m.Snapshot.DockSlots[id]
		if !ok {
			continue
		}
		cells := m.ToCells(m.Surface.resolveRect(slot))
		if cells.Width <= 0 {
			continue
		}

		label := m.dockLabel(id)
		marker, markerStyle := m.dockMarker(id)
		labelStyle := lipgloss.NewStyle().Background(theme.DockBg()).Foreground(theme.DockFg())
		if w, ok := m.Snapshot.Window(id); ok {
			switch {
			case w.Focused:
				labelStyle = labelStyle.Foreground(theme.DockHighlight()).Bold(true)
			case w.Minimized:
				labelStyle = labelStyle.Foreground(theme.DockDimmed())
			}
		}

		if markerRow < 0 {
			dock.Draw(cells.X, labelRow, labelStyle.Render(centerText(marker+label, cells.Width)))
			continue
		}
		dock.Draw(cells.X, labelRow, labelStyle.Render(centerText(label, cells.Width)))
		dock.Draw(cells.X, markerRow, markerStyle.Render(centerText(marker, cells.Width)))
	}
	return dock.Render()
}

func (m *OS) dockLabel(id string) string {
	if w, ok := m.Config.Window(id); ok && w.Title != "" {
		return w.Title
	}
	return id
}
