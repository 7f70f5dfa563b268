// Package theme provides the colors used to draw the deskos desktop.
package theme

import (
	"fmt"
	"image/color"

	"charm.land/lipgloss/v2"
	tint "github.com/lrstanley/bubbletint/v2"
)

var enabled bool

// Initialize sets up the theme registry with the specified theme name.
// Call this once at application startup.
// If themeName is empty, theming is disabled and the built-in palette is used.
// It reports whether themeName was found; an unknown name falls back to
// the registry default.
func Initialize(themeName string) bool {
	if themeName == "" {
		enabled = false
		return true
	}

	enabled = true
	tint.NewDefaultRegistry()

	if !tint.SetTintID(themeName) {
		tint.SetTintID("default")
		return false
	}
	return true
}

// IsEnabled returns true if theming is enabled
func IsEnabled() bool {
	return enabled
}

// Current returns the currently active theme.
// Returns nil if theming is disabled.
func Current() *tint.Tint {
	if !enabled {
		return nil
	}
	return tint.Current()
}

// Desktop background
func DesktopBg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#1e1e2e")
	}
	return t.Bg
}

func DesktopFg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#cdd6f4")
	}
	return t.Fg
}

// Top bar colors
func TopBarBg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#313244")
	}
	return t.BrightBlack
}

func TopBarFg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#f5f5f5")
	}
	return t.BrightWhite
}

// Window border colors
func BorderUnfocused() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#6c7086")
	}
	return t.BrightBlack
}

func BorderFocused() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#AFFFFF")
	}
	return t.BrightCyan
}

func WindowTitle() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#e5e5e5")
	}
	return t.Fg
}

// Traffic light buttons: close, minimize, maximize.
func ButtonClose() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#ff5f57")
	}
	return t.BrightRed
}

func ButtonMinimize() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#febc2e")
	}
	return t.BrightYellow
}

func ButtonMaximize() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#28c840")
	}
	return t.BrightGreen
}

// ButtonDisabled is used for maximize on fixed-size windows.
func ButtonDisabled() color.Color {
	return lipgloss.Color("#585b70")
}

// Dock styling colors
func DockBg() color.Color {
	return lipgloss.Color("#2a2a3e")
}

func DockFg() color.Color {
	return lipgloss.Color("#a0a0a8")
}

func DockHighlight() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#00ff00")
	}
	return t.BrightGreen
}

func DockDimmed() color.Color {
	return lipgloss.Color("#808090")
}

// Help overlay colors
func HelpKeyBadge() color.Color {
	return lipgloss.Color("5")
}

func HelpGray() color.Color {
	return lipgloss.Color("8")
}

func HelpBorder() color.Color {
	return lipgloss.Color("14")
}

func HelpTableHeader() color.Color {
	return lipgloss.Color("12")
}

// Notification colors
func NotificationError() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#ff6b6b")
	}
	return t.Red
}

// CLI table colors
func CLITableHeader() color.Color {
	return lipgloss.Color("12")
}

func CLITableBorder() color.Color {
	return lipgloss.Color("14")
}

func CLITableKey() color.Color {
	return lipgloss.Color("11")
}

func CLITableDim() color.Color {
	return lipgloss.Color("8")
}

// ColorToString converts a color.Color to a hex string.
func ColorToString(c color.Color) string {
	if c == nil {
		return "#000000"
	}
	r, g, b, _ := c.RGBA()
	// RGBA returns values in range 0-65535
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
