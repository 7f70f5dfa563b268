package app

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/Gaurav-Gosain/deskos/internal/pool"
)

const resetStyle = "\x1b[m"

// Canvas is a fixed-size grid of styled lines that layers are painted onto
// back to front.
type Canvas struct {
	width  int
	height int
	lines  []string
}

// NewCanvas returns a canvas filled with background, which must render as
// exactly one cell.
func NewCanvas(width, height int, background string) *Canvas {
	c := &Canvas{width: max(width, 0), height: max(height, 0)}
	row := strings.Repeat(background, c.width)
	c.lines = make([]string, c.height)
	for i := range c.lines {
		c.lines[i] = row
	}
	return c
}

// Width returns the canvas width in cells.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in cells.
func (c *Canvas) Height() int { return c.height }

// Draw paints block with its top-left corner at (x, y). Parts falling
// outside the canvas are clipped.
func (c *Canvas) Draw(x, y int, block string) {
	if block == "" {
		return
	}
	for i, line := range strings.Split(block, "\n") {
		row := y + i
		if row < 0 {
			continue
		}
		if row >= c.height {
			break
		}
		c.lines[row] = overlay(c.lines[row], line, x, c.width)
	}
}

// overlay replaces the cells of base starting at column x with seg.
func overlay(base, seg string, x, width int) string {
	if x < 0 {
		seg = ansi.TruncateLeft(seg, -x, "")
		x = 0
	}
	if x >= width {
		return base
	}
	seg = ansi.Truncate(seg, width-x, "")
	w := ansi.StringWidth(seg)
	if w == 0 {
		return base
	}

	left := ansi.Truncate(base, x, "")
	if lw := ansi.StringWidth(left); lw < x {
		left += strings.Repeat(" ", x-lw)
	}
	right := ansi.TruncateLeft(base, x+w, "")
	return left + resetStyle + seg + resetStyle + right
}

// Render joins the canvas lines.
func (c *Canvas) Render() string {
	sb := pool.GetStringBuilder()
	defer pool.PutStringBuilder(sb)
	for i, line := range c.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// padRight pads s with spaces to width cells, truncating when longer.
func padRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// centerText centers s in width cells.
func centerText(s string, width int) string {
	s = ansi.Truncate(s, width, "")
	gap := width - ansi.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return strings.Repeat(" ", gap/2) + s + strings.Repeat(" ", gap-gap/2)
}
