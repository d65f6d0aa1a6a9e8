package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

type cell struct {
	r     rune
	style int
}

type area struct {
	x0, y0, x1, y1 int
}

func (a area) intersect(b area) area {
	r := area{max(a.x0, b.x0), max(a.y0, b.y0), min(a.x1, b.x1), min(a.y1, b.y1)}
	if r.x1 < r.x0 {
		r.x1 = r.x0
	}
	if r.y1 < r.y0 {
		r.y1 = r.y0
	}
	return r
}

func (a area) contains(x, y int) bool {
	return x >= a.x0 && x < a.x1 && y >= a.y0 && y < a.y1
}

// Canvas is a grid of styled cells. Drawing outside the current clip area
// is discarded.
type Canvas struct {
	cells  []cell
	styles []lipgloss.Style
	clips  []area
	width  int
	height int
}

// NewCanvas returns a blank canvas. Style 0 is the unstyled default.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{
		width:  width,
		height: height,
		cells:  make([]cell, width*height),
		styles: []lipgloss.Style{lipgloss.NewStyle()},
		clips:  []area{{0, 0, width, height}},
	}
	for i := range c.cells {
		c.cells[i].r = ' '
	}
	return c
}

// Style registers s and returns its index for drawing calls.
func (c *Canvas) Style(s lipgloss.Style) int {
	c.styles = append(c.styles, s)
	return len(c.styles) - 1
}

// PushClip narrows drawing to the given rectangle until PopClip.
func (c *Canvas) PushClip(x, y, w, h int) {
	top := c.clips[len(c.clips)-1]
	c.clips = append(c.clips, top.intersect(area{x, y, x + w, y + h}))
}

// PopClip restores the previous clip area.
func (c *Canvas) PopClip() {
	if len(c.clips) > 1 {
		c.clips = c.clips[:len(c.clips)-1]
	}
}

func (c *Canvas) set(x, y int, r rune, style int) {
	if !c.clips[len(c.clips)-1].contains(x, y) {
		return
	}
	c.cells[y*c.width+x] = cell{r: r, style: style}
}

// Fill paints a rectangle with r.
func (c *Canvas) Fill(x, y, w, h int, r rune, style int) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			c.set(col, row, r, style)
		}
	}
}

// Text writes a single line starting at x, y and returns the columns used.
func (c *Canvas) Text(x, y int, s string, style int) int {
	n := 0
	for _, r := range ansi.Strip(s) {
		if r == '\n' {
			break
		}
		c.set(x+n, y, r, style)
		n++
	}
	return n
}

// Border draws b around the rectangle.
func (c *Canvas) Border(x, y, w, h int, b lipgloss.Border, style int) {
	if w < 2 || h < 2 {
		return
	}
	first := func(s string) rune {
		for _, r := range s {
			return r
		}
		return ' '
	}
	top, bottom, left, right := first(b.Top), first(b.Bottom), first(b.Left), first(b.Right)
	for col := x + 1; col < x+w-1; col++ {
		c.set(col, y, top, style)
		c.set(col, y+h-1, bottom, style)
	}
	for row := y + 1; row < y+h-1; row++ {
		c.set(x, row, left, style)
		c.set(x+w-1, row, right, style)
	}
	c.set(x, y, first(b.TopLeft), style)
	c.set(x+w-1, y, first(b.TopRight), style)
	c.set(x, y+h-1, first(b.BottomLeft), style)
	c.set(x+w-1, y+h-1, first(b.BottomRight), style)
}

// Line returns row y without styling.
func (c *Canvas) Line(y int) string {
	if y < 0 || y >= c.height {
		return ""
	}
	var b strings.Builder
	for _, cl := range c.cells[y*c.width : (y+1)*c.width] {
		b.WriteRune(cl.r)
	}
	return b.String()
}

// String renders the canvas, one styled run per change of style.
func (c *Canvas) String() string {
	var b strings.Builder
	var run strings.Builder
	for y := range c.height {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := c.cells[y*c.width : (y+1)*c.width]
		for i := 0; i < len(row); {
			style := row[i].style
			run.Reset()
			for i < len(row) && row[i].style == style {
				run.WriteRune(row[i].r)
				i++
			}
			if style == 0 {
				b.WriteString(run.String())
			} else {
				b.WriteString(c.styles[style].Render(run.String()))
			}
		}
	}
	return b.String()
}

// toCells converts a layout length to whole terminal cells.
func toCells(v float64) int {
	return int(math.Round(v))
}
