package tui

import (
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/wippyai/native-bridge/layout"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	diagnosticStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// Window is the terminal window. The root container fills the terminal
// except the status line at the bottom.
type Window struct {
	root  layout.Node
	focus Focusable

	mu         sync.Mutex
	width      int
	height     int
	diagnostic string
	status     string
	frame      string
	frames     uint64
	onFrame    func()
	onResize   func(width, height int)
}

// NewWindow creates a window with an unknown size. Bounds stay empty until
// the first Resize.
func NewWindow() *Window {
	return &Window{}
}

// OnFrame registers fn to run after every rendered frame.
func (w *Window) OnFrame(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onFrame = fn
}

// OnResize registers fn to run after the terminal size changed.
func (w *Window) OnResize(fn func(width, height int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onResize = fn
}

// SetRoot mounts n as the root container's only child. Nil empties it.
func (w *Window) SetRoot(n layout.Node) {
	w.root = n
	if w.focus != nil && !w.reachable(w.focus) {
		w.focus = nil
	}
}

// Root returns the mounted root.
func (w *Window) Root() layout.Node {
	return w.root
}

// Bounds returns the safe area available to the root.
func (w *Window) Bounds() layout.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.width <= 0 || w.height <= 1 {
		return layout.Rect{}
	}
	return layout.Rect{Width: float64(w.width), Height: float64(w.height - 1)}
}

// Size returns the terminal size. It is safe for concurrent use.
func (w *Window) Size() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Resize records a new terminal size, notifies the resize hook and redraws.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	changed := width != w.width || height != w.height
	w.width, w.height = width, height
	hook := w.onResize
	w.mu.Unlock()

	if changed && hook != nil {
		hook(width, height)
	}
	w.Invalidate()
}

// ShowDiagnostic overlays msg on the content. Empty removes the overlay.
func (w *Window) ShowDiagnostic(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.diagnostic = msg
}

// Diagnostic returns the message currently overlaid.
func (w *Window) Diagnostic() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.diagnostic
}

// SetStatus replaces the status line text.
func (w *Window) SetStatus(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = s
}

// Invalidate renders a new frame and notifies the frame hook.
func (w *Window) Invalidate() {
	frame := w.Render()
	w.mu.Lock()
	w.frame = frame
	w.frames++
	hook := w.onFrame
	w.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Frame returns the last rendered frame. It is safe for concurrent use.
func (w *Window) Frame() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frame
}

// Frames returns the number of frames rendered so far.
func (w *Window) Frames() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Render draws the current tree.
func (w *Window) Render() string {
	width, height := w.Size()
	if width <= 0 || height <= 0 {
		return ""
	}
	w.mu.Lock()
	diagnostic, status := w.diagnostic, w.status
	w.mu.Unlock()

	c := NewCanvas(width, height)
	c.PushClip(0, 0, width, height-1)
	if d, ok := w.root.(drawer); ok && w.root != nil {
		d.draw(c, 0, 0, lipgloss.NewStyle())
	}
	c.PopClip()

	if diagnostic != "" {
		w.drawDiagnostic(c, diagnostic, width, height-1)
	}

	bar := c.Style(statusStyle)
	c.Fill(0, height-1, width, 1, ' ', bar)
	n := c.Text(1, height-1, ansi.Truncate(status, max(0, width-2), "…"), bar)
	if hint := "tab focus • ctrl+c quit"; n+ansi.StringWidth(hint)+4 < width {
		c.Text(width-ansi.StringWidth(hint)-1, height-1, hint, c.Style(helpStyle.Background(statusStyle.GetBackground())))
	}
	return c.String()
}

func (w *Window) drawDiagnostic(c *Canvas, msg string, width, height int) {
	boxW := min(width, max(20, width*3/4))
	inner := max(1, boxW-4)
	lines := strings.Split(ansi.Wrap(msg, inner, ""), "\n")
	boxH := min(height, len(lines)+2)
	x, y := (width-boxW)/2, max(0, (height-boxH)/2)

	st := c.Style(diagnosticStyle)
	c.Fill(x, y, boxW, boxH, ' ', st)
	c.Border(x, y, boxW, boxH, lipgloss.RoundedBorder(), st)
	for i, line := range lines {
		if i >= boxH-2 {
			break
		}
		c.Text(x+2, y+1+i, line, st)
	}
}

// HandleKey moves focus on tab and shift+tab and hands every other key to
// the focused widget. It reports whether the key was consumed.
func (w *Window) HandleKey(key tea.KeyMsg) bool {
	if w.focus != nil && (!w.focus.CanFocus() || !w.reachable(w.focus)) {
		w.focus = nil
	}
	handled := false
	switch key.Type {
	case tea.KeyTab:
		w.moveFocus(1)
		handled = true
	case tea.KeyShiftTab:
		w.moveFocus(-1)
		handled = true
	default:
		if w.focus != nil {
			handled = w.focus.HandleKey(key)
		}
	}
	if handled {
		w.Invalidate()
	}
	return handled
}

// Focused returns the focused widget, or nil.
func (w *Window) Focused() Focusable {
	return w.focus
}

func (w *Window) moveFocus(step int) {
	ring := w.focusRing()
	if len(ring) == 0 {
		w.setFocus(nil)
		return
	}
	next := 0
	if step < 0 {
		next = len(ring) - 1
	}
	for i, f := range ring {
		if f == w.focus {
			next = (i + step + len(ring)) % len(ring)
			break
		}
	}
	w.setFocus(ring[next])
}

func (w *Window) setFocus(f Focusable) {
	if w.focus == f {
		return
	}
	if w.focus != nil {
		w.focus.SetFocused(false)
	}
	w.focus = f
	if f != nil {
		f.SetFocused(true)
	}
}

// focusRing lists focusable widgets in tree order.
func (w *Window) focusRing() []Focusable {
	var ring []Focusable
	var walk func(n layout.Node)
	walk = func(n layout.Node) {
		if n == nil || n.LayoutStyle().Hidden {
			return
		}
		if f, ok := n.(Focusable); ok && f.CanFocus() {
			ring = append(ring, f)
		}
		for _, c := range children(n) {
			walk(c)
		}
	}
	walk(w.root)
	return ring
}

func (w *Window) reachable(target layout.Node) bool {
	found := false
	var walk func(n layout.Node)
	walk = func(n layout.Node) {
		if n == nil || found {
			return
		}
		if n == target {
			found = true
			return
		}
		for _, c := range children(n) {
			walk(c)
		}
	}
	walk(w.root)
	return found
}

// children returns the widget children of n, including those hidden from
// layout such as text runs.
func children(n layout.Node) []layout.Node {
	switch v := n.(type) {
	case *Text:
		return v.children
	case *Button:
		return v.children
	}
	return n.LayoutChildren()
}
