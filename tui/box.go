package tui

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/native-bridge/layout"
	"github.com/wippyai/native-bridge/widget"
)

// drawer is implemented by every widget. x and y are the absolute position
// of the parent's frame.
type drawer interface {
	draw(c *Canvas, x, y int, inherit lipgloss.Style)
}

// Focusable widgets take part in the focus ring and receive key presses.
type Focusable interface {
	layout.Node
	CanFocus() bool
	SetFocused(focused bool)
	HandleKey(key tea.KeyMsg) bool
}

// Box is the base of every widget: a layout node with children, a visual
// style and event handlers.
type Box struct {
	style     layout.Style
	frame     layout.Rect
	children  []layout.Node
	handlers  map[string]widget.Handler
	events    map[string]bool
	visual    lipgloss.Style
	borderFg  lipgloss.TerminalColor
	border    lipgloss.Border
	hasBorder bool
	filled    bool
	destroyed bool
}

func newBox(events ...string) Box {
	b := Box{
		style:    layout.DefaultStyle(),
		handlers: make(map[string]widget.Handler),
		events:   map[string]bool{"layout": true},
		visual:   lipgloss.NewStyle(),
		borderFg: lipgloss.NoColor{},
	}
	for _, e := range events {
		b.events[e] = true
	}
	return b
}

func (b *Box) LayoutStyle() *layout.Style    { return &b.style }
func (b *Box) LayoutChildren() []layout.Node { return b.children }
func (b *Box) Frame() layout.Rect            { return b.frame }

// SetFrame records the frame and reports a changed frame as a layout event.
func (b *Box) SetFrame(r layout.Rect) {
	if r == b.frame {
		return
	}
	b.frame = r
	b.emit("layout", map[string]any{"x": r.X, "y": r.Y, "width": r.Width, "height": r.Height})
}

// InsertChild inserts child before anchor, or appends when anchor is nil or
// not a child.
func (b *Box) InsertChild(child, anchor layout.Node) {
	if anchor != nil {
		for i, c := range b.children {
			if c == anchor {
				b.children = append(b.children[:i], append([]layout.Node{child}, b.children[i:]...)...)
				return
			}
		}
	}
	b.children = append(b.children, child)
}

func (b *Box) RemoveChild(child layout.Node) {
	for i, c := range b.children {
		if c == child {
			b.children = append(b.children[:i], b.children[i+1:]...)
			return
		}
	}
}

// On wires h when the widget emits event.
func (b *Box) On(event string, h widget.Handler) bool {
	if !b.events[event] {
		return false
	}
	b.handlers[event] = h
	return true
}

func (b *Box) Off(event string) {
	delete(b.handlers, event)
}

func (b *Box) emit(event string, payload any) {
	if h := b.handlers[event]; h != nil && !b.destroyed {
		h(payload)
	}
}

// Destroy drops handlers so a released widget stays silent.
func (b *Box) Destroy() {
	b.destroyed = true
	clear(b.handlers)
	b.children = nil
}

// Destroyed reports whether the widget was released.
func (b *Box) Destroyed() bool {
	return b.destroyed
}

// ApplyStyle sets the visual style keys the layout engine does not handle.
// Unknown keys are ignored.
func (b *Box) ApplyStyle(visual map[string]any) error {
	var errs []error
	for key, v := range visual {
		if err := b.applyVisual(key, v); err != nil {
			errs = append(errs, fmt.Errorf("style %q: %w", key, err))
		}
	}
	return stderrors.Join(errs...)
}

func (b *Box) applyVisual(key string, v any) error {
	switch key {
	case "color":
		c, err := color(v)
		if err != nil {
			return err
		}
		b.visual = b.visual.Foreground(c)
	case "backgroundColor":
		c, err := color(v)
		if err != nil {
			return err
		}
		b.visual = b.visual.Background(c)
		b.filled = v != nil
	case "borderColor":
		c, err := color(v)
		if err != nil {
			return err
		}
		b.borderFg = c
	case "fontWeight":
		s := fmt.Sprint(v)
		b.visual = b.visual.Bold(s == "bold" || s == "600" || s == "700" || s == "800" || s == "900")
	case "fontStyle":
		b.visual = b.visual.Italic(v == "italic")
	case "textDecorationLine":
		s, _ := v.(string)
		b.visual = b.visual.Underline(strings.Contains(s, "underline")).
			Strikethrough(strings.Contains(s, "line-through"))
	case "opacity":
		f, ok := number(v)
		b.visual = b.visual.Faint(ok && f < 1)
	case "borderWidth":
		f, _ := number(v)
		b.setBorder(f > 0, b.border)
	case "borderStyle":
		border := lipgloss.NormalBorder()
		switch v {
		case "rounded":
			border = lipgloss.RoundedBorder()
		case "thick":
			border = lipgloss.ThickBorder()
		case "double":
			border = lipgloss.DoubleBorder()
		}
		b.setBorder(true, border)
	case "borderRadius":
		if f, ok := number(v); ok && f > 0 {
			b.setBorder(b.hasBorder, lipgloss.RoundedBorder())
		}
	}
	return nil
}

// setBorder toggles the border. A border takes one cell on each side, which
// is added to the padding so content stays inside it.
func (b *Box) setBorder(on bool, border lipgloss.Border) {
	if border == (lipgloss.Border{}) {
		border = lipgloss.NormalBorder()
	}
	b.border = border
	if on == b.hasBorder {
		return
	}
	d := 1.0
	if !on {
		d = -1
	}
	b.style.Padding.Top += d
	b.style.Padding.Bottom += d
	b.style.Padding.Left += d
	b.style.Padding.Right += d
	b.hasBorder = on
}

// setProp handles props every widget accepts.
func (b *Box) setProp(key string, v any) error {
	switch key {
	case "hidden":
		b.style.Hidden = v == true
	}
	return nil
}

// bounds returns the absolute cell rectangle of the frame.
func (b *Box) bounds(x, y int) (int, int, int, int) {
	return x + toCells(b.frame.X), y + toCells(b.frame.Y), toCells(b.frame.Width), toCells(b.frame.Height)
}

// drawBase paints the background and border and returns the absolute
// position and the style children inherit.
func (b *Box) drawBase(c *Canvas, x, y int, inherit lipgloss.Style) (int, int, lipgloss.Style) {
	ax, ay, w, h := b.bounds(x, y)
	st := b.visual.Inherit(inherit)
	if b.filled {
		c.Fill(ax, ay, w, h, ' ', c.Style(st))
	}
	if b.hasBorder {
		border := lipgloss.NewStyle()
		if _, none := b.borderFg.(lipgloss.NoColor); !none {
			border = border.Foreground(b.borderFg)
		}
		border = border.Inherit(st)
		c.Border(ax, ay, w, h, b.border, c.Style(border))
	}
	return ax, ay, st
}

func (b *Box) draw(c *Canvas, x, y int, inherit lipgloss.Style) {
	if b.style.Hidden {
		return
	}
	ax, ay, st := b.drawBase(c, x, y, inherit)
	drawChildren(c, b.children, ax, ay, st)
}

func drawChildren(c *Canvas, children []layout.Node, x, y int, inherit lipgloss.Style) {
	for _, child := range children {
		if d, ok := child.(drawer); ok {
			d.draw(c, x, y, inherit)
		}
	}
}

var namedColors = map[string]string{
	"black": "0", "red": "1", "green": "2", "yellow": "3", "blue": "4",
	"magenta": "5", "cyan": "6", "white": "7", "gray": "8", "grey": "8",
	"transparent": "",
}

func color(v any) (lipgloss.TerminalColor, error) {
	switch s := v.(type) {
	case nil:
		return lipgloss.NoColor{}, nil
	case string:
		if named, ok := namedColors[strings.ToLower(s)]; ok {
			if named == "" {
				return lipgloss.NoColor{}, nil
			}
			return lipgloss.Color(named), nil
		}
		if strings.HasPrefix(s, "#") && (len(s) == 4 || len(s) == 7) {
			return lipgloss.Color(s), nil
		}
		if _, err := strconv.Atoi(s); err == nil {
			return lipgloss.Color(s), nil
		}
		return nil, fmt.Errorf("unsupported color %q", s)
	case int64:
		return lipgloss.Color(strconv.FormatInt(s, 10)), nil
	}
	return nil, fmt.Errorf("unsupported color %v", v)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	return fmt.Sprint(v)
}
