package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/wippyai/native-bridge/layout"
)

// View is a plain container.
type View struct {
	Box
}

func NewView() *View {
	return &View{Box: newBox()}
}

// RawText is a text node without style of its own. Inside a Text it only
// contributes content; elsewhere it draws itself.
type RawText struct {
	Box
	text string
}

func NewRawText() *RawText {
	return &RawText{Box: newBox()}
}

func (t *RawText) SetText(s string)              { t.text = s }
func (t *RawText) Text() string                  { return t.text }
func (t *RawText) LayoutChildren() []layout.Node { return nil }

func (t *RawText) Measure(maxWidth float64) (float64, float64) {
	return measure(t.text, maxWidth)
}

func (t *RawText) draw(c *Canvas, x, y int, inherit lipgloss.Style) {
	if t.style.Hidden {
		return
	}
	ax, ay, st := t.drawBase(c, x, y, inherit)
	_, _, w, h := t.bounds(x, y)
	drawText(c, t.text, ax, ay, w, h, c.Style(st))
}

// Text is styled text. Its content is its own text followed by the content
// of its text children.
type Text struct {
	Box
	text     string
	maxLines int
}

func NewText() *Text {
	return &Text{Box: newBox("press")}
}

func (t *Text) SetText(s string) { t.text = s }

// LayoutChildren hides text children from layout; they are measured as
// part of the content.
func (t *Text) LayoutChildren() []layout.Node { return nil }

// Content returns the text drawn by the widget.
func (t *Text) Content() string {
	var b strings.Builder
	b.WriteString(t.text)
	for _, c := range t.children {
		switch v := c.(type) {
		case *RawText:
			b.WriteString(v.text)
		case *Text:
			b.WriteString(v.Content())
		}
	}
	return b.String()
}

func (t *Text) Measure(maxWidth float64) (float64, float64) {
	w, h := measure(t.Content(), maxWidth)
	if t.maxLines > 0 && h > float64(t.maxLines) {
		h = float64(t.maxLines)
	}
	return w, h
}

func (t *Text) setProp(key string, v any) error {
	switch key {
	case "numberOfLines":
		n, _ := number(v)
		t.maxLines = int(n)
		return nil
	}
	return t.Box.setProp(key, v)
}

func (t *Text) draw(c *Canvas, x, y int, inherit lipgloss.Style) {
	if t.style.Hidden {
		return
	}
	ax, ay, st := t.drawBase(c, x, y, inherit)
	_, _, w, h := t.bounds(x, y)
	p := t.style.Padding
	drawText(c, t.Content(), ax+toCells(p.Left), ay+toCells(p.Top),
		w-toCells(p.Horizontal()), h-toCells(p.Vertical()), c.Style(st))
}

// Button is a focusable text that emits press on enter or space.
type Button struct {
	Text
	disabled bool
	focused  bool
}

func NewButton() *Button {
	b := &Button{Text: Text{Box: newBox("press", "focus", "blur")}}
	b.style.Padding.Left, b.style.Padding.Right = 2, 2
	return b
}

func (b *Button) setProp(key string, v any) error {
	switch key {
	case "title":
		b.text = str(v)
	case "disabled":
		b.disabled = v == true
	default:
		return b.Text.setProp(key, v)
	}
	return nil
}

func (b *Button) CanFocus() bool { return !b.disabled && !b.destroyed }

func (b *Button) SetFocused(focused bool) {
	b.focused = focused
	b.emit(focusEvent(focused), nil)
}

func (b *Button) HandleKey(key tea.KeyMsg) bool {
	switch key.Type {
	case tea.KeyEnter, tea.KeySpace:
		b.emit("press", map[string]any{})
		return true
	}
	return false
}

func (b *Button) draw(c *Canvas, x, y int, inherit lipgloss.Style) {
	if b.style.Hidden {
		return
	}
	ax, ay, w, _ := b.bounds(x, y)
	st := b.visual.Inherit(inherit)
	switch {
	case b.disabled:
		st = st.Faint(true)
	case b.focused:
		st = st.Reverse(true)
	}
	label := "[ " + ansi.Truncate(b.Content(), max(0, w-4), "…") + " ]"
	c.Text(ax+max(0, (w-ansi.StringWidth(label))/2), ay, label, c.Style(st))
}

// Input is a single-line text field backed by bubbles/textinput. It emits
// change after every edit and submit on enter.
type Input struct {
	Box
	model    textinput.Model
	secure   bool
	readonly bool
	focused  bool
}

func NewInput() *Input {
	m := textinput.New()
	m.Prompt = ""
	m.Cursor.SetMode(cursor.CursorHide)
	return &Input{Box: newBox("change", "submit", "focus", "blur"), model: m}
}

func (in *Input) Value() string { return in.model.Value() }

func (in *Input) setProp(key string, v any) error {
	switch key {
	case "value":
		in.model.SetValue(str(v))
	case "placeholder":
		in.model.Placeholder = str(v)
	case "maxLength":
		n, _ := number(v)
		in.model.CharLimit = int(n)
	case "secureTextEntry":
		in.secure = v == true
		if in.secure {
			in.model.EchoMode = textinput.EchoPassword
		} else {
			in.model.EchoMode = textinput.EchoNormal
		}
	case "editable":
		in.readonly = v == false
	default:
		return in.Box.setProp(key, v)
	}
	return nil
}

func (in *Input) Measure(maxWidth float64) (float64, float64) {
	w := max(ansi.StringWidth(in.model.Value()), ansi.StringWidth(in.model.Placeholder), 10) + 1
	return min(float64(w), maxWidth), 1
}

func (in *Input) CanFocus() bool { return !in.readonly && !in.destroyed }

func (in *Input) SetFocused(focused bool) {
	in.focused = focused
	if focused {
		in.model.Focus()
	} else {
		in.model.Blur()
	}
	in.emit(focusEvent(focused), nil)
}

func (in *Input) HandleKey(key tea.KeyMsg) bool {
	if key.Type == tea.KeyEnter {
		in.emit("submit", map[string]any{"text": in.model.Value()})
		return true
	}
	before := in.model.Value()
	in.model, _ = in.model.Update(key)
	if after := in.model.Value(); after != before {
		in.emit("change", map[string]any{"text": after})
	}
	return true
}

func (in *Input) draw(c *Canvas, x, y int, inherit lipgloss.Style) {
	if in.style.Hidden {
		return
	}
	ax, ay, st := in.drawBase(c, x, y, inherit)
	_, _, w, _ := in.bounds(x, y)
	p := in.style.Padding
	ax, ay = ax+toCells(p.Left), ay+toCells(p.Top)
	w -= toCells(p.Horizontal())

	text := in.model.Value()
	if in.secure {
		text = strings.Repeat(string(in.model.EchoCharacter), len([]rune(text)))
	}
	style := st.Underline(true)
	if text == "" && !in.focused {
		c.Text(ax, ay, ansi.Truncate(in.model.Placeholder, w, ""), c.Style(style.Faint(true)))
		return
	}
	runes := []rune(text)
	pos := min(in.model.Position(), len(runes))
	start := max(0, pos-w+1)
	visible := string(runes[start:min(len(runes), start+w)])
	c.Fill(ax, ay, w, 1, ' ', c.Style(style))
	c.Text(ax, ay, visible, c.Style(style))
	if in.focused && pos-start < w {
		r := ' '
		if pos < len(runes) {
			r = runes[pos]
		}
		c.set(ax+pos-start, ay, r, c.Style(style.Reverse(true)))
	}
}

// Switch is a focusable boolean toggle. It emits change with the new value.
type Switch struct {
	Box
	value    bool
	disabled bool
	focused  bool
}

func NewSwitch() *Switch {
	return &Switch{Box: newBox("change", "focus", "blur")}
}

func (s *Switch) Value() bool { return s.value }

func (s *Switch) setProp(key string, v any) error {
	switch key {
	case "value":
		s.value = v == true
	case "disabled":
		s.disabled = v == true
	default:
		return s.Box.setProp(key, v)
	}
	return nil
}

func (s *Switch) Measure(float64) (float64, float64) { return 5, 1 }
func (s *Switch) CanFocus() bool                     { return !s.disabled && !s.destroyed }

func (s *Switch) SetFocused(focused bool) {
	s.focused = focused
	s.emit(focusEvent(focused), nil)
}

func (s *Switch) HandleKey(key tea.KeyMsg) bool {
	switch key.Type {
	case tea.KeyEnter, tea.KeySpace:
		s.value = !s.value
		s.emit("change", map[string]any{"value": s.value})
		return true
	}
	return false
}

func (s *Switch) draw(c *Canvas, x, y int, inherit lipgloss.Style) {
	if s.style.Hidden {
		return
	}
	ax, ay, w, _ := s.bounds(x, y)
	st := s.visual.Inherit(inherit)
	if s.focused {
		st = st.Reverse(true)
	}
	label := "( ) ○"
	if s.value {
		label = "(●) ●"
	}
	c.Text(ax, ay, ansi.Truncate(label, w, ""), c.Style(st))
}

// Scroll clips its content to its frame and scrolls vertically with the
// arrow and page keys while focused.
type Scroll struct {
	Box
	offset   int
	content  layout.Rect
	focused  bool
	disabled bool
}

func NewScroll() *Scroll {
	return &Scroll{Box: newBox("scroll", "focus", "blur")}
}

// UpdateContentSize recomputes the content extents after layout and clamps
// the offset to them.
func (s *Scroll) UpdateContentSize() {
	var w, h float64
	for _, c := range s.children {
		f := c.Frame()
		m := c.LayoutStyle().Margin
		w = max(w, f.X+f.Width+m.Right)
		h = max(h, f.Y+f.Height+m.Bottom)
	}
	w += s.style.Padding.Right
	h += s.style.Padding.Bottom
	s.content = layout.Rect{Width: w, Height: h}
	s.offset = min(s.offset, s.maxOffset())
}

// ContentSize returns the extents computed by the last UpdateContentSize.
func (s *Scroll) ContentSize() layout.Rect { return s.content }

// Offset returns the vertical scroll position in cells.
func (s *Scroll) Offset() int { return s.offset }

func (s *Scroll) maxOffset() int {
	return max(0, toCells(s.content.Height)-toCells(s.frame.Height))
}

func (s *Scroll) setProp(key string, v any) error {
	switch key {
	case "scrollEnabled":
		s.disabled = v == false
	case "contentOffset":
		if m, ok := v.(map[string]any); ok {
			y, _ := number(m["y"])
			s.ScrollTo(int(y))
		}
	default:
		return s.Box.setProp(key, v)
	}
	return nil
}

// ScrollTo moves to offset y, clamped to the content, and emits scroll when
// the position changed.
func (s *Scroll) ScrollTo(y int) {
	y = max(0, min(y, s.maxOffset()))
	if y == s.offset {
		return
	}
	s.offset = y
	s.emit("scroll", map[string]any{
		"contentOffset":     map[string]any{"x": 0, "y": y},
		"contentSize":       map[string]any{"width": s.content.Width, "height": s.content.Height},
		"layoutMeasurement": map[string]any{"width": s.frame.Width, "height": s.frame.Height},
	})
}

func (s *Scroll) CanFocus() bool { return !s.disabled && !s.destroyed && s.maxOffset() > 0 }

func (s *Scroll) SetFocused(focused bool) {
	s.focused = focused
	s.emit(focusEvent(focused), nil)
}

func (s *Scroll) HandleKey(key tea.KeyMsg) bool {
	page := max(1, toCells(s.frame.Height)-1)
	switch key.Type {
	case tea.KeyUp:
		s.ScrollTo(s.offset - 1)
	case tea.KeyDown:
		s.ScrollTo(s.offset + 1)
	case tea.KeyPgUp:
		s.ScrollTo(s.offset - page)
	case tea.KeyPgDown:
		s.ScrollTo(s.offset + page)
	case tea.KeyHome:
		s.ScrollTo(0)
	case tea.KeyEnd:
		s.ScrollTo(s.maxOffset())
	default:
		return false
	}
	return true
}

func (s *Scroll) draw(c *Canvas, x, y int, inherit lipgloss.Style) {
	if s.style.Hidden {
		return
	}
	ax, ay, st := s.drawBase(c, x, y, inherit)
	_, _, w, h := s.bounds(x, y)
	c.PushClip(ax, ay, w, h)
	drawChildren(c, s.children, ax, ay-s.offset, st)
	c.PopClip()

	if maxOff := s.maxOffset(); maxOff > 0 && h > 0 {
		thumb := st.Faint(!s.focused)
		pos := ay + (h-1)*s.offset/maxOff
		c.set(ax+w-1, pos, '┃', c.Style(thumb))
	}
}

func focusEvent(focused bool) string {
	if focused {
		return "focus"
	}
	return "blur"
}

// measure returns the wrapped size of s within maxWidth.
func measure(s string, maxWidth float64) (float64, float64) {
	if s == "" {
		return 0, 0
	}
	limit := int(maxWidth)
	if limit <= 0 {
		limit = ansi.StringWidth(s)
	}
	lines := strings.Split(ansi.Wrap(s, limit, ""), "\n")
	w := 0
	for _, l := range lines {
		w = max(w, ansi.StringWidth(l))
	}
	return float64(w), float64(len(lines))
}

func drawText(c *Canvas, s string, x, y, w, h, style int) {
	if w <= 0 || h <= 0 || s == "" {
		return
	}
	for i, line := range strings.Split(ansi.Wrap(s, w, ""), "\n") {
		if i >= h {
			return
		}
		c.Text(x, y+i, line, style)
	}
}
