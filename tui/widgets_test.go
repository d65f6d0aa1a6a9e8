package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/native-bridge/layout"
	"github.com/wippyai/native-bridge/widget"
)

func stripLines(s string) []string {
	return strings.Split(ansi.Strip(s), "\n")
}

type recorder struct {
	events []string
	last   map[string]any
}

func (r *recorder) on(target widget.EventTarget, events ...string) {
	for _, ev := range events {
		target.On(ev, func(payload any) {
			r.events = append(r.events, ev)
			if m, ok := payload.(map[string]any); ok {
				r.last = m
			}
		})
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTextContent(t *testing.T) {
	text := NewText()
	text.SetText("a")
	for _, s := range []string{"b", "c"} {
		raw := NewRawText()
		raw.SetText(s)
		text.InsertChild(raw, nil)
	}
	nested := NewText()
	nested.SetText("d")
	text.InsertChild(nested, nil)

	if got := text.Content(); got != "abcd" {
		t.Errorf("Content() = %q, want %q", got, "abcd")
	}
	if got := text.LayoutChildren(); got != nil {
		t.Errorf("LayoutChildren() = %v, want nil", got)
	}
}

func TestTextMeasure(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLines any
		maxWidth float64
		wantW    float64
		wantH    float64
	}{
		{name: "single line", text: "hello", maxWidth: 20, wantW: 5, wantH: 1},
		{name: "wrapped", text: "hello world again", maxWidth: 11, wantW: 11, wantH: 2},
		{name: "line limit", text: "one two three four", maxWidth: 4, maxLines: int64(2), wantW: 5, wantH: 2},
		{name: "empty", text: "", maxWidth: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := NewText()
			text.SetText(tt.text)
			if tt.maxLines != nil {
				if err := text.setProp("numberOfLines", tt.maxLines); err != nil {
					t.Fatal(err)
				}
			}
			w, h := text.Measure(tt.maxWidth)
			if h != tt.wantH {
				t.Errorf("height = %v, want %v", h, tt.wantH)
			}
			if tt.name != "line limit" && w != tt.wantW {
				t.Errorf("width = %v, want %v", w, tt.wantW)
			}
		})
	}
}

func TestEventsLimitedToSupported(t *testing.T) {
	tests := []struct {
		node  widget.EventTarget
		event string
		want  bool
	}{
		{NewView(), "layout", true},
		{NewView(), "press", false},
		{NewText(), "press", true},
		{NewButton(), "focus", true},
		{NewInput(), "submit", true},
		{NewInput(), "scroll", false},
		{NewScroll(), "scroll", true},
		{NewSwitch(), "change", true},
	}
	for _, tt := range tests {
		if got := tt.node.On(tt.event, func(any) {}); got != tt.want {
			t.Errorf("%T.On(%q) = %v, want %v", tt.node, tt.event, got, tt.want)
		}
	}
}

func TestLayoutEventOnFrameChange(t *testing.T) {
	v := NewView()
	var r recorder
	r.on(v, "layout")

	v.SetFrame(layout.Rect{Width: 4, Height: 2})
	v.SetFrame(layout.Rect{Width: 4, Height: 2})
	v.SetFrame(layout.Rect{X: 1, Width: 4, Height: 2})

	if diff := cmp.Diff([]string{"layout", "layout"}, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"x": 1.0, "y": 0.0, "width": 4.0, "height": 2.0}, r.last); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestDestroyedWidgetIsSilent(t *testing.T) {
	b := NewButton()
	var r recorder
	r.on(b, "press")
	b.Destroy()

	b.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	if len(r.events) != 0 {
		t.Errorf("events = %v, want none", r.events)
	}
	if b.CanFocus() {
		t.Error("destroyed button is focusable")
	}
}

func TestInputEvents(t *testing.T) {
	in := NewInput()
	var r recorder
	r.on(in, "change", "submit", "focus")

	in.SetFocused(true)
	in.HandleKey(runes("h"))
	in.HandleKey(runes("i"))
	in.HandleKey(tea.KeyMsg{Type: tea.KeyLeft})
	in.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})

	if diff := cmp.Diff([]string{"focus", "change", "change", "submit"}, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"text": "hi"}, r.last); diff != "" {
		t.Errorf("submit payload mismatch (-want +got):\n%s", diff)
	}
}

func TestInputProps(t *testing.T) {
	in := NewInput()
	props := map[string]any{
		"value":           "secret",
		"placeholder":     "password",
		"secureTextEntry": true,
		"maxLength":       int64(8),
	}
	for k, v := range props {
		if err := in.setProp(k, v); err != nil {
			t.Fatalf("setProp(%q): %v", k, err)
		}
	}
	in.SetFrame(layout.Rect{Width: 10, Height: 1})

	c := NewCanvas(10, 1)
	in.draw(c, 0, 0, in.visual)
	if got, want := c.Line(0), "******    "; got != want {
		t.Errorf("rendered %q, want %q", got, want)
	}
	if in.Value() != "secret" {
		t.Errorf("Value() = %q", in.Value())
	}

	if err := in.setProp("editable", false); err != nil {
		t.Fatal(err)
	}
	if in.CanFocus() {
		t.Error("read-only input is focusable")
	}
}

func TestSwitchToggles(t *testing.T) {
	s := NewSwitch()
	var r recorder
	r.on(s, "change")

	s.HandleKey(tea.KeyMsg{Type: tea.KeySpace})
	if !s.Value() {
		t.Fatal("switch did not toggle")
	}
	if diff := cmp.Diff(map[string]any{"value": true}, r.last); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if handled := s.HandleKey(runes("x")); handled {
		t.Error("rune key handled by switch")
	}
}

func scrollWithRows(rows int) *Scroll {
	s := NewScroll()
	s.SetFrame(layout.Rect{Width: 10, Height: 3})
	for i := range rows {
		child := NewRawText()
		child.SetText("row")
		child.SetFrame(layout.Rect{Y: float64(i), Width: 3, Height: 1})
		s.InsertChild(child, nil)
	}
	s.UpdateContentSize()
	return s
}

func TestScrollContentSize(t *testing.T) {
	s := scrollWithRows(5)
	if diff := cmp.Diff(layout.Rect{Width: 3, Height: 5}, s.ContentSize()); diff != "" {
		t.Errorf("content size mismatch (-want +got):\n%s", diff)
	}
	if !s.CanFocus() {
		t.Error("overflowing scroll is not focusable")
	}

	var r recorder
	r.on(s, "scroll")
	s.ScrollTo(10)
	if got := s.Offset(); got != 2 {
		t.Errorf("Offset() = %d, want 2", got)
	}
	want := map[string]any{
		"contentOffset":     map[string]any{"x": 0, "y": 2},
		"contentSize":       map[string]any{"width": 3.0, "height": 5.0},
		"layoutMeasurement": map[string]any{"width": 10.0, "height": 3.0},
	}
	if diff := cmp.Diff(want, r.last); diff != "" {
		t.Errorf("scroll payload mismatch (-want +got):\n%s", diff)
	}

	s.ScrollTo(2)
	if len(r.events) != 1 {
		t.Errorf("scroll to same offset emitted %d events", len(r.events))
	}

	s.RemoveChild(s.children[4])
	s.RemoveChild(s.children[3])
	s.UpdateContentSize()
	if got := s.Offset(); got != 0 {
		t.Errorf("Offset() after shrink = %d, want 0", got)
	}
	if s.CanFocus() {
		t.Error("fitting scroll is focusable")
	}
}

func TestScrollKeys(t *testing.T) {
	tests := []struct {
		keys []tea.KeyType
		want int
	}{
		{keys: []tea.KeyType{tea.KeyDown}, want: 1},
		{keys: []tea.KeyType{tea.KeyDown, tea.KeyDown, tea.KeyUp}, want: 1},
		{keys: []tea.KeyType{tea.KeyEnd}, want: 7},
		{keys: []tea.KeyType{tea.KeyEnd, tea.KeyHome}, want: 0},
		{keys: []tea.KeyType{tea.KeyPgDown}, want: 2},
		{keys: []tea.KeyType{tea.KeyUp}, want: 0},
	}
	for _, tt := range tests {
		s := scrollWithRows(10)
		for _, k := range tt.keys {
			s.HandleKey(tea.KeyMsg{Type: k})
		}
		if got := s.Offset(); got != tt.want {
			t.Errorf("keys %v: Offset() = %d, want %d", tt.keys, got, tt.want)
		}
	}
}

func TestScrollDrawClipsContent(t *testing.T) {
	s := scrollWithRows(5)
	for i, c := range s.children {
		c.(*RawText).SetText(string(rune('a' + i)))
	}
	s.ScrollTo(1)

	c := NewCanvas(10, 4)
	s.draw(c, 0, 0, s.visual)
	got := []string{c.Line(0), c.Line(1), c.Line(2), c.Line(3)}
	want := []string{"b         ", "c        ┃", "d         ", "          "}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("draw mismatch (-want +got):\n%s", diff)
	}
}

func TestStyleKeys(t *testing.T) {
	tests := []struct {
		name    string
		style   map[string]any
		wantErr bool
	}{
		{name: "named color", style: map[string]any{"color": "red"}},
		{name: "hex color", style: map[string]any{"backgroundColor": "#112233"}},
		{name: "ansi color", style: map[string]any{"borderColor": int64(5)}},
		{name: "bad color", style: map[string]any{"color": "rgba(1,2,3)"}, wantErr: true},
		{name: "unknown key", style: map[string]any{"shadowRadius": 3.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewView().ApplyStyle(tt.style)
			if (err != nil) != tt.wantErr {
				t.Errorf("ApplyStyle() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBorderPadsContent(t *testing.T) {
	v := NewView()
	if err := v.ApplyStyle(map[string]any{"borderWidth": 1.0}); err != nil {
		t.Fatal(err)
	}
	if got := v.LayoutStyle().Padding; got.Left != 1 || got.Top != 1 {
		t.Errorf("padding = %+v, want 1 on each side", got)
	}
	if err := v.ApplyStyle(map[string]any{"borderWidth": 0.0}); err != nil {
		t.Fatal(err)
	}
	if got := v.LayoutStyle().Padding; got.Left != 0 || got.Top != 0 {
		t.Errorf("padding = %+v, want zero", got)
	}

	_ = v.ApplyStyle(map[string]any{"borderStyle": "rounded"})
	v.SetFrame(layout.Rect{Width: 4, Height: 3})
	c := NewCanvas(4, 3)
	v.draw(c, 0, 0, v.visual)
	if got := c.Line(0); got != "╭──╮" {
		t.Errorf("top border = %q", got)
	}
}

func TestButtonDraw(t *testing.T) {
	b := NewButton()
	if err := b.setProp("title", "OK"); err != nil {
		t.Fatal(err)
	}
	b.SetFrame(layout.Rect{Width: 10, Height: 1})
	c := NewCanvas(10, 1)
	b.draw(c, 0, 0, b.visual)
	if got, want := c.Line(0), "  [ OK ]  "; got != want {
		t.Errorf("draw = %q, want %q", got, want)
	}
}
