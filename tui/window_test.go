package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/native-bridge/layout"
)

func TestWindowBounds(t *testing.T) {
	w := NewWindow()
	if got := w.Bounds(); !got.IsEmpty() {
		t.Fatalf("Bounds() before resize = %+v, want empty", got)
	}

	var sizes [][2]int
	w.OnResize(func(width, height int) { sizes = append(sizes, [2]int{width, height}) })
	w.Resize(80, 24)
	w.Resize(80, 24)
	w.Resize(100, 30)

	if diff := cmp.Diff(layout.Rect{Width: 100, Height: 29}, w.Bounds()); diff != "" {
		t.Errorf("Bounds() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][2]int{{80, 24}, {100, 30}}, sizes); diff != "" {
		t.Errorf("resize hook calls mismatch (-want +got):\n%s", diff)
	}
	if got := w.Frames(); got != 3 {
		t.Errorf("Frames() = %d, want 3", got)
	}
}

func TestWindowRender(t *testing.T) {
	w := NewWindow()
	w.Resize(40, 10)

	root := NewView()
	root.SetFrame(layout.Rect{Width: 40, Height: 9})
	text := NewRawText()
	text.SetText("hello")
	text.SetFrame(layout.Rect{X: 2, Y: 1, Width: 5, Height: 1})
	root.InsertChild(text, nil)
	w.SetRoot(root)
	w.SetStatus("ready")
	w.Invalidate()

	lines := stripLines(w.Frame())
	if len(lines) != 10 {
		t.Fatalf("frame has %d lines, want 10", len(lines))
	}
	if got := lines[1]; !strings.HasPrefix(got, "  hello ") {
		t.Errorf("line 1 = %q", got)
	}
	if got := lines[9]; !strings.HasPrefix(got, " ready") || !strings.Contains(got, "ctrl+c quit") {
		t.Errorf("status line = %q", got)
	}

	w.SetRoot(nil)
	w.Invalidate()
	if got := stripLines(w.Frame())[1]; strings.TrimSpace(got) != "" {
		t.Errorf("line 1 after unmount = %q, want blank", got)
	}
}

func TestWindowDiagnostic(t *testing.T) {
	w := NewWindow()
	w.Resize(40, 10)

	w.ShowDiagnostic("Reload failed\n\nboom")
	w.Invalidate()
	frame := strings.Join(stripLines(w.Frame()), "\n")
	for _, want := range []string{"Reload failed", "boom", "╭"} {
		if !strings.Contains(frame, want) {
			t.Errorf("frame missing %q:\n%s", want, frame)
		}
	}

	w.ShowDiagnostic("")
	w.Invalidate()
	if frame := w.Frame(); strings.Contains(frame, "boom") {
		t.Errorf("diagnostic still shown:\n%s", frame)
	}
}

func TestWindowFocusRing(t *testing.T) {
	w := NewWindow()
	root := NewView()
	button := NewButton()
	input := NewInput()
	_ = input.setProp("editable", false)
	sw := NewSwitch()
	hidden := NewButton()
	_ = hidden.setProp("hidden", true)
	for _, c := range []layout.Node{button, input, hidden, sw} {
		root.InsertChild(c, nil)
	}
	w.SetRoot(root)

	steps := []struct {
		key  tea.KeyType
		want Focusable
	}{
		{tea.KeyTab, button},
		{tea.KeyTab, sw},
		{tea.KeyTab, button},
		{tea.KeyShiftTab, sw},
	}
	for i, s := range steps {
		if !w.HandleKey(tea.KeyMsg{Type: s.key}) {
			t.Fatalf("step %d: key not handled", i)
		}
		if w.Focused() != s.want {
			t.Fatalf("step %d: focused %T, want %T", i, w.Focused(), s.want)
		}
	}

	w.HandleKey(tea.KeyMsg{Type: tea.KeySpace})
	if !sw.Value() {
		t.Error("space did not reach the focused switch")
	}

	root.RemoveChild(sw)
	if w.HandleKey(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Error("key handled after the focused widget was removed")
	}
	if w.Focused() != nil {
		t.Errorf("Focused() = %T, want nil", w.Focused())
	}
}

type inline struct{}

func (inline) Async(fn func()) bool { fn(); return true }

func TestModel(t *testing.T) {
	w := NewWindow()
	reloaded := make(chan struct{}, 1)
	m := NewModel(w, inline{}, WithReload(func() { reloaded <- struct{}{} }))

	m.Update(tea.WindowSizeMsg{Width: 30, Height: 6})
	if width, height := w.Size(); width != 30 || height != 6 {
		t.Errorf("Size() = %d x %d, want 30 x 6", width, height)
	}
	if m.View() != w.Frame() || m.View() == "" {
		t.Error("View() does not show the window frame")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd != nil {
		t.Error("ctrl+r returned a command")
	}
	select {
	case <-reloaded:
	case <-time.After(time.Second):
		t.Fatal("reload hook not called")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c does not quit")
	}
}
