package tui

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		tag  string
		want string
	}{
		{TypeView, "*tui.View"},
		{TypeText, "*tui.Text"},
		{TypeRawText, "*tui.RawText"},
		{TypeButton, "*tui.Button"},
		{TypeInput, "*tui.Input"},
		{TypeScroll, "*tui.Scroll"},
		{TypeSwitch, "*tui.Switch"},
	}
	for _, tt := range tests {
		n, err := r.CreateView(tt.tag)
		if err != nil {
			t.Fatalf("CreateView(%q): %v", tt.tag, err)
		}
		if got := fmt.Sprintf("%T", n); got != tt.want {
			t.Errorf("CreateView(%q) = %s, want %s", tt.tag, got, tt.want)
		}
	}

	if _, err := r.CreateView("texx"); err == nil {
		t.Error("CreateView of an unknown type succeeded")
	}
}

func TestRegistryProps(t *testing.T) {
	r := NewRegistry()
	n, err := r.CreateView(TypeButton)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateProp(TypeButton, n, "title", "Save"); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateProp(TypeButton, n, "disabled", true); err != nil {
		t.Fatal(err)
	}
	b := n.(*Button)
	if b.Content() != "Save" || b.CanFocus() {
		t.Errorf("button content %q focusable %v", b.Content(), b.CanFocus())
	}

	parent, _ := r.CreateView(TypeScroll)
	child, _ := r.CreateView(TypeView)
	if err := r.InsertChild(TypeScroll, parent, child, nil); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(1, len(parent.LayoutChildren())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}
