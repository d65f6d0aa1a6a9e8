package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"
)

func TestCanvas(t *testing.T) {
	tests := []struct {
		name string
		draw func(c *Canvas)
		want []string
	}{
		{
			name: "text",
			draw: func(c *Canvas) { c.Text(1, 1, "hey", 0) },
			want: []string{"      ", " hey  ", "      "},
		},
		{
			name: "clipped text",
			draw: func(c *Canvas) {
				c.PushClip(0, 0, 3, 1)
				c.Text(1, 0, "hello", 0)
				c.PopClip()
				c.Text(0, 2, "abcdefgh", 0)
			},
			want: []string{" he   ", "      ", "abcdef"},
		},
		{
			name: "border",
			draw: func(c *Canvas) { c.Border(0, 0, 4, 3, lipgloss.NormalBorder(), 0) },
			want: []string{"┌──┐  ", "│  │  ", "└──┘  "},
		},
		{
			name: "fill",
			draw: func(c *Canvas) { c.Fill(4, 0, 5, 2, '#', 0) },
			want: []string{"    ##", "    ##", "      "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(6, 3)
			tt.draw(c)
			var got []string
			for y := range 3 {
				got = append(got, c.Line(y))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCanvasStringKeepsText(t *testing.T) {
	c := NewCanvas(5, 2)
	c.Text(0, 0, "ab", c.Style(lipgloss.NewStyle().Bold(true)))
	c.Text(2, 0, "cd", 0)
	c.Text(0, 1, "\x1b[31mred\x1b[0m", 0)

	if got, want := stripLines(c.String()), []string{"abcd ", "red  "}; !cmp.Equal(want, got) {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
