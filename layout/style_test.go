package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseStyle(t *testing.T) {
	st, rest, errs := ParseStyle(DefaultStyle(), map[string]any{
		"flexDirection":  "row",
		"justifyContent": "space-between",
		"alignItems":     "center",
		"flex":           1.0,
		"width":          "50%",
		"height":         int64(3),
		"padding":        2.0,
		"paddingLeft":    4.0,
		"marginVertical": 1.0,
		"position":       "absolute",
		"top":            "10",
		"color":          "red",
		"borderStyle":    "rounded",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := DefaultStyle()
	want.Direction = Row
	want.Justify = JustifySpaceBetween
	want.AlignItems = AlignCenter
	want.Grow = 1
	want.Shrink = 1
	want.Width = Pct(50)
	want.Height = Pt(3)
	want.Padding = Edges{Top: 2, Right: 2, Bottom: 2, Left: 4}
	want.Margin = Edges{Top: 1, Bottom: 1}
	want.Position = Absolute
	want.Top = Pt(10)
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("style mismatch (-want +got):\n%s", diff)
	}

	wantRest := map[string]any{"color": "red", "borderStyle": "rounded"}
	if diff := cmp.Diff(wantRest, rest); diff != "" {
		t.Errorf("rest mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStyle_NilResets(t *testing.T) {
	base := DefaultStyle()
	base.Direction = Row
	base.Width = Pt(10)
	base.Hidden = true

	st, _, errs := ParseStyle(base, map[string]any{
		"flexDirection": nil,
		"width":         nil,
		"display":       nil,
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if diff := cmp.Diff(DefaultStyle(), st); diff != "" {
		t.Errorf("style mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStyle_InvalidValuesKeepBase(t *testing.T) {
	base := DefaultStyle()
	base.Width = Pt(7)

	st, _, errs := ParseStyle(base, map[string]any{
		"width":         true,
		"flexDirection": "diagonal",
		"display":       "none",
	})
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	if st.Width != Pt(7) {
		t.Errorf("width = %v, want unchanged", st.Width)
	}
	if !st.Hidden {
		t.Error("display:none should hide")
	}
}

func TestParseDimension(t *testing.T) {
	tests := []struct {
		in      any
		want    Dimension
		wantErr bool
	}{
		{12.0, Pt(12), false},
		{"12", Pt(12), false},
		{"12px", Pt(12), false},
		{"25%", Pct(25), false},
		{"auto", Dimension{}, false},
		{nil, Dimension{}, false},
		{"wide", Dimension{}, true},
		{[]any{1}, Dimension{}, true},
	}
	for _, tt := range tests {
		got, err := ParseDimension(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDimension(%v) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseDimension(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
