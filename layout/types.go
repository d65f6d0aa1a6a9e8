package layout

import "math"

// Rect is a resolved frame. X and Y are relative to the parent's frame.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the rect has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inset shrinks the rect by e, clamping at zero size.
func (r Rect) Inset(e Edges) Rect {
	return Rect{
		X:      r.X + e.Left,
		Y:      r.Y + e.Top,
		Width:  math.Max(0, r.Width-e.Left-e.Right),
		Height: math.Max(0, r.Height-e.Top-e.Bottom),
	}
}

// Direction is the main axis of a container.
type Direction uint8

const (
	Column Direction = iota
	Row
)

// Justify distributes free space along the main axis.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

// Align positions children on the cross axis.
type Align uint8

const (
	AlignAuto Align = iota // only meaningful for AlignSelf
	AlignStretch
	AlignStart
	AlignCenter
	AlignEnd
)

// Position selects flow or absolute placement.
type Position uint8

const (
	Relative Position = iota
	Absolute
)

// Unit of a Dimension.
type Unit uint8

const (
	Auto Unit = iota
	Points
	Percent
)

// Dimension is a length that may be automatic, absolute or relative to the parent.
type Dimension struct {
	Value float64
	Unit  Unit
}

// Pt returns an absolute dimension.
func Pt(v float64) Dimension { return Dimension{Value: v, Unit: Points} }

// Pct returns a dimension relative to the parent's inner size.
func Pct(v float64) Dimension { return Dimension{Value: v, Unit: Percent} }

// Resolve returns the dimension against parent, and false for Auto.
func (d Dimension) Resolve(parent float64) (float64, bool) {
	switch d.Unit {
	case Points:
		return d.Value, true
	case Percent:
		return parent * d.Value / 100, true
	default:
		return 0, false
	}
}

// Edges holds per-side lengths for padding and margin.
type Edges struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Horizontal returns Left+Right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns Top+Bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Style is the layout-relevant subset of a node's style.
type Style struct {
	Width      Dimension
	Height     Dimension
	MinWidth   Dimension
	MinHeight  Dimension
	MaxWidth   Dimension
	MaxHeight  Dimension
	Top        Dimension
	Left       Dimension
	Right      Dimension
	Bottom     Dimension
	Padding    Edges
	Margin     Edges
	Grow       float64
	Shrink     float64
	Gap        float64
	Direction  Direction
	Justify    Justify
	AlignItems Align
	AlignSelf  Align
	Position   Position
	Hidden     bool
}

// DefaultStyle returns the style a freshly created node starts with.
func DefaultStyle() Style {
	return Style{AlignItems: AlignStretch}
}

// Node is a tree participant. Native widgets implement it.
type Node interface {
	LayoutStyle() *Style
	LayoutChildren() []Node
	SetFrame(Rect)
	Frame() Rect
}

// Measurer is implemented by nodes with intrinsic content, such as text.
// maxWidth is the width available; implementations wrap to it.
type Measurer interface {
	Measure(maxWidth float64) (width, height float64)
}
