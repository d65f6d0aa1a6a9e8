package layout

import (
	stderrors "errors"
	"math"
	"sync/atomic"

	"github.com/wippyai/native-bridge/errors"
)

// Mode selects how the root is sized against the available space.
type Mode uint8

const (
	// ModeFitContainer sizes the root to its own dimensions, never exceeding
	// the available space; auto dimensions take all of it.
	ModeFitContainer Mode = iota
)

// IsNotReady reports whether err is a LayoutNotReady error.
func IsNotReady(err error) bool {
	return stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindLayoutNotReady})
}

// Engine runs layout passes. It keeps no per-tree state besides a pass
// counter, so one Engine serves any number of trees.
type Engine struct {
	passes atomic.Int64
}

// NewEngine creates a layout engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Passes returns the number of completed layout passes.
func (e *Engine) Passes() int64 {
	return e.passes.Load()
}

// Layout computes the frame of root and every descendant. It returns a
// LayoutNotReady error, without touching the tree, when the available size
// is not resolved yet.
func (e *Engine) Layout(root Node, mode Mode, width, height float64) error {
	if root == nil {
		return errors.InvalidInput(errors.PhaseLayout, "nil root")
	}
	if width <= 0 || height <= 0 {
		return errors.LayoutNotReady(width, height)
	}

	st := root.LayoutStyle()
	w, ok := st.Width.Resolve(width)
	if !ok {
		w = width
	}
	h, ok := st.Height.Resolve(height)
	if !ok {
		h = height
	}
	w = clamp(w, st.MinWidth, st.MaxWidth, width)
	h = clamp(h, st.MinHeight, st.MaxHeight, height)
	if mode == ModeFitContainer {
		w = math.Min(w, width)
		h = math.Min(h, height)
	}

	e.place(root, Rect{Width: w, Height: h})
	e.passes.Add(1)
	return nil
}

func (e *Engine) place(n Node, frame Rect) {
	n.SetFrame(frame)
	st := n.LayoutStyle()
	inner := Rect{Width: frame.Width, Height: frame.Height}.Inset(st.Padding)

	var flow []Node
	for _, c := range n.LayoutChildren() {
		cs := c.LayoutStyle()
		switch {
		case cs.Hidden:
			hide(c)
		case cs.Position == Absolute:
			e.placeAbsolute(c, inner)
		default:
			flow = append(flow, c)
		}
	}
	if len(flow) > 0 {
		e.placeFlow(st, flow, inner)
	}
}

type flexItem struct {
	node       Node
	style      *Style
	main       float64
	cross      float64
	mainLead   float64
	mainTrail  float64
	crossLead  float64
	crossTrail float64
	minMain    Dimension
	maxMain    Dimension
}

func (e *Engine) placeFlow(st *Style, flow []Node, inner Rect) {
	row := st.Direction == Row
	mainAvail, crossAvail := inner.Height, inner.Width
	if row {
		mainAvail, crossAvail = inner.Width, inner.Height
	}

	items := make([]flexItem, len(flow))
	var used, totalGrow, totalShrink float64
	for i, c := range flow {
		cs := c.LayoutStyle()
		it := flexItem{node: c, style: cs}
		if row {
			it.mainLead, it.mainTrail = cs.Margin.Left, cs.Margin.Right
			it.crossLead, it.crossTrail = cs.Margin.Top, cs.Margin.Bottom
		} else {
			it.mainLead, it.mainTrail = cs.Margin.Top, cs.Margin.Bottom
			it.crossLead, it.crossTrail = cs.Margin.Left, cs.Margin.Right
		}

		mainDim, minMain, maxMain := cs.Height, cs.MinHeight, cs.MaxHeight
		if row {
			mainDim, minMain, maxMain = cs.Width, cs.MinWidth, cs.MaxWidth
		}
		if v, ok := mainDim.Resolve(mainAvail); ok {
			it.main = v
		} else if cs.Grow > 0 {
			it.main = 0
		} else if row {
			it.main, _ = e.intrinsic(c, mainAvail-it.mainLead-it.mainTrail)
		} else {
			_, it.main = e.intrinsic(c, crossAvail-it.crossLead-it.crossTrail)
		}
		it.main = clamp(it.main, minMain, maxMain, mainAvail)
		it.minMain, it.maxMain = minMain, maxMain

		used += it.main + it.mainLead + it.mainTrail
		totalGrow += cs.Grow
		totalShrink += cs.Shrink * it.main
		items[i] = it
	}
	used += st.Gap * float64(len(items)-1)

	free := mainAvail - used
	switch {
	case free > 0 && totalGrow > 0:
		for i := range items {
			it := &items[i]
			if it.style.Grow > 0 {
				it.main = clamp(it.main+free*it.style.Grow/totalGrow, it.minMain, it.maxMain, mainAvail)
			}
		}
		free = mainAvail - occupied(items, st.Gap)
	case free < 0 && totalShrink > 0:
		overflow := -free
		for i := range items {
			it := &items[i]
			if it.style.Shrink > 0 {
				it.main = math.Max(0, it.main-overflow*it.style.Shrink*it.main/totalShrink)
			}
		}
		free = 0
	}

	lead, between := distribute(st.Justify, math.Max(0, free), len(items))
	pos := lead
	for i := range items {
		it := &items[i]
		cs := it.style

		align := cs.AlignSelf
		if align == AlignAuto {
			align = st.AlignItems
		}
		if align == AlignAuto {
			align = AlignStretch
		}

		crossDim, minCross, maxCross := cs.Width, cs.MinWidth, cs.MaxWidth
		if row {
			crossDim, minCross, maxCross = cs.Height, cs.MinHeight, cs.MaxHeight
		}
		crossRoom := math.Max(0, crossAvail-it.crossLead-it.crossTrail)
		if v, ok := crossDim.Resolve(crossAvail); ok {
			it.cross = v
		} else if align == AlignStretch {
			it.cross = crossRoom
		} else if row {
			_, it.cross = e.intrinsic(it.node, it.main)
		} else {
			it.cross, _ = e.intrinsic(it.node, crossRoom)
		}
		it.cross = clamp(it.cross, minCross, maxCross, crossAvail)

		var crossPos float64
		switch align {
		case AlignCenter:
			crossPos = it.crossLead + (crossRoom-it.cross)/2
		case AlignEnd:
			crossPos = crossAvail - it.crossTrail - it.cross
		default:
			crossPos = it.crossLead
		}

		pos += it.mainLead
		var frame Rect
		if row {
			frame = Rect{X: inner.X + pos, Y: inner.Y + crossPos, Width: it.main, Height: it.cross}
		} else {
			frame = Rect{X: inner.X + crossPos, Y: inner.Y + pos, Width: it.cross, Height: it.main}
		}
		pos += it.main + it.mainTrail + st.Gap + between

		e.place(it.node, frame)
	}
}

func distribute(j Justify, free float64, n int) (lead, between float64) {
	switch j {
	case JustifyCenter:
		return free / 2, 0
	case JustifyEnd:
		return free, 0
	case JustifySpaceBetween:
		if n > 1 {
			return 0, free / float64(n-1)
		}
		return 0, 0
	case JustifySpaceAround:
		between = free / float64(n)
		return between / 2, between
	case JustifySpaceEvenly:
		between = free / float64(n+1)
		return between, between
	default:
		return 0, 0
	}
}

func (e *Engine) placeAbsolute(n Node, inner Rect) {
	st := n.LayoutStyle()
	left, hasLeft := st.Left.Resolve(inner.Width)
	right, hasRight := st.Right.Resolve(inner.Width)
	top, hasTop := st.Top.Resolve(inner.Height)
	bottom, hasBottom := st.Bottom.Resolve(inner.Height)

	w, okW := st.Width.Resolve(inner.Width)
	h, okH := st.Height.Resolve(inner.Height)
	if !okW && hasLeft && hasRight {
		w, okW = math.Max(0, inner.Width-left-right), true
	}
	if !okH && hasTop && hasBottom {
		h, okH = math.Max(0, inner.Height-top-bottom), true
	}
	if !okW || !okH {
		iw, ih := e.intrinsic(n, inner.Width)
		if !okW {
			w = iw
		}
		if !okH {
			h = ih
		}
	}

	x := inner.X
	switch {
	case hasLeft:
		x += left
	case hasRight:
		x += inner.Width - right - w
	}
	y := inner.Y
	switch {
	case hasTop:
		y += top
	case hasBottom:
		y += inner.Height - bottom - h
	}
	e.place(n, Rect{X: x, Y: y, Width: w, Height: h})
}

// intrinsic returns the content size of n when given at most maxWidth.
func (e *Engine) intrinsic(n Node, maxWidth float64) (float64, float64) {
	st := n.LayoutStyle()
	if v, ok := st.Width.Resolve(maxWidth); ok && st.Width.Unit == Points {
		maxWidth = v
	}
	contentMax := math.Max(0, maxWidth-st.Padding.Horizontal())

	var w, h float64
	if m, ok := n.(Measurer); ok {
		w, h = m.Measure(contentMax)
	} else {
		count := 0
		for _, c := range n.LayoutChildren() {
			cs := c.LayoutStyle()
			if cs.Hidden || cs.Position == Absolute {
				continue
			}
			cw, ch := e.intrinsic(c, contentMax-cs.Margin.Horizontal())
			cw += cs.Margin.Horizontal()
			ch += cs.Margin.Vertical()
			if st.Direction == Row {
				w += cw
				h = math.Max(h, ch)
			} else {
				w = math.Max(w, cw)
				h += ch
			}
			count++
		}
		if count > 1 {
			if st.Direction == Row {
				w += st.Gap * float64(count-1)
			} else {
				h += st.Gap * float64(count-1)
			}
		}
	}
	w += st.Padding.Horizontal()
	h += st.Padding.Vertical()

	if st.Width.Unit == Points {
		w = st.Width.Value
	}
	if st.Height.Unit == Points {
		h = st.Height.Value
	}
	return clampPoints(w, st.MinWidth, st.MaxWidth), clampPoints(h, st.MinHeight, st.MaxHeight)
}

func hide(n Node) {
	n.SetFrame(Rect{})
	for _, c := range n.LayoutChildren() {
		hide(c)
	}
}

func clamp(v float64, minDim, maxDim Dimension, parent float64) float64 {
	if mx, ok := maxDim.Resolve(parent); ok && v > mx {
		v = mx
	}
	if mn, ok := minDim.Resolve(parent); ok && v < mn {
		v = mn
	}
	return math.Max(0, v)
}

func clampPoints(v float64, minDim, maxDim Dimension) float64 {
	if maxDim.Unit == Points && v > maxDim.Value {
		v = maxDim.Value
	}
	if minDim.Unit == Points && v < minDim.Value {
		v = minDim.Value
	}
	return math.Max(0, v)
}

func occupied(items []flexItem, gap float64) float64 {
	total := gap * float64(len(items)-1)
	for _, it := range items {
		total += it.main + it.mainLead + it.mainTrail
	}
	return total
}
