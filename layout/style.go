package layout

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseStyle applies the layout keys of a style map on top of base. Keys it
// does not know are returned in rest so visual styling can consume them. A
// nil value resets the key to its default. Invalid values are reported and
// leave the key unchanged.
func ParseStyle(base Style, m map[string]any) (st Style, rest map[string]any, errs []error) {
	st = base
	def := DefaultStyle()

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// shorthands first so longhands win, as in CSS declaration order
	sort.Slice(keys, func(i, j int) bool {
		si, sj := isShorthand(keys[i]), isShorthand(keys[j])
		if si != sj {
			return si
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		v := m[key]
		var err error
		switch key {
		case "flexDirection":
			err = parseEnum(v, &st.Direction, def.Direction, map[string]Direction{
				"column": Column, "column-reverse": Column, "row": Row, "row-reverse": Row,
			})
		case "justifyContent":
			err = parseEnum(v, &st.Justify, def.Justify, justifyNames)
		case "alignItems":
			err = parseEnum(v, &st.AlignItems, def.AlignItems, alignNames)
		case "alignSelf":
			err = parseEnum(v, &st.AlignSelf, def.AlignSelf, alignNames)
		case "position":
			err = parseEnum(v, &st.Position, def.Position, map[string]Position{
				"relative": Relative, "absolute": Absolute,
			})
		case "display":
			if v == nil {
				st.Hidden = def.Hidden
				break
			}
			s, ok := v.(string)
			if !ok {
				err = fmt.Errorf("want string, got %T", v)
				break
			}
			st.Hidden = s == "none"
		case "flex":
			var n float64
			if n, err = parseNumber(v, 0); err == nil {
				st.Grow = n
				st.Shrink = 0
				if n > 0 {
					st.Shrink = 1
				}
			}
		case "flexGrow":
			err = parseInto(v, &st.Grow, def.Grow)
		case "flexShrink":
			err = parseInto(v, &st.Shrink, def.Shrink)
		case "gap":
			err = parseInto(v, &st.Gap, def.Gap)
		case "width":
			err = parseDim(v, &st.Width)
		case "height":
			err = parseDim(v, &st.Height)
		case "minWidth":
			err = parseDim(v, &st.MinWidth)
		case "minHeight":
			err = parseDim(v, &st.MinHeight)
		case "maxWidth":
			err = parseDim(v, &st.MaxWidth)
		case "maxHeight":
			err = parseDim(v, &st.MaxHeight)
		case "top":
			err = parseDim(v, &st.Top)
		case "left":
			err = parseDim(v, &st.Left)
		case "right":
			err = parseDim(v, &st.Right)
		case "bottom":
			err = parseDim(v, &st.Bottom)
		default:
			if edges, side, ok := edgeKey(&st, key); ok {
				err = parseEdge(v, edges, side)
				break
			}
			if rest == nil {
				rest = make(map[string]any)
			}
			rest[key] = v
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("style %q: %w", key, err))
		}
	}
	return st, rest, errs
}

var justifyNames = map[string]Justify{
	"flex-start":    JustifyStart,
	"start":         JustifyStart,
	"center":        JustifyCenter,
	"flex-end":      JustifyEnd,
	"end":           JustifyEnd,
	"space-between": JustifySpaceBetween,
	"space-around":  JustifySpaceAround,
	"space-evenly":  JustifySpaceEvenly,
}

var alignNames = map[string]Align{
	"auto":       AlignAuto,
	"stretch":    AlignStretch,
	"flex-start": AlignStart,
	"start":      AlignStart,
	"center":     AlignCenter,
	"flex-end":   AlignEnd,
	"end":        AlignEnd,
}

func isShorthand(key string) bool {
	switch key {
	case "padding", "margin", "paddingHorizontal", "paddingVertical", "marginHorizontal", "marginVertical", "flex":
		return true
	}
	return false
}

type side uint8

const (
	sideAll side = iota
	sideHorizontal
	sideVertical
	sideTop
	sideRight
	sideBottom
	sideLeft
)

func edgeKey(st *Style, key string) (*Edges, side, bool) {
	var edges *Edges
	var suffix string
	switch {
	case strings.HasPrefix(key, "padding"):
		edges, suffix = &st.Padding, key[len("padding"):]
	case strings.HasPrefix(key, "margin"):
		edges, suffix = &st.Margin, key[len("margin"):]
	default:
		return nil, 0, false
	}
	switch suffix {
	case "":
		return edges, sideAll, true
	case "Horizontal":
		return edges, sideHorizontal, true
	case "Vertical":
		return edges, sideVertical, true
	case "Top":
		return edges, sideTop, true
	case "Right":
		return edges, sideRight, true
	case "Bottom":
		return edges, sideBottom, true
	case "Left":
		return edges, sideLeft, true
	}
	return nil, 0, false
}

func parseEdge(v any, e *Edges, s side) error {
	n, err := parseNumber(v, 0)
	if err != nil {
		return err
	}
	switch s {
	case sideAll:
		*e = Edges{Top: n, Right: n, Bottom: n, Left: n}
	case sideHorizontal:
		e.Left, e.Right = n, n
	case sideVertical:
		e.Top, e.Bottom = n, n
	case sideTop:
		e.Top = n
	case sideRight:
		e.Right = n
	case sideBottom:
		e.Bottom = n
	case sideLeft:
		e.Left = n
	}
	return nil
}

func parseEnum[T any](v any, dst *T, def T, names map[string]T) error {
	if v == nil {
		*dst = def
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("want string, got %T", v)
	}
	val, ok := names[s]
	if !ok {
		return fmt.Errorf("unknown value %q", s)
	}
	*dst = val
	return nil
}

func parseInto(v any, dst *float64, def float64) error {
	n, err := parseNumber(v, def)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func parseNumber(v any, def float64) (float64, error) {
	switch n := v.(type) {
	case nil:
		return def, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(n, "px"), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("want number, got %T", v)
	}
}

// ParseDimension parses 12, "12", "50%" or "auto".
func ParseDimension(v any) (Dimension, error) {
	var d Dimension
	err := parseDim(v, &d)
	return d, err
}

func parseDim(v any, dst *Dimension) error {
	if v == nil {
		*dst = Dimension{}
		return nil
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "auto" {
			*dst = Dimension{}
			return nil
		}
		if pct, found := strings.CutSuffix(s, "%"); found {
			f, err := strconv.ParseFloat(pct, 64)
			if err != nil {
				return fmt.Errorf("bad percentage %q", s)
			}
			*dst = Pct(f)
			return nil
		}
	}
	n, err := parseNumber(v, 0)
	if err != nil {
		return err
	}
	*dst = Pt(n)
	return nil
}
