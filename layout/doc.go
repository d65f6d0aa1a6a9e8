// Package layout implements the flexbox subset the bridge needs to position
// native nodes.
//
// A layout pass walks a tree of Node values from the root, assigns every node
// a Frame relative to its parent, and never allocates nodes of its own. Sizes
// are expressed in host units (terminal cells for the tui toolkit).
//
// Supported: row/column direction, justify-content, align-items/align-self,
// flex-grow/flex-shrink, fixed and percentage sizes, min/max sizes, padding,
// margin, gap, absolute positioning and display:none. Wrapping is not
// supported.
package layout
