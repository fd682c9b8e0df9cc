package view

import "fmt"

// StyleKey identifies a widget's style slot.
type StyleKey uint32

func (k StyleKey) String() string { return fmt.Sprintf("style:%d", uint32(k)) }

// LayoutKey identifies a layout node.
type LayoutKey uint32

func (k LayoutKey) String() string { return fmt.Sprintf("layout:%d", uint32(k)) }

// CellKey identifies a terminal cell position.
type CellKey struct {
	Row uint16
	Col uint16
}

func (k CellKey) String() string { return fmt.Sprintf("cell:%d,%d", k.Row, k.Col) }

// ResolvedStyleValue is the output of style resolution, carried as a 64-bit
// hash of the resolved style for cheap change detection.
type ResolvedStyleValue struct {
	StyleHash uint64
}

// LayoutValue is the output of layout computation.
type LayoutValue struct {
	// RectsHash is a hash of the computed sub-region rectangles.
	RectsHash uint64
	// RectCount is the number of sub-regions computed.
	RectCount uint16
}

// CellValue is the output of render computation: a hash of the cell's
// content, colors, and attributes.
type CellValue struct {
	CellHash uint64
}
