// Package diff computes and renders the differences between two outlines
package diff

import (
	"github.com/pstuifzand/outline-diff/internal/model"
	"github.com/pstuifzand/outline-diff/internal/sectiondiff"
)

// Result pairs a Difference with the snapshots it was computed from
type Result struct {
	Old        *model.Snapshot
	New        *model.Snapshot
	Difference sectiondiff.Difference
}

// FieldChange describes one changed field of an item
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// DiffLineType indicates the type of diff line for rendering
type DiffLineType int

const (
	DiffTypeHeader DiffLineType = iota
	DiffTypeInsertedSection
	DiffTypeDeletedSection
	DiffTypeMovedSection
	DiffTypeUpdatedSection
	DiffTypeInsertedItem
	DiffTypeDeletedItem
	DiffTypeMovedItem
	DiffTypeUpdatedItem
	DiffTypeItemDetail
	DiffTypeSummary
	DiffTypeBlank
)

// DiffLine represents a rendered line in diff output
type DiffLine struct {
	Type    DiffLineType
	Content string
	Indent  int // Indentation level
}

// Marker returns the one-character prefix used for the line type
func (t DiffLineType) Marker() string {
	switch t {
	case DiffTypeInsertedSection, DiffTypeInsertedItem:
		return "+"
	case DiffTypeDeletedSection, DiffTypeDeletedItem:
		return "-"
	case DiffTypeMovedSection, DiffTypeMovedItem:
		return ">"
	case DiffTypeUpdatedSection, DiffTypeUpdatedItem:
		return "~"
	default:
		return ""
	}
}

// String renders the line for plain text output
func (l DiffLine) String() string {
	if l.Type == DiffTypeBlank {
		return ""
	}
	prefix := ""
	for range l.Indent {
		prefix += "  "
	}
	if m := l.Type.Marker(); m != "" {
		return prefix + m + " " + l.Content
	}
	return prefix + l.Content
}
