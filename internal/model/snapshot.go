package model

import (
	"maps"
	"slices"

	"github.com/pstuifzand/outline-diff/internal/sectiondiff"
)

// Row is a descendant of a top-level item, flattened into its section
type Row struct {
	Item     *Item
	ParentID string
	Depth    int // 1 for direct children of the section item
}

// Identifier implements sectiondiff.Element
func (r Row) Identifier() string {
	return r.Item.ID
}

// Diff implements sectiondiff.Element. A row needs an update when its content
// changed or when it was reparented.
func (r Row) Diff(previous Row) sectiondiff.Comparison {
	if r.Item.ID != previous.Item.ID {
		return sectiondiff.Incomparable
	}
	if r.ParentID != previous.ParentID || r.Depth != previous.Depth {
		return sectiondiff.NeedsUpdate
	}
	return r.Item.Diff(previous.Item)
}

// Identifier implements sectiondiff.Element
func (i *Item) Identifier() string {
	return i.ID
}

// Diff implements sectiondiff.Element by comparing text, notes, tags and
// attributes. Children and timestamps are ignored.
func (i *Item) Diff(previous *Item) sectiondiff.Comparison {
	if i.ID != previous.ID {
		return sectiondiff.Incomparable
	}
	if SameContent(i, previous) {
		return sectiondiff.Unchanged
	}
	return sectiondiff.NeedsUpdate
}

// SameContent reports whether two items carry the same text, notes, tags
// and attributes
func SameContent(a, b *Item) bool {
	return a.Text == b.Text &&
		a.Notes() == b.Notes() &&
		slices.Equal(a.Tags(), b.Tags()) &&
		maps.Equal(a.Attributes(), b.Attributes())
}

// Snapshot is an outline viewed as a two-level collection: every top-level
// item is a section, its descendants in depth-first order are the rows
type Snapshot struct {
	sections []*Item
	rows     [][]Row
}

// NewSnapshot flattens o. The snapshot shares items with o, so o must not
// change while the snapshot is in use.
func NewSnapshot(o *Outline) *Snapshot {
	s := &Snapshot{}
	if o == nil {
		return s
	}
	s.sections = o.Items
	s.rows = make([][]Row, len(o.Items))
	for i, top := range o.Items {
		s.rows[i] = flatten(top, 1, nil)
	}
	return s
}

func flatten(parent *Item, depth int, rows []Row) []Row {
	for _, child := range parent.Children {
		rows = append(rows, Row{Item: child, ParentID: parent.ID, Depth: depth})
		rows = flatten(child, depth+1, rows)
	}
	return rows
}

// Sections implements sectiondiff.Diffable
func (s *Snapshot) Sections() []*Item {
	return s.sections
}

// Items implements sectiondiff.Diffable
func (s *Snapshot) Items(section int) []Row {
	return s.rows[section]
}

// Section returns the section item at index i
func (s *Snapshot) Section(i int) *Item {
	return s.sections[i]
}

// Row returns the row at p
func (s *Snapshot) Row(p sectiondiff.IndexPath) Row {
	return s.rows[p.Section][p.Row]
}

// Len returns the number of sections and the total number of rows
func (s *Snapshot) Len() (sections, rows int) {
	for _, r := range s.rows {
		rows += len(r)
	}
	return len(s.sections), rows
}

// NewDiffer returns a differ for outline snapshots
func NewDiffer(opts sectiondiff.Options) *sectiondiff.Differ[string, string, *Item, Row] {
	return sectiondiff.New[string, string, *Item, Row](opts)
}
