package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/outline-diff/internal/sectiondiff"
)

func item(id, text string, children ...*Item) *Item {
	it := &Item{ID: id, Text: text, Metadata: &Metadata{}}
	for _, c := range children {
		it.AddChild(c)
	}
	return it
}

func TestNewSnapshotFlattensDepthFirst(t *testing.T) {
	o := &Outline{Items: []*Item{
		item("a", "A", item("a1", "A1", item("a11", "A11")), item("a2", "A2")),
		item("b", "B"),
	}}
	s := NewSnapshot(o)

	require.Len(t, s.Sections(), 2)
	rows := s.Items(0)
	require.Len(t, rows, 3)
	assert.Equal(t, "a1", rows[0].Identifier())
	assert.Equal(t, Row{Item: rows[1].Item, ParentID: "a1", Depth: 2}, rows[1])
	assert.Equal(t, "a2", rows[2].Item.ID)
	assert.Equal(t, "a", rows[2].ParentID)
	assert.Empty(t, s.Items(1))

	sections, total := s.Len()
	assert.Equal(t, 2, sections)
	assert.Equal(t, 3, total)
	assert.Equal(t, "a11", s.Row(sectiondiff.IndexPath{Section: 0, Row: 1}).Item.ID)
}

func TestNewSnapshotNil(t *testing.T) {
	s := NewSnapshot(nil)
	assert.Empty(t, s.Sections())
}

func TestItemDiff(t *testing.T) {
	a := item("x", "hello")
	b := item("x", "hello")
	assert.Equal(t, sectiondiff.Unchanged, b.Diff(a))

	b.Metadata.Tags = []string{"todo"}
	assert.Equal(t, sectiondiff.NeedsUpdate, b.Diff(a))

	c := item("x", "hello")
	c.Metadata = nil
	assert.Equal(t, sectiondiff.Unchanged, c.Diff(a))

	assert.Equal(t, sectiondiff.Incomparable, item("y", "hello").Diff(a))

	// children are compared as rows, not as part of their parent
	a.AddChild(item("z", "child"))
	assert.Equal(t, sectiondiff.Unchanged, c.Diff(a))
}

func TestRowDiff(t *testing.T) {
	it := item("r", "row")
	old := Row{Item: it, ParentID: "p", Depth: 1}

	assert.Equal(t, sectiondiff.Unchanged, Row{Item: it, ParentID: "p", Depth: 1}.Diff(old))
	assert.Equal(t, sectiondiff.NeedsUpdate, Row{Item: it, ParentID: "q", Depth: 1}.Diff(old))
	assert.Equal(t, sectiondiff.NeedsUpdate, Row{Item: it, ParentID: "p", Depth: 2}.Diff(old))
	assert.Equal(t, sectiondiff.NeedsUpdate, Row{Item: item("r", "changed"), ParentID: "p", Depth: 1}.Diff(old))
}

func TestComputeOnOutlines(t *testing.T) {
	old := &Outline{Items: []*Item{
		item("a", "A", item("x", "X")),
		item("b", "B"),
	}}
	new := &Outline{Items: []*Item{
		item("a", "A"),
		item("b", "B", item("x", "X")),
	}}

	d := NewDiffer(sectiondiff.Options{}).Compute(NewSnapshot(old), NewSnapshot(new))
	require.Equal(t, sectiondiff.HasChangeAndCanApply, d.Kind)
	assert.True(t, d.SectionChanges.IsEmpty())
	require.Len(t, d.ItemChanges.Moves, 1)
	m := d.ItemChanges.Moves[0]
	assert.Equal(t, sectiondiff.IndexPath{Section: 0, Row: 0}, m.From)
	assert.Equal(t, sectiondiff.IndexPath{Section: 1, Row: 0}, m.To)
	// the parent changed along with the section
	assert.True(t, m.Updated)
}

func TestFindItemByID(t *testing.T) {
	o := &Outline{Items: []*Item{item("a", "A", item("b", "B"))}}
	require.NotNil(t, o.FindItemByID("b"))
	assert.Equal(t, "B", o.FindItemByID("b").Text)
	assert.Nil(t, o.FindItemByID("missing"))
	assert.Len(t, o.GetAllItems(), 2)
}

func TestNewItem(t *testing.T) {
	a, b := NewItem("one"), NewItem("two")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "one", a.Text)
	assert.NotNil(t, a.Metadata.Attributes)
}

func TestOutlineValidate(t *testing.T) {
	o := &Outline{Items: []*Item{
		item("a", "A", item("x", "X")),
		item("b", "B", item("y", "Y")),
	}}
	require.NoError(t, o.Validate())

	o.Items[1].AddChild(item("x", "X again"))
	assert.EqualError(t, o.Validate(), `duplicate item id "x"`)

	o = &Outline{Items: []*Item{item("a", "A", item("a", "A"))}}
	assert.EqualError(t, o.Validate(), `duplicate item id "a"`)
}
