package sectiondiff

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		old, new snapshot
		sections CollectionDifference[int]
		items    CollectionDifference[IndexPath]
		kind     ChangeKind
	}{
		{
			name: "item moves to the next section",
			old:  snap("A:X", "B:"),
			new:  snap("A:", "B:X"),
			items: CollectionDifference[IndexPath]{
				Moves: []Move[IndexPath]{{From: IndexPath{0, 0}, To: IndexPath{1, 0}}},
			},
			kind: HasChangeAndCanApply,
		},
		{
			name: "sections swap",
			old:  snap("A:", "B:"),
			new:  snap("B:", "A:"),
			sections: CollectionDifference[int]{
				Moves: []Move[int]{{From: 0, To: 1}},
			},
			kind: HasChangeAndCanApply,
		},
		{
			name: "item inserted between two rows",
			old:  snap("A:X,Y"),
			new:  snap("A:X,Z,Y"),
			items: CollectionDifference[IndexPath]{
				Insertions: []IndexPath{{0, 1}},
			},
			kind: HasChangeAndCanApply,
		},
		{
			name: "section payload changes",
			old:  snap("A=0:X"),
			new:  snap("A=1:X"),
			sections: CollectionDifference[int]{
				Updates: []Update[int]{{From: 0, To: 0}},
			},
			kind: HasChangeAndCanApply,
		},
		{
			name: "deleting the first section renumbers the second",
			old:  snap("A:", "B:X"),
			new:  snap("B:X"),
			sections: CollectionDifference[int]{
				Deletions: []int{0},
			},
			kind: HasChangeAndCanApply,
		},
		{
			name: "identical snapshots",
			old:  snap("A:X,Y", "B:Z"),
			new:  snap("A:X,Y", "B:Z"),
			kind: NoChange,
		},
		{
			name: "empty snapshots",
			kind: NoChange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDiffer(Options{}).Compute(tt.old, tt.new)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.sections, d.SectionChanges, "sections: %s", d)
			assert.Equal(t, tt.items, d.ItemChanges, "items: %s", d)
			checkDifference(t, tt.old, tt.new, d)
		})
	}
}

func TestComputeNoChange(t *testing.T) {
	for _, s := range []snapshot{
		nil,
		snap("A:"),
		snap("A=3:X=1,Y=2", "B:", "C:Z"),
	} {
		d := newTestDiffer(Options{}).Compute(s, s)
		require.Equal(t, NoChange, d.Kind)
		require.True(t, d.SectionChanges.IsEmpty())
		require.True(t, d.ItemChanges.IsEmpty())
	}
}

func TestComputeEmptyOld(t *testing.T) {
	for _, old := range []Diffable[testSection, testItem]{nil, snapshot(nil), snap()} {
		d := newTestDiffer(Options{}).Compute(old, snap("A:X,Y", "B:"))
		require.Equal(t, HasChangeAndCanApply, d.Kind)
		assert.Equal(t, []int{0, 1}, d.SectionChanges.Insertions)
		// rows of inserted sections come with their section
		assert.True(t, d.ItemChanges.IsEmpty())
	}

	d := newTestDiffer(Options{}).Compute(snap("A:X"), nil)
	assert.Equal(t, []int{0}, d.SectionChanges.Deletions)
	assert.True(t, d.ItemChanges.IsEmpty())
}

func TestComputeSectionChurnSuppression(t *testing.T) {
	old := snap("A:X,Y", "B:Z")
	new := snap("B:Z", "C:P,Q")
	d := newTestDiffer(Options{}).Compute(old, new)

	assert.Equal(t, []int{0}, d.SectionChanges.Deletions)
	assert.Equal(t, []int{1}, d.SectionChanges.Insertions)
	assert.Empty(t, d.ItemChanges.Deletions)
	assert.Empty(t, d.ItemChanges.Insertions)
	assert.Empty(t, d.ItemChanges.Moves)
	checkDifference(t, old, new, d)
}

func TestComputeMoveOutOfDeletedSection(t *testing.T) {
	old := snap("A:X,Y", "B:Z")
	new := snap("B:Z,X")
	d := newTestDiffer(Options{}).Compute(old, new)

	assert.Equal(t, []int{0}, d.SectionChanges.Deletions)
	assert.Equal(t, []IndexPath{{0, 1}}, d.ItemChanges.Insertions)
	assert.Empty(t, d.ItemChanges.Deletions)
	assert.Empty(t, d.ItemChanges.Moves)
	checkDifference(t, old, new, d)
}

func TestComputeMoveIntoInsertedSection(t *testing.T) {
	old := snap("A:X,Y")
	new := snap("A:Y", "B:X")
	d := newTestDiffer(Options{}).Compute(old, new)

	assert.Equal(t, []int{1}, d.SectionChanges.Insertions)
	assert.Equal(t, []IndexPath{{0, 0}}, d.ItemChanges.Deletions)
	assert.Empty(t, d.ItemChanges.Insertions)
	assert.Empty(t, d.ItemChanges.Moves)
	checkDifference(t, old, new, d)
}

func TestComputeUpdateInDeletedSectionDropped(t *testing.T) {
	old := snap("A:X=1", "B:")
	new := snap("B:X=2")
	d := newTestDiffer(Options{}).Compute(old, new)

	assert.Empty(t, d.ItemChanges.Updates)
	assert.Equal(t, []IndexPath{{0, 0}}, d.ItemChanges.Insertions)
	checkDifference(t, old, new, d)
}

func TestComputeSuperfluousMoves(t *testing.T) {
	tests := []struct {
		name     string
		old, new snapshot
		moves    int
	}{
		{"deletions ahead", snap("A:P,Q,X"), snap("A:X"), 0},
		{"rotation", snap("A:P,Q,R,S"), snap("A:Q,R,S,P"), 1},
		{"reverse three", snap("A:P,Q,R"), snap("A:R,Q,P"), 2},
		{"insert and delete", snap("A:P,X,Q"), snap("A:N,M,X,Q"), 0},
		{"section moves with its rows", snap("A:P,Q", "B:R"), snap("B:R", "A:P,Q"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDiffer(Options{}).Compute(tt.old, tt.new)
			require.Equal(t, HasChangeAndCanApply, d.Kind)
			assert.Len(t, d.ItemChanges.Moves, tt.moves, "%s", d)
			checkDifference(t, tt.old, tt.new, d)
		})
	}
}

func TestComputeSkipsMovesDoneByInsertions(t *testing.T) {
	// B reaches index 2 through the insertion, so C moves instead
	old := snap("A:", "B:", "C:")
	new := snap("X:", "C:", "B:", "A:")
	d := newTestDiffer(Options{}).Compute(old, new)
	assert.Equal(t, []Move[int]{{From: 0, To: 3}, {From: 2, To: 1}}, d.SectionChanges.Moves, "%s", d)
	checkDifference(t, old, new, d)

	old = snap("A:P,Q,R")
	new = snap("A:X,R,Q,P")
	d = newTestDiffer(Options{}).Compute(old, new)
	assert.Equal(t, []Move[IndexPath]{
		{From: IndexPath{0, 0}, To: IndexPath{0, 3}},
		{From: IndexPath{0, 2}, To: IndexPath{0, 1}},
	}, d.ItemChanges.Moves, "%s", d)
	checkDifference(t, old, new, d)
}

func TestComputeMovesElementKeepingItsIndex(t *testing.T) {
	// the deletions carry E to 0 although it sits at 2 in both snapshots
	old := snap("X:", "Y:", "E:", "F:", "G:")
	new := snap("G:", "F:", "E:")
	d := newTestDiffer(Options{}).Compute(old, new)
	assert.Equal(t, []int{0, 1}, d.SectionChanges.Deletions)
	assert.Equal(t, []Move[int]{{From: 2, To: 2}, {From: 4, To: 0}}, d.SectionChanges.Moves, "%s", d)
	checkDifference(t, old, new, d)
}

func TestComputeRandomNoSuperfluousMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(937))
	for i := range 1000 {
		old := randomSnapshot(rng, 6, 6)
		new := mutate(rng, old, true)
		d := newTestDiffer(Options{Conflict: ConflictNone, MoveThreshold: -1}).Compute(old, new)
		checkDifference(t, old, new, d)

		sc := d.SectionChanges
		for _, m := range sc.Moves {
			require.NotEqual(t, m.To, shiftedSection(sc, m.From), "case %d: section move %v\n%s", i, m, d)
		}
		for _, m := range d.ItemChanges.Moves {
			at, ok := shiftedRow(old, new, d, m.From)
			require.False(t, ok && at == m.To, "case %d: item move %v\n%s", i, m, d)
		}
	}
}

// shiftedSection is where the section at from lands through the deletions
// and insertions alone
func shiftedSection(d CollectionDifference[int], from int) int {
	at := from
	for _, x := range d.Deletions {
		if x < from {
			at--
		}
	}
	for _, x := range d.Insertions {
		if x <= at {
			at++
		}
	}
	return at
}

// shiftedRow is where the row at from lands through the row deletions and
// insertions alone, inside the section its own section becomes
func shiftedRow(old, new snapshot, d Difference, from IndexPath) (IndexPath, bool) {
	if slices.Contains(d.SectionChanges.Deletions, from.Section) {
		return IndexPath{}, false
	}
	j := slices.IndexFunc(new, func(s testSection) bool { return s.id == old[from.Section].id })
	if j < 0 || slices.Contains(d.SectionChanges.Insertions, j) {
		return IndexPath{}, false
	}
	row := from.Row
	for _, p := range d.ItemChanges.Deletions {
		if p.Section == from.Section && p.Row < from.Row {
			row--
		}
	}
	for _, p := range d.ItemChanges.Insertions {
		if p.Section == j && p.Row <= row {
			row++
		}
	}
	return IndexPath{Section: j, Row: row}, true
}

func TestComputeMovedAndUpdated(t *testing.T) {
	old := snap("A:P,Q=1")
	new := snap("A:Q=2,P")
	d := newTestDiffer(Options{}).Compute(old, new)

	require.Len(t, d.ItemChanges.Moves, 1)
	m := d.ItemChanges.Moves[0]
	// either row may move; the changed one must be marked
	if m.From == (IndexPath{0, 1}) {
		assert.True(t, m.Updated)
		assert.Empty(t, d.ItemChanges.Updates)
	} else {
		assert.False(t, m.Updated)
		assert.Equal(t, []Update[IndexPath]{{From: IndexPath{0, 1}, To: IndexPath{0, 0}}}, d.ItemChanges.Updates)
	}
	checkDifference(t, old, new, d)
}

func TestComputeThresholdFallback(t *testing.T) {
	var old, new snapshot
	for i := range 400 {
		old = append(old, testSection{id: fmt.Sprintf("s%d", i)})
	}
	for i := range old {
		new = append(new, old[len(old)-1-i])
	}

	d := newTestDiffer(Options{}).Compute(old, new)
	assert.Equal(t, HasChangeButCannotApply, d.Kind)
	assert.False(t, d.CanApply())
	assert.NotEmpty(t, d.Reason)

	d = newTestDiffer(Options{MoveThreshold: -1}).Compute(old, new)
	assert.Equal(t, HasChangeAndCanApply, d.Kind)
	checkDifference(t, old, new, d)
}

func TestComputeItemThresholdFallback(t *testing.T) {
	var oldRows, newRows []testItem
	for i := range 20 {
		oldRows = append(oldRows, testItem{id: fmt.Sprintf("r%d", i)})
	}
	for i := range oldRows {
		newRows = append(newRows, oldRows[len(oldRows)-1-i])
	}
	old := snapshot{{id: "A", items: oldRows}}
	new := snapshot{{id: "A", items: newRows}}

	d := newTestDiffer(Options{MoveThreshold: 10}).Compute(old, new)
	assert.Equal(t, HasChangeButCannotApply, d.Kind)

	d = newTestDiffer(Options{MoveThreshold: 30}).Compute(old, new)
	assert.Equal(t, HasChangeAndCanApply, d.Kind)
	checkDifference(t, old, new, d)
}

func TestComputeConflictPolicy(t *testing.T) {
	old := snap("A:X,Y", "B:")
	new := snap("B:", "A:X")

	d := newTestDiffer(Options{}).Compute(old, new)
	require.Equal(t, []Move[int]{{From: 0, To: 1}}, d.SectionChanges.Moves)
	require.Equal(t, []IndexPath{{0, 1}}, d.ItemChanges.Deletions)
	assert.Equal(t, HasChangeButCannotApply, d.Kind)
	assert.Equal(t, "row changes inside a moved section", d.Reason)

	d = newTestDiffer(Options{Conflict: ConflictNone}).Compute(old, new)
	assert.Equal(t, HasChangeAndCanApply, d.Kind)
	checkDifference(t, old, new, d)
}

func TestComputeRowChangeConflictPolicy(t *testing.T) {
	old := snap("A:X", "B:")
	new := snap("B:", "A:X,Y")

	d := newTestDiffer(Options{}).Compute(old, new)
	assert.Equal(t, HasChangeAndCanApply, d.Kind)

	d = newTestDiffer(Options{Conflict: ConflictRowChangeInMovedSection}).Compute(old, new)
	assert.Equal(t, HasChangeButCannotApply, d.Kind)
}

func TestComputeSuppression(t *testing.T) {
	old := snap("A:X", "B:")
	new := snap("A:", "B:X")

	d := newTestDiffer(Options{
		ItemSuppression: Suppression[IndexPath]{Sources: []IndexPath{{0, 0}}},
	}).Compute(old, new)
	assert.Empty(t, d.ItemChanges.Moves)
	assert.Equal(t, []IndexPath{{0, 0}}, d.ItemChanges.Deletions)
	assert.Equal(t, []IndexPath{{1, 0}}, d.ItemChanges.Insertions)
	checkDifference(t, old, new, d)

	old = snap("A:", "B:")
	new = snap("B:", "A:")
	d = newTestDiffer(Options{
		SectionSuppression: Suppression[int]{Destinations: []int{0, 1}},
	}).Compute(old, new)
	assert.Empty(t, d.SectionChanges.Moves)
	assert.Len(t, d.SectionChanges.Deletions, 2)
	assert.Len(t, d.SectionChanges.Insertions, 2)
	checkDifference(t, old, new, d)
}

func TestComputeContractViolations(t *testing.T) {
	assert.Panics(t, func() {
		newTestDiffer(Options{}).Compute(snap("A:", "A:"), snap("A:"))
	})
	assert.Panics(t, func() {
		newTestDiffer(Options{}).Compute(snap("A:"), snap("B:", "B:"))
	})
	assert.Panics(t, func() {
		old := snap("A:X")
		new := snapshot{{id: "A", items: []testItem{{id: "X", broken: true}}}}
		newTestDiffer(Options{}).Compute(old, new)
	})
}

func TestComputeConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 50 {
		old := randomSnapshot(rng, 5, 4)
		new := mutate(rng, old, false)
		d := newTestDiffer(Options{Conflict: ConflictNone}).Compute(old, new)
		require.Equal(t, len(new)-len(old),
			len(d.SectionChanges.Insertions)-len(d.SectionChanges.Deletions), "%s", d)
		require.Equal(t, countItems(new)-countItems(old),
			len(d.ItemChanges.Insertions)-len(d.ItemChanges.Deletions), "%s", d)
	}
}

func TestComputeRandomReconstruction(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := range 300 {
		old := randomSnapshot(rng, 6, 6)
		new := mutate(rng, old, true)
		d := newTestDiffer(Options{Conflict: ConflictNone, MoveThreshold: -1}).Compute(old, new)
		if old.equal(new) {
			require.Equal(t, NoChange, d.Kind, "case %d", i)
		} else {
			require.Equal(t, HasChangeAndCanApply, d.Kind, "case %d", i)
		}
		checkDifference(t, old, new, d)
	}
}

var nextID int

func freshID(prefix string) string {
	nextID++
	return fmt.Sprintf("%s%d", prefix, nextID)
}

func randomSnapshot(rng *rand.Rand, sections, rows int) snapshot {
	var s snapshot
	for range 1 + rng.Intn(sections) {
		sec := testSection{id: freshID("s")}
		for range rng.Intn(rows + 1) {
			sec.items = append(sec.items, testItem{id: freshID("i")})
		}
		s = append(s, sec)
	}
	return s
}

// mutate returns a changed copy of s. Without churn, sections keep their
// identity and order so that item counts can be compared directly.
func mutate(rng *rand.Rand, s snapshot, churn bool) snapshot {
	out := make(snapshot, len(s))
	for i, sec := range s {
		out[i] = testSection{id: sec.id, payload: sec.payload, items: append([]testItem(nil), sec.items...)}
	}
	for range 1 + rng.Intn(6) {
		switch op := rng.Intn(7); {
		case op == 0 && churn && len(out) > 1:
			i := rng.Intn(len(out))
			out = append(out[:i], out[i+1:]...)
		case op == 1 && churn:
			i := rng.Intn(len(out) + 1)
			sec := testSection{id: freshID("s")}
			for range rng.Intn(3) {
				sec.items = append(sec.items, testItem{id: freshID("i")})
			}
			out = append(out[:i], append(snapshot{sec}, out[i:]...)...)
		case op == 2 && churn && len(out) > 1:
			i, j := rng.Intn(len(out)), rng.Intn(len(out))
			sec := out[i]
			out = append(out[:i], out[i+1:]...)
			out = append(out[:j], append(snapshot{sec}, out[j:]...)...)
		case op == 3:
			out[rng.Intn(len(out))].payload++
		default:
			from := rng.Intn(len(out))
			rows := out[from].items
			if len(rows) == 0 || op == 4 {
				to := rng.Intn(len(out))
				r := rng.Intn(len(out[to].items) + 1)
				it := testItem{id: freshID("i")}
				out[to].items = append(out[to].items[:r], append([]testItem{it}, out[to].items[r:]...)...)
				continue
			}
			r := rng.Intn(len(rows))
			it := rows[r]
			out[from].items = append(rows[:r:r], rows[r+1:]...)
			switch rng.Intn(3) {
			case 0:
				// dropped
			case 1:
				it.payload++
				fallthrough
			default:
				to := rng.Intn(len(out))
				p := rng.Intn(len(out[to].items) + 1)
				out[to].items = append(out[to].items[:p:p], append([]testItem{it}, out[to].items[p:]...)...)
			}
		}
	}
	return out
}

func (s snapshot) equal(o snapshot) bool {
	return fmt.Sprintf("%v", s) == fmt.Sprintf("%v", o)
}

func countItems(s snapshot) int {
	n := 0
	for _, sec := range s {
		n += len(sec.items)
	}
	return n
}
