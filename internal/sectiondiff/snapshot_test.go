package sectiondiff

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

type testItem struct {
	id      string
	payload int
	broken  bool // reports Incomparable for its own identifier
}

func (i testItem) Identifier() string { return i.id }

func (i testItem) Diff(previous testItem) Comparison {
	if i.id != previous.id || i.broken {
		return Incomparable
	}
	if i.payload != previous.payload {
		return NeedsUpdate
	}
	return Unchanged
}

type testSection struct {
	id      string
	payload int
	items   []testItem
}

func (s testSection) Identifier() string { return s.id }

func (s testSection) Diff(previous testSection) Comparison {
	if s.id != previous.id {
		return Incomparable
	}
	if s.payload != previous.payload {
		return NeedsUpdate
	}
	return Unchanged
}

type snapshot []testSection

func (s snapshot) Sections() []testSection { return s }

func (s snapshot) Items(section int) []testItem { return s[section].items }

// snap builds a snapshot from "A:X,Y" style descriptions. A payload can be
// attached to sections and items with "=n", e.g. "A=1:X=2,Y".
func snap(sections ...string) snapshot {
	var out snapshot
	for _, desc := range sections {
		head, rows, _ := strings.Cut(desc, ":")
		id, payload := parsePayload(head)
		s := testSection{id: id, payload: payload}
		if rows != "" {
			for _, r := range strings.Split(rows, ",") {
				id, payload := parsePayload(r)
				s.items = append(s.items, testItem{id: id, payload: payload})
			}
		}
		out = append(out, s)
	}
	return out
}

func parsePayload(s string) (string, int) {
	id, p, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok {
		return id, 0
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		panic(err)
	}
	return id, n
}

func newTestDiffer(opts Options) *Differ[string, string, testSection, testItem] {
	return New[string, string, testSection, testItem](opts)
}

// replay applies d to old with batch-update semantics and returns the
// resulting section ids and item ids. Inserted sections take their items
// from new.
func replay(t *testing.T, old, new snapshot, d Difference) ([]string, [][]string) {
	t.Helper()

	sc := d.SectionChanges
	sections := make([]string, len(new))
	filled := make([]bool, len(new))
	for _, x := range sc.Insertions {
		sections[x] = new[x].id
		filled[x] = true
	}
	origin := make(map[int]int) // new section -> old section
	movedOut := make(map[int]bool)
	for _, m := range sc.Moves {
		sections[m.To] = old[m.From].id
		filled[m.To] = true
		origin[m.To] = m.From
		movedOut[m.From] = true
	}
	deleted := make(map[int]bool)
	for _, x := range sc.Deletions {
		deleted[x] = true
	}
	slot := 0
	for i := range old {
		if deleted[i] || movedOut[i] {
			continue
		}
		for slot < len(filled) && filled[slot] {
			slot++
		}
		if slot >= len(filled) {
			t.Fatalf("section %s has no slot left\n%s", old[i].id, spew.Sdump(d))
		}
		sections[slot] = old[i].id
		filled[slot] = true
		origin[slot] = i
	}

	ic := d.ItemChanges
	items := make([][]string, len(new))
	inserted := make(map[int]bool)
	for _, x := range sc.Insertions {
		inserted[x] = true
	}
	for j := range new {
		if inserted[j] {
			for _, it := range new[j].items {
				items[j] = append(items[j], it.id)
			}
			continue
		}
		i := origin[j]
		rows := make([]string, len(new[j].items))
		taken := make([]bool, len(rows))
		pin := func(r int, id string) {
			if r >= len(rows) || taken[r] {
				t.Fatalf("row %d.%d pinned twice or out of range\n%s", j, r, spew.Sdump(d))
			}
			rows[r] = id
			taken[r] = true
		}
		for _, p := range ic.Insertions {
			if p.Section == j {
				pin(p.Row, new[j].items[p.Row].id)
			}
		}
		for _, m := range ic.Moves {
			if m.To.Section == j {
				pin(m.To.Row, old[m.From.Section].items[m.From.Row].id)
			}
		}
		gone := make(map[int]bool)
		for _, p := range ic.Deletions {
			if p.Section == i {
				gone[p.Row] = true
			}
		}
		for _, m := range ic.Moves {
			if m.From.Section == i {
				gone[m.From.Row] = true
			}
		}
		r := 0
		for row, it := range old[i].items {
			if gone[row] {
				continue
			}
			for r < len(rows) && taken[r] {
				r++
			}
			if r >= len(rows) {
				t.Fatalf("item %s has no row left in section %d\n%s", it.id, j, spew.Sdump(d))
			}
			rows[r] = it.id
			taken[r] = true
		}
		items[j] = rows
	}
	return sections, items
}

func ids(s snapshot) ([]string, [][]string) {
	sections := make([]string, len(s))
	items := make([][]string, len(s))
	for i, sec := range s {
		sections[i] = sec.id
		for _, it := range sec.items {
			items[i] = append(items[i], it.id)
		}
		if items[i] == nil {
			items[i] = make([]string, 0)
		}
	}
	return sections, items
}

// checkDifference verifies that d reconstructs new from old, that every
// index is reported once per side, and that changed values are refreshed
func checkDifference(t *testing.T, old, new snapshot, d Difference) {
	t.Helper()

	gotSections, gotItems := replay(t, old, new, d)
	wantSections, wantItems := ids(new)
	for i := range gotItems {
		if gotItems[i] == nil {
			gotItems[i] = make([]string, 0)
		}
	}
	if fmt.Sprint(gotSections) != fmt.Sprint(wantSections) {
		t.Fatalf("sections: got %v, want %v\n%s", gotSections, wantSections, d)
	}
	if fmt.Sprint(gotItems) != fmt.Sprint(wantItems) {
		t.Fatalf("items: got %v, want %v\n%s", gotItems, wantItems, d)
	}

	checkExclusive(t, d.SectionChanges)
	checkExclusive(t, d.ItemChanges)

	refreshed := make(map[int]bool)
	for _, u := range d.SectionChanges.Updates {
		refreshed[u.To] = true
	}
	for _, m := range d.SectionChanges.Moves {
		if m.Updated {
			refreshed[m.To] = true
		}
	}
	for _, x := range d.SectionChanges.Insertions {
		refreshed[x] = true
	}
	oldSections := make(map[string]testSection)
	for _, s := range old {
		oldSections[s.id] = s
	}
	for j, s := range new {
		if o, ok := oldSections[s.id]; ok && o.payload != s.payload && !refreshed[j] {
			t.Fatalf("section %s changed but is not refreshed\n%s", s.id, d)
		}
	}

	refreshedRows := make(map[IndexPath]bool)
	for _, u := range d.ItemChanges.Updates {
		refreshedRows[u.To] = true
	}
	for _, m := range d.ItemChanges.Moves {
		if m.Updated {
			refreshedRows[m.To] = true
		}
	}
	for _, x := range d.ItemChanges.Insertions {
		refreshedRows[x] = true
	}
	oldItems := make(map[string]testItem)
	for _, s := range old {
		for _, it := range s.items {
			oldItems[it.id] = it
		}
	}
	for j, s := range new {
		if slices.Contains(d.SectionChanges.Insertions, j) {
			continue
		}
		for r, it := range s.items {
			o, ok := oldItems[it.id]
			if ok && o.payload != it.payload && !refreshedRows[IndexPath{Section: j, Row: r}] {
				t.Fatalf("item %s changed but is not refreshed\n%s", it.id, d)
			}
		}
	}
}

func checkExclusive[X comparable](t *testing.T, d CollectionDifference[X]) {
	t.Helper()
	src := make(map[X]int)
	dst := make(map[X]int)
	for _, x := range d.Deletions {
		src[x]++
	}
	for _, x := range d.Insertions {
		dst[x]++
	}
	for _, u := range d.Updates {
		src[u.From]++
		dst[u.To]++
	}
	for _, m := range d.Moves {
		src[m.From]++
		dst[m.To]++
	}
	for x, n := range src {
		if n > 1 {
			t.Fatalf("source index %v reported %d times: %s", x, n, d)
		}
	}
	for x, n := range dst {
		if n > 1 {
			t.Fatalf("destination index %v reported %d times: %s", x, n, d)
		}
	}
}
