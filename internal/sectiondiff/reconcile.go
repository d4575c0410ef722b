package sectiondiff

import (
	"maps"
	"slices"
)

// sectionChurn is what the item level needs to know about the section level
type sectionChurn struct {
	mapping  map[int]int      // old section -> new section for surviving sections
	deleted  map[int]struct{} // old sections
	inserted map[int]struct{} // new sections
}

func newSectionChurn(sections CollectionDifference[int], mapping map[int]int) sectionChurn {
	churn := sectionChurn{
		mapping:  mapping,
		deleted:  make(map[int]struct{}, len(sections.Deletions)),
		inserted: make(map[int]struct{}, len(sections.Insertions)),
	}
	for _, s := range sections.Deletions {
		churn.deleted[s] = struct{}{}
	}
	for _, s := range sections.Insertions {
		churn.inserted[s] = struct{}{}
	}
	return churn
}

func (c sectionChurn) isDeleted(section int) bool {
	_, ok := c.deleted[section]
	return ok
}

func (c sectionChurn) isInserted(section int) bool {
	_, ok := c.inserted[section]
	return ok
}

// reconcile removes the item changes the section level already implies. A
// row moving out of a deleted section becomes an insertion, a row moving
// into an inserted section becomes a deletion, and rows inside deleted or
// inserted sections are not reported at all.
func reconcile[K comparable](raw *rawLevel[IndexPath, K], churn sectionChurn) {
	kept := raw.candidates[:0]
	for _, c := range raw.candidates {
		srcGone := churn.isDeleted(c.from.Section)
		dstNew := churn.isInserted(c.to.Section)
		if !srcGone && !dstNew {
			kept = append(kept, c)
			continue
		}
		delete(raw.updates, c.key)
		delete(raw.targets, c.key)
		if !srcGone {
			raw.deletions[c.from] = c.key
		}
		if !dstNew {
			raw.insertions[c.to] = c.key
		}
	}
	raw.candidates = kept

	maps.DeleteFunc(raw.insertions, func(p IndexPath, _ K) bool {
		return churn.isInserted(p.Section)
	})
	maps.DeleteFunc(raw.deletions, func(p IndexPath, _ K) bool {
		return churn.isDeleted(p.Section)
	})
	maps.DeleteFunc(raw.updates, func(_ K, u Update[IndexPath]) bool {
		return churn.isDeleted(u.From.Section) || churn.isInserted(u.To.Section)
	})

	markRedundant(raw, churn)
}

// markRedundant flags candidates whose source row reaches the destination
// purely through the surviving deletions and insertions
func markRedundant[K comparable](raw *rawLevel[IndexPath, K], churn sectionChurn) {
	if len(raw.candidates) == 0 {
		return
	}
	deleted := make(map[int][]int)
	for p := range raw.deletions {
		deleted[p.Section] = append(deleted[p.Section], p.Row)
	}
	for _, rows := range deleted {
		slices.Sort(rows)
	}
	inserted := make(map[int][]int)
	for p := range raw.insertions {
		inserted[p.Section] = append(inserted[p.Section], p.Row)
	}
	for _, rows := range inserted {
		slices.Sort(rows)
	}

	for i := range raw.candidates {
		c := &raw.candidates[i]
		section, ok := churn.mapping[c.from.Section]
		if !ok {
			continue
		}
		before, _ := slices.BinarySearch(deleted[c.from.Section], c.from.Row)
		row := c.from.Row - before
		for _, r := range inserted[section] {
			if r > row {
				break
			}
			row++
		}
		if (IndexPath{Section: section, Row: row}) == c.to {
			c.redundant = true
		}
	}
}
