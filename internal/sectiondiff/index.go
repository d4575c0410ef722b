package sectiondiff

import (
	"cmp"
	"fmt"
)

// IndexPath addresses a row inside a section
type IndexPath struct {
	Section int
	Row     int
}

func (p IndexPath) String() string {
	return fmt.Sprintf("%d.%d", p.Section, p.Row)
}

// Compare orders index paths by section, then by row
func (p IndexPath) Compare(o IndexPath) int {
	if c := cmp.Compare(p.Section, o.Section); c != 0 {
		return c
	}
	return cmp.Compare(p.Row, o.Row)
}

// indexSpace is the arithmetic one level needs from its index type. Every
// index splits into a container and a slot: the flat space has a single
// container, the path space uses sections as containers and rows as slots.
type indexSpace[X comparable] interface {
	compare(a, b X) int
	locate(x X) (container, slot int)
	at(container, slot int) X
	// project maps a source index into destination container space. It
	// reports false when the source container does not survive.
	project(x X) (X, bool)
	impact(from, to X) int
}

// settled reports whether an element at from ends up at to without being moved
func settled[X comparable](sp indexSpace[X], from, to X) bool {
	p, ok := sp.project(from)
	return ok && p == to
}

// flatSpace is the index space of a plain list
type flatSpace struct{}

func (flatSpace) compare(a, b int) int {
	return cmp.Compare(a, b)
}

func (flatSpace) locate(x int) (int, int) {
	return 0, x
}

func (flatSpace) at(_, slot int) int {
	return slot
}

func (flatSpace) project(x int) (int, bool) {
	return x, true
}

func (flatSpace) impact(from, to int) int {
	return abs(from - to)
}

// pathSpace is the index space of rows inside sections. Source sections are
// carried into destination section space through their identity, so a row
// travels with its section when the section moves.
type pathSpace struct {
	sections map[int]int // old section -> new section, surviving sections only
	oldRows  []int
	newRows  []int
}

func (pathSpace) compare(a, b IndexPath) int {
	return a.Compare(b)
}

func (pathSpace) locate(p IndexPath) (int, int) {
	return p.Section, p.Row
}

func (pathSpace) at(container, slot int) IndexPath {
	return IndexPath{Section: container, Row: slot}
}

func (sp pathSpace) project(p IndexPath) (IndexPath, bool) {
	s, ok := sp.sections[p.Section]
	if !ok {
		return IndexPath{}, false
	}
	return IndexPath{Section: s, Row: p.Row}, true
}

// capacity is the number of rows a destination section holds
func (sp pathSpace) capacity(container int) int {
	if container < 0 || container >= len(sp.newRows) {
		return 0
	}
	return sp.newRows[container]
}

// impact measures how far a row travels. Within a section it is the row
// distance. Across sections it counts the rows between the source and the
// end of its section in the direction of travel, the rows between the start
// of the destination section and the destination, and every row of the
// sections crossed on the way.
func (sp pathSpace) impact(from, to IndexPath) int {
	src, ok := sp.sections[from.Section]
	if !ok {
		return 0
	}
	if src == to.Section {
		return abs(from.Row - to.Row)
	}
	if src < to.Section {
		n := sp.oldRows[from.Section] - from.Row + to.Row + 1
		for s := src + 1; s < to.Section; s++ {
			n += sp.capacity(s)
		}
		return n
	}
	n := from.Row + 1 + sp.capacity(to.Section) - to.Row
	for s := to.Section + 1; s < src; s++ {
		n += sp.capacity(s)
	}
	return n
}

// reindex compacts the slots of sorted entries so every container is
// numbered 0..n-1 again
func reindex[X, K comparable](sp indexSpace[X], entries []simEntry[X, K]) {
	container, next := 0, 0
	for i := range entries {
		c, _ := sp.locate(entries[i].index)
		if i == 0 || c != container {
			container, next = c, 0
		}
		entries[i].index = sp.at(c, next)
		next++
	}
}

// bumper tracks how far existing entries shift while insertions are merged
// in index order
type bumper[X comparable] struct {
	space   indexSpace[X]
	offsets map[int]int
}

func newBumper[X comparable](sp indexSpace[X]) *bumper[X] {
	return &bumper[X]{space: sp, offsets: make(map[int]int)}
}

// shift returns where an existing entry lands given the insertions seen so far
func (b *bumper[X]) shift(x X) X {
	c, s := b.space.locate(x)
	return b.space.at(c, s+b.offsets[c])
}

// bump records an insertion at x
func (b *bumper[X]) bump(x X) {
	c, _ := b.space.locate(x)
	b.offsets[c]++
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
