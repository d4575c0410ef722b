package sectiondiff

import (
	"fmt"
	"strings"
)

// Update records an element whose content changed, by source and destination index
type Update[X comparable] struct {
	From X
	To   X
}

// Move records an element that has to be moved explicitly. Updated is set
// when the element's content changed as well; such an element is reported
// only as a move.
type Move[X comparable] struct {
	From    X
	To      X
	Updated bool
}

// CollectionDifference describes the changes of one level. Insertions and
// Deletions are sorted and free of duplicates; Updates and Moves are sorted
// by source index.
//
// A source index appears in at most one of Deletions, Updates and Moves and
// a destination index in at most one of Insertions, Updates and Moves.
type CollectionDifference[X comparable] struct {
	Insertions []X
	Deletions  []X
	Updates    []Update[X]
	Moves      []Move[X]
}

// IsEmpty reports whether the level has no changes at all
func (d CollectionDifference[X]) IsEmpty() bool {
	return len(d.Insertions) == 0 && len(d.Deletions) == 0 &&
		len(d.Updates) == 0 && len(d.Moves) == 0
}

func (d CollectionDifference[X]) String() string {
	var parts []string
	if len(d.Deletions) > 0 {
		parts = append(parts, fmt.Sprintf("-%v", d.Deletions))
	}
	if len(d.Insertions) > 0 {
		parts = append(parts, fmt.Sprintf("+%v", d.Insertions))
	}
	for _, u := range d.Updates {
		parts = append(parts, fmt.Sprintf("~%v>%v", u.From, u.To))
	}
	for _, m := range d.Moves {
		mark := ""
		if m.Updated {
			mark = "~"
		}
		parts = append(parts, fmt.Sprintf("%v->%v%s", m.From, m.To, mark))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// ChangeKind summarizes a Difference
type ChangeKind int

const (
	// NoChange means old and new are identical
	NoChange ChangeKind = iota
	// HasChangeAndCanApply means the difference can be applied incrementally
	HasChangeAndCanApply
	// HasChangeButCannotApply means the caller must reload everything
	// instead of trusting the reported changes
	HasChangeButCannotApply
)

func (k ChangeKind) String() string {
	switch k {
	case NoChange:
		return "no-change"
	case HasChangeAndCanApply:
		return "can-apply"
	case HasChangeButCannotApply:
		return "cannot-apply"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Difference is the result of comparing two snapshots. Hosts apply it in one
// batch: delete sections, insert sections, move sections, delete items,
// insert items, move items, then refresh updated elements. Source indexes
// refer to the old snapshot and destination indexes to the new one.
type Difference struct {
	SectionChanges CollectionDifference[int]
	ItemChanges    CollectionDifference[IndexPath]
	Kind           ChangeKind
	// Reason explains a HasChangeButCannotApply result
	Reason string
}

// CanApply reports whether the changes may be applied incrementally
func (d Difference) CanApply() bool {
	return d.Kind != HasChangeButCannotApply
}

func (d Difference) String() string {
	s := fmt.Sprintf("%s sections: %s items: %s", d.Kind, d.SectionChanges, d.ItemChanges)
	if d.Reason != "" {
		s += " (" + d.Reason + ")"
	}
	return s
}

// Suppression lists positions for which moves are reported as a deletion
// plus an insertion, for hosts that cannot animate a move there
type Suppression[X comparable] struct {
	Sources      []X
	Destinations []X
}

func (s Suppression[X]) matches(from, to X) bool {
	for _, x := range s.Sources {
		if x == from {
			return true
		}
	}
	for _, x := range s.Destinations {
		if x == to {
			return true
		}
	}
	return false
}
