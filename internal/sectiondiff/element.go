// Package sectiondiff computes the changes that turn one two-level collection
// (sections holding ordered items) into another: insertions, deletions,
// updates and the smallest set of moves a table or list widget needs to
// animate the transition.
package sectiondiff

// Comparison is the result of comparing an element with its previous version
type Comparison int

const (
	// Incomparable means the two values are not the same element. It is only
	// valid for values with different identifiers.
	Incomparable Comparison = iota
	// Unchanged means the element is the same and its content did not change
	Unchanged
	// NeedsUpdate means the element is the same but its content changed
	NeedsUpdate
)

func (c Comparison) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case NeedsUpdate:
		return "needs-update"
	default:
		return "incomparable"
	}
}

// Element is implemented by every value that takes part in a diff.
//
// Identifier must be stable across snapshots. Diff compares the receiver (the
// new value) with its previous version and must agree with Identifier: values
// with different identifiers are Incomparable, values with the same identifier
// never are.
type Element[ID comparable, T any] interface {
	Identifier() ID
	Diff(previous T) Comparison
}

// Diffable is a snapshot of a two-level collection
type Diffable[S, I any] interface {
	Sections() []S
	Items(section int) []I
}
