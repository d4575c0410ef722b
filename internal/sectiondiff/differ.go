package sectiondiff

import (
	"fmt"
	"strings"

	"github.com/apex/log"
)

// DefaultMoveThreshold is the number of move candidates per level above
// which a Differ gives up and asks for a reload
const DefaultMoveThreshold = 300

const (
	levelSection = "section"
	levelItem    = "item"
)

// ConflictPolicy decides which combinations of section moves and row
// changes a host cannot apply in one batch
type ConflictPolicy int

const (
	// ConflictRowDeleteInMovedSection rejects deleting a row from a section
	// that is moved in the same update
	ConflictRowDeleteInMovedSection ConflictPolicy = iota
	// ConflictNone accepts every combination
	ConflictNone
	// ConflictRowChangeInMovedSection rejects any row deletion, insertion or
	// move that touches a moved section
	ConflictRowChangeInMovedSection
)

var conflictPolicyNames = map[ConflictPolicy]string{
	ConflictRowDeleteInMovedSection: "row-delete-in-moved-section",
	ConflictNone:                    "none",
	ConflictRowChangeInMovedSection: "any-row-change-in-moved-section",
}

func (p ConflictPolicy) String() string {
	if n, ok := conflictPolicyNames[p]; ok {
		return n
	}
	return fmt.Sprintf("ConflictPolicy(%d)", int(p))
}

// ParseConflictPolicy returns the policy with the given name
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, n := range conflictPolicyNames {
		if n == s {
			return p, nil
		}
	}
	return ConflictRowDeleteInMovedSection, fmt.Errorf("unknown conflict policy %q", s)
}

// conflicts reports whether the changes combine a section move with row
// changes the policy rejects
func (p ConflictPolicy) conflicts(sections CollectionDifference[int], items CollectionDifference[IndexPath]) bool {
	if p == ConflictNone || len(sections.Moves) == 0 {
		return false
	}
	movedFrom := make(map[int]struct{}, len(sections.Moves))
	movedTo := make(map[int]struct{}, len(sections.Moves))
	for _, m := range sections.Moves {
		movedFrom[m.From] = struct{}{}
		movedTo[m.To] = struct{}{}
	}
	for _, x := range items.Deletions {
		if _, ok := movedFrom[x.Section]; ok {
			return true
		}
	}
	if p != ConflictRowChangeInMovedSection {
		return false
	}
	for _, x := range items.Insertions {
		if _, ok := movedTo[x.Section]; ok {
			return true
		}
	}
	for _, m := range items.Moves {
		_, from := movedFrom[m.From.Section]
		_, to := movedTo[m.To.Section]
		if from || to {
			return true
		}
	}
	return false
}

// Options configures a Differ. The zero value uses DefaultMoveThreshold and
// ConflictRowDeleteInMovedSection.
type Options struct {
	// MoveThreshold caps the move candidates of one level. Zero means
	// DefaultMoveThreshold, a negative value disables the cap.
	MoveThreshold int
	Conflict      ConflictPolicy
	// Moves touching these positions are reported as a deletion plus an insertion
	SectionSuppression Suppression[int]
	ItemSuppression    Suppression[IndexPath]
}

// DefaultOptions returns the options used by the zero value
func DefaultOptions() Options {
	return Options{
		MoveThreshold: DefaultMoveThreshold,
		Conflict:      ConflictRowDeleteInMovedSection,
	}
}

func (o Options) exceeds(level string, candidates int) bool {
	limit := o.MoveThreshold
	if limit == 0 {
		limit = DefaultMoveThreshold
	}
	if limit < 0 || candidates <= limit {
		return false
	}
	log.WithFields(log.Fields{
		"level":      level,
		"candidates": candidates,
		"limit":      limit,
	}).Debug("sectiondiff: too many move candidates, reload")
	return true
}

// Differ compares snapshots of a two-level collection. A Differ holds only
// its options and may be used from several goroutines.
type Differ[SID, IID comparable, S Element[SID, S], I Element[IID, I]] struct {
	opts Options
}

// New creates a Differ for sections of type S and items of type I
func New[SID, IID comparable, S Element[SID, S], I Element[IID, I]](opts Options) *Differ[SID, IID, S, I] {
	return &Differ[SID, IID, S, I]{opts: opts}
}

// Options returns the options the Differ was created with
func (d *Differ[SID, IID, S, I]) Options() Options {
	return d.opts
}

// Compute returns the changes that turn old into new. It panics when a
// snapshot repeats an identifier on one level or when an element's Diff
// reports Incomparable for a value with the same identifier. A nil snapshot
// is empty.
func (d *Differ[SID, IID, S, I]) Compute(old, new Diffable[S, I]) Difference {
	if old == nil {
		old = empty[S, I]{}
	}
	if new == nil {
		new = empty[S, I]{}
	}
	oldSections, newSections := old.Sections(), new.Sections()

	var fs indexSpace[int] = flatSpace{}
	sections := scanLevel[SID](levelSection, fs, indexSections(oldSections), indexSections(newSections))
	sections.suppress(d.opts.SectionSuppression)
	if d.opts.exceeds(levelSection, len(sections.candidates)) {
		return cannotApply(Difference{}, fmt.Sprintf("%d section move candidates", len(sections.candidates)))
	}
	sectionChanges := assemble(fs, sections, filterMoves(fs, sections))

	mapping := make(map[int]int, len(sections.targets))
	for _, e := range sections.source {
		if to, ok := sections.targets[e.key]; ok {
			mapping[e.origin] = to
		}
	}

	oldItems, oldRows := indexItems(old, len(oldSections))
	newItems, newRows := indexItems(new, len(newSections))
	var ps indexSpace[IndexPath] = pathSpace{sections: mapping, oldRows: oldRows, newRows: newRows}
	items := scanLevel[IID](levelItem, ps, oldItems, newItems)
	items.suppress(d.opts.ItemSuppression)
	result := Difference{SectionChanges: sectionChanges}
	if d.opts.exceeds(levelItem, len(items.candidates)) {
		return cannotApply(result, fmt.Sprintf("%d item move candidates", len(items.candidates)))
	}
	reconcile(items, newSectionChurn(sectionChanges, mapping))
	result.ItemChanges = assemble(ps, items, filterMoves(ps, items))

	switch {
	case d.opts.Conflict.conflicts(result.SectionChanges, result.ItemChanges):
		log.Debugf("sectiondiff: row changes conflict with section moves (%s)", d.opts.Conflict)
		return cannotApply(result, "row changes inside a moved section")
	case result.SectionChanges.IsEmpty() && result.ItemChanges.IsEmpty():
		result.Kind = NoChange
	default:
		result.Kind = HasChangeAndCanApply
	}
	log.WithFields(log.Fields{
		"sections": len(newSections),
		"items":    len(newItems),
		"kind":     result.Kind,
	}).Debug("sectiondiff: computed difference")
	return result
}

type empty[S, I any] struct{}

func (empty[S, I]) Sections() []S { return nil }
func (empty[S, I]) Items(int) []I { return nil }

func cannotApply(d Difference, reason string) Difference {
	d.Kind = HasChangeButCannotApply
	d.Reason = reason
	return d
}

func indexSections[S any](sections []S) []indexed[int, S] {
	out := make([]indexed[int, S], len(sections))
	for i, s := range sections {
		out[i] = indexed[int, S]{index: i, value: s}
	}
	return out
}

// indexItems flattens the items of every section and returns them with the
// row count of each section
func indexItems[S, I any](d Diffable[S, I], sections int) ([]indexed[IndexPath, I], []int) {
	var out []indexed[IndexPath, I]
	rows := make([]int, sections)
	for s := range sections {
		items := d.Items(s)
		rows[s] = len(items)
		for r, it := range items {
			out = append(out, indexed[IndexPath, I]{index: IndexPath{Section: s, Row: r}, value: it})
		}
	}
	return out, rows
}
