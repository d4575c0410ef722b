package diff

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pstuifzand/outline-diff/internal/log"
	"github.com/pstuifzand/outline-diff/internal/model"
	"github.com/pstuifzand/outline-diff/internal/sectiondiff"
)

// ComputeDiff compares two outlines. Top-level items are compared as
// sections and their descendants as rows.
func ComputeDiff(old, new *model.Outline, opts sectiondiff.Options) *Result {
	r := &Result{
		Old: model.NewSnapshot(old),
		New: model.NewSnapshot(new),
	}
	r.Difference = model.NewDiffer(opts).Compute(r.Old, r.New)

	oldSections, oldRows := r.Old.Len()
	newSections, newRows := r.New.Len()
	log.Tracef("diff: %d/%d sections, %d/%d rows -> %s", oldSections, newSections, oldRows, newRows, r.Difference)
	return r
}

// CompareItems lists the content changes between two versions of an item
func CompareItems(old, new *model.Item, timeFormat string) []FieldChange {
	var changes []FieldChange

	if old.Text != new.Text {
		changes = append(changes, FieldChange{Field: "TEXT", Old: old.Text, New: new.Text})
	}
	if old.Notes() != new.Notes() {
		changes = append(changes, FieldChange{Field: "NOTES", Old: old.Notes(), New: new.Notes()})
	}

	added, removed := tagChanges(old.Tags(), new.Tags())
	if len(added) > 0 {
		changes = append(changes, FieldChange{Field: "TAGS added", New: strings.Join(added, ", ")})
	}
	if len(removed) > 0 {
		changes = append(changes, FieldChange{Field: "TAGS removed", New: strings.Join(removed, ", ")})
	}

	oldAttrs, newAttrs := old.Attributes(), new.Attributes()
	for _, key := range sortedKeys(newAttrs) {
		oldVal, exists := oldAttrs[key]
		switch {
		case !exists:
			changes = append(changes, FieldChange{Field: "ATTR " + key, New: newAttrs[key]})
		case oldVal != newAttrs[key]:
			changes = append(changes, FieldChange{Field: "ATTR " + key, Old: oldVal, New: newAttrs[key]})
		}
	}
	for _, key := range sortedKeys(oldAttrs) {
		if _, exists := newAttrs[key]; !exists {
			changes = append(changes, FieldChange{Field: "ATTR " + key, Old: oldAttrs[key]})
		}
	}

	if old.Metadata != nil && new.Metadata != nil && !old.Metadata.Modified.Equal(new.Metadata.Modified) {
		changes = append(changes, FieldChange{
			Field: "MODIFIED",
			Old:   formatTime(old.Metadata.Modified, timeFormat),
			New:   formatTime(new.Metadata.Modified, timeFormat),
		})
	}

	return changes
}

// CompareRows extends CompareItems with the row's place in the tree
func CompareRows(old, new model.Row, timeFormat string) []FieldChange {
	var changes []FieldChange
	if old.ParentID != new.ParentID {
		changes = append(changes, FieldChange{Field: "PARENT", Old: old.ParentID, New: new.ParentID})
	}
	if old.Depth != new.Depth {
		changes = append(changes, FieldChange{Field: "DEPTH", Old: strconv.Itoa(old.Depth), New: strconv.Itoa(new.Depth)})
	}
	return append(changes, CompareItems(old.Item, new.Item, timeFormat)...)
}

func (c FieldChange) String() string {
	switch {
	case c.Old == "":
		return fmt.Sprintf("%s: %s", c.Field, truncateText(c.New, 40))
	case c.New == "":
		return fmt.Sprintf("%s: (was: %s)", c.Field, truncateText(c.Old, 40))
	default:
		return fmt.Sprintf("%s: %s → %s", c.Field, truncateText(c.Old, 40), truncateText(c.New, 40))
	}
}

func tagChanges(old, new []string) (added, removed []string) {
	for _, tag := range new {
		if !slices.Contains(old, tag) && !slices.Contains(added, tag) {
			added = append(added, tag)
		}
	}
	for _, tag := range old {
		if !slices.Contains(new, tag) && !slices.Contains(removed, tag) {
			removed = append(removed, tag)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
