package diff

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mattn/go-runewidth"
	"github.com/ncruces/go-strftime"

	"github.com/pstuifzand/outline-diff/internal/sectiondiff"
)

// FormatOptions controls BuildDiffLines
type FormatOptions struct {
	Verbose bool // print field-level details of updated elements
	Summary bool // print only the summary
	// Match keeps only sections whose title fuzzy-matches it
	Match      string
	TimeFormat string // strftime layout
}

// BuildDiffLines converts a Result into formatted display lines
// This is suitable for both CLI and TUI output
func BuildDiffLines(r *Result, opts FormatOptions) []DiffLine {
	d := r.Difference
	switch d.Kind {
	case sectiondiff.NoChange:
		return []DiffLine{{Type: DiffTypeHeader, Content: "No changes"}}
	case sectiondiff.HasChangeButCannotApply:
		return buildReloadLines(r)
	}

	var lines []DiffLine
	if !opts.Summary {
		lines = append(lines, buildSectionLines(r, opts)...)
		lines = append(lines, buildItemLines(r, opts)...)
	}
	return append(lines, buildSummaryLines(d)...)
}

// MatchSection reports whether a section title passes the --match filter
func MatchSection(match, title string) bool {
	return match == "" || fuzzy.MatchFold(match, title)
}

func buildSectionLines(r *Result, opts FormatOptions) []DiffLine {
	sc := r.Difference.SectionChanges
	var body []DiffLine

	for _, x := range sc.Deletions {
		title := r.Old.Section(x).Text
		if MatchSection(opts.Match, title) {
			body = append(body, sectionLine(DiffTypeDeletedSection, fmt.Sprintf("[%d]", x), title))
		}
	}
	for _, x := range sc.Insertions {
		title := r.New.Section(x).Text
		if MatchSection(opts.Match, title) {
			body = append(body, sectionLine(DiffTypeInsertedSection, fmt.Sprintf("[%d]", x), title))
		}
	}
	for _, m := range sc.Moves {
		old, new := r.Old.Section(m.From), r.New.Section(m.To)
		if !MatchSection(opts.Match, new.Text) {
			continue
		}
		body = append(body, sectionLine(DiffTypeMovedSection, fmt.Sprintf("[%d -> %d]", m.From, m.To), new.Text))
		if m.Updated && opts.Verbose {
			body = append(body, detailLines(CompareItems(old, new, opts.TimeFormat), 2)...)
		}
	}
	for _, u := range sc.Updates {
		old, new := r.Old.Section(u.From), r.New.Section(u.To)
		if !MatchSection(opts.Match, new.Text) {
			continue
		}
		body = append(body, sectionLine(DiffTypeUpdatedSection, fmt.Sprintf("[%d]", u.To), new.Text))
		if opts.Verbose {
			body = append(body, detailLines(CompareItems(old, new, opts.TimeFormat), 2)...)
		}
	}

	if len(body) == 0 {
		return nil
	}
	lines := []DiffLine{{Type: DiffTypeHeader, Content: "Sections:"}}
	lines = append(lines, body...)
	return append(lines, DiffLine{Type: DiffTypeBlank})
}

func sectionLine(t DiffLineType, where, title string) DiffLine {
	return DiffLine{Type: t, Content: where + " " + truncateText(title, 60), Indent: 1}
}

func buildItemLines(r *Result, opts FormatOptions) []DiffLine {
	ic := r.Difference.ItemChanges
	var body []DiffLine

	for _, p := range ic.Deletions {
		if !MatchSection(opts.Match, r.Old.Section(p.Section).Text) {
			continue
		}
		body = append(body, itemLine(DiffTypeDeletedItem, p.String(), r.Old.Row(p).Item.Text))
	}
	for _, p := range ic.Insertions {
		if !MatchSection(opts.Match, r.New.Section(p.Section).Text) {
			continue
		}
		body = append(body, itemLine(DiffTypeInsertedItem, p.String(), r.New.Row(p).Item.Text))
	}
	for _, m := range ic.Moves {
		if !MatchSection(opts.Match, r.New.Section(m.To.Section).Text) {
			continue
		}
		old, new := r.Old.Row(m.From), r.New.Row(m.To)
		body = append(body, itemLine(DiffTypeMovedItem, m.From.String()+" -> "+m.To.String(), new.Item.Text))
		if m.Updated && opts.Verbose {
			body = append(body, detailLines(CompareRows(old, new, opts.TimeFormat), 2)...)
		}
	}
	for _, u := range ic.Updates {
		if !MatchSection(opts.Match, r.New.Section(u.To.Section).Text) {
			continue
		}
		old, new := r.Old.Row(u.From), r.New.Row(u.To)
		body = append(body, itemLine(DiffTypeUpdatedItem, u.To.String(), new.Item.Text))
		if opts.Verbose {
			body = append(body, detailLines(CompareRows(old, new, opts.TimeFormat), 2)...)
		}
	}

	if len(body) == 0 {
		return nil
	}
	lines := []DiffLine{{Type: DiffTypeHeader, Content: "Items:"}}
	lines = append(lines, body...)
	return append(lines, DiffLine{Type: DiffTypeBlank})
}

func itemLine(t DiffLineType, where, text string) DiffLine {
	return DiffLine{Type: t, Content: where + " " + truncateText(text, 60), Indent: 1}
}

func detailLines(changes []FieldChange, indent int) []DiffLine {
	lines := make([]DiffLine, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, DiffLine{Type: DiffTypeItemDetail, Content: c.String(), Indent: indent})
	}
	return lines
}

func buildReloadLines(r *Result) []DiffLine {
	oldSections, oldRows := r.Old.Len()
	newSections, newRows := r.New.Len()
	return []DiffLine{
		{Type: DiffTypeHeader, Content: "Too many changes to apply incrementally: " + r.Difference.Reason},
		{Type: DiffTypeBlank},
		{Type: DiffTypeSummary, Content: "=== Summary ==="},
		{Type: DiffTypeSummary, Content: fmt.Sprintf("old: %s sections, %s rows", humanize.Comma(int64(oldSections)), humanize.Comma(int64(oldRows))), Indent: 1},
		{Type: DiffTypeSummary, Content: fmt.Sprintf("new: %s sections, %s rows", humanize.Comma(int64(newSections)), humanize.Comma(int64(newRows))), Indent: 1},
	}
}

func buildSummaryLines(d sectiondiff.Difference) []DiffLine {
	return []DiffLine{
		{Type: DiffTypeSummary, Content: "=== Summary ==="},
		{Type: DiffTypeSummary, Content: "sections: " + countLine(d.SectionChanges), Indent: 1},
		{Type: DiffTypeSummary, Content: "items: " + countLine(d.ItemChanges), Indent: 1},
	}
}

func countLine[X comparable](d sectiondiff.CollectionDifference[X]) string {
	updated := len(d.Updates)
	for _, m := range d.Moves {
		if m.Updated {
			updated++
		}
	}
	return fmt.Sprintf("%s added, %s deleted, %s moved, %s updated",
		humanize.Comma(int64(len(d.Insertions))),
		humanize.Comma(int64(len(d.Deletions))),
		humanize.Comma(int64(len(d.Moves))),
		humanize.Comma(int64(updated)))
}

// truncateText limits text width for display
func truncateText(text string, maxWidth int) string {
	lines := strings.Split(text, "\n")
	text = lines[0]
	if len(lines) > 1 {
		text += " ..."
	}
	return runewidth.Truncate(text, maxWidth, "...")
}

// formatTime formats a timestamp with a strftime layout
func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	if layout == "" {
		return t.Format(time.DateTime)
	}
	return strftime.Format(layout, t)
}
