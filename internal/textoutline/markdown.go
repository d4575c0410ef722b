package textoutline

import (
	"bufio"
	"strings"

	"github.com/pstuifzand/outline-diff/internal/model"
)

// MarkdownParser reads headings and bullet lists. Headings nest by their
// level, list items nest below the current heading by indentation, and
// other text becomes a child of the current heading.
type MarkdownParser struct{}

func (p *MarkdownParser) Name() string {
	return "Markdown"
}

// Parse converts markdown content to outline items
func (p *MarkdownParser) Parse(content string) ([]*model.Item, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))

	var b builder
	base := 0 // depth of the content below the current heading
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if level, text, ok := parseHeader(line); ok {
			base = b.add(level, &model.Item{Text: text}) + 1
			continue
		}
		if level, text, ok := parseListItem(line); ok {
			b.add(base+level, &model.Item{Text: text})
			continue
		}
		b.leaf(base, &model.Item{Text: strings.TrimSpace(line)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.roots, nil
}

// parseHeader returns the 0-based level and text of an ATX heading
func parseHeader(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || (level < len(line) && line[level] != ' ') {
		return 0, "", false
	}
	text := strings.TrimSpace(strings.TrimRight(line[level:], "#"))
	if text == "" {
		return 0, "", false
	}
	return level - 1, text, true
}

// parseListItem returns the nesting level and text of a bullet item
func parseListItem(line string) (int, string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) < 3 || !strings.ContainsRune("-*+", rune(trimmed[0])) || trimmed[1] != ' ' {
		return 0, "", false
	}
	text := strings.TrimSpace(trimmed[2:])
	if text == "" {
		return 0, "", false
	}
	return indentWidth(line) / 2, text, true
}
