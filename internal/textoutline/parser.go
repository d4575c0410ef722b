// Package textoutline reads outlines from markdown and indented plain text.
//
// Text files carry no item identifiers, so identifiers are derived from the
// item text: the first item with a given text is identified by the text
// itself, later ones get a "#n" suffix in document order. Moving an item
// keeps its identity; editing its text turns it into a different item.
package textoutline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pstuifzand/outline-diff/internal/model"
)

// Format names a text outline syntax
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatIndented Format = "indented"
)

// Parser turns file content into top-level items
type Parser interface {
	Parse(content string) ([]*model.Item, error)
	Name() string
}

// DetectFormat picks the format from the file extension. Unknown extensions
// are treated as JSON.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".txt":
		return FormatIndented
	default:
		return FormatJSON
	}
}

// Parse reads content in the given text format
func Parse(content string, format Format) (*model.Outline, error) {
	var parser Parser
	switch format {
	case FormatMarkdown:
		parser = &MarkdownParser{}
	case FormatIndented:
		parser = &IndentedTextParser{}
	default:
		return nil, fmt.Errorf("unsupported text format: %s", format)
	}

	items, err := parser.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse error (%s): %w", parser.Name(), err)
	}
	assignIDs(items)

	outline := model.NewOutline()
	outline.Items = append(outline.Items, items...)
	return outline, nil
}

// LoadFile reads a markdown or indented text file
func LoadFile(path string, format Format) (*model.Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(string(data), format)
}

func assignIDs(items []*model.Item) {
	used := make(map[string]bool)
	seen := make(map[string]int)

	var walk func([]*model.Item)
	walk = func(items []*model.Item) {
		for _, item := range items {
			seen[item.Text]++
			id := item.Text
			for n := seen[item.Text]; used[id]; n++ {
				id = fmt.Sprintf("%s#%d", item.Text, n)
			}
			used[id] = true
			item.ID = id
			walk(item.Children)
		}
	}
	walk(items)
}

// builder attaches items by depth, keeping the chain of open parents
type builder struct {
	roots []*model.Item
	stack []*model.Item
}

// add places item at depth, or directly below the deepest open item when
// depth skips levels. It returns the depth used.
func (b *builder) add(depth int, item *model.Item) int {
	depth = max(0, min(depth, len(b.stack)))
	b.stack = b.stack[:depth]
	if depth == 0 {
		b.roots = append(b.roots, item)
	} else {
		b.stack[depth-1].AddChild(item)
	}
	b.stack = append(b.stack, item)
	return depth
}

// leaf places item like add without opening it as a parent
func (b *builder) leaf(depth int, item *model.Item) {
	b.add(depth, item)
	b.stack = b.stack[:len(b.stack)-1]
}

// indentWidth counts leading blanks, a tab counting as two spaces
func indentWidth(line string) int {
	indent := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\t':
			indent += 2
		case ' ':
			indent++
		default:
			return indent
		}
	}
	return indent
}
