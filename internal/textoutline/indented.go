package textoutline

import (
	"bufio"
	"strings"

	"github.com/pstuifzand/outline-diff/internal/model"
)

// IndentedTextParser reads plain text where every two spaces of indentation
// nest a line one level deeper
type IndentedTextParser struct{}

func (p *IndentedTextParser) Name() string {
	return "Indented Text"
}

// Parse converts indented text to outline items
func (p *IndentedTextParser) Parse(content string) ([]*model.Item, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))

	var b builder
	for scanner.Scan() {
		line := scanner.Text()
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		b.add(indentWidth(line)/2, &model.Item{Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.roots, nil
}
