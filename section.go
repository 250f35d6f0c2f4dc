package docshelf

import (
	"regexp"
	"strings"
)

// Section represents a heading in a markdown document.
type Section struct {
	Level int    `json:"level"`
	Title string `json:"title"`

	// Line is the 0-based line number of the heading.
	Line int `json:"line"`
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)(?:\s+#+)?\s*$`)

// ExtractSections returns the ATX headings (H1-H6) of a markdown document
// in document order. Lines inside fenced code blocks are ignored so that
// shell comments are not mistaken for headings.
func ExtractSections(markdown string) []Section {
	if markdown == "" {
		return nil
	}

	var sections []Section
	var fence string

	for i, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}

		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sections = append(sections, Section{
			Level: len(m[1]),
			Title: strings.TrimSpace(m[2]),
			Line:  i,
		})
	}

	return sections
}
