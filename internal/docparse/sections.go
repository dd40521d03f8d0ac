// Package docparse extracts heading-delimited sections from Robot Framework
// documentation HTML. The user guide is a single large HTML file structured
// by h1-h4 headings; everything between one heading and the next belongs to
// the section opened by the first one.
package docparse

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Section is one heading-delimited region of a parsed document.
type Section struct {
	ID      string `json:"id"`
	Level   int    `json:"level"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ParseError reports input that could not be lexed as markup at all.
// Malformed but lexable HTML never produces a ParseError; unknown tags are
// structurally transparent.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("markup parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// headingLevel returns the heading rank for h1-h4 tags, or 0 for any other tag.
func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '4' {
		return int(tag[1] - '0')
	}
	return 0
}

// ParseSections scans HTML and returns one Section per h1-h4 heading, in
// document order. A section's content is the space-joined concatenation of
// all trimmed text fragments between its heading and the next heading of any
// rank (or end of input). Text before the first heading is discarded. The
// first non-empty text fragment inside an open heading tag becomes the title;
// later fragments inside the same heading are dropped so that incidental
// whitespace or markup artifacts cannot corrupt it.
func ParseSections(r io.Reader) ([]Section, error) {
	z := html.NewTokenizer(r)

	sections := []Section{}
	var current *Section
	var content []string
	inHeading := false

	finalize := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(content, " "))
		sections = append(sections, *current)
		current = nil
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			err := z.Err()
			if err == io.EOF {
				finalize()
				return sections, nil
			}
			return nil, &ParseError{Err: err}

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			level := headingLevel(string(name))
			if level == 0 {
				continue
			}

			// A new heading closes the previous section, last heading wins
			// even if the markup nests headings.
			finalize()

			id := ""
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "id" {
					id = string(val)
				}
			}

			current = &Section{ID: id, Level: level}
			content = content[:0]
			inHeading = true

		case html.EndTagToken:
			name, _ := z.TagName()
			if headingLevel(string(name)) > 0 {
				inHeading = false
			}

		case html.TextToken:
			text := strings.TrimSpace(string(z.Text()))
			if text == "" {
				continue
			}
			if inHeading && current != nil {
				if current.Title == "" {
					current.Title = text
				}
			} else if current != nil {
				content = append(content, text)
			}
		}
	}
}
