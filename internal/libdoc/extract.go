// Package libdoc extracts and normalizes keyword metadata from Robot
// Framework library documentation pages. Libdoc-generated HTML embeds the
// whole keyword payload as a JavaScript assignment (`libdoc = {...};`), so
// the JSON object has to be carved out of the surrounding markup before it
// can be decoded.
package libdoc

import (
	"errors"
	"fmt"
	"regexp"
)

// markerRe locates the start of the embedded libdoc assignment.
var markerRe = regexp.MustCompile(`libdoc\s*=\s*\{`)

var (
	// ErrMarkerNotFound means the document contains no libdoc assignment.
	ErrMarkerNotFound = errors.New("libdoc marker not found in document")

	// ErrUnbalanced means the object opened at the marker never closes
	// before the end of input.
	ErrUnbalanced = errors.New("unbalanced libdoc object")
)

// MalformedPayloadError reports an object that was extracted as structurally
// balanced but does not decode as JSON. Distinct from ErrUnbalanced: the scan
// succeeded, the content is bad.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed libdoc payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// ExtractObject returns the verbatim substring spanning the balanced JSON
// object that starts at the libdoc marker's opening brace.
//
// The scan is a single pass tracking depth, in-string and escape state.
// Braces inside string literals must not count, and a backslash suppresses
// interpretation of the character that follows it (including a quote), so
// neither naive brace counting nor a regex can do this correctly.
func ExtractObject(text string) (string, error) {
	loc := markerRe.FindStringIndex(text)
	if loc == nil {
		return "", ErrMarkerNotFound
	}

	start := loc[1] - 1 // position of the opening brace
	depth := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escape {
			escape = false
			continue
		}
		switch {
		case c == '\\':
			escape = true
		case c == '"':
			inString = !inString
		case inString:
			// Characters inside strings carry no structure.
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrUnbalanced
}
