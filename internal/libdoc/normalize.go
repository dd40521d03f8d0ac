package libdoc

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// KeywordRecord is the normalized metadata for one keyword of a library.
// Field names and types are part of the on-disk keywords snapshot contract.
type KeywordRecord struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Args    string `json:"args"`
	Doc     string `json:"doc"`
	Library string `json:"library"`
	Source  string `json:"source"`
	Lineno  string `json:"lineno"`
}

var (
	// htmlTagRe matches any markup tag in a shortdoc string.
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)

	// codeSpanRe matches libdoc's double-backtick inline code spans.
	codeSpanRe = regexp.MustCompile("``([^`]+)``")
)

// keywordEntry mirrors the shape of one entry in the libdoc keywords list.
// Lineno is kept raw because libdoc emits it as a number while the record
// contract stores a string.
type keywordEntry struct {
	Name     string `json:"name"`
	Args     []struct {
		Repr string `json:"repr"`
	} `json:"args"`
	Shortdoc string          `json:"shortdoc"`
	Source   string          `json:"source"`
	Lineno   json.RawMessage `json:"lineno"`
}

// ParseKeywords decodes an extracted libdoc JSON payload and returns the
// normalized keyword records for one library, keyed by keyword name.
//
// The transform is total over any syntactically valid payload: entries with
// an empty name or an unexpected shape are skipped rather than failing the
// whole library.
func ParseKeywords(payload []byte, library string) (map[string]KeywordRecord, error) {
	var doc struct {
		Keywords []json.RawMessage `json:"keywords"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}

	records := make(map[string]KeywordRecord, len(doc.Keywords))
	for _, raw := range doc.Keywords {
		var kw keywordEntry
		if err := json.Unmarshal(raw, &kw); err != nil {
			continue // unexpected entry shape, skip
		}
		if kw.Name == "" {
			continue
		}

		reprs := make([]string, 0, len(kw.Args))
		for _, arg := range kw.Args {
			if arg.Repr != "" {
				reprs = append(reprs, arg.Repr)
			}
		}

		records[kw.Name] = KeywordRecord{
			Name:    kw.Name,
			ID:      strings.ReplaceAll(kw.Name, " ", "%20"),
			Args:    strings.Join(reprs, ", "),
			Doc:     cleanShortdoc(kw.Shortdoc),
			Library: library,
			Source:  kw.Source,
			Lineno:  linenoString(kw.Lineno),
		}
	}

	return records, nil
}

// cleanShortdoc strips markup tags and unwraps ``inline code`` spans.
func cleanShortdoc(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	return codeSpanRe.ReplaceAllString(s, "$1")
}

// linenoString renders a lineno value that may arrive as a JSON number or a
// JSON string.
func linenoString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
