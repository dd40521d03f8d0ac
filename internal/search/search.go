// Package search implements ranked full-text search over the section
// snapshot and exact-match keyword lookup over the keywords snapshot. Both
// operate on read-only snapshots owned by the index package.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rfdocs/mcp-server/internal/index"
	"github.com/rfdocs/mcp-server/internal/libdoc"
)

// previewLength is how many characters of section content a result carries.
const previewLength = 300

// Result is one ranked section match.
type Result struct {
	Title          string `json:"title"`
	ID             string `json:"id"`
	Level          int    `json:"level"`
	Relevance      int    `json:"relevance"`
	ContentPreview string `json:"content_preview"`
	URL            string `json:"url"`
}

// Search returns the sections whose title or content contains the
// case-folded query, ranked by relevance. Relevance is ten times the title
// occurrence count plus the content occurrence count; ties keep document
// order. It returns the total match count before the cap is applied.
func Search(idx *index.DocumentIndex, query string, maxResults int) (total int, results []Result) {
	queryLower := strings.ToLower(query)

	results = []Result{}
	for _, section := range idx.Sections {
		titleMatches := strings.Count(strings.ToLower(section.Title), queryLower)
		contentMatches := strings.Count(strings.ToLower(section.Content), queryLower)
		if titleMatches == 0 && contentMatches == 0 {
			continue
		}

		results = append(results, Result{
			Title:          section.Title,
			ID:             section.ID,
			Level:          section.Level,
			Relevance:      titleMatches*10 + contentMatches,
			ContentPreview: preview(section.Content),
			URL:            fmt.Sprintf("%s#%s", index.UserGuideURL, section.ID),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	total = len(results)
	if maxResults >= 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return total, results
}

// preview returns the first 300 characters of content. The ellipsis suffix
// is applied unconditionally, matching the on-the-wire behavior other tools
// already expect.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return string(runes) + "..."
}

// LibraryNotFoundError means the lookup was scoped to a library missing from
// the snapshot. Distinct from a keyword that is absent from a present
// library set.
type LibraryNotFoundError struct {
	Library   string
	Available []string
}

func (e *LibraryNotFoundError) Error() string {
	return fmt.Sprintf("library '%s' not found", e.Library)
}

// KeywordNotFoundError means no keyword in the searched set matched the
// normalized name.
type KeywordNotFoundError struct {
	Keyword string
}

func (e *KeywordNotFoundError) Error() string {
	return fmt.Sprintf("keyword '%s' not found", e.Keyword)
}

// normalizeName case-folds a keyword name and collapses the separator
// variants, so "get_length", "Get-Length" and "get length" compare equal.
func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}

// Lookup resolves a keyword by normalized exact match. An empty library
// searches every library; a named library restricts the candidate set and
// reports a distinct error when absent. Libraries and keywords are visited
// in sorted name order so the first-match rule is deterministic; only the
// first match is reported even if duplicates exist across libraries.
func Lookup(idx *index.KeywordsIndex, keyword, library string) (*libdoc.KeywordRecord, error) {
	candidates := idx.Libraries
	if library != "" {
		keywords, ok := idx.Libraries[library]
		if !ok {
			return nil, &LibraryNotFoundError{Library: library, Available: sortedKeys(idx.Libraries)}
		}
		candidates = map[string]map[string]libdoc.KeywordRecord{library: keywords}
	}

	target := normalizeName(keyword)
	for _, libName := range sortedKeys(candidates) {
		keywords := candidates[libName]
		for _, name := range sortedKeys(keywords) {
			if normalizeName(name) == target {
				record := keywords[name]
				return &record, nil
			}
		}
	}

	return nil, &KeywordNotFoundError{Keyword: keyword}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
