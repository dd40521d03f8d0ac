package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrNotBuilt means the requested snapshot does not exist yet; the caller
// should run the fetch cycle first. Distinct from a corrupt snapshot.
var ErrNotBuilt = errors.New("documentation index not built")

// The snapshot files are an on-disk contract read by other tools, so loading
// validates them against a fixed schema before decoding. A file that exists
// but fails validation is reported as corrupt, never silently coerced.

const documentIndexSchema = `{
	"type": "object",
	"required": ["version", "parsed_at", "total_sections", "sections"],
	"properties": {
		"version": {"type": "string"},
		"parsed_at": {"type": "string"},
		"total_sections": {"type": "integer", "minimum": 0},
		"sections": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "level", "title", "content"],
				"properties": {
					"id": {"type": "string"},
					"level": {"type": "integer", "minimum": 1, "maximum": 4},
					"title": {"type": "string"},
					"content": {"type": "string"}
				}
			}
		}
	}
}`

const keywordsIndexSchema = `{
	"type": "object",
	"required": ["version", "parsed_at", "total_libraries", "total_keywords", "libraries"],
	"properties": {
		"version": {"type": "string"},
		"parsed_at": {"type": "string"},
		"total_libraries": {"type": "integer", "minimum": 0},
		"total_keywords": {"type": "integer", "minimum": 0},
		"libraries": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"additionalProperties": {
					"type": "object",
					"required": ["name", "id", "args", "doc", "library", "source", "lineno"],
					"properties": {
						"name": {"type": "string"},
						"id": {"type": "string"},
						"args": {"type": "string"},
						"doc": {"type": "string"},
						"library": {"type": "string"},
						"source": {"type": "string"},
						"lineno": {"type": "string"}
					}
				}
			}
		}
	}
}`

var (
	docsIndexValidator     = mustCompileSchema("docs_index.schema.json", documentIndexSchema)
	keywordsIndexValidator = mustCompileSchema("all_keywords.schema.json", keywordsIndexSchema)
)

func mustCompileSchema(name, source string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(source), &doc); err != nil {
		panic(fmt.Sprintf("invalid embedded schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile schema %s: %v", name, err))
	}
	return schema
}

// writeSnapshot marshals v and replaces path wholesale via a temp file and
// rename, so concurrent readers never observe a partial write.
func writeSnapshot(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// loadSnapshot reads path, validates the raw document against schema, and
// decodes it into out.
func loadSnapshot(path string, schema *jsonschema.Schema, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotBuilt
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("snapshot %s is not valid JSON: %w", filepath.Base(path), err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("snapshot %s failed schema validation: %w", filepath.Base(path), err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadDocumentIndex reads and validates the persisted section snapshot.
func (m *Manager) LoadDocumentIndex() (*DocumentIndex, error) {
	var idx DocumentIndex
	if err := loadSnapshot(m.DocsIndexPath(), docsIndexValidator, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// LoadKeywordsIndex reads and validates the persisted keywords snapshot.
func (m *Manager) LoadKeywordsIndex() (*KeywordsIndex, error) {
	var idx KeywordsIndex
	if err := loadSnapshot(m.KeywordsIndexPath(), keywordsIndexValidator, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}
