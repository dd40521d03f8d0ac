package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Documentation for locally installed libraries is generated outside this
// process (libdoc output dropped into the configured directory); these tools
// only list and read it.

// InstalledDocFile describes one documentation file on disk.
type InstalledDocFile struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	SizeHuman string `json:"size_human"`
	Modified  string `json:"modified"`
	Format    string `json:"format"`
}

// InstalledFormat is one available format of a library's documentation.
type InstalledFormat struct {
	Format string `json:"format"`
	File   string `json:"file"`
	Size   string `json:"size"`
}

// InstalledLibrary groups the available formats of one library.
type InstalledLibrary struct {
	Library string            `json:"library"`
	Formats []InstalledFormat `json:"formats"`
}

// ListInstalledDocsInput defines input for list_installed_library_docs.
type ListInstalledDocsInput struct{}

// ListInstalledDocsOutput defines output for list_installed_library_docs.
type ListInstalledDocsOutput struct {
	Success            bool               `json:"success"`
	DocsDirectory      string             `json:"docs_directory,omitempty"`
	TotalFiles         int                `json:"total_files"`
	AvailableLibraries []string           `json:"available_libraries,omitempty"`
	Libraries          []InstalledLibrary `json:"libraries,omitempty"`
	Files              []InstalledDocFile `json:"files,omitempty"`
	Error              string             `json:"error,omitempty"`
	Hint               string             `json:"hint,omitempty"`
}

func humanSize(size int64) string {
	if size < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
}

// libraryStem extracts the library name from a documentation file name,
// e.g. "Robocop_help.txt" -> "Robocop".
func libraryStem(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if i := strings.Index(stem, "_"); i > 0 {
		return stem[:i]
	}
	return stem
}

// ListInstalledLibraryDocs lists all documentation files available for
// locally installed libraries.
func (t *Toolset) ListInstalledLibraryDocs(ctx context.Context, req *mcp.CallToolRequest, input ListInstalledDocsInput) (*mcp.CallToolResult, ListInstalledDocsOutput, error) {
	docsDir := t.cfg.LibraryDocsDir

	entries, err := os.ReadDir(docsDir)
	if err != nil {
		return nil, ListInstalledDocsOutput{
			Error: fmt.Sprintf("Documentation directory not found: %s", docsDir),
			Hint:  "Generate library documentation with run_libdoc first",
		}, nil
	}

	var files []InstalledDocFile
	grouped := make(map[string][]InstalledFormat)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		file := InstalledDocFile{
			Name:      entry.Name(),
			Path:      filepath.Join(docsDir, entry.Name()),
			SizeBytes: info.Size(),
			SizeHuman: humanSize(info.Size()),
			Modified:  info.ModTime().Format(time.RFC3339),
			Format:    strings.TrimPrefix(filepath.Ext(entry.Name()), "."),
		}
		files = append(files, file)

		library := libraryStem(entry.Name())
		grouped[library] = append(grouped[library], InstalledFormat{
			Format: file.Format,
			File:   file.Name,
			Size:   file.SizeHuman,
		})
	}

	if len(files) == 0 {
		return nil, ListInstalledDocsOutput{
			DocsDirectory: docsDir,
			Error:         "No documentation files found",
			Hint:          "Generate library documentation with run_libdoc first",
		}, nil
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	libraries := make([]InstalledLibrary, 0, len(names))
	for _, name := range names {
		libraries = append(libraries, InstalledLibrary{Library: name, Formats: grouped[name]})
	}

	return nil, ListInstalledDocsOutput{
		Success:            true,
		DocsDirectory:      docsDir,
		TotalFiles:         len(files),
		AvailableLibraries: names,
		Libraries:          libraries,
		Files:              files,
	}, nil
}

// InstalledDocsInput defines input for get_installed_library_docs.
type InstalledDocsInput struct {
	LibraryName string `json:"library_name" jsonschema:"Name of the installed library (e.g. Browser, RequestsLibrary, Robocop)"`
	Format      string `json:"format,omitempty" jsonschema:"Documentation format to retrieve: json, html, xml or txt (optional, defaults to json)"`
}

// InstalledDocsMetadata carries file- and library-level metadata.
type InstalledDocsMetadata struct {
	Version       string `json:"version,omitempty"`
	Scope         string `json:"scope,omitempty"`
	KeywordsCount int    `json:"keywords_count,omitempty"`
	FileSize      int64  `json:"file_size"`
	Modified      string `json:"modified"`
	Truncated     bool   `json:"truncated,omitempty"`
}

// InstalledDocsOutput defines output for get_installed_library_docs.
type InstalledDocsOutput struct {
	Success              bool                   `json:"success"`
	Library              string                 `json:"library"`
	Format               string                 `json:"format"`
	FilePath             string                 `json:"file_path,omitempty"`
	Metadata             *InstalledDocsMetadata `json:"metadata,omitempty"`
	Documentation        string                 `json:"documentation,omitempty"`
	Keywords             []json.RawMessage      `json:"keywords,omitempty"`
	FullContentAvailable bool                   `json:"full_content_available,omitempty"`
	Content              string                 `json:"content,omitempty"`
	AvailableFormats     []string               `json:"available_formats,omitempty"`
	Error                string                 `json:"error,omitempty"`
	Hint                 string                 `json:"hint,omitempty"`
}

// resolveInstalledDocFile finds the documentation file for a library/format
// pair, handling Robocop's help/rules text files.
func resolveInstalledDocFile(docsDir, library, format string) string {
	if strings.EqualFold(library, "robocop") && format == "txt" {
		for _, name := range []string{"Robocop_help.txt", "Robocop_rules.txt"} {
			path := filepath.Join(docsDir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		return ""
	}

	path := filepath.Join(docsDir, fmt.Sprintf("%s.%s", library, format))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// GetInstalledLibraryDocs reads documentation content for one installed
// library.
func (t *Toolset) GetInstalledLibraryDocs(ctx context.Context, req *mcp.CallToolRequest, input InstalledDocsInput) (*mcp.CallToolResult, InstalledDocsOutput, error) {
	format := input.Format
	if format == "" {
		format = "json"
	}
	output := InstalledDocsOutput{Library: input.LibraryName, Format: format}

	docsDir := t.cfg.LibraryDocsDir
	if _, err := os.Stat(docsDir); err != nil {
		output.Error = fmt.Sprintf("Documentation directory not found: %s", docsDir)
		output.Hint = "Generate library documentation with run_libdoc first"
		return nil, output, nil
	}

	docFile := resolveInstalledDocFile(docsDir, input.LibraryName, format)
	if docFile == "" {
		matches, _ := filepath.Glob(filepath.Join(docsDir, input.LibraryName+"*"))
		available := make([]string, 0, len(matches))
		for _, m := range matches {
			available = append(available, filepath.Base(m))
		}

		output.Error = fmt.Sprintf("Documentation file not found: %s.%s", input.LibraryName, format)
		output.AvailableFormats = available
		if len(available) > 0 {
			output.Hint = fmt.Sprintf("Available files: %s", strings.Join(available, ", "))
		} else {
			output.Hint = "Available files: none"
		}
		return nil, output, nil
	}

	info, err := os.Stat(docFile)
	if err != nil {
		output.Error = fmt.Sprintf("Failed to read library docs: %v", err)
		return nil, output, nil
	}
	data, err := os.ReadFile(docFile)
	if err != nil {
		output.Error = fmt.Sprintf("Failed to read library docs: %v", err)
		return nil, output, nil
	}

	output.FilePath = docFile

	if format == "json" {
		var content struct {
			Version  string            `json:"version"`
			Scope    string            `json:"scope"`
			Doc      string            `json:"doc"`
			Keywords []json.RawMessage `json:"keywords"`
		}
		if err := json.Unmarshal(data, &content); err != nil {
			output.Error = fmt.Sprintf("Failed to parse JSON: %v", err)
			return nil, output, nil
		}

		doc := content.Doc
		if len([]rune(doc)) > 500 {
			doc = truncate(doc, 500) + "..."
		}
		keywords := content.Keywords
		if len(keywords) > 10 {
			keywords = keywords[:10]
		}

		output.Success = true
		output.Metadata = &InstalledDocsMetadata{
			Version:       content.Version,
			Scope:         content.Scope,
			KeywordsCount: len(content.Keywords),
			FileSize:      info.Size(),
			Modified:      info.ModTime().Format(time.RFC3339),
		}
		output.Documentation = doc
		output.Keywords = keywords
		output.FullContentAvailable = true
		output.Hint = "Full JSON content available, showing first 10 keywords. Parse the file for complete data."
		return nil, output, nil
	}

	content := string(data)
	truncated := len([]rune(content)) > 5000
	if truncated {
		content = truncate(content, 5000) + "\n\n... (truncated)"
	}

	output.Success = true
	output.Metadata = &InstalledDocsMetadata{
		FileSize:  info.Size(),
		Modified:  info.ModTime().Format(time.RFC3339),
		Truncated: truncated,
	}
	output.Content = content
	return nil, output, nil
}

func (t *Toolset) registerInstalledDocsTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_installed_library_docs",
			Description: "List all documentation files available for locally installed Robot Framework libraries.",
		},
		t.ListInstalledLibraryDocs,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_installed_library_docs",
			Description: "Get documentation content for a specific installed Robot Framework library in the requested format.",
		},
		t.GetInstalledLibraryDocs,
	)
}
