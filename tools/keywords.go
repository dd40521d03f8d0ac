package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rfdocs/mcp-server/internal/index"
	"github.com/rfdocs/mcp-server/internal/libdoc"
	"github.com/rfdocs/mcp-server/internal/search"
)

// descriptionLength caps keyword descriptions in list outputs.
const descriptionLength = 200

// KeywordSummary is the list-form view of one keyword.
type KeywordSummary struct {
	Name        string `json:"name"`
	Library     string `json:"library"`
	Args        string `json:"args"`
	Description string `json:"description"`
}

// compileFilter builds the case-insensitive keyword name filter. A nil
// return with nil error means no filtering.
func compileFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("Invalid regex pattern: %v", err)
	}
	return re, nil
}

// summarize turns a keyword set into a name-sorted list of summaries,
// applying the optional filter.
func summarize(keywords map[string]libdoc.KeywordRecord, filter *regexp.Regexp) []KeywordSummary {
	names := make([]string, 0, len(keywords))
	for name := range keywords {
		if filter != nil && !filter.MatchString(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]KeywordSummary, 0, len(names))
	for _, name := range names {
		record := keywords[name]
		list = append(list, KeywordSummary{
			Name:        record.Name,
			Library:     record.Library,
			Args:        record.Args,
			Description: truncate(record.Doc, descriptionLength),
		})
	}
	return list
}

// LibraryKeywordsInput defines input for get_library_keywords.
type LibraryKeywordsInput struct {
	LibraryName   string `json:"library_name,omitempty" jsonschema:"Library name such as BuiltIn or Collections (optional, defaults to BuiltIn)"`
	FilterPattern string `json:"filter_pattern,omitempty" jsonschema:"Optional regex pattern to filter keyword names"`
}

// LibraryKeywordsOutput defines output for get_library_keywords.
type LibraryKeywordsOutput struct {
	Success            bool             `json:"success"`
	Version            string           `json:"version,omitempty"`
	Library            string           `json:"library,omitempty"`
	TotalKeywords      int              `json:"total_keywords"`
	Keywords           []KeywordSummary `json:"keywords,omitempty"`
	Error              string           `json:"error,omitempty"`
	AvailableLibraries []string         `json:"available_libraries,omitempty"`
}

// GetLibraryKeywords lists the keywords of one standard library.
func (t *Toolset) GetLibraryKeywords(ctx context.Context, req *mcp.CallToolRequest, input LibraryKeywordsInput) (*mcp.CallToolResult, LibraryKeywordsOutput, error) {
	library := input.LibraryName
	if library == "" {
		library = "BuiltIn"
	}

	if !index.IsStandardLibrary(library) {
		return nil, LibraryKeywordsOutput{
			Error:              fmt.Sprintf("Unknown library: %s", library),
			AvailableLibraries: index.StandardLibraries,
		}, nil
	}

	// Make sure the source document is cached before parsing.
	if _, err := os.Stat(t.manager.LibraryPath(library)); err != nil {
		if result := t.manager.Refresh(ctx, false); !result.Success {
			return nil, LibraryKeywordsOutput{
				Error: fmt.Sprintf("Failed to fetch %s documentation", library),
			}, nil
		}
	}

	keywords, err := t.manager.ParseLibrary(library)
	if err != nil {
		return nil, LibraryKeywordsOutput{Error: err.Error()}, nil
	}

	filter, err := compileFilter(input.FilterPattern)
	if err != nil {
		return nil, LibraryKeywordsOutput{Error: err.Error()}, nil
	}

	list := summarize(keywords, filter)
	return nil, LibraryKeywordsOutput{
		Success:       true,
		Version:       index.Version,
		Library:       library,
		TotalKeywords: len(list),
		Keywords:      list,
	}, nil
}

// AllKeywordsInput defines input for get_all_keywords.
type AllKeywordsInput struct {
	FilterPattern string `json:"filter_pattern,omitempty" jsonschema:"Optional regex pattern to filter keyword names"`
}

// AllKeywordsOutput defines output for get_all_keywords.
type AllKeywordsOutput struct {
	Success        bool                        `json:"success"`
	Version        string                      `json:"version,omitempty"`
	TotalKeywords  int                         `json:"total_keywords"`
	TotalLibraries int                         `json:"total_libraries"`
	Libraries      map[string][]KeywordSummary `json:"libraries,omitempty"`
	Error          string                      `json:"error,omitempty"`
}

// GetAllKeywords lists keywords across every indexed standard library.
func (t *Toolset) GetAllKeywords(ctx context.Context, req *mcp.CallToolRequest, input AllKeywordsInput) (*mcp.CallToolResult, AllKeywordsOutput, error) {
	idx, err := t.ensureKeywordsIndex(ctx)
	if err != nil {
		return nil, AllKeywordsOutput{Error: fmt.Sprintf("Failed to read keywords index: %v", err)}, nil
	}

	filter, err := compileFilter(input.FilterPattern)
	if err != nil {
		return nil, AllKeywordsOutput{Error: err.Error()}, nil
	}

	libraries := make(map[string][]KeywordSummary)
	totalKeywords := 0
	for name, keywords := range idx.Libraries {
		list := summarize(keywords, filter)
		if len(list) == 0 {
			continue
		}
		libraries[name] = list
		totalKeywords += len(list)
	}

	return nil, AllKeywordsOutput{
		Success:        true,
		Version:        index.Version,
		TotalKeywords:  totalKeywords,
		TotalLibraries: len(libraries),
		Libraries:      libraries,
	}, nil
}

// GetBuiltinKeywords is a shortcut for get_library_keywords with BuiltIn.
func (t *Toolset) GetBuiltinKeywords(ctx context.Context, req *mcp.CallToolRequest, input AllKeywordsInput) (*mcp.CallToolResult, LibraryKeywordsOutput, error) {
	return t.GetLibraryKeywords(ctx, req, LibraryKeywordsInput{
		LibraryName:   "BuiltIn",
		FilterPattern: input.FilterPattern,
	})
}

// KeywordDocumentationInput defines input for get_keyword_documentation.
type KeywordDocumentationInput struct {
	KeywordName string `json:"keyword_name" jsonschema:"Name of the keyword (case-insensitive, underscores and hyphens treated as spaces)"`
	LibraryName string `json:"library_name,omitempty" jsonschema:"Optional library name; searches all libraries when omitted"`
}

// KeywordDocumentationOutput defines output for get_keyword_documentation.
type KeywordDocumentationOutput struct {
	Success            bool     `json:"success"`
	Version            string   `json:"version,omitempty"`
	Keyword            string   `json:"keyword,omitempty"`
	Library            string   `json:"library,omitempty"`
	Available          bool     `json:"available"`
	Arguments          string   `json:"arguments,omitempty"`
	Documentation      string   `json:"documentation,omitempty"`
	URL                string   `json:"url,omitempty"`
	Message            string   `json:"message,omitempty"`
	Hint               string   `json:"hint,omitempty"`
	Error              string   `json:"error,omitempty"`
	AvailableLibraries []string `json:"available_libraries,omitempty"`
}

// GetKeywordDocumentation resolves one keyword by exact normalized match and
// returns its full documentation.
func (t *Toolset) GetKeywordDocumentation(ctx context.Context, req *mcp.CallToolRequest, input KeywordDocumentationInput) (*mcp.CallToolResult, KeywordDocumentationOutput, error) {
	idx, err := t.ensureKeywordsIndex(ctx)
	if err != nil {
		return nil, KeywordDocumentationOutput{Error: fmt.Sprintf("Failed to search keyword: %v", err)}, nil
	}

	record, err := search.Lookup(idx, input.KeywordName, input.LibraryName)
	if err != nil {
		var libErr *search.LibraryNotFoundError
		if errors.As(err, &libErr) {
			return nil, KeywordDocumentationOutput{
				Error:              fmt.Sprintf("Library '%s' not found", libErr.Library),
				AvailableLibraries: libErr.Available,
			}, nil
		}
		var kwErr *search.KeywordNotFoundError
		if errors.As(err, &kwErr) {
			return nil, KeywordDocumentationOutput{
				Success: true,
				Version: index.Version,
				Keyword: input.KeywordName,
				Message: fmt.Sprintf("Keyword '%s' not found in any standard library for RF %s", input.KeywordName, index.Version),
				Hint:    "Use get_all_keywords() to see all available keywords",
			}, nil
		}
		return nil, KeywordDocumentationOutput{Error: fmt.Sprintf("Failed to search keyword: %v", err)}, nil
	}

	return nil, KeywordDocumentationOutput{
		Success:       true,
		Version:       index.Version,
		Keyword:       record.Name,
		Library:       record.Library,
		Available:     true,
		Arguments:     record.Args,
		Documentation: record.Doc,
		URL:           fmt.Sprintf("%s#%s", index.LibraryURL(record.Library), record.ID),
	}, nil
}

// CheckKeywordInput defines input for check_keyword_availability.
type CheckKeywordInput struct {
	KeywordName string `json:"keyword_name" jsonschema:"Name of the keyword to check"`
}

// CheckKeywordOutput defines output for check_keyword_availability.
type CheckKeywordOutput struct {
	Success           bool   `json:"success"`
	Version           string `json:"version"`
	KeywordSearched   string `json:"keyword_searched"`
	Available         bool   `json:"available"`
	Library           string `json:"library,omitempty"`
	KeywordActualName string `json:"keyword_actual_name,omitempty"`
	Message           string `json:"message"`
	Error             string `json:"error,omitempty"`
}

// CheckKeywordAvailability is a quick existence check across all standard
// libraries.
func (t *Toolset) CheckKeywordAvailability(ctx context.Context, req *mcp.CallToolRequest, input CheckKeywordInput) (*mcp.CallToolResult, CheckKeywordOutput, error) {
	_, doc, _ := t.GetKeywordDocumentation(ctx, req, KeywordDocumentationInput{KeywordName: input.KeywordName})

	output := CheckKeywordOutput{
		Success:         doc.Success,
		Version:         index.Version,
		KeywordSearched: input.KeywordName,
		Available:       doc.Available,
		Error:           doc.Error,
	}
	if doc.Available {
		output.Library = doc.Library
		output.KeywordActualName = doc.Keyword
		output.Message = fmt.Sprintf("Keyword '%s' is available in %s library", doc.Keyword, doc.Library)
	} else {
		output.Message = doc.Message
	}
	return nil, output, nil
}

// DocumentationURLInput defines input for get_documentation_url.
type DocumentationURLInput struct {
	Topic string `json:"topic,omitempty" jsonschema:"Optional topic: user_guide, builtin_library, release_notes, all_libraries, standard_libraries"`
}

// DocumentationURLOutput defines output for get_documentation_url.
type DocumentationURLOutput struct {
	Success bool           `json:"success"`
	Version string         `json:"version"`
	URLs    map[string]any `json:"urls"`
}

// GetDocumentationURL returns direct URLs into the official documentation.
func (t *Toolset) GetDocumentationURL(ctx context.Context, req *mcp.CallToolRequest, input DocumentationURLInput) (*mcp.CallToolResult, DocumentationURLOutput, error) {
	libraryURLs := make(map[string]string, len(index.StandardLibraries))
	for _, lib := range index.StandardLibraries {
		libraryURLs[lib] = index.LibraryURL(lib)
	}

	urls := map[string]any{
		"user_guide":         index.UserGuideURL,
		"builtin_library":    index.LibraryURL("BuiltIn"),
		"release_notes":      fmt.Sprintf("https://github.com/robotframework/robotframework/blob/master/doc/releasenotes/rf-%s.rst", index.Version),
		"all_libraries":      index.LibraryBaseURL + "/",
		"standard_libraries": libraryURLs,
	}

	if input.Topic != "" {
		value, ok := urls[input.Topic]
		if !ok {
			value = "Topic not found"
		}
		urls = map[string]any{input.Topic: value}
	}

	return nil, DocumentationURLOutput{Success: true, Version: index.Version, URLs: urls}, nil
}

func (t *Toolset) registerKeywordTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_library_keywords",
			Description: "List keywords from a specific Robot Framework " + index.Version + " standard library, optionally filtered by a regex pattern.",
		},
		t.GetLibraryKeywords,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_all_keywords",
			Description: "List keywords from all Robot Framework " + index.Version + " standard libraries, optionally filtered by a regex pattern.",
		},
		t.GetAllKeywords,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_builtin_keywords",
			Description: "List BuiltIn library keywords (shortcut for get_library_keywords with library_name=BuiltIn).",
		},
		t.GetBuiltinKeywords,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_keyword_documentation",
			Description: "Get detailed documentation for a specific keyword. Matching is case-insensitive and treats underscores and hyphens as spaces.",
		},
		t.GetKeywordDocumentation,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "check_keyword_availability",
			Description: "Quick check whether a keyword exists in any Robot Framework " + index.Version + " standard library.",
		},
		t.CheckKeywordAvailability,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_documentation_url",
			Description: "Get direct URLs to Robot Framework " + index.Version + " documentation.",
		},
		t.GetDocumentationURL,
	)
}
