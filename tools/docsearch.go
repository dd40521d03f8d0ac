package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rfdocs/mcp-server/internal/index"
	"github.com/rfdocs/mcp-server/internal/search"
)

const defaultMaxResults = 10

// SearchDocumentationInput defines input for search_rf_documentation.
type SearchDocumentationInput struct {
	Query      string `json:"query" jsonschema:"Search term or phrase"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results to return (optional, defaults to 10)"`
}

// SearchDocumentationOutput defines output for search_rf_documentation.
// TotalMatches counts every matching section before the cap is applied.
type SearchDocumentationOutput struct {
	Success      bool            `json:"success"`
	Version      string          `json:"version,omitempty"`
	Query        string          `json:"query"`
	TotalMatches int             `json:"total_matches"`
	Results      []search.Result `json:"results"`
	Error        string          `json:"error,omitempty"`
	Hint         string          `json:"hint,omitempty"`
}

// SearchDocumentation searches the parsed user guide sections.
func (t *Toolset) SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	output := SearchDocumentationOutput{Query: input.Query, Results: []search.Result{}}

	idx, err := t.manager.LoadDocumentIndex()
	if err != nil {
		if errors.Is(err, index.ErrNotBuilt) {
			output.Error = "Documentation index not found. Call fetch_rf_documentation first."
			output.Hint = "Run fetch_rf_documentation() to download and index docs"
		} else {
			output.Error = fmt.Sprintf("Search failed: %v", err)
		}
		return nil, output, nil
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	total, results := search.Search(idx, input.Query, maxResults)

	output.Success = true
	output.Version = index.Version
	output.TotalMatches = total
	output.Results = results
	return nil, output, nil
}

func (t *Toolset) registerSearchTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_rf_documentation",
			Description: "Search the Robot Framework " + index.Version + " user guide. Returns sections ranked by relevance with content previews and anchor URLs.",
		},
		t.SearchDocumentation,
	)
}
