package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rfdocs/mcp-server/internal/index"
)

// FetchDocumentationInput defines input for fetch_rf_documentation.
type FetchDocumentationInput struct {
	ForceRefresh bool `json:"force_refresh,omitempty" jsonschema:"Re-download documentation even if cached (optional, defaults to false)"`
}

// FetchDocumentationOutput reports the full refresh cycle: user guide
// download, section indexing, per-library keyword results and the keywords
// snapshot summary.
type FetchDocumentationOutput struct {
	index.RefreshResult
}

// FetchDocumentation downloads and indexes the Robot Framework user guide
// and all standard library documentation. Per-library failures are reported
// individually and never abort the cycle.
func (t *Toolset) FetchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input FetchDocumentationInput) (*mcp.CallToolResult, FetchDocumentationOutput, error) {
	result := t.manager.Refresh(ctx, input.ForceRefresh)
	return nil, FetchDocumentationOutput{RefreshResult: result}, nil
}

func (t *Toolset) registerFetchTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "fetch_rf_documentation",
			Description: "Download Robot Framework " + index.Version + " documentation (user guide and all standard libraries) and rebuild the searchable indexes. Skips cached files unless force_refresh is set.",
		},
		t.FetchDocumentation,
	)
}
