// Package tools exposes the documentation and CLI utilities as MCP tools.
// Every tool returns a structured output carrying success/error fields; no
// internal failure crosses the tool-call boundary as a Go error.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rfdocs/mcp-server/internal/fetch"
	"github.com/rfdocs/mcp-server/internal/index"
)

// Toolset holds the components shared by all tool handlers. Configuration is
// injected at construction; handlers never read the environment.
type Toolset struct {
	cfg     index.Config
	manager *index.Manager
}

// NewToolset wires the documentation index over the HTTP fetch collaborator.
func NewToolset(cfg index.Config) *Toolset {
	return &Toolset{
		cfg:     cfg,
		manager: index.NewManager(cfg, fetch.NewClient(fetch.DefaultTimeout)),
	}
}

// Register adds every tool to the server.
func (t *Toolset) Register(server *mcp.Server) {
	t.registerFetchTools(server)
	t.registerSearchTools(server)
	t.registerKeywordTools(server)
	t.registerRunnerTools(server)
	t.registerInstalledDocsTools(server)
	log.Printf("All tools registered (fetch + search + keywords + runners + installed docs)")
}

// ensureKeywordsIndex loads the keywords snapshot, triggering a fetch cycle
// first when it has never been built.
func (t *Toolset) ensureKeywordsIndex(ctx context.Context) (*index.KeywordsIndex, error) {
	idx, err := t.manager.LoadKeywordsIndex()
	if errors.Is(err, index.ErrNotBuilt) {
		log.Printf("Keywords index not built, running fetch cycle...")
		if result := t.manager.Refresh(ctx, false); !result.Success {
			return nil, fmt.Errorf("failed to fetch documentation")
		}
		idx, err = t.manager.LoadKeywordsIndex()
	}
	return idx, err
}

// truncate caps s at n characters.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
