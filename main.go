package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rfdocs/mcp-server/internal/index"
	"github.com/rfdocs/mcp-server/tools"
)

const (
	version     = "1.0.0"
	serverName  = "rf-docs-mcp-server"
	description = "MCP server for Robot Framework documentation and tooling"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s (Robot Framework %s)\n", serverName, version, index.Version)
		os.Exit(0)
	}

	// Set up logging to stderr (MCP uses stdout for protocol)
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)

	cfg := index.ConfigFromEnv()
	log.Printf("Cache directory: %s", cfg.CacheDir)
	log.Printf("Installed library docs: %s", cfg.LibraryDocsDir)

	// Create MCP server
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil, // Default options
	)

	toolset := tools.NewToolset(cfg)
	toolset.Register(server)

	log.Printf("✓ Server ready and waiting for connections")

	// Run server with stdio transport
	ctx := context.Background()
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
