// Command indexer rebuilds the documentation snapshots from an existing
// cache directory without touching the network. Useful after a parser change
// when the raw HTML files are already downloaded.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rfdocs/mcp-server/internal/fetch"
	"github.com/rfdocs/mcp-server/internal/index"
)

// offlineFetcher refuses every download so Refresh only reuses files
// already present in the cache.
type offlineFetcher struct{}

func (offlineFetcher) Download(ctx context.Context, url, dest string) fetch.Result {
	return fetch.Result{URL: url, Error: "offline: file not present in cache"}
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <cache-dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s /tmp/rf_docs_cache\n", os.Args[0])
		os.Exit(1)
	}

	cfg := index.ConfigFromEnv()
	cfg.CacheDir = os.Args[1]

	log.Printf("Robot Framework Documentation Indexer (RF %s)", index.Version)
	log.Printf("Rebuilding snapshots from %s", cfg.CacheDir)

	manager := index.NewManager(cfg, offlineFetcher{})
	result := manager.Refresh(context.Background(), false)

	if !result.Indexing.Success {
		log.Fatalf("Failed to rebuild section index: %s", result.Indexing.Error)
	}
	log.Printf("✓ Section index: %d sections -> %s", result.Indexing.SectionsParsed, result.Indexing.IndexPath)

	for _, lib := range index.StandardLibraries {
		libResult := result.Libraries[lib]
		if libResult.Success {
			log.Printf("  %-16s %d keywords", lib, libResult.TotalKeywords)
		} else {
			log.Printf("  %-16s FAILED: %s", lib, libResult.Error)
		}
	}

	if result.KeywordsIndex == nil || !result.KeywordsIndex.Success {
		log.Fatalf("Failed to rebuild keywords index")
	}
	log.Printf("✓ Keywords index: %d keywords from %d libraries -> %s",
		result.KeywordsIndex.TotalKeywords, result.KeywordsIndex.TotalLibraries, result.KeywordsIndex.Path)
}
