package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rfdocs/mcp-server/internal/fetch"
	"github.com/rfdocs/mcp-server/internal/index"
)

// stubFetcher writes canned bodies to the destination path, standing in for
// the HTTP client in handler tests.
type stubFetcher struct {
	bodies map[string]string
}

func (f *stubFetcher) Download(ctx context.Context, url, dest string) fetch.Result {
	body, ok := f.bodies[url]
	if !ok {
		return fetch.Result{URL: url, Error: "HTTP 404: Not Found"}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fetch.Result{URL: url, Error: err.Error()}
	}
	if err := os.WriteFile(dest, []byte(body), 0644); err != nil {
		return fetch.Result{URL: url, Error: err.Error()}
	}
	return fetch.Result{Success: true, URL: url, Path: dest, SizeBytes: int64(len(body))}
}

const testGuideHTML = `<html><body>
<h1 id="getting-started">Getting Started</h1>
<p>Robot Framework basics and variables.</p>
<h2 id="variables">Variables</h2>
<p>Variables are powerful. Variables everywhere.</p>
</body></html>`

func testLibraryHTML(keywords ...string) string {
	entries := make([]string, 0, len(keywords))
	for i, name := range keywords {
		entries = append(entries, fmt.Sprintf(
			`{"name": %q, "args": [{"repr": "arg"}], "shortdoc": "Does something with %s.", "source": "lib.py", "lineno": %d}`,
			name, name, i+1))
	}
	return fmt.Sprintf(`<script>libdoc = {"keywords": [%s]};</script>`, strings.Join(entries, ","))
}

// newTestToolset builds a Toolset over a temp cache and a stub fetcher
// serving the full documentation set.
func newTestToolset(t *testing.T) *Toolset {
	t.Helper()

	bodies := map[string]string{index.UserGuideURL: testGuideHTML}
	for _, lib := range index.StandardLibraries {
		bodies[index.LibraryURL(lib)] = testLibraryHTML(lib+" First Keyword", lib+" Second Keyword")
	}
	bodies[index.LibraryURL("BuiltIn")] = testLibraryHTML("Log", "Get Length", "Run Keyword")

	cfg := index.Config{
		CacheDir:       t.TempDir(),
		LibraryDocsDir: filepath.Join(t.TempDir(), "docs"),
		OutputDir:      t.TempDir(),
	}
	return &Toolset{
		cfg:     cfg,
		manager: index.NewManager(cfg, &stubFetcher{bodies: bodies}),
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Errorf("truncate long = %q", got)
	}
	if got := truncate("héllo wörld", 5); got != "héllo" {
		t.Errorf("truncate must count runes: %q", got)
	}
}

func TestEnsureKeywordsIndexBuildsOnDemand(t *testing.T) {
	ts := newTestToolset(t)

	idx, err := ts.ensureKeywordsIndex(context.Background())
	if err != nil {
		t.Fatalf("ensureKeywordsIndex failed: %v", err)
	}
	if _, ok := idx.Libraries["BuiltIn"]["Log"]; !ok {
		t.Error("expected Log in BuiltIn after on-demand build")
	}

	// Second call loads the existing snapshot.
	again, err := ts.ensureKeywordsIndex(context.Background())
	if err != nil {
		t.Fatalf("second ensureKeywordsIndex failed: %v", err)
	}
	if again.TotalKeywords != idx.TotalKeywords {
		t.Errorf("snapshot changed between calls: %d vs %d", again.TotalKeywords, idx.TotalKeywords)
	}
}

func TestEnsureKeywordsIndexFetchFailure(t *testing.T) {
	cfg := index.Config{CacheDir: t.TempDir()}
	ts := &Toolset{
		cfg:     cfg,
		manager: index.NewManager(cfg, &stubFetcher{bodies: nil}),
	}

	_, err := ts.ensureKeywordsIndex(context.Background())
	if err == nil {
		t.Fatal("expected error when the fetch cycle fails")
	}
}
