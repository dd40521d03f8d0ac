package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/rfdocs/mcp-server/internal/fetch"
)

// stubFetcher serves canned bodies keyed by URL, writing them to the
// destination path like the real client does.
type stubFetcher struct {
	bodies map[string]string
	calls  []string
}

func (f *stubFetcher) Download(ctx context.Context, url, dest string) fetch.Result {
	f.calls = append(f.calls, url)
	body, ok := f.bodies[url]
	if !ok {
		return fetch.Result{URL: url, Error: "HTTP 404: Not Found"}
	}
	if err := os.MkdirAll(dirOf(dest), 0755); err != nil {
		return fetch.Result{URL: url, Error: err.Error()}
	}
	if err := os.WriteFile(dest, []byte(body), 0644); err != nil {
		return fetch.Result{URL: url, Error: err.Error()}
	}
	return fetch.Result{Success: true, URL: url, Path: dest, SizeBytes: int64(len(body))}
}

func dirOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "."
	}
	return path[:i]
}

const guideHTML = `<html><body>
<h1 id="getting-started">Getting Started</h1>
<p>Robot Framework basics.</p>
<h2 id="variables">Variables</h2>
<p>Variables are useful.</p>
</body></html>`

func libraryHTML(keywords ...string) string {
	entries := make([]string, 0, len(keywords))
	for i, name := range keywords {
		entries = append(entries, fmt.Sprintf(
			`{"name": %q, "args": [{"repr": "arg"}], "shortdoc": "doc", "source": "lib.py", "lineno": %d}`,
			name, i+1))
	}
	return fmt.Sprintf(`<script>libdoc = {"keywords": [%s]};</script>`, strings.Join(entries, ","))
}

func testManager(t *testing.T, fetcher Fetcher) *Manager {
	t.Helper()
	cfg := Config{CacheDir: t.TempDir(), LibraryDocsDir: "/nonexistent", OutputDir: "."}
	return NewManager(cfg, fetcher)
}

func fullBodies() map[string]string {
	bodies := map[string]string{UserGuideURL: guideHTML}
	for _, lib := range StandardLibraries {
		bodies[LibraryURL(lib)] = libraryHTML(lib+" Keyword One", lib+" Keyword Two")
	}
	return bodies
}

func TestRefreshFullCycle(t *testing.T) {
	fetcher := &stubFetcher{bodies: fullBodies()}
	m := testManager(t, fetcher)

	result := m.Refresh(context.Background(), false)

	if !result.Success {
		t.Fatalf("refresh failed: %+v", result)
	}
	if result.Version != Version {
		t.Errorf("Version = %q", result.Version)
	}
	if !result.Indexing.Success || result.Indexing.SectionsParsed != 2 {
		t.Errorf("Indexing = %+v, want 2 sections parsed", result.Indexing)
	}
	if len(result.FilesDownloaded) != 1+len(StandardLibraries) {
		t.Errorf("FilesDownloaded = %v", result.FilesDownloaded)
	}
	for _, lib := range StandardLibraries {
		libResult := result.Libraries[lib]
		if !libResult.Success || libResult.TotalKeywords != 2 {
			t.Errorf("library %s = %+v, want 2 keywords", lib, libResult)
		}
	}
	if result.KeywordsIndex == nil || !result.KeywordsIndex.Success {
		t.Fatalf("KeywordsIndex = %+v", result.KeywordsIndex)
	}
	if result.KeywordsIndex.TotalLibraries != len(StandardLibraries) {
		t.Errorf("TotalLibraries = %d", result.KeywordsIndex.TotalLibraries)
	}
	if result.KeywordsIndex.TotalKeywords != 2*len(StandardLibraries) {
		t.Errorf("TotalKeywords = %d", result.KeywordsIndex.TotalKeywords)
	}

	// Both snapshots must load back through validation.
	docs, err := m.LoadDocumentIndex()
	if err != nil {
		t.Fatalf("LoadDocumentIndex failed: %v", err)
	}
	if docs.TotalSections != 2 || docs.Sections[1].Title != "Variables" {
		t.Errorf("unexpected document snapshot: %+v", docs)
	}

	keywords, err := m.LoadKeywordsIndex()
	if err != nil {
		t.Fatalf("LoadKeywordsIndex failed: %v", err)
	}
	record, ok := keywords.Libraries["BuiltIn"]["BuiltIn Keyword One"]
	if !ok {
		t.Fatal("BuiltIn Keyword One missing from snapshot")
	}
	if record.Library != "BuiltIn" || record.Lineno != "1" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestRefreshLibraryFailureIsolated(t *testing.T) {
	bodies := fullBodies()
	bodies[LibraryURL("Collections")] = `<html>no marker here</html>`
	delete(bodies, LibraryURL("Telnet"))

	m := testManager(t, &stubFetcher{bodies: bodies})
	result := m.Refresh(context.Background(), false)

	if !result.Success {
		t.Fatal("a library failure must not fail the cycle")
	}
	if result.Libraries["Collections"].Success {
		t.Error("Collections should fail: payload has no marker")
	}
	if result.Libraries["Telnet"].Success {
		t.Error("Telnet should fail: download unavailable")
	}
	if !result.Libraries["BuiltIn"].Success {
		t.Error("BuiltIn should still succeed")
	}

	goodLibs := len(StandardLibraries) - 2
	if result.KeywordsIndex.TotalLibraries != goodLibs {
		t.Errorf("TotalLibraries = %d, want %d (failed libraries excluded)",
			result.KeywordsIndex.TotalLibraries, goodLibs)
	}
	if result.KeywordsIndex.TotalKeywords != 2*goodLibs {
		t.Errorf("TotalKeywords = %d, want %d", result.KeywordsIndex.TotalKeywords, 2*goodLibs)
	}

	keywords, err := m.LoadKeywordsIndex()
	if err != nil {
		t.Fatalf("LoadKeywordsIndex failed: %v", err)
	}
	if _, ok := keywords.Libraries["Collections"]; ok {
		t.Error("failed library must not appear in snapshot")
	}
}

func TestRefreshUserGuideFailure(t *testing.T) {
	bodies := fullBodies()
	delete(bodies, UserGuideURL)

	m := testManager(t, &stubFetcher{bodies: bodies})
	result := m.Refresh(context.Background(), false)

	if result.Success {
		t.Fatal("overall success must track the user guide")
	}
	if result.Indexing.Success {
		t.Error("indexing cannot succeed without the guide")
	}
	// Libraries are independent of the guide outcome.
	if !result.Libraries["BuiltIn"].Success {
		t.Error("library indexing should proceed despite guide failure")
	}
}

func TestRefreshReusesCachedFiles(t *testing.T) {
	fetcher := &stubFetcher{bodies: fullBodies()}
	m := testManager(t, fetcher)

	if result := m.Refresh(context.Background(), false); !result.Success {
		t.Fatalf("first refresh failed: %+v", result)
	}
	firstCalls := len(fetcher.calls)

	result := m.Refresh(context.Background(), false)
	if !result.Success {
		t.Fatalf("second refresh failed: %+v", result)
	}
	if len(fetcher.calls) != firstCalls {
		t.Errorf("second refresh re-downloaded: %d calls, want %d", len(fetcher.calls), firstCalls)
	}
	if !result.UserGuide.Cached {
		t.Error("user guide should be reported as cached")
	}
	if len(result.FilesDownloaded) != 0 {
		t.Errorf("FilesDownloaded = %v, want none", result.FilesDownloaded)
	}
	// The snapshots are still rebuilt from the cached sources.
	if !result.Indexing.Success || result.Indexing.SectionsParsed != 2 {
		t.Errorf("Indexing = %+v", result.Indexing)
	}
}

func TestRefreshForceRedownloads(t *testing.T) {
	fetcher := &stubFetcher{bodies: fullBodies()}
	m := testManager(t, fetcher)

	m.Refresh(context.Background(), false)
	firstCalls := len(fetcher.calls)

	result := m.Refresh(context.Background(), true)
	if !result.Success {
		t.Fatalf("forced refresh failed: %+v", result)
	}
	if len(fetcher.calls) != 2*firstCalls {
		t.Errorf("force should re-download everything: %d calls after, %d before",
			len(fetcher.calls), firstCalls)
	}
}

func TestLoadDocumentIndexNotBuilt(t *testing.T) {
	m := testManager(t, &stubFetcher{})
	_, err := m.LoadDocumentIndex()
	if !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("expected ErrNotBuilt, got %v", err)
	}
}

func TestLoadKeywordsIndexNotBuilt(t *testing.T) {
	m := testManager(t, &stubFetcher{})
	_, err := m.LoadKeywordsIndex()
	if !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("expected ErrNotBuilt, got %v", err)
	}
}

func TestLoadDocumentIndexCorrupt(t *testing.T) {
	m := testManager(t, &stubFetcher{})
	if err := os.WriteFile(m.DocsIndexPath(), []byte(`{"version": 7}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := m.LoadDocumentIndex()
	if err == nil {
		t.Fatal("expected validation error for corrupt snapshot")
	}
	if errors.Is(err, ErrNotBuilt) {
		t.Error("corrupt snapshot must be distinct from a missing one")
	}
	if !strings.Contains(err.Error(), "schema validation") {
		t.Errorf("error = %v, want schema validation failure", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("RF_DOCS_CACHE", "/custom/cache")
	t.Setenv("RF_LIBRARY_DOCS", "/custom/docs")
	t.Setenv("RF_OUTPUT_DIR", "/custom/out")

	cfg := ConfigFromEnv()
	if cfg.CacheDir != "/custom/cache" || cfg.LibraryDocsDir != "/custom/docs" || cfg.OutputDir != "/custom/out" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("RF_DOCS_CACHE", "")
	t.Setenv("RF_LIBRARY_DOCS", "")
	t.Setenv("RF_OUTPUT_DIR", "")

	cfg := ConfigFromEnv()
	if cfg.CacheDir != "/tmp/rf_docs_cache" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.LibraryDocsDir != "/app/docs" {
		t.Errorf("LibraryDocsDir = %q", cfg.LibraryDocsDir)
	}
	if cfg.OutputDir != "." {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
}

func TestLibraryURL(t *testing.T) {
	want := "https://robotframework.org/robotframework/" + Version + "/libraries/BuiltIn.html"
	if got := LibraryURL("BuiltIn"); got != want {
		t.Errorf("LibraryURL = %q, want %q", got, want)
	}
}

func TestIsStandardLibrary(t *testing.T) {
	if !IsStandardLibrary("BuiltIn") {
		t.Error("BuiltIn should be standard")
	}
	if IsStandardLibrary("SeleniumLibrary") {
		t.Error("SeleniumLibrary is not standard")
	}
}
