package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHumanSize(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{512, "0.5 KB"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, c := range cases {
		if got := humanSize(c.size); got != c.want {
			t.Errorf("humanSize(%d) = %q, want %q", c.size, got, c.want)
		}
	}
}

func TestLibraryStem(t *testing.T) {
	cases := []struct {
		file string
		want string
	}{
		{"Browser.json", "Browser"},
		{"Robocop_help.txt", "Robocop"},
		{"RequestsLibrary.html", "RequestsLibrary"},
		{"_hidden.json", "_hidden"},
	}
	for _, c := range cases {
		if got := libraryStem(c.file); got != c.want {
			t.Errorf("libraryStem(%q) = %q, want %q", c.file, got, c.want)
		}
	}
}

func writeInstalledDocs(t *testing.T, ts *Toolset, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(ts.cfg.LibraryDocsDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(ts.cfg.LibraryDocsDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListInstalledLibraryDocs(t *testing.T) {
	ts := newTestToolset(t)
	writeInstalledDocs(t, ts, map[string]string{
		"Browser.json":     `{"keywords": []}`,
		"Browser.html":     `<html></html>`,
		"Robocop_help.txt": "usage",
	})

	_, output, err := ts.ListInstalledLibraryDocs(context.Background(), nil, ListInstalledDocsInput{})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !output.Success || output.TotalFiles != 3 {
		t.Fatalf("output = %+v", output)
	}
	if len(output.AvailableLibraries) != 2 ||
		output.AvailableLibraries[0] != "Browser" || output.AvailableLibraries[1] != "Robocop" {
		t.Errorf("AvailableLibraries = %v", output.AvailableLibraries)
	}
	for _, lib := range output.Libraries {
		if lib.Library == "Browser" && len(lib.Formats) != 2 {
			t.Errorf("Browser formats = %v", lib.Formats)
		}
	}
}

func TestListInstalledLibraryDocsMissingDir(t *testing.T) {
	ts := newTestToolset(t)

	_, output, _ := ts.ListInstalledLibraryDocs(context.Background(), nil, ListInstalledDocsInput{})
	if output.Success {
		t.Fatal("missing directory must fail")
	}
	if !strings.Contains(output.Error, "Documentation directory not found") {
		t.Errorf("Error = %q", output.Error)
	}
	if !strings.Contains(output.Hint, "run_libdoc") {
		t.Errorf("Hint = %q", output.Hint)
	}
}

func TestGetInstalledLibraryDocsJSON(t *testing.T) {
	ts := newTestToolset(t)
	writeInstalledDocs(t, ts, map[string]string{
		"Browser.json": `{
			"version": "18.0.0",
			"scope": "GLOBAL",
			"doc": "Browser automation library.",
			"keywords": [
				{"name": "New Page"},
				{"name": "Click"}
			]
		}`,
	})

	_, output, err := ts.GetInstalledLibraryDocs(context.Background(), nil, InstalledDocsInput{LibraryName: "Browser"})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !output.Success {
		t.Fatalf("output = %+v", output)
	}
	if output.Format != "json" {
		t.Errorf("Format = %q, want json default", output.Format)
	}
	if output.Metadata == nil || output.Metadata.Version != "18.0.0" || output.Metadata.KeywordsCount != 2 {
		t.Errorf("Metadata = %+v", output.Metadata)
	}
	if output.Documentation != "Browser automation library." {
		t.Errorf("Documentation = %q", output.Documentation)
	}
	if len(output.Keywords) != 2 {
		t.Errorf("Keywords = %v", output.Keywords)
	}
}

func TestGetInstalledLibraryDocsTextFormat(t *testing.T) {
	ts := newTestToolset(t)
	writeInstalledDocs(t, ts, map[string]string{
		"Robocop_help.txt": strings.Repeat("x", 6000),
	})

	_, output, _ := ts.GetInstalledLibraryDocs(context.Background(), nil, InstalledDocsInput{
		LibraryName: "Robocop",
		Format:      "txt",
	})
	if !output.Success {
		t.Fatalf("output = %+v", output)
	}
	if !output.Metadata.Truncated {
		t.Error("long content should be marked truncated")
	}
	if !strings.HasSuffix(output.Content, "... (truncated)") {
		t.Errorf("content suffix = %q", output.Content[len(output.Content)-30:])
	}
}

func TestGetInstalledLibraryDocsNotFound(t *testing.T) {
	ts := newTestToolset(t)
	writeInstalledDocs(t, ts, map[string]string{
		"Browser.html": "<html></html>",
	})

	_, output, _ := ts.GetInstalledLibraryDocs(context.Background(), nil, InstalledDocsInput{
		LibraryName: "Browser",
		Format:      "json",
	})
	if output.Success {
		t.Fatal("missing format must fail")
	}
	if !strings.Contains(output.Error, "Browser.json") {
		t.Errorf("Error = %q", output.Error)
	}
	if len(output.AvailableFormats) != 1 || output.AvailableFormats[0] != "Browser.html" {
		t.Errorf("AvailableFormats = %v", output.AvailableFormats)
	}
}
