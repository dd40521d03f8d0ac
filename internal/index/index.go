// Package index owns the two persisted documentation snapshots: the section
// index built from the user guide and the cross-library keywords index built
// from the libdoc pages. It orchestrates fetch-or-reuse of the cached raw
// documents, runs the parsers, and replaces the snapshots wholesale; the
// search and lookup components only ever read them.
package index

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rfdocs/mcp-server/internal/docparse"
	"github.com/rfdocs/mcp-server/internal/fetch"
	"github.com/rfdocs/mcp-server/internal/libdoc"
)

// Version is the Robot Framework release this server documents.
const Version = "7.4.1"

// UserGuideURL is the canonical location of the user guide HTML.
const UserGuideURL = "https://robotframework.org/robotframework/" + Version + "/RobotFrameworkUserGuide.html"

// LibraryBaseURL is the directory holding the standard library libdoc pages.
const LibraryBaseURL = "https://robotframework.org/robotframework/" + Version + "/libraries"

// StandardLibraries lists the libraries whose keywords get indexed.
var StandardLibraries = []string{
	"BuiltIn",
	"Collections",
	"DateTime",
	"OperatingSystem",
	"Process",
	"Screenshot",
	"String",
	"Telnet",
	"XML",
}

// LibraryURL returns the libdoc page URL for a standard library.
func LibraryURL(name string) string {
	return fmt.Sprintf("%s/%s.html", LibraryBaseURL, name)
}

// IsStandardLibrary reports whether name is one of the indexed libraries.
func IsStandardLibrary(name string) bool {
	for _, lib := range StandardLibraries {
		if lib == name {
			return true
		}
	}
	return false
}

// DocumentIndex is the persisted section snapshot.
type DocumentIndex struct {
	Version       string             `json:"version"`
	ParsedAt      string             `json:"parsed_at"`
	TotalSections int                `json:"total_sections"`
	Sections      []docparse.Section `json:"sections"`
}

// KeywordsIndex is the persisted cross-library keyword snapshot. The nested
// maps are the LibraryKeywordSet: library name -> keyword name -> record.
type KeywordsIndex struct {
	Version        string                                  `json:"version"`
	ParsedAt       string                                  `json:"parsed_at"`
	TotalLibraries int                                     `json:"total_libraries"`
	TotalKeywords  int                                     `json:"total_keywords"`
	Libraries      map[string]map[string]libdoc.KeywordRecord `json:"libraries"`
}

// Fetcher is the external download collaborator.
type Fetcher interface {
	Download(ctx context.Context, url, dest string) fetch.Result
}

// Manager owns the snapshots and runs refresh cycles.
type Manager struct {
	cfg     Config
	fetcher Fetcher
}

// NewManager creates a Manager over the given cache configuration.
func NewManager(cfg Config, fetcher Fetcher) *Manager {
	return &Manager{cfg: cfg, fetcher: fetcher}
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() Config { return m.cfg }

// UserGuidePath is the cached location of the user guide HTML.
func (m *Manager) UserGuidePath() string {
	return filepath.Join(m.cfg.CacheDir, fmt.Sprintf("RobotFrameworkUserGuide_%s.html", Version))
}

// LibraryPath is the cached location of one library's libdoc HTML.
func (m *Manager) LibraryPath(name string) string {
	return filepath.Join(m.cfg.CacheDir, fmt.Sprintf("%s_%s.html", name, Version))
}

// DocsIndexPath is the on-disk location of the section snapshot.
func (m *Manager) DocsIndexPath() string {
	return filepath.Join(m.cfg.CacheDir, fmt.Sprintf("docs_index_%s.json", Version))
}

// KeywordsIndexPath is the on-disk location of the keywords snapshot.
func (m *Manager) KeywordsIndexPath() string {
	return filepath.Join(m.cfg.CacheDir, fmt.Sprintf("all_keywords_%s.json", Version))
}

// IndexingResult reports the section-index stage of a refresh.
type IndexingResult struct {
	Success        bool   `json:"success"`
	SectionsParsed int    `json:"sections_parsed,omitempty"`
	IndexPath      string `json:"index_path,omitempty"`
	Error          string `json:"error,omitempty"`
}

// LibraryResult reports one library's outcome within a refresh cycle.
type LibraryResult struct {
	Success       bool   `json:"success"`
	TotalKeywords int    `json:"total_keywords"`
	Error         string `json:"error,omitempty"`
}

// KeywordsSummary reports the keywords-snapshot stage of a refresh.
type KeywordsSummary struct {
	Success        bool   `json:"success"`
	Path           string `json:"path,omitempty"`
	TotalLibraries int    `json:"total_libraries"`
	TotalKeywords  int    `json:"total_keywords"`
	Error          string `json:"error,omitempty"`
}

// RefreshResult is the full report of one refresh cycle.
type RefreshResult struct {
	Success         bool                     `json:"success"`
	Version         string                   `json:"version"`
	CacheLocation   string                   `json:"cache_location"`
	FilesDownloaded []string                 `json:"files_downloaded"`
	UserGuide       fetch.Result             `json:"user_guide"`
	Indexing        IndexingResult           `json:"indexing"`
	Libraries       map[string]LibraryResult `json:"libraries"`
	KeywordsIndex   *KeywordsSummary         `json:"keywords_index,omitempty"`
}

// Refresh runs one full fetch/parse/index cycle. Downloads are skipped for
// files already present unless force is set; parsing and indexing always run
// against whatever source files exist. A failing library is recorded and
// excluded from the aggregate without aborting the cycle; overall success
// tracks the user guide only.
func (m *Manager) Refresh(ctx context.Context, force bool) RefreshResult {
	start := time.Now()
	result := RefreshResult{
		Version:         Version,
		CacheLocation:   m.cfg.CacheDir,
		FilesDownloaded: []string{},
		Libraries:       make(map[string]LibraryResult, len(StandardLibraries)),
	}

	// User guide: fetch-or-reuse, then always reparse if present.
	guidePath := m.UserGuidePath()
	if force || !fileExists(guidePath) {
		log.Printf("Downloading user guide from %s", UserGuideURL)
		dl := m.fetcher.Download(ctx, UserGuideURL, guidePath)
		result.UserGuide = dl
		if dl.Success {
			result.FilesDownloaded = append(result.FilesDownloaded, filepath.Base(guidePath))
		}
	} else {
		result.UserGuide = fetch.Result{Success: true, Cached: true, URL: UserGuideURL, Path: guidePath}
	}

	if fileExists(guidePath) {
		result.Indexing = m.rebuildDocumentIndex()
	} else {
		result.Indexing = IndexingResult{Error: "user guide not downloaded"}
	}

	// Standard libraries: each one is isolated; a failure is terminal for
	// that library only.
	allKeywords := make(map[string]map[string]libdoc.KeywordRecord)
	totalKeywords := 0

	for _, lib := range StandardLibraries {
		libPath := m.LibraryPath(lib)
		if force || !fileExists(libPath) {
			dl := m.fetcher.Download(ctx, LibraryURL(lib), libPath)
			if dl.Success {
				result.FilesDownloaded = append(result.FilesDownloaded, lib+".html")
			} else if !fileExists(libPath) {
				result.Libraries[lib] = LibraryResult{Error: dl.Error}
				continue
			}
		}

		keywords, err := m.ParseLibrary(lib)
		if err != nil {
			result.Libraries[lib] = LibraryResult{Error: err.Error()}
			continue
		}

		result.Libraries[lib] = LibraryResult{Success: true, TotalKeywords: len(keywords)}
		allKeywords[lib] = keywords
		totalKeywords += len(keywords)
	}

	// Keywords snapshot: rebuilt in full from the successful libraries.
	if len(allKeywords) > 0 {
		snapshot := &KeywordsIndex{
			Version:        Version,
			ParsedAt:       time.Now().Format(time.RFC3339),
			TotalLibraries: len(allKeywords),
			TotalKeywords:  totalKeywords,
			Libraries:      allKeywords,
		}
		if err := writeSnapshot(m.KeywordsIndexPath(), snapshot); err != nil {
			result.KeywordsIndex = &KeywordsSummary{Error: err.Error()}
		} else {
			result.KeywordsIndex = &KeywordsSummary{
				Success:        true,
				Path:           m.KeywordsIndexPath(),
				TotalLibraries: len(allKeywords),
				TotalKeywords:  totalKeywords,
			}
		}
	}

	result.Success = result.UserGuide.Success
	log.Printf("Refresh completed in %v (%d files downloaded, %d keywords indexed)",
		time.Since(start).Round(time.Millisecond), len(result.FilesDownloaded), totalKeywords)
	return result
}

// rebuildDocumentIndex parses the cached user guide and replaces the section
// snapshot.
func (m *Manager) rebuildDocumentIndex() IndexingResult {
	snapshot, err := m.ParseUserGuide()
	if err != nil {
		return IndexingResult{Error: err.Error()}
	}
	if err := writeSnapshot(m.DocsIndexPath(), snapshot); err != nil {
		return IndexingResult{Error: err.Error()}
	}
	log.Printf("Indexed %d sections from user guide", snapshot.TotalSections)
	return IndexingResult{
		Success:        true,
		SectionsParsed: snapshot.TotalSections,
		IndexPath:      m.DocsIndexPath(),
	}
}

// ParseUserGuide parses the cached user guide HTML into a fresh section
// snapshot. It does not persist the result.
func (m *Manager) ParseUserGuide() (*DocumentIndex, error) {
	file, err := os.Open(m.UserGuidePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotBuilt
		}
		return nil, fmt.Errorf("failed to open user guide: %w", err)
	}
	defer file.Close()

	sections, err := docparse.ParseSections(file)
	if err != nil {
		return nil, fmt.Errorf("parsing error: %w", err)
	}

	return &DocumentIndex{
		Version:       Version,
		ParsedAt:      time.Now().Format(time.RFC3339),
		TotalSections: len(sections),
		Sections:      sections,
	}, nil
}

// ParseLibrary extracts and normalizes the keyword records from one cached
// libdoc page.
func (m *Manager) ParseLibrary(name string) (map[string]libdoc.KeywordRecord, error) {
	data, err := os.ReadFile(m.LibraryPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s documentation not downloaded", name)
		}
		return nil, fmt.Errorf("failed to read %s documentation: %w", name, err)
	}

	payload, err := libdoc.ExtractObject(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	keywords, err := libdoc.ParseKeywords([]byte(payload), name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return keywords, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
