package index

import "os"

// Defaults for the recognized configuration options. Each can be overridden
// through the environment when the config is built in main.
const (
	defaultCacheDir       = "/tmp/rf_docs_cache"
	defaultLibraryDocsDir = "/app/docs"
	defaultOutputDir      = "."
)

// Config carries the process-wide paths the components need. It is built
// once at startup and passed into each component at construction; nothing in
// this module reads the environment after that.
type Config struct {
	// CacheDir holds downloaded HTML documents and the two snapshot files.
	CacheDir string

	// LibraryDocsDir holds documentation files for locally installed
	// libraries, generated outside this process.
	LibraryDocsDir string

	// OutputDir is the default destination for files produced by the
	// wrapped CLI tools.
	OutputDir string
}

// ConfigFromEnv builds a Config from RF_DOCS_CACHE, RF_LIBRARY_DOCS and
// RF_OUTPUT_DIR, falling back to the defaults for unset variables.
func ConfigFromEnv() Config {
	return Config{
		CacheDir:       envOr("RF_DOCS_CACHE", defaultCacheDir),
		LibraryDocsDir: envOr("RF_LIBRARY_DOCS", defaultLibraryDocsDir),
		OutputDir:      envOr("RF_OUTPUT_DIR", defaultOutputDir),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
