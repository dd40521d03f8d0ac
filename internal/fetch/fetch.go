// Package fetch downloads documentation files over HTTP. It is the external
// I/O collaborator of the documentation index: given a URL and a destination
// path it performs one blocking GET with a bounded timeout and writes the
// response bytes verbatim, reporting the outcome as a structured result
// rather than an error so callers can embed it directly in tool output.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// userAgent avoids 403 responses from the documentation host.
const userAgent = "Mozilla/5.0 (compatible; RF-MCP-Docs/1.0)"

// DefaultTimeout bounds one download.
const DefaultTimeout = 30 * time.Second

// Result describes one download attempt.
type Result struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	Path      string `json:"path,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Client downloads files with a fixed per-call timeout.
type Client struct {
	http *http.Client
}

// NewClient creates a Client. A zero timeout falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Download performs a blocking GET and writes the body to dest, creating
// parent directories as needed. Failures are reported in the Result; no
// error crosses this boundary.
func (c *Client) Download(ctx context.Context, url, dest string) Result {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return Result{URL: url, Error: fmt.Sprintf("failed to create destination directory: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{URL: url, Error: fmt.Sprintf("invalid request: %v", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{URL: url, Error: fmt.Sprintf("download failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{URL: url, Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
	}

	file, err := os.Create(dest)
	if err != nil {
		return Result{URL: url, Error: fmt.Sprintf("failed to create file: %v", err)}
	}
	defer file.Close()

	size, err := io.Copy(file, resp.Body)
	if err != nil {
		return Result{URL: url, Error: fmt.Sprintf("failed to write file: %v", err)}
	}

	return Result{Success: true, URL: url, Path: dest, SizeBytes: size}
}
