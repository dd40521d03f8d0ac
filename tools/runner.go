package tools

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rfdocs/mcp-server/internal/index"
)

// Timeouts per wrapped tool. Rebot can merge large result sets and gets the
// long bound; the documentation generators finish quickly.
const (
	rebotTimeout   = 300 * time.Second
	libdocTimeout  = 60 * time.Second
	testdocTimeout = 60 * time.Second
	tidyTimeout    = 60 * time.Second
)

// commandResult captures one completed subprocess run.
type commandResult struct {
	stdout   string
	stderr   string
	exitCode int
}

// runTool executes an external Robot Framework binary with a bounded
// timeout. A missing binary and an expired timeout produce distinct errors;
// a nonzero exit is not an error here, it is reported through exitCode.
func runTool(ctx context.Context, timeout time.Duration, name string, args []string) (commandResult, error) {
	if _, err := exec.LookPath(name); err != nil {
		return commandResult{}, fmt.Errorf("%s command not found. Ensure Robot Framework %s is installed.", name, index.Version)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return commandResult{}, fmt.Errorf("%s command timed out after %d seconds", name, int(timeout.Seconds()))
	}

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return commandResult{}, fmt.Errorf("failed to run %s: %v", name, err)
		}
		exitCode = exitErr.ExitCode()
	}

	return commandResult{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		exitCode: exitCode,
	}, nil
}

// commandLine renders the executed command for the output report.
func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// RunRebotInput defines input for run_rebot.
type RunRebotInput struct {
	OutputFiles []string `json:"output_files" jsonschema:"List of output.xml file paths to process"`
	OutputDir   string   `json:"output_dir,omitempty" jsonschema:"Directory for generated files (optional)"`
	Name        string   `json:"name,omitempty" jsonschema:"Custom name for the test suite/report (optional)"`
	Merge       bool     `json:"merge,omitempty" jsonschema:"Merge multiple output files (optional, defaults to false)"`
	Options     string   `json:"options,omitempty" jsonschema:"Additional rebot options as a string (optional)"`
}

// RunRebotOutput defines output for run_rebot.
type RunRebotOutput struct {
	Success     bool     `json:"success"`
	Version     string   `json:"version,omitempty"`
	Command     string   `json:"command,omitempty"`
	ReturnCode  int      `json:"return_code"`
	Stdout      string   `json:"stdout,omitempty"`
	Stderr      string   `json:"stderr,omitempty"`
	OutputFiles []string `json:"output_files,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func buildRebotArgs(input RunRebotInput, defaultOutputDir string) []string {
	var args []string
	outputDir := input.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}
	if outputDir != "" {
		args = append(args, "--outputdir", outputDir)
	}
	if input.Name != "" {
		args = append(args, "--name", input.Name)
	}
	if input.Merge {
		args = append(args, "--merge")
	}
	if input.Options != "" {
		args = append(args, strings.Fields(input.Options)...)
	}
	return append(args, input.OutputFiles...)
}

// RunRebot reprocesses Robot Framework output files with the rebot tool.
func (t *Toolset) RunRebot(ctx context.Context, req *mcp.CallToolRequest, input RunRebotInput) (*mcp.CallToolResult, RunRebotOutput, error) {
	if len(input.OutputFiles) == 0 {
		return nil, RunRebotOutput{Error: "No output files specified"}, nil
	}

	args := buildRebotArgs(input, t.cfg.OutputDir)
	run, err := runTool(ctx, rebotTimeout, "rebot", args)
	if err != nil {
		return nil, RunRebotOutput{Error: err.Error()}, nil
	}

	outputDir := input.OutputDir
	if outputDir == "" {
		outputDir = t.cfg.OutputDir
	}
	var generated []string
	for _, name := range []string{"output.xml", "log.html", "report.html"} {
		path := filepath.Join(outputDir, name)
		if _, err := os.Stat(path); err == nil {
			generated = append(generated, path)
		}
	}

	return nil, RunRebotOutput{
		Success:     run.exitCode == 0,
		Version:     index.Version,
		Command:     commandLine("rebot", args),
		ReturnCode:  run.exitCode,
		Stdout:      run.stdout,
		Stderr:      run.stderr,
		OutputFiles: generated,
	}, nil
}

// RunLibdocInput defines input for run_libdoc.
type RunLibdocInput struct {
	LibraryOrResource string `json:"library_or_resource" jsonschema:"Library name or path to a library/resource file"`
	OutputFile        string `json:"output_file" jsonschema:"Output file path for the generated documentation"`
	Format            string `json:"format,omitempty" jsonschema:"Output format: html, xml, json or libspec (optional, defaults to html)"`
	Name              string `json:"name,omitempty" jsonschema:"Custom name for the documented library (optional)"`
	Version           string `json:"version,omitempty" jsonschema:"Custom version for the documented library (optional)"`
	Options           string `json:"options,omitempty" jsonschema:"Additional libdoc options as a string (optional)"`
}

// RunLibdocOutput defines output for run_libdoc.
type RunLibdocOutput struct {
	Success    bool   `json:"success"`
	Version    string `json:"version,omitempty"`
	Command    string `json:"command,omitempty"`
	ReturnCode int    `json:"return_code"`
	OutputFile string `json:"output_file,omitempty"`
	FileSize   int64  `json:"file_size"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	Error      string `json:"error,omitempty"`
}

func buildLibdocArgs(input RunLibdocInput) []string {
	var args []string
	if input.Name != "" {
		args = append(args, "--name", input.Name)
	}
	if input.Version != "" {
		args = append(args, "--version", input.Version)
	}
	format := input.Format
	if format == "" {
		format = "html"
	}
	args = append(args, "--format", format)
	if input.Options != "" {
		args = append(args, strings.Fields(input.Options)...)
	}
	return append(args, input.LibraryOrResource, input.OutputFile)
}

// RunLibdoc generates keyword documentation with the libdoc tool.
func (t *Toolset) RunLibdoc(ctx context.Context, req *mcp.CallToolRequest, input RunLibdocInput) (*mcp.CallToolResult, RunLibdocOutput, error) {
	if input.LibraryOrResource == "" {
		return nil, RunLibdocOutput{Error: "No library or resource specified"}, nil
	}

	args := buildLibdocArgs(input)
	run, err := runTool(ctx, libdocTimeout, "libdoc", args)
	if err != nil {
		return nil, RunLibdocOutput{Error: err.Error()}, nil
	}

	output := RunLibdocOutput{
		Version:    index.Version,
		Command:    commandLine("libdoc", args),
		ReturnCode: run.exitCode,
		Stdout:     run.stdout,
		Stderr:     run.stderr,
	}
	if info, err := os.Stat(input.OutputFile); err == nil {
		output.OutputFile = input.OutputFile
		output.FileSize = info.Size()
		output.Success = run.exitCode == 0
	}
	return nil, output, nil
}

// RunTestdocInput defines input for run_testdoc.
type RunTestdocInput struct {
	InputFile  string `json:"input_file" jsonschema:"Path to a test file, suite directory or output.xml"`
	OutputFile string `json:"output_file" jsonschema:"Output HTML file path"`
	Title      string `json:"title,omitempty" jsonschema:"Custom title for the documentation (optional)"`
	Name       string `json:"name,omitempty" jsonschema:"Override suite name (optional)"`
	Doc        string `json:"doc,omitempty" jsonschema:"Override suite documentation (optional)"`
	Options    string `json:"options,omitempty" jsonschema:"Additional testdoc options as a string (optional)"`
}

// RunTestdocOutput defines output for run_testdoc.
type RunTestdocOutput struct {
	Success    bool   `json:"success"`
	Version    string `json:"version,omitempty"`
	Command    string `json:"command,omitempty"`
	ReturnCode int    `json:"return_code"`
	OutputFile string `json:"output_file,omitempty"`
	FileSize   int64  `json:"file_size"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	Error      string `json:"error,omitempty"`
}

func buildTestdocArgs(input RunTestdocInput) []string {
	var args []string
	if input.Title != "" {
		args = append(args, "--title", input.Title)
	}
	if input.Name != "" {
		args = append(args, "--name", input.Name)
	}
	if input.Doc != "" {
		args = append(args, "--doc", input.Doc)
	}
	if input.Options != "" {
		args = append(args, strings.Fields(input.Options)...)
	}
	return append(args, input.InputFile, input.OutputFile)
}

// RunTestdoc generates test case documentation with the testdoc tool.
func (t *Toolset) RunTestdoc(ctx context.Context, req *mcp.CallToolRequest, input RunTestdocInput) (*mcp.CallToolResult, RunTestdocOutput, error) {
	if input.InputFile == "" {
		return nil, RunTestdocOutput{Error: "No input file specified"}, nil
	}

	args := buildTestdocArgs(input)
	run, err := runTool(ctx, testdocTimeout, "testdoc", args)
	if err != nil {
		return nil, RunTestdocOutput{Error: err.Error()}, nil
	}

	output := RunTestdocOutput{
		Version:    index.Version,
		Command:    commandLine("testdoc", args),
		ReturnCode: run.exitCode,
		Stdout:     run.stdout,
		Stderr:     run.stderr,
	}
	if info, err := os.Stat(input.OutputFile); err == nil {
		output.OutputFile = input.OutputFile
		output.FileSize = info.Size()
		output.Success = run.exitCode == 0
	}
	return nil, output, nil
}

// RunTidyInput defines input for run_tidy.
type RunTidyInput struct {
	InputFile  string `json:"input_file" jsonschema:"Path to the Robot Framework file or directory to format"`
	OutputFile string `json:"output_file,omitempty" jsonschema:"Output file path (required unless inplace is set)"`
	Format     string `json:"format,omitempty" jsonschema:"Output format: robot, txt, tsv or html (optional, defaults to robot)"`
	Inplace    bool   `json:"inplace,omitempty" jsonschema:"Modify the file in place (optional, defaults to false)"`
	Options    string `json:"options,omitempty" jsonschema:"Additional tidy options as a string (optional)"`
}

// RunTidyOutput defines output for run_tidy.
type RunTidyOutput struct {
	Success     bool   `json:"success"`
	Version     string `json:"version,omitempty"`
	Command     string `json:"command,omitempty"`
	ReturnCode  int    `json:"return_code"`
	OutputFile  string `json:"output_file,omitempty"`
	FileSize    int64  `json:"file_size"`
	ChangesMade bool   `json:"changes_made"`
	Inplace     bool   `json:"inplace"`
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`
	Error       string `json:"error,omitempty"`
}

func buildTidyArgs(input RunTidyInput) []string {
	format := input.Format
	if format == "" {
		format = "robot"
	}
	args := []string{"--format", format}
	if input.Inplace {
		args = append(args, "--inplace")
	}
	if input.Options != "" {
		args = append(args, strings.Fields(input.Options)...)
	}
	args = append(args, input.InputFile)
	if !input.Inplace && input.OutputFile != "" {
		args = append(args, input.OutputFile)
	}
	return args
}

func fileHash(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// RunTidy cleans and formats Robot Framework files with the tidy tool.
func (t *Toolset) RunTidy(ctx context.Context, req *mcp.CallToolRequest, input RunTidyInput) (*mcp.CallToolResult, RunTidyOutput, error) {
	if input.InputFile == "" {
		return nil, RunTidyOutput{Error: "No input file specified"}, nil
	}
	if _, err := os.Stat(input.InputFile); err != nil {
		return nil, RunTidyOutput{Error: fmt.Sprintf("Input file not found: %s", input.InputFile)}, nil
	}

	targetFile := input.OutputFile
	if input.Inplace {
		targetFile = input.InputFile
	} else if targetFile == "" {
		return nil, RunTidyOutput{Error: "Must specify either output_file or inplace=true"}, nil
	}

	// Hash before running so in-place edits can be detected.
	originalHash := ""
	if input.Inplace {
		originalHash = fileHash(input.InputFile)
	}

	args := buildTidyArgs(input)
	run, err := runTool(ctx, tidyTimeout, "robot.tidy", args)
	if err != nil {
		return nil, RunTidyOutput{Error: err.Error()}, nil
	}

	changesMade := false
	if input.Inplace && originalHash != "" {
		changesMade = fileHash(input.InputFile) != originalHash
	} else if input.OutputFile != "" {
		_, statErr := os.Stat(input.OutputFile)
		changesMade = statErr == nil
	}

	output := RunTidyOutput{
		Success:     run.exitCode == 0,
		Version:     index.Version,
		Command:     commandLine("robot.tidy", args),
		ReturnCode:  run.exitCode,
		ChangesMade: changesMade,
		Inplace:     input.Inplace,
		Stdout:      run.stdout,
		Stderr:      run.stderr,
	}
	if info, err := os.Stat(targetFile); err == nil {
		output.OutputFile = targetFile
		output.FileSize = info.Size()
	}
	return nil, output, nil
}

func (t *Toolset) registerRunnerTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "run_rebot",
			Description: "Run the rebot tool to reprocess Robot Framework output files: merge outputs, regenerate reports or filter results.",
		},
		t.RunRebot,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "run_libdoc",
			Description: "Run the libdoc tool to generate keyword documentation for a library or resource file.",
		},
		t.RunLibdoc,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "run_testdoc",
			Description: "Run the testdoc tool to generate high-level HTML documentation from Robot Framework test files.",
		},
		t.RunTestdoc,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "run_tidy",
			Description: "Run the tidy tool to clean and format Robot Framework files or convert them between formats.",
		},
		t.RunTidy,
	)
}
