// Package validation checks file paths supplied by users before the node reads
// configuration from them or writes rendered diagrams to them.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxInputFileSize bounds the size of files read from user supplied paths
const MaxInputFileSize = 1 << 20

// outputFormats maps diagram file extensions to output formats
var outputFormats = map[string]string{
	".svg": "svg",
	".png": "png",
}

// ValidateOutputPath validates a diagram output path.
// Returns error if path is invalid, contains path traversal attempts, or its
// directory is not writable.
func ValidateOutputPath(outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	// Check for path traversal attempts
	if hasTraversal(outputPath) {
		return fmt.Errorf("path traversal detected in output path: %s", outputPath)
	}

	absPath, err := filepath.Abs(filepath.Clean(outputPath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	dir := filepath.Dir(absPath)
	dirInfo, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
		return fmt.Errorf("failed to access output directory: %w", err)
	}
	if !dirInfo.IsDir() {
		return fmt.Errorf("output path parent is not a directory: %s", dir)
	}

	if info, err := os.Stat(absPath); err == nil && info.IsDir() {
		return fmt.Errorf("output path is a directory: %s", absPath)
	}

	// Probe writability with a throwaway file
	f, err := os.CreateTemp(dir, ".nomnoml-write-*")
	if err != nil {
		return fmt.Errorf("output directory is not writable: %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return nil
}

// OutputFormat returns the diagram format implied by the extension of path
func OutputFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := outputFormats[ext]
	if !ok {
		return "", fmt.Errorf("unsupported output extension: %q (expected .svg or .png)", ext)
	}
	return format, nil
}

// ValidateInputFile validates a path the node reads from, such as a
// configuration file. The path must name a regular file no larger than
// MaxInputFileSize.
func ValidateInputFile(inputPath string) error {
	if inputPath == "" {
		return fmt.Errorf("input path cannot be empty")
	}

	// Relative paths must stay below the working directory
	if !filepath.IsAbs(inputPath) && hasTraversal(inputPath) {
		return fmt.Errorf("potentially unsafe path detected: %s", inputPath)
	}

	cleanPath := filepath.Clean(inputPath)
	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input path does not exist: %s", cleanPath)
		}
		return fmt.Errorf("failed to access input path: %w", err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("input path must be a regular file: %s", cleanPath)
	}
	if info.Size() > MaxInputFileSize {
		return fmt.Errorf("input file %s is %d bytes, limit is %d", cleanPath, info.Size(), MaxInputFileSize)
	}

	return nil
}

func hasTraversal(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(p)), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
