// Package config loads bundle configuration files and ignore-name lists.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/temirov/bundle/internal/utils"
)

const commentPrefix = "#"

// LoadIgnoreNamesFile reads one literal name per line from ignoreFilePath.
// Blank lines and lines starting with # are skipped. A missing file yields no names.
//
// #nosec G304
func LoadIgnoreNamesFile(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore names file %s: %w", ignoreFilePath, openFileError)
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", ignoreFilePath, closeError)
		}
	}()

	var names []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		names = append(names, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf("reading ignore names file %s: %w", ignoreFilePath, scanError)
	}
	return utils.DeduplicatePatterns(names), nil
}
