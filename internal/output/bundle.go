// Package output serializes bundles: the directory diagram of each project and
// the concatenated contents of its files.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/temirov/bundle/internal/types"
)

const (
	bannerTitle         = " PROJECT BUNDLE "
	bannerRuleWidth     = 15
	projectCountFormat  = "Bundled %d project(s).\n\n"
	projectHeaderFormat = "PROJECT BUNDLE: %s\n"
	structureLabel      = "File Structure:"
	contentsLabel       = "File Contents:"
	fileDelimiterFormat = "--- File: %s ---\n\n"
	readFailureFormat   = "*** ERROR: Could not read file. Reason: %v ***"

	headerRuleWidth  = 40
	sectionRuleWidth = 20
)

var (
	bannerLine  = strings.Repeat("=", bannerRuleWidth) + bannerTitle + strings.Repeat("=", bannerRuleWidth)
	headerRule  = strings.Repeat("=", headerRuleWidth)
	sectionRule = strings.Repeat("-", sectionRuleWidth)
)

// FileResult reports how one file was written into the bundle.
type FileResult struct {
	Entry types.FileEntry
	// BytesRead is the size of the file content that was read.
	BytesRead int64
	// ReadErr is set when the body was replaced by an inline diagnostic.
	ReadErr error
}

// BundleWriter writes the bundle document to a destination in order:
// banner, then per project a header, the file structure and the file contents.
// Errors returned by its methods always come from the destination.
type BundleWriter struct {
	counter *countingWriter
	writer  *bufio.Writer
}

// NewBundleWriter wraps destination in a buffered bundle writer.
func NewBundleWriter(destination io.Writer) *BundleWriter {
	counter := &countingWriter{writer: destination}
	return &BundleWriter{counter: counter, writer: bufio.NewWriter(counter)}
}

// WriteBanner writes the global banner. A single-project bundle has no banner.
func (bundleWriter *BundleWriter) WriteBanner(projectCount int) error {
	if projectCount <= 1 {
		return nil
	}
	return bundleWriter.writeStrings(bannerLine, "\n", fmt.Sprintf(projectCountFormat, projectCount))
}

// WriteProject writes the project header, the file structure rooted at
// "<name>/" and the label that opens the project's content block.
func (bundleWriter *BundleWriter) WriteProject(name string, root *types.TreeNode) error {
	parts := append(structureParts(name, root), "\n\n", contentsLabel, "\n", sectionRule, "\n\n")
	return bundleWriter.writeStrings(parts...)
}

// WriteStructure writes the project header and file structure only.
func (bundleWriter *BundleWriter) WriteStructure(name string, root *types.TreeNode) error {
	parts := append(structureParts(name, root), "\n")
	return bundleWriter.writeStrings(parts...)
}

func structureParts(name string, root *types.TreeNode) []string {
	parts := []string{
		fmt.Sprintf(projectHeaderFormat, name), headerRule, "\n\n",
		structureLabel, "\n", sectionRule, "\n", name, "/\n",
	}
	for _, line := range RenderTree(root, "") {
		parts = append(parts, line, "\n")
	}
	return parts
}

// WriteFile writes the delimiter and body of one file. Content is decoded as
// UTF-8 with invalid sequences replaced; a file that cannot be read gets an
// inline diagnostic body and is reported through FileResult.ReadErr.
func (bundleWriter *BundleWriter) WriteFile(entry types.FileEntry) (FileResult, error) {
	result := FileResult{Entry: entry}
	if err := bundleWriter.writeStrings(fmt.Sprintf(fileDelimiterFormat, entry.RelativePath)); err != nil {
		return result, err
	}

	body, bytesRead, readErr := readFileBody(entry.AbsolutePath)
	result.BytesRead = bytesRead
	if readErr != nil {
		result.ReadErr = readErr
		body = fmt.Sprintf(readFailureFormat, readErr)
	}
	if err := bundleWriter.writeStrings(body, "\n\n", headerRule, "\n\n"); err != nil {
		return result, err
	}
	return result, nil
}

// Flush writes buffered data to the destination.
func (bundleWriter *BundleWriter) Flush() error {
	return bundleWriter.writer.Flush()
}

// BytesWritten returns the number of bytes flushed to the destination so far.
func (bundleWriter *BundleWriter) BytesWritten() int64 {
	return bundleWriter.counter.written
}

func (bundleWriter *BundleWriter) writeStrings(parts ...string) error {
	for _, part := range parts {
		if _, err := bundleWriter.writer.WriteString(part); err != nil {
			return err
		}
	}
	return nil
}

// readFileBody reads a whole file and decodes it permissively.
// A leading byte order mark selects UTF-16 decoding and is dropped.
func readFileBody(path string) (string, int64, error) {
	data, readError := os.ReadFile(path)
	if readError != nil {
		return "", 0, readError
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, decodeError := transform.Bytes(decoder, data)
	if decodeError != nil {
		return strings.ToValidUTF8(string(data), "�"), int64(len(data)), nil
	}
	return string(decoded), int64(len(data)), nil
}

type countingWriter struct {
	writer  io.Writer
	written int64
}

func (counter *countingWriter) Write(data []byte) (int, error) {
	written, err := counter.writer.Write(data)
	counter.written += int64(written)
	return written, err
}
