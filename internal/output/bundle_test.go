package output_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/bundle/internal/commands"
	"github.com/temirov/bundle/internal/output"
	"github.com/temirov/bundle/internal/types"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBundleWriterSingleProjectLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")
	writeFile(t, filepath.Join(root, "a", "x.txt"), []byte("x body"))
	writeFile(t, filepath.Join(root, "b.txt"), []byte("b body"))
	project := types.NewProjectFiles(root, []string{"a/x.txt", "b.txt"})

	var buffer bytes.Buffer
	writer := output.NewBundleWriter(&buffer)
	if err := writer.WriteBanner(1); err != nil {
		t.Fatalf("banner: %v", err)
	}
	if err := writer.WriteProject(project.Name, commands.BuildTree(project.RelativePaths)); err != nil {
		t.Fatalf("project: %v", err)
	}
	for _, entry := range project.Entries() {
		result, err := writer.WriteFile(entry)
		if err != nil {
			t.Fatalf("file: %v", err)
		}
		if result.ReadErr != nil {
			t.Fatalf("unexpected read error: %v", result.ReadErr)
		}
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	rule := strings.Repeat("=", 40)
	expected := "PROJECT BUNDLE: demo\n" + rule + "\n\n" +
		"File Structure:\n" + strings.Repeat("-", 20) + "\n" +
		"demo/\n" +
		"├── a\n" +
		"│   └── x.txt\n" +
		"└── b.txt\n" +
		"\n\n" +
		"File Contents:\n" + strings.Repeat("-", 20) + "\n\n" +
		"--- File: a/x.txt ---\n\n" + "x body" + "\n\n" + rule + "\n\n" +
		"--- File: b.txt ---\n\n" + "b body" + "\n\n" + rule + "\n\n"
	if buffer.String() != expected {
		t.Fatalf("unexpected bundle:\n%q\nexpected:\n%q", buffer.String(), expected)
	}
	if writer.BytesWritten() != int64(buffer.Len()) {
		t.Fatalf("BytesWritten %d, buffer has %d", writer.BytesWritten(), buffer.Len())
	}
}

func TestBundleWriterBanner(t *testing.T) {
	testCases := []struct {
		name         string
		projectCount int
		expected     string
	}{
		{name: "single project has no banner", projectCount: 1, expected: ""},
		{
			name:         "multiple projects",
			projectCount: 3,
			expected:     "=============== PROJECT BUNDLE ===============\nBundled 3 project(s).\n\n",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var buffer bytes.Buffer
			writer := output.NewBundleWriter(&buffer)
			if err := writer.WriteBanner(testCase.projectCount); err != nil {
				t.Fatalf("banner: %v", err)
			}
			if err := writer.Flush(); err != nil {
				t.Fatalf("flush: %v", err)
			}
			if buffer.String() != testCase.expected {
				t.Fatalf("unexpected banner %q", buffer.String())
			}
		})
	}
}

func TestBundleWriterFileBodies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "invalid.txt"), []byte{'o', 'k', 0xff, '!'})
	writeFile(t, filepath.Join(root, "bom.txt"), []byte{0xef, 0xbb, 0xbf, 'h', 'i'})
	writeFile(t, filepath.Join(root, "utf16.txt"), []byte{0xff, 0xfe, 'h', 0, 'i', 0})

	testCases := []struct {
		name         string
		relativePath string
		expectedBody string
		expectError  bool
	}{
		{name: "invalid bytes are replaced", relativePath: "invalid.txt", expectedBody: "ok\uFFFD!"},
		{name: "utf-8 byte order mark is dropped", relativePath: "bom.txt", expectedBody: "hi"},
		{name: "utf-16 with byte order mark is decoded", relativePath: "utf16.txt", expectedBody: "hi"},
		{name: "missing file gets a diagnostic", relativePath: "gone.txt", expectedBody: "*** ERROR: Could not read file. Reason: ", expectError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var buffer bytes.Buffer
			writer := output.NewBundleWriter(&buffer)
			entry := types.FileEntry{
				ProjectRoot:  root,
				AbsolutePath: filepath.Join(root, testCase.relativePath),
				RelativePath: testCase.relativePath,
			}
			result, err := writer.WriteFile(entry)
			if err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if err := writer.Flush(); err != nil {
				t.Fatalf("flush: %v", err)
			}
			if (result.ReadErr != nil) != testCase.expectError {
				t.Fatalf("ReadErr = %v, expectError %t", result.ReadErr, testCase.expectError)
			}
			prefix := "--- File: " + testCase.relativePath + " ---\n\n" + testCase.expectedBody
			if !strings.HasPrefix(buffer.String(), prefix) {
				t.Fatalf("unexpected output %q, expected prefix %q", buffer.String(), prefix)
			}
			if !strings.HasSuffix(buffer.String(), "\n\n"+strings.Repeat("=", 40)+"\n\n") {
				t.Fatalf("missing trailing separator in %q", buffer.String())
			}
		})
	}
}

type failingWriter struct{}

var errDiskFull = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestBundleWriterReportsDestinationErrors(t *testing.T) {
	writer := output.NewBundleWriter(failingWriter{})
	if err := writer.WriteBanner(2); err != nil {
		t.Fatalf("buffered banner should not fail yet: %v", err)
	}
	if err := writer.Flush(); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected disk full from Flush, got %v", err)
	}
}

func TestBundleWriterStructureOnly(t *testing.T) {
	var buffer bytes.Buffer
	writer := output.NewBundleWriter(&buffer)
	if err := writer.WriteStructure("demo", commands.BuildTree([]string{"main.go"})); err != nil {
		t.Fatalf("structure: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	expected := "PROJECT BUNDLE: demo\n" + strings.Repeat("=", 40) + "\n\n" +
		"File Structure:\n" + strings.Repeat("-", 20) + "\n" +
		"demo/\n└── main.go\n\n"
	if buffer.String() != expected {
		t.Fatalf("unexpected structure %q", buffer.String())
	}
}
