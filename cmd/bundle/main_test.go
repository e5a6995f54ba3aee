package main_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// #nosec G204
func buildBinary(testSetup *testing.T) string {
	testSetup.Helper()
	if testing.Short() {
		testSetup.Skip("integration test builds the binary")
	}
	binaryName := "bundle_integration_test_binary"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	binaryPath := filepath.Join(testSetup.TempDir(), binaryName)

	currentDirectory, directoryError := os.Getwd()
	if directoryError != nil {
		testSetup.Fatalf("Failed to get current working directory: %v", directoryError)
	}

	buildCommand := exec.Command("go", "build", "-o", binaryPath, ".")
	buildCommand.Dir = currentDirectory
	outputData, buildErr := buildCommand.CombinedOutput()
	if buildErr != nil {
		testSetup.Fatalf("Failed to build binary in %s: %v\nBuild Output:\n%s", currentDirectory, buildErr, string(outputData))
	}
	return binaryPath
}

// #nosec G204
func runCommand(testSetup *testing.T, binaryPath string, arguments []string, workingDirectory string) (string, string, int) {
	testSetup.Helper()
	command := exec.Command(binaryPath, arguments...)
	command.Dir = workingDirectory
	command.Env = append(os.Environ(), "HOME="+testSetup.TempDir())

	var standardOutputBuffer, standardErrorBuffer bytes.Buffer
	command.Stdout = &standardOutputBuffer
	command.Stderr = &standardErrorBuffer

	runError := command.Run()
	exitCode := 0
	if runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			testSetup.Fatalf("Command %s %s could not run: %v", filepath.Base(binaryPath), strings.Join(arguments, " "), runError)
		}
		exitCode = exitError.ExitCode()
	}
	return standardOutputBuffer.String(), standardErrorBuffer.String(), exitCode
}

func writeFixture(testSetup *testing.T, root string, files map[string]string) {
	testSetup.Helper()
	for relativePath, content := range files {
		path := filepath.Join(root, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			testSetup.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			testSetup.Fatalf("write %s: %v", relativePath, err)
		}
	}
}

func TestBinaryBundlesProjects(testSetup *testing.T) {
	binaryPath := buildBinary(testSetup)
	workingDirectory := testSetup.TempDir()
	writeFixture(testSetup, filepath.Join(workingDirectory, "api"), map[string]string{
		"main.go":             "package main",
		"node_modules/dep.js": "ignored",
	})
	writeFixture(testSetup, filepath.Join(workingDirectory, "web"), map[string]string{"index.html": "<html></html>"})

	standardOutput, standardError, exitCode := runCommand(testSetup, binaryPath, []string{"create", "api", "web"}, workingDirectory)
	if exitCode != 0 {
		testSetup.Fatalf("create exited with %d\nstdout:\n%s\nstderr:\n%s", exitCode, standardOutput, standardError)
	}
	if !strings.Contains(standardOutput, "2 file(s) from 2 project(s)") {
		testSetup.Fatalf("unexpected summary: %s", standardOutput)
	}

	content, readError := os.ReadFile(filepath.Join(workingDirectory, "api_bundle.txt"))
	if readError != nil {
		testSetup.Fatalf("bundle not written: %v", readError)
	}
	expectedOrder := []string{
		"=============== PROJECT BUNDLE ===============",
		"PROJECT BUNDLE: api",
		"--- File: main.go ---",
		"PROJECT BUNDLE: web",
		"--- File: index.html ---",
	}
	position := 0
	for _, marker := range expectedOrder {
		index := strings.Index(string(content[position:]), marker)
		if index < 0 {
			testSetup.Fatalf("marker %q missing or out of order in:\n%s", marker, content)
		}
		position += index + len(marker)
	}
	if strings.Contains(string(content), "dep.js") {
		testSetup.Fatalf("node_modules leaked into bundle")
	}
}

func TestBinaryFailsForMissingDirectory(testSetup *testing.T) {
	binaryPath := buildBinary(testSetup)
	workingDirectory := testSetup.TempDir()

	_, standardError, exitCode := runCommand(testSetup, binaryPath, []string{"create", "absent"}, workingDirectory)
	if exitCode == 0 {
		testSetup.Fatalf("expected non-zero exit code")
	}
	if !strings.Contains(standardError, fmt.Sprintf("path '%s' does not exist", "absent")) {
		testSetup.Fatalf("unexpected error output: %s", standardError)
	}
}

func TestBinaryPrintsVersion(testSetup *testing.T) {
	binaryPath := buildBinary(testSetup)
	standardOutput, _, exitCode := runCommand(testSetup, binaryPath, []string{"--version"}, testSetup.TempDir())
	if exitCode != 0 || !strings.HasPrefix(standardOutput, "bundle version: ") {
		testSetup.Fatalf("unexpected version output %q (exit %d)", standardOutput, exitCode)
	}
}
