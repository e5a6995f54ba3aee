package tokenizer

import (
	"os"
	"path/filepath"
	"testing"
)

type testCounter struct{}

func (testCounter) Name() string { return "stub" }

func (testCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

type recordingCounter struct {
	input string
}

func (*recordingCounter) Name() string { return "recording" }

func (counter *recordingCounter) CountString(input string) (int, error) {
	counter.input = input
	return 1, nil
}

func TestCountBytes(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		expected int
	}{
		{name: "plain text", data: []byte("hello"), expected: 5},
		{name: "multibyte runes", data: []byte("héllo"), expected: 5},
		{name: "invalid bytes become one replacement", data: []byte("a\xff\xfeb"), expected: 3},
		{name: "empty", data: nil, expected: 0},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			tokens, err := CountBytes(testCounter{}, testCase.data)
			if err != nil {
				t.Fatalf("CountBytes error: %v", err)
			}
			if tokens != testCase.expected {
				t.Fatalf("expected %d tokens, got %d", testCase.expected, tokens)
			}
		})
	}
}

func TestCountBytesPassesReplacementCharacters(t *testing.T) {
	recorder := &recordingCounter{}
	if _, err := CountBytes(recorder, []byte("name\xff.txt")); err != nil {
		t.Fatalf("CountBytes error: %v", err)
	}
	if recorder.input != "name\uFFFD.txt" {
		t.Fatalf("unexpected counted text %q", recorder.input)
	}
}

func TestCountNilCounter(t *testing.T) {
	if _, err := CountBytes(nil, []byte("x")); err == nil {
		t.Fatalf("expected error for nil counter")
	}
	if _, err := CountFile(nil, "ignored"); err == nil {
		t.Fatalf("expected error for nil counter")
	}
}

func TestCountFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.txt")
	if err := os.WriteFile(path, []byte("héllo"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tokens, err := CountFile(testCounter{}, path)
	if err != nil {
		t.Fatalf("CountFile error: %v", err)
	}
	if tokens != 5 {
		t.Fatalf("expected 5 tokens, got %d", tokens)
	}
	if _, err := CountFile(testCounter{}, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestIsOpenAIModel(t *testing.T) {
	testCases := map[string]bool{
		"gpt-4o":                 true,
		"text-embedding-3-small": true,
		"claude-3-opus":          false,
		"llama-3":                false,
	}
	for model, expected := range testCases {
		if actual := isOpenAIModel(model); actual != expected {
			t.Fatalf("isOpenAIModel(%q) = %t, expected %t", model, actual, expected)
		}
	}
}

func TestNewCounterDefault(t *testing.T) {
	counter, model, err := NewCounter("")
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	if model != DefaultModel {
		t.Fatalf("expected model %s, got %q", DefaultModel, model)
	}
	tokens, err := counter.CountString("hello world")
	if err != nil {
		t.Fatalf("CountString error: %v", err)
	}
	if tokens <= 0 {
		t.Fatalf("expected positive token count, got %d", tokens)
	}
}
