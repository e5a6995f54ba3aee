package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

const (
	errorReadCountedFileFormat = "read %s for token counting: %w"
	errorCountTokensFormat     = "count tokens with %s: %w"
)

var errNilCounter = errors.New("nil tokenizer counter")

// CountBytes returns the token count of data. Invalid UTF-8 sequences are
// counted as replacement characters, so odd bytes never drop the whole count.
func CountBytes(counter Counter, data []byte) (int, error) {
	if counter == nil {
		return 0, errNilCounter
	}
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	tokens, countError := counter.CountString(text)
	if countError != nil {
		return 0, fmt.Errorf(errorCountTokensFormat, counter.Name(), countError)
	}
	return tokens, nil
}

// CountFile returns the token count of the file at path.
func CountFile(counter Counter, path string) (int, error) {
	if counter == nil {
		return 0, errNilCounter
	}
	// #nosec G304
	data, readError := os.ReadFile(path)
	if readError != nil {
		return 0, fmt.Errorf(errorReadCountedFileFormat, path, readError)
	}
	return CountBytes(counter, data)
}
