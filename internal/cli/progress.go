package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/bundle/internal/services/stream"
)

const (
	defaultTerminalWidth = 80
	scanningLabel        = "Scanning..."
	progressLineFormat   = "[%d/%d] %s"
	logFilesToBundle     = "files to bundle"
	logFileBundled       = "file bundled"
)

// progressSink renders worker events. On an interactive terminal it redraws
// a single status line; otherwise events go to the debug log.
type progressSink struct {
	writer      io.Writer
	logger      *zap.Logger
	interactive bool
	width       int

	maximum    int
	lineLength int
}

func newProgressSink(writer io.Writer, logger *zap.Logger, enabled bool) *progressSink {
	sink := &progressSink{writer: writer, logger: logger, width: defaultTerminalWidth}
	if enabled {
		sink.interactive, sink.width = terminalInfo(writer)
	}
	return sink
}

// terminalInfo reports whether writer is a terminal and its width.
func terminalInfo(writer io.Writer) (bool, int) {
	file, isFile := writer.(*os.File)
	if !isFile {
		return false, defaultTerminalWidth
	}
	descriptor := int(file.Fd())
	if !term.IsTerminal(descriptor) {
		return false, defaultTerminalWidth
	}
	width, _, sizeError := term.GetSize(descriptor)
	if sizeError != nil || width <= 0 {
		return true, defaultTerminalWidth
	}
	return true, width
}

func (sink *progressSink) handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindReset:
		sink.maximum = 0
		return sink.draw(scanningLabel)
	case stream.EventKindSetMaximum:
		sink.maximum = event.Maximum
		sink.logger.Debug(logFilesToBundle, zap.Int("total", event.Maximum))
		return nil
	case stream.EventKindAdvance:
		if !sink.interactive {
			sink.logger.Debug(logFileBundled, zap.Int("current", event.Current), zap.Int("total", sink.maximum), zap.String("path", event.Path))
			return nil
		}
		return sink.draw(fmt.Sprintf(progressLineFormat, event.Current, sink.maximum, event.Label))
	case stream.EventKindDone, stream.EventKindError:
		return sink.clear()
	default:
		return nil
	}
}

func (sink *progressSink) draw(line string) error {
	if !sink.interactive {
		return nil
	}
	limit := sink.width - 1
	if runes := []rune(line); limit > 0 && len(runes) > limit {
		line = string(runes[:limit])
	}
	padding := ""
	if length := len([]rune(line)); length < sink.lineLength {
		padding = strings.Repeat(" ", sink.lineLength-length)
	}
	sink.lineLength = len([]rune(line))
	_, err := fmt.Fprint(sink.writer, "\r"+line+padding)
	return err
}

func (sink *progressSink) clear() error {
	if !sink.interactive || sink.lineLength == 0 {
		return nil
	}
	_, err := fmt.Fprint(sink.writer, "\r"+strings.Repeat(" ", sink.lineLength)+"\r")
	sink.lineLength = 0
	return err
}
