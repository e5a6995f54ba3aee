// Package stream runs bundling jobs on a worker goroutine and reports their
// progress as a channel of events.
package stream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/bundle/internal/commands"
	"github.com/temirov/bundle/internal/ignore"
	"github.com/temirov/bundle/internal/output"
	"github.com/temirov/bundle/internal/tokenizer"
	"github.com/temirov/bundle/internal/types"
	"github.com/temirov/bundle/internal/utils"
)

const (
	eventBufferSize = 64

	advanceLabelFormat = "Bundling: %s"

	errorResolveDestinationFormat = "resolving destination %s: %w"
	errorLoadGitignoreFormat      = "loading .gitignore of %s: %w"
	errorScanProjectFormat        = "scanning project %s: %w"
	errorCreateDestinationFormat  = "creating destination %s: %w"
	errorWriteDestinationFormat   = "writing destination %s: %w"
	errorCloseDestinationFormat   = "closing destination %s: %w"

	logRunStarted       = "bundle run started"
	logRunFinished      = "bundle run finished"
	logRunFailed        = "bundle run failed"
	logScanWarning      = "skipped entry while scanning"
	logUnreadableFile   = "file could not be read"
	logTokenCountFailed = "token count failed"
)

var (
	// ErrEmptySelection is returned when no project directory was selected.
	ErrEmptySelection = errors.New("no project directories selected")
	// ErrMissingDestination is returned when no destination file was given.
	ErrMissingDestination = errors.New("no destination file given")
	// ErrRunActive is returned when a run for the same destination is in flight.
	ErrRunActive = errors.New("a bundle run for this destination is already in progress")
)

// Options configures one bundling run.
type Options struct {
	Selection   types.ProjectSelection
	Destination string
	// Ignore replaces the default ignore set when non-nil.
	// The destination base name is always added.
	Ignore       *ignore.Set
	UseGitignore bool
	// TokenCounter, when set, counts the tokens of the finished bundle.
	TokenCounter tokenizer.Counter
	TokenModel   string
}

// Service starts bundling runs and tracks their state by destination.
type Service struct {
	logger *zap.Logger

	mutex  sync.Mutex
	states map[string]types.RunState
}

// NewService constructs a Service that logs through logger.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, states: map[string]types.RunState{}}
}

// Start validates options and launches the worker. The returned channel
// yields reset, set_maximum, one advance per file and a terminal done or
// error event, and is closed after the terminal event. Consumers must drain it.
func (service *Service) Start(options Options) (<-chan Event, error) {
	if len(options.Selection) == 0 {
		return nil, ErrEmptySelection
	}
	if options.Destination == utils.EmptyString {
		return nil, ErrMissingDestination
	}
	destination, absoluteError := filepath.Abs(options.Destination)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorResolveDestinationFormat, options.Destination, absoluteError)
	}

	service.mutex.Lock()
	if isActive(service.states[destination]) {
		service.mutex.Unlock()
		return nil, ErrRunActive
	}
	service.states[destination] = types.RunStateIdle
	service.mutex.Unlock()

	events := make(chan Event, eventBufferSize)
	run := &bundleRun{
		service:     service,
		options:     options,
		destination: destination,
		emitter:     newEmitter(events, uuid.NewString()),
	}
	run.logger = service.logger.With(zap.String("run", run.emitter.runID), zap.String("destination", destination))
	go run.execute()
	return events, nil
}

// Run starts a run and drains it, passing every event to handle when it is
// non-nil. It returns the summary of a successful run.
func (service *Service) Run(options Options, handle func(Event)) (*types.BundleSummary, error) {
	events, startError := service.Start(options)
	if startError != nil {
		return nil, startError
	}
	var terminal Event
	for event := range events {
		if handle != nil {
			handle(event)
		}
		if event.IsTerminal() {
			terminal = event
		}
	}
	if terminal.Kind == EventKindError {
		return nil, errors.New(terminal.Message)
	}
	return terminal.Summary, nil
}

// State returns the state of the latest run for destination, or idle when
// no run was started for it.
func (service *Service) State(destination string) types.RunState {
	absoluteDestination, absoluteError := filepath.Abs(destination)
	if absoluteError != nil {
		return types.RunStateIdle
	}
	service.mutex.Lock()
	defer service.mutex.Unlock()
	state, found := service.states[absoluteDestination]
	if !found {
		return types.RunStateIdle
	}
	return state
}

func (service *Service) setState(destination string, state types.RunState) {
	service.mutex.Lock()
	service.states[destination] = state
	service.mutex.Unlock()
}

func isActive(state types.RunState) bool {
	switch state {
	case types.RunStateIdle, types.RunStateScanning, types.RunStateWriting:
		return true
	default:
		return false
	}
}

// SuggestedDestination names the bundle after the first selected project.
func SuggestedDestination(selection types.ProjectSelection) string {
	if len(selection) == 0 {
		return utils.EmptyString
	}
	return filepath.Base(filepath.Clean(selection[0])) + utils.BundleFileSuffix
}

type emitter struct {
	out   chan<- Event
	runID string
}

func newEmitter(out chan<- Event, runID string) *emitter {
	return &emitter{out: out, runID: runID}
}

func (emitter *emitter) send(event Event) {
	event.RunID = emitter.runID
	event.EmittedAt = time.Now().UTC()
	emitter.out <- event
}

type bundleRun struct {
	service     *Service
	options     Options
	destination string
	emitter     *emitter
	logger      *zap.Logger
}

func (run *bundleRun) execute() {
	defer close(run.emitter.out)

	run.logger.Debug(logRunStarted, zap.Int("projects", len(run.options.Selection)))
	run.emitter.send(Event{Kind: EventKindReset})

	summary, runError := run.bundle()
	if runError != nil {
		run.service.setState(run.destination, types.RunStateFailed)
		run.logger.Error(logRunFailed, zap.Error(runError))
		run.emitter.send(Event{Kind: EventKindError, Message: runError.Error()})
		return
	}

	run.service.setState(run.destination, types.RunStateDone)
	run.logger.Info(logRunFinished,
		zap.Int("files", summary.Files),
		zap.Int("unreadable", summary.UnreadableFiles),
		zap.Int64("bytes", summary.Bytes),
	)
	run.emitter.send(Event{Kind: EventKindDone, Path: run.destination, Summary: summary})
}

func (run *bundleRun) bundle() (*types.BundleSummary, error) {
	run.service.setState(run.destination, types.RunStateScanning)
	projects, scanError := run.scan()
	if scanError != nil {
		return nil, scanError
	}
	totalFiles := 0
	for _, project := range projects {
		totalFiles += len(project.RelativePaths)
	}
	run.emitter.send(Event{Kind: EventKindSetMaximum, Maximum: totalFiles})

	run.service.setState(run.destination, types.RunStateWriting)
	summary, writeError := run.write(projects)
	if writeError != nil {
		return nil, writeError
	}
	run.countTokens(summary)
	return summary, nil
}

func (run *bundleRun) scan() ([]types.ProjectFiles, error) {
	ignoreSet := ignore.DefaultSet(run.destination)
	if run.options.Ignore != nil {
		ignoreSet = run.options.Ignore.WithDestination(run.destination)
	}

	projects := make([]types.ProjectFiles, 0, len(run.options.Selection))
	for _, root := range run.options.Selection {
		collectOptions := commands.CollectOptions{
			Ignore: ignoreSet,
			Warn: func(message string) {
				run.logger.Warn(logScanWarning, zap.String("project", root), zap.String("reason", message))
			},
		}
		if run.options.UseGitignore {
			matcher, gitignoreError := ignore.LoadGitignore(root)
			if gitignoreError != nil {
				return nil, fmt.Errorf(errorLoadGitignoreFormat, root, gitignoreError)
			}
			collectOptions.Gitignore = matcher
		}
		relativePaths, collectError := commands.CollectProject(root, collectOptions)
		if collectError != nil {
			return nil, fmt.Errorf(errorScanProjectFormat, root, collectError)
		}
		projects = append(projects, types.NewProjectFiles(root, relativePaths))
	}
	return projects, nil
}

func (run *bundleRun) write(projects []types.ProjectFiles) (summary *types.BundleSummary, err error) {
	destinationFile, createError := os.Create(run.destination)
	if createError != nil {
		return nil, fmt.Errorf(errorCreateDestinationFormat, run.destination, createError)
	}
	defer func() {
		if closeError := destinationFile.Close(); closeError != nil && err == nil {
			summary = nil
			err = fmt.Errorf(errorCloseDestinationFormat, run.destination, closeError)
		}
	}()

	writer := output.NewBundleWriter(destinationFile)
	summary = &types.BundleSummary{Projects: len(projects)}
	if bannerError := writer.WriteBanner(len(projects)); bannerError != nil {
		return nil, fmt.Errorf(errorWriteDestinationFormat, run.destination, bannerError)
	}

	for _, project := range projects {
		if projectError := writer.WriteProject(project.Name, commands.BuildTree(project.RelativePaths)); projectError != nil {
			return nil, fmt.Errorf(errorWriteDestinationFormat, run.destination, projectError)
		}
		for _, entry := range project.Entries() {
			result, fileError := writer.WriteFile(entry)
			if fileError != nil {
				return nil, fmt.Errorf(errorWriteDestinationFormat, run.destination, fileError)
			}
			if result.ReadErr != nil {
				summary.UnreadableFiles++
				run.logger.Warn(logUnreadableFile, zap.String("path", entry.AbsolutePath), zap.Error(result.ReadErr))
			}
			summary.Files++
			run.emitter.send(Event{
				Kind:    EventKindAdvance,
				Current: summary.Files,
				Label:   fmt.Sprintf(advanceLabelFormat, entry.RelativePath),
				Path:    entry.AbsolutePath,
			})
		}
	}

	if flushError := writer.Flush(); flushError != nil {
		return nil, fmt.Errorf(errorWriteDestinationFormat, run.destination, flushError)
	}
	summary.Bytes = writer.BytesWritten()
	return summary, nil
}

// countTokens is best effort; a failure only leaves the summary without tokens.
func (run *bundleRun) countTokens(summary *types.BundleSummary) {
	if run.options.TokenCounter == nil {
		return
	}
	tokens, countError := tokenizer.CountFile(run.options.TokenCounter, run.destination)
	if countError != nil {
		run.logger.Warn(logTokenCountFailed, zap.Error(countError))
		return
	}
	summary.Tokens = tokens
	summary.Model = run.options.TokenModel
}
