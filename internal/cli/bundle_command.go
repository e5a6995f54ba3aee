package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/bundle/internal/services/stream"
	"github.com/temirov/bundle/internal/tokenizer"
	"github.com/temirov/bundle/internal/types"
	"github.com/temirov/bundle/internal/utils"
)

const (
	createUse              = "create [directories...]"
	createAlias            = "c"
	createShortDescription = "write a bundle file (" + createAlias + ")"
	createLongDescription  = `Bundle one or more project directories into a single text file.
Projects appear in the order given. Without --output the bundle is written to
<first-directory-name>` + utils.BundleFileSuffix + ` in the working directory.`
	createUsageExample = `  # Bundle the current directory
  bundle create

  # Bundle two projects into one file and copy it to the clipboard
  bundle c ./api ./web -o review.txt --clipboard

  # Skip vendor directories and count tokens
  bundle create -e vendor --tokens .`

	outputFlagName           = "output"
	outputFlagShorthand      = "o"
	outputFlagDescription    = "destination file"
	tokensFlagName           = "tokens"
	tokensFlagDescription    = "count tokens of the finished bundle"
	modelFlagName            = "model"
	modelFlagDescription     = "tokenizer model to use for token counting"
	progressFlagName         = "progress"
	progressFlagDescription  = "show a progress line on interactive terminals"
	bundleWrittenFormat      = "Bundle written to %s: %d file(s) from %d project(s), %s"
	unreadableSuffixFormat   = ", %d unreadable"
	tokensSuffixFormat       = ", %d tokens (%s)"
	errorReadBundleFormat    = "read bundle %s: %w"
	logClipboardCopied       = "bundle copied to clipboard"
	logBundleOptionsResolved = "bundle options resolved"
)

// createOptions stores the flags of the create command.
type createOptions struct {
	ignore      ignoreOptions
	destination string
	clipboard   toggleFlag
	tokens      toggleFlag
	model       string
	progress    toggleFlag
}

// createBundleCommand returns the create subcommand.
func (app *application) createBundleCommand() *cobra.Command {
	var options createOptions

	createCommand := &cobra.Command{
		Use:     createUse,
		Aliases: []string{createAlias},
		Short:   createShortDescription,
		Long:    createLongDescription,
		Example: createUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runCreate(command.Context(), arguments, &options)
		},
	}

	addIgnoreFlags(createCommand, &options.ignore)
	createCommand.Flags().StringVarP(&options.destination, outputFlagName, outputFlagShorthand, utils.EmptyString, outputFlagDescription)
	registerToggleFlag(createCommand.Flags(), &options.clipboard, clipboardFlagName, clipboardFlagDescription)
	registerToggleFlag(createCommand.Flags(), &options.tokens, tokensFlagName, tokensFlagDescription)
	createCommand.Flags().StringVar(&options.model, modelFlagName, utils.EmptyString, modelFlagDescription)
	registerToggleFlag(createCommand.Flags(), &options.progress, progressFlagName, progressFlagDescription)
	return createCommand
}

// runCreate resolves the run options from flags and configuration, runs the
// bundle and reports the outcome.
func (app *application) runCreate(ctx context.Context, arguments []string, options *createOptions) error {
	configuration, configurationError := app.loadConfiguration()
	if configurationError != nil {
		return configurationError
	}
	selection, selectionError := resolveSelection(arguments)
	if selectionError != nil {
		return selectionError
	}
	ignoreSet, ignoreError := options.ignore.buildIgnoreSet(configuration.Ignore)
	if ignoreError != nil {
		return ignoreError
	}

	destination := options.destination
	if destination == utils.EmptyString {
		destination = configuration.Output
	}
	if destination == utils.EmptyString {
		destination = stream.SuggestedDestination(selection)
	}

	runOptions := stream.Options{
		Selection:    selection,
		Destination:  destination,
		Ignore:       &ignoreSet,
		UseGitignore: options.ignore.gitignore.resolve(configuration.Ignore.UseGitignore, false),
	}
	if options.tokens.resolve(configuration.Tokens.Enabled, false) {
		model := options.model
		if model == utils.EmptyString {
			model = configuration.Tokens.Model
		}
		counter, resolvedModel, counterError := tokenizer.NewCounter(model)
		if counterError != nil {
			return counterError
		}
		runOptions.TokenCounter = counter
		runOptions.TokenModel = resolvedModel
	}
	app.logger.Debug(logBundleOptionsResolved,
		zap.Strings("projects", selection),
		zap.String("destination", destination),
		zap.Strings("ignore", ignoreSet.Names()),
		zap.Bool("gitignore", runOptions.UseGitignore),
	)

	sink := newProgressSink(app.stderr, app.logger, options.progress.resolve(configuration.Progress, true))
	summary, runError := app.dispatchBundle(ctx, stream.NewService(app.logger), runOptions, sink.handle)
	if runError != nil {
		return runError
	}

	if _, printError := fmt.Fprintln(app.stdout, formatSummary(destination, summary)); printError != nil {
		return printError
	}

	if options.clipboard.resolve(configuration.Clipboard, false) {
		return app.copyBundle(destination)
	}
	return nil
}

// dispatchBundle runs the bundle on the service worker and feeds every event
// to consume on a separate goroutine. The worker cannot be cancelled, so
// events are dropped rather than blocking once the consumer has failed.
func (app *application) dispatchBundle(
	ctx context.Context,
	service *stream.Service,
	options stream.Options,
	consume func(stream.Event) error,
) (*types.BundleSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan stream.Event)
	var summary *types.BundleSummary

	group.Go(func() error {
		defer close(events)
		result, runError := service.Run(options, func(event stream.Event) {
			select {
			case <-streamCtx.Done():
			case events <- event:
			}
		})
		summary = result
		return runError
	})

	group.Go(func() error {
		for event := range events {
			if err := consume(event); err != nil {
				return err
			}
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (app *application) copyBundle(destination string) error {
	// #nosec G304
	content, readError := os.ReadFile(destination)
	if readError != nil {
		return fmt.Errorf(errorReadBundleFormat, destination, readError)
	}
	if copyError := app.copyToClipboard(string(content)); copyError != nil {
		return copyError
	}
	app.logger.Debug(logClipboardCopied, zap.Int("bytes", len(content)))
	return nil
}

func formatSummary(destination string, summary *types.BundleSummary) string {
	if summary == nil {
		summary = &types.BundleSummary{}
	}
	line := fmt.Sprintf(bundleWrittenFormat, destination, summary.Files, summary.Projects, utils.FormatFileSize(summary.Bytes))
	if summary.UnreadableFiles > 0 {
		line += fmt.Sprintf(unreadableSuffixFormat, summary.UnreadableFiles)
	}
	if summary.Model != utils.EmptyString {
		line += fmt.Sprintf(tokensSuffixFormat, summary.Tokens, summary.Model)
	}
	return line
}
