// Package cli provides the command line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/bundle/internal/config"
	"github.com/temirov/bundle/internal/ignore"
	"github.com/temirov/bundle/internal/services/clipboard"
	"github.com/temirov/bundle/internal/services/stream"
	"github.com/temirov/bundle/internal/types"
	"github.com/temirov/bundle/internal/utils"
)

const (
	versionFlagName      = "version"
	configFlagName       = "config"
	verboseFlagName      = "verbose"
	defaultPath          = "."
	rootUse              = "bundle"
	rootShortDescription = "bundle project directories into one text file"
	rootLongDescription  = `bundle aggregates one or more project directories into a single text file:
a header, a directory tree of every project and the contents of each included file.
Use create to write a bundle, tree to print only the directory structure and init to write a configuration file.`
	versionFlagDescription = "display application version"
	configFlagDescription  = "configuration file to use instead of ./" + utils.ConfigFileName
	verboseFlagDescription = "log debug details"

	exclusionFlagName            = "exclude"
	exclusionFlagShorthand       = "e"
	exclusionFlagDescription     = "exclude files and directories with this exact name"
	excludeFromFlagName          = "exclude-from"
	excludeFromFlagDescription   = "read names to exclude from a file, one per line"
	noDefaultIgnoreFlagName      = "no-default-ignore"
	noDefaultIgnoreFlagDesc      = "do not exclude the built-in names (.git, node_modules, ...)"
	gitignoreFlagName            = "gitignore"
	gitignoreFlagDescription     = "also exclude paths matched by each project's .gitignore"
	clipboardFlagName            = "clipboard"
	clipboardFlagDescription     = "copy the result to the system clipboard"
	errorLoadConfigurationFormat = "load configuration: %w"

	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	// errorPathMissingFormat reports a missing path.
	errorPathMissingFormat = "path '%s' does not exist"
	// errorStatFormat reports failure to retrieve file statistics.
	errorStatFormat = "stat failed for '%s': %w"
	// errorNotDirectoryFormat reports a selected path that is not a directory.
	errorNotDirectoryFormat = "path '%s' is not a directory"
	// errorCopyClipboardFormat reports a clipboard failure.
	errorCopyClipboardFormat = "copy to clipboard: %w"
)

// application holds the collaborators shared by all commands.
type application struct {
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
	copier clipboard.Copier

	configPath string
	verbose    bool
}

// Execute runs the bundle application with os.Args.
func Execute(logger *zap.Logger) error {
	app := &application{
		logger: logger,
		stdout: os.Stdout,
		stderr: os.Stderr,
		copier: clipboard.NewService(),
	}
	return app.execute(os.Args[1:])
}

func (app *application) execute(arguments []string) error {
	rootCommand := app.createRootCommand()
	rootCommand.SetArgs(normalizeToggleArguments(rootCommand, arguments))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func (app *application) createRootCommand() *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, printError := fmt.Fprintln(app.stdout, utils.FormatVersion())
				return printError
			}
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if !app.verbose {
				return nil
			}
			verboseLogger, loggerError := utils.NewLogger(true)
			if loggerError != nil {
				return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
			}
			app.logger = verboseLogger
			return nil
		},
	}
	rootCommand.SetOut(app.stdout)
	rootCommand.SetErr(app.stderr)
	rootCommand.Flags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.configPath, configFlagName, utils.EmptyString, configFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&app.verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.AddCommand(
		app.createBundleCommand(),
		app.createTreeCommand(),
		app.createInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// ignoreOptions stores the name-exclusion flags shared by create and tree.
type ignoreOptions struct {
	exclusionNames  []string
	excludeFromPath string
	noDefaultIgnore toggleFlag
	gitignore       toggleFlag
}

// addIgnoreFlags registers the name-exclusion flags on the command.
func addIgnoreFlags(command *cobra.Command, options *ignoreOptions) {
	command.Flags().StringArrayVarP(&options.exclusionNames, exclusionFlagName, exclusionFlagShorthand, nil, exclusionFlagDescription)
	command.Flags().StringVar(&options.excludeFromPath, excludeFromFlagName, utils.EmptyString, excludeFromFlagDescription)
	registerToggleFlag(command.Flags(), &options.noDefaultIgnore, noDefaultIgnoreFlagName, noDefaultIgnoreFlagDesc)
	registerToggleFlag(command.Flags(), &options.gitignore, gitignoreFlagName, gitignoreFlagDescription)
}

// buildIgnoreSet combines configured and flag-provided names. Defaults are
// kept unless replaced through configuration or --no-default-ignore.
func (options *ignoreOptions) buildIgnoreSet(configuration config.IgnoreConfiguration) (ignore.Set, error) {
	names := append([]string{}, configuration.Names...)
	names = append(names, options.exclusionNames...)
	if options.excludeFromPath != utils.EmptyString {
		fileNames, loadError := config.LoadIgnoreNamesFile(options.excludeFromPath)
		if loadError != nil {
			return ignore.Set{}, loadError
		}
		names = append(names, fileNames...)
	}
	names = utils.DeduplicatePatterns(names)

	if options.noDefaultIgnore.resolve(configuration.ReplaceDefaults, false) {
		return ignore.NewSet(names...), nil
	}
	return ignore.NewSet(ignore.DefaultNames...).With(names...), nil
}

func (app *application) loadConfiguration() (config.ApplicationConfiguration, error) {
	configuration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: app.configPath})
	if loadError != nil {
		return config.ApplicationConfiguration{}, fmt.Errorf(errorLoadConfigurationFormat, loadError)
	}
	return configuration, nil
}

// resolveSelection converts input paths to absolute, cleaned directories and
// drops duplicates while keeping the first occurrence's position.
func resolveSelection(inputs []string) (types.ProjectSelection, error) {
	if len(inputs) == 0 {
		inputs = []string{defaultPath}
	}
	validatedPaths, validationError := resolveAndValidatePaths(inputs)
	if validationError != nil {
		return nil, validationError
	}
	selection := make(types.ProjectSelection, 0, len(validatedPaths))
	for _, validatedPath := range validatedPaths {
		if !validatedPath.IsDir {
			return nil, fmt.Errorf(errorNotDirectoryFormat, validatedPath.AbsolutePath)
		}
		selection = append(selection, validatedPath.AbsolutePath)
	}
	return selection, nil
}

// resolveAndValidatePaths converts input paths to absolute form and validates their existence.
func resolveAndValidatePaths(inputs []string) ([]types.ValidatedPath, error) {
	seen := make(map[string]struct{})
	var result []types.ValidatedPath
	for _, inputPath := range inputs {
		absolutePath, absolutePathError := filepath.Abs(inputPath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, ok := seen[cleanPath]; ok {
			continue
		}
		info, fileStatusError := os.Stat(cleanPath)
		if fileStatusError != nil {
			if os.IsNotExist(fileStatusError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
		}
		seen[cleanPath] = struct{}{}
		result = append(result, types.ValidatedPath{AbsolutePath: cleanPath, IsDir: info.IsDir()})
	}
	if len(result) == 0 {
		return nil, stream.ErrEmptySelection
	}
	return result, nil
}

func (app *application) copyToClipboard(text string) error {
	if app.copier == nil {
		return errors.New("clipboard is not available")
	}
	if copyError := app.copier.Copy(text); copyError != nil {
		return fmt.Errorf(errorCopyClipboardFormat, copyError)
	}
	return nil
}
