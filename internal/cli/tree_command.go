package cli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/bundle/internal/commands"
	"github.com/temirov/bundle/internal/ignore"
	"github.com/temirov/bundle/internal/output"
	"github.com/temirov/bundle/internal/types"
)

const (
	treeUse              = "tree [directories...]"
	treeAlias            = "t"
	treeShortDescription = "print the file structure only (" + treeAlias + ")"
	treeLongDescription  = `Print the file structure section of a bundle for each directory without
reading any file contents. The same exclusion rules as create apply.`
	treeUsageExample = `  # Preview what create would include
  bundle tree ./api ./web

  # Include files normally skipped by default
  bundle t --no-default-ignore .`

	errorScanProjectFormat = "scan %s: %w"
	logTreeSkippedEntry    = "skipped entry while scanning"
)

// treeOptions stores the flags of the tree command.
type treeOptions struct {
	ignore    ignoreOptions
	clipboard toggleFlag
}

// createTreeCommand returns the tree subcommand.
func (app *application) createTreeCommand() *cobra.Command {
	var options treeOptions

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runTree(arguments, &options)
		},
	}

	addIgnoreFlags(treeCommand, &options.ignore)
	registerToggleFlag(treeCommand.Flags(), &options.clipboard, clipboardFlagName, clipboardFlagDescription)
	return treeCommand
}

func (app *application) runTree(arguments []string, options *treeOptions) error {
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
	useGitignore := options.ignore.gitignore.resolve(configuration.Ignore.UseGitignore, false)

	var rendered bytes.Buffer
	if renderError := app.renderStructures(&rendered, selection, ignoreSet, useGitignore); renderError != nil {
		return renderError
	}
	if _, writeError := app.stdout.Write(rendered.Bytes()); writeError != nil {
		return writeError
	}
	if options.clipboard.resolve(configuration.Clipboard, false) {
		return app.copyToClipboard(rendered.String())
	}
	return nil
}

// renderStructures writes the banner and file structure of every project.
func (app *application) renderStructures(destination io.Writer, selection types.ProjectSelection, ignoreSet ignore.Set, useGitignore bool) error {
	writer := output.NewBundleWriter(destination)
	if bannerError := writer.WriteBanner(len(selection)); bannerError != nil {
		return bannerError
	}
	for _, root := range selection {
		collectOptions := commands.CollectOptions{
			Ignore: ignoreSet,
			Warn: func(message string) {
				app.logger.Warn(logTreeSkippedEntry, zap.String("project", root), zap.String("reason", message))
			},
		}
		if useGitignore {
			matcher, gitignoreError := ignore.LoadGitignore(root)
			if gitignoreError != nil {
				return fmt.Errorf(errorScanProjectFormat, root, gitignoreError)
			}
			collectOptions.Gitignore = matcher
		}
		relativePaths, collectError := commands.CollectProject(root, collectOptions)
		if collectError != nil {
			return fmt.Errorf(errorScanProjectFormat, root, collectError)
		}
		project := types.NewProjectFiles(root, relativePaths)
		if structureError := writer.WriteStructure(project.Name, commands.BuildTree(project.RelativePaths)); structureError != nil {
			return structureError
		}
	}
	return writer.Flush()
}
