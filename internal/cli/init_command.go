package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/bundle/internal/config"
)

const (
	initUse                    = "init"
	initShortDescription       = "write a default configuration file"
	initLongDescription        = `Write a default .bundle.yaml into the working directory, or into ~/.bundle with --global.`
	globalFlagName             = "global"
	globalFlagDescription      = "write the configuration into the global configuration directory"
	forceFlagName              = "force"
	forceFlagDescription       = "overwrite an existing configuration file"
	configurationWrittenFormat = "Configuration written to %s"
)

// createInitCommand returns the init subcommand.
func (app *application) createInitCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(app.stdout, configurationWrittenFormat+"\n", path)
			return printError
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
