package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/bundle/internal/config"
)

const (
	toggleFlagTypeName               = "bool"
	toggleFlagTrueLiteral            = "true"
	toggleFlagAcceptedValuesListing  = "true, false, yes, no, on, off, 1, 0"
	toggleFlagInvalidValueErrorLabel = "invalid boolean value"
)

var toggleFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// toggleSpacedLiterals are the values accepted as a separate argument after a
// toggle flag. Single-letter and numeric literals need "=" so a directory
// named "t" or "1" stays positional.
var toggleSpacedLiterals = map[string]struct{}{
	"true":  {},
	"false": {},
	"yes":   {},
	"no":    {},
	"on":    {},
	"off":   {},
}

// toggleFlag is a boolean flag that remembers whether it was given, so a
// configuration value applies only when the flag is absent.
type toggleFlag struct {
	value   *bool
	flagKey string
}

func (flag *toggleFlag) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = toggleFlagTrueLiteral
	}
	parsed, ok := toggleFlagLiterals[normalized]
	if !ok {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", toggleFlagInvalidValueErrorLabel, input, flag.flagKey, toggleFlagAcceptedValuesListing)
	}
	flag.value = &parsed
	return nil
}

func (flag *toggleFlag) String() string {
	if flag == nil || flag.value == nil {
		return "false"
	}
	return strconv.FormatBool(*flag.value)
}

func (flag *toggleFlag) Type() string {
	return toggleFlagTypeName
}

// resolve returns the flag value when given, then the configured value, then fallback.
func (flag *toggleFlag) resolve(configured *bool, fallback bool) bool {
	if flag != nil && flag.value != nil {
		return *flag.value
	}
	return config.BoolValue(configured, fallback)
}

func registerToggleFlag(flagSet *pflag.FlagSet, flag *toggleFlag, name string, usage string) {
	flag.flagKey = name
	flagSet.Var(flag, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.NoOptDefVal = toggleFlagTrueLiteral
	}
}

// normalizeToggleArguments rewrites "--flag value" into "--flag=value" when
// value is a spelled-out boolean literal, since pflag only binds optional
// values with "=".
func normalizeToggleArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	toggleNames := map[string]struct{}{}
	collectToggleFlagNames(command, toggleNames)
	if len(toggleNames) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	index := 0
	for index < len(arguments) {
		currentArgument := arguments[index]
		if currentArgument == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(currentArgument, "--") && !strings.Contains(currentArgument, "=") {
			flagName := strings.TrimPrefix(currentArgument, "--")
			if _, exists := toggleNames[flagName]; exists && index+1 < len(arguments) {
				nextArgument := arguments[index+1]
				literal := strings.ToLower(strings.TrimSpace(nextArgument))
				if _, valid := toggleSpacedLiterals[literal]; valid {
					normalized = append(normalized, fmt.Sprintf("--%s=%s", flagName, nextArgument))
					index += 2
					continue
				}
			}
		}
		normalized = append(normalized, currentArgument)
		index++
	}
	return normalized
}

func collectToggleFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if _, isToggle := flag.Value.(*toggleFlag); isToggle {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectToggleFlagNames(child, target)
	}
}
