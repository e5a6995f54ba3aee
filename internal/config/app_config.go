package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/viper"

	"github.com/temirov/bundle/internal/utils"
)

const (
	environmentPrefix = "BUNDLE"

	keyIgnoreNames           = "ignore.names"
	keyIgnoreReplaceDefaults = "ignore.replace_defaults"
	keyIgnoreUseGitignore    = "ignore.use_gitignore"
	keyOutput                = "output"
	keyClipboard             = "clipboard"
	keyTokensEnabled         = "tokens.enabled"
	keyTokensModel           = "tokens.model"
	keyProgress              = "progress"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds defaults for the bundle commands.
type ApplicationConfiguration struct {
	Ignore    IgnoreConfiguration `mapstructure:"ignore"`
	Output    string              `mapstructure:"output"`
	Clipboard *bool               `mapstructure:"clipboard"`
	Tokens    TokenConfiguration  `mapstructure:"tokens"`
	Progress  *bool               `mapstructure:"progress"`
}

// IgnoreConfiguration controls which names are excluded while scanning.
type IgnoreConfiguration struct {
	Names           []string `mapstructure:"names"`
	ReplaceDefaults *bool    `mapstructure:"replace_defaults"`
	UseGitignore    *bool    `mapstructure:"use_gitignore"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from the global file and
// overlays the local (or explicitly named) file on top of it.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged = merged.Merge(loadEnvironmentOverrides())
	merged.Ignore.Names = utils.DeduplicatePatterns(merged.Ignore.Names)

	return merged, nil
}

// loadEnvironmentOverrides reads BUNDLE_* variables, e.g. BUNDLE_TOKENS_MODEL
// for tokens.model. They take precedence over every configuration file.
func loadEnvironmentOverrides() ApplicationConfiguration {
	reader := viper.New()
	reader.SetEnvPrefix(environmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	reader.AutomaticEnv()

	var overrides ApplicationConfiguration
	if reader.IsSet(keyIgnoreNames) {
		overrides.Ignore.Names = strings.FieldsFunc(reader.GetString(keyIgnoreNames), isNameSeparator)
	}
	overrides.Ignore.ReplaceDefaults = environmentBool(reader, keyIgnoreReplaceDefaults)
	overrides.Ignore.UseGitignore = environmentBool(reader, keyIgnoreUseGitignore)
	overrides.Output = reader.GetString(keyOutput)
	overrides.Clipboard = environmentBool(reader, keyClipboard)
	overrides.Tokens.Enabled = environmentBool(reader, keyTokensEnabled)
	overrides.Tokens.Model = reader.GetString(keyTokensModel)
	overrides.Progress = environmentBool(reader, keyProgress)
	return overrides
}

func environmentBool(reader *viper.Viper, key string) *bool {
	if !reader.IsSet(key) {
		return nil
	}
	value := reader.GetBool(key)
	return &value
}

func isNameSeparator(character rune) bool {
	return character == ',' || unicode.IsSpace(character)
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
// Unset fields of override keep the receiver's values.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Ignore = result.Ignore.merge(override.Ignore)
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	if override.Progress != nil {
		result.Progress = cloneBool(override.Progress)
	}
	return result
}

func (config IgnoreConfiguration) merge(override IgnoreConfiguration) IgnoreConfiguration {
	result := config
	if len(override.Names) > 0 {
		result.Names = append([]string{}, utils.DeduplicatePatterns(override.Names)...)
	}
	if override.ReplaceDefaults != nil {
		result.ReplaceDefaults = cloneBool(override.ReplaceDefaults)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// BoolValue dereferences value, returning fallback when it is unset.
func BoolValue(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
