package workingcopy

import (
	"strings"
	"time"
)

const (
	defaultRepositoryPathConstant    = "."
	defaultFetchTimeoutConstant      = 2 * time.Minute
	defaultCollectionTimeoutConstant = 10 * time.Minute
)

// CommandConfiguration holds the working_copy configuration section.
type CommandConfiguration struct {
	ComputerID        string        `mapstructure:"computer_id"`
	RepositoryPath    string        `mapstructure:"repository_path"`
	Output            string        `mapstructure:"output"`
	SkipFetch         bool          `mapstructure:"skip_fetch"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	CollectionTimeout time.Duration `mapstructure:"collection_timeout"`
}

// DefaultCommandConfiguration returns the values used when nothing is configured.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath:    defaultRepositoryPathConstant,
		Output:            string(OutputFormatJSON),
		FetchTimeout:      defaultFetchTimeoutConstant,
		CollectionTimeout: defaultCollectionTimeoutConstant,
	}
}

// DefaultConfigurationValues returns Viper defaults keyed under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + ".computer_id":        defaults.ComputerID,
		prefix + ".repository_path":    defaults.RepositoryPath,
		prefix + ".output":             defaults.Output,
		prefix + ".skip_fetch":         defaults.SkipFetch,
		prefix + ".fetch_timeout":      defaults.FetchTimeout,
		prefix + ".collection_timeout": defaults.CollectionTimeout,
	}
}

// Sanitize trims string values and restores defaults for empty or non-positive ones.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.ComputerID = strings.TrimSpace(configuration.ComputerID)
	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	if len(sanitized.RepositoryPath) == 0 {
		sanitized.RepositoryPath = defaults.RepositoryPath
	}
	sanitized.Output = strings.ToLower(strings.TrimSpace(configuration.Output))
	if len(sanitized.Output) == 0 {
		sanitized.Output = defaults.Output
	}
	if sanitized.FetchTimeout <= 0 {
		sanitized.FetchTimeout = defaults.FetchTimeout
	}
	if sanitized.CollectionTimeout <= 0 {
		sanitized.CollectionTimeout = defaults.CollectionTimeout
	}
	return sanitized
}
