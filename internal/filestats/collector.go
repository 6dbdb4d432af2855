package filestats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/livegit/internal/execshell"
)

const (
	// DefaultHelperConstant is the statistics helper looked up on PATH when none is configured.
	DefaultHelperConstant = "gitstatus"
	// DefaultTimeoutConstant bounds a single helper run when no timeout is configured.
	DefaultTimeoutConstant = 30 * time.Second

	executorMissingMessageConstant       = "command executor not configured"
	repositoryPathMissingMessageConstant = "repository path must be provided"
	helperRunErrorTemplateConstant       = "statistics helper %s failed: %w"
	helperDecodeErrorTemplateConstant    = "statistics helper %s produced unusable output: %w"
)

// ErrExecutorNotConfigured indicates the collector has no command executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrRepositoryPathRequired indicates Collect was called without a path.
var ErrRepositoryPathRequired = errors.New(repositoryPathMissingMessageConstant)

// Collector produces the opaque statistics mapping for a repository.
type Collector interface {
	Collect(executionContext context.Context, repositoryPath string) (map[string]any, error)
}

// CommandExecutor runs a helper process.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Configuration selects and bounds the helper process.
type Configuration struct {
	Helper    string        `mapstructure:"helper"`
	Arguments []string      `mapstructure:"arguments"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DefaultConfiguration returns the gitstatus helper with the default timeout.
func DefaultConfiguration() Configuration {
	return Configuration{Helper: DefaultHelperConstant, Arguments: []string{}, Timeout: DefaultTimeoutConstant}
}

// Sanitize trims values and substitutes defaults for missing ones.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := Configuration{
		Helper:    strings.TrimSpace(configuration.Helper),
		Arguments: []string{},
		Timeout:   configuration.Timeout,
	}
	if len(sanitized.Helper) == 0 {
		sanitized.Helper = DefaultHelperConstant
	}
	for _, argument := range configuration.Arguments {
		if trimmedArgument := strings.TrimSpace(argument); len(trimmedArgument) > 0 {
			sanitized.Arguments = append(sanitized.Arguments, trimmedArgument)
		}
	}
	if sanitized.Timeout <= 0 {
		sanitized.Timeout = DefaultTimeoutConstant
	}
	return sanitized
}

// HelperCollector runs the configured helper through a CommandExecutor.
type HelperCollector struct {
	executor      CommandExecutor
	configuration Configuration
}

// NewHelperCollector validates its dependencies and returns a collector.
func NewHelperCollector(executor CommandExecutor, configuration Configuration) (*HelperCollector, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &HelperCollector{executor: executor, configuration: configuration.Sanitize()}, nil
}

// Collect runs the helper in repositoryPath and decodes its standard output.
func (collector *HelperCollector) Collect(executionContext context.Context, repositoryPath string) (map[string]any, error) {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	helperContext, cancel := context.WithTimeout(executionContext, collector.configuration.Timeout)
	defer cancel()

	helperArguments := append(append([]string{}, collector.configuration.Arguments...), repositoryPath)
	executionResult, executionError := collector.executor.Execute(helperContext, execshell.ShellCommand{
		Name: execshell.CommandName(collector.configuration.Helper),
		Details: execshell.CommandDetails{
			Arguments:        helperArguments,
			WorkingDirectory: repositoryPath,
		},
	})
	if executionError != nil {
		return nil, fmt.Errorf(helperRunErrorTemplateConstant, collector.configuration.Helper, executionError)
	}

	statistics, decodeError := DecodeOutput(executionResult.StandardOutput)
	if decodeError != nil {
		return nil, fmt.Errorf(helperDecodeErrorTemplateConstant, collector.configuration.Helper, decodeError)
	}
	return statistics, nil
}
