package workingcopy

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/livegit/internal/execshell"
	"github.com/temirov/livegit/internal/filestats"
	"github.com/temirov/livegit/internal/ui"
	"github.com/temirov/livegit/internal/utils"
	"github.com/temirov/livegit/internal/utils/flags"
	pathutils "github.com/temirov/livegit/internal/utils/path"
)

const (
	computerCommandUseConstant              = "computer"
	computerCommandShortDescriptionConstant = "Print the git identity and origin remote of a repository"
	computerCommandLongDescriptionConstant  = "computer reads user.name and user.email from the merged git configuration and the URL of the origin remote."
	workingCopyCommandUseConstant           = "working-copy"
	workingCopyShortDescriptionConstant     = "Collect branch, unpushed commits, diffs, and file statistics of a repository"
	workingCopyLongDescriptionConstant      = "working-copy fetches origin, lists untracked files, diffs pending edits and every unpushed commit and the full history, and merges the statistics helper output into a single record."
	unexpectedArgumentsMessageConstant      = "command does not accept positional arguments"
	commandExecutionErrorTemplateConstant   = "%s failed: %w"
	outputSubjectConstant                   = "output format"
	flagRepositoryNameConstant              = "repository"
	flagRepositoryShorthandConstant         = "C"
	flagRepositoryDescriptionConstant       = "Path to the repository root (defaults to the working directory)"
	flagOutputNameConstant                  = "output"
	flagOutputShorthandConstant             = "o"
	flagOutputDescriptionConstant           = "Output format for the collected record"
	flagComputerIDNameConstant              = "computer-id"
	flagComputerIDDescriptionConstant       = "Identifier of this computer, copied verbatim into the record"
	flagSkipFetchNameConstant               = "skip-fetch"
	flagSkipFetchDescriptionConstant        = "Do not fetch origin before computing unpushed commits"
	flagFetchTimeoutNameConstant            = "fetch-timeout"
	flagFetchTimeoutDescriptionConstant     = "Maximum duration of the origin fetch"
	flagTimeoutNameConstant                 = "timeout"
	flagTimeoutDescriptionConstant          = "Maximum duration of the whole command"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the working_copy configuration section.
type ConfigurationProvider func() CommandConfiguration

// StatisticsConfigurationProvider supplies the statistics configuration section.
type StatisticsConfigurationProvider func() filestats.Configuration

// CommandBuilder assembles the computer and working-copy commands.
type CommandBuilder struct {
	LoggerProvider                  LoggerProvider
	ConfigurationProvider           ConfigurationProvider
	StatisticsConfigurationProvider StatisticsConfigurationProvider
	HumanReadableLoggingProvider    func() bool
	Executor                        filestats.CommandExecutor
	RepositoryOpener                RepositoryOpener
	PathResolver                    *pathutils.RepositoryPathResolver
}

// BuildComputer constructs the computer command.
func (builder *CommandBuilder) BuildComputer() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   computerCommandUseConstant,
		Short: computerCommandShortDescriptionConstant,
		Long:  computerCommandLongDescriptionConstant,
		RunE:  builder.runComputer,
	}
	builder.registerCommonFlags(command)
	return command, nil
}

// BuildWorkingCopy constructs the working-copy command.
func (builder *CommandBuilder) BuildWorkingCopy() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   workingCopyCommandUseConstant,
		Short: workingCopyShortDescriptionConstant,
		Long:  workingCopyLongDescriptionConstant,
		RunE:  builder.runWorkingCopy,
	}
	builder.registerCommonFlags(command)

	defaults := DefaultCommandConfiguration()
	command.Flags().String(flagComputerIDNameConstant, "", flagComputerIDDescriptionConstant)
	command.Flags().Bool(flagSkipFetchNameConstant, false, flagSkipFetchDescriptionConstant)
	command.Flags().Duration(flagFetchTimeoutNameConstant, defaults.FetchTimeout, flagFetchTimeoutDescriptionConstant)
	return command, nil
}

func (builder *CommandBuilder) registerCommonFlags(command *cobra.Command) {
	command.Flags().StringP(flagRepositoryNameConstant, flagRepositoryShorthandConstant, "", flagRepositoryDescriptionConstant)
	command.Flags().StringP(
		flagOutputNameConstant,
		flagOutputShorthandConstant,
		"",
		flags.FormatChoiceUsage(string(OutputFormatJSON), SupportedOutputFormats(), flagOutputDescriptionConstant),
	)
	command.Flags().Duration(flagTimeoutNameConstant, DefaultCommandConfiguration().CollectionTimeout, flagTimeoutDescriptionConstant)
}

func (builder *CommandBuilder) runComputer(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	renderer, rendererError := newRendererFor(configuration.Output)
	if rendererError != nil {
		return rendererError
	}
	repositoryPath, pathError := builder.resolvePathResolver().Resolve(configuration.RepositoryPath)
	if pathError != nil {
		return pathError
	}

	service, serviceError := builder.newService(builder.resolveLogger())
	if serviceError != nil {
		return serviceError
	}

	executionContext, cancel := collectionContext(command, configuration)
	defer cancel()

	computer, collectError := service.CollectComputer(executionContext, repositoryPath)
	if collectError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, computerCommandUseConstant, collectError)
	}
	return renderer.RenderComputer(command.OutOrStdout(), computer)
}

func (builder *CommandBuilder) runWorkingCopy(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	if len(configuration.ComputerID) == 0 {
		return ErrComputerIDRequired
	}
	renderer, rendererError := newRendererFor(configuration.Output)
	if rendererError != nil {
		return rendererError
	}
	repositoryPath, pathError := builder.resolvePathResolver().Resolve(configuration.RepositoryPath)
	if pathError != nil {
		return pathError
	}

	service, serviceError := builder.newService(builder.resolveLogger())
	if serviceError != nil {
		return serviceError
	}

	executionContext, cancel := collectionContext(command, configuration)
	defer cancel()

	collectionIdentifier, _ := utils.NewCommandContextAccessor().CollectionIdentifier(executionContext)
	workingCopy, collectError := service.CollectWorkingCopy(executionContext, Options{
		RepositoryPath:       repositoryPath,
		Parameters:           Parameters{ComputerID: configuration.ComputerID},
		SkipFetch:            configuration.SkipFetch,
		FetchTimeout:         configuration.FetchTimeout,
		CollectionIdentifier: collectionIdentifier,
	})
	if collectError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, workingCopyCommandUseConstant, collectError)
	}
	return renderer.RenderWorkingCopy(command.OutOrStdout(), workingCopy)
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(flagRepositoryNameConstant) {
		configuration.RepositoryPath, _ = commandFlags.GetString(flagRepositoryNameConstant)
	}
	if commandFlags.Changed(flagOutputNameConstant) {
		configuration.Output, _ = commandFlags.GetString(flagOutputNameConstant)
	}
	if commandFlags.Changed(flagComputerIDNameConstant) {
		configuration.ComputerID, _ = commandFlags.GetString(flagComputerIDNameConstant)
	}
	if commandFlags.Changed(flagSkipFetchNameConstant) {
		configuration.SkipFetch, _ = commandFlags.GetBool(flagSkipFetchNameConstant)
	}
	if commandFlags.Changed(flagFetchTimeoutNameConstant) {
		configuration.FetchTimeout, _ = commandFlags.GetDuration(flagFetchTimeoutNameConstant)
	}
	if commandFlags.Changed(flagTimeoutNameConstant) {
		configuration.CollectionTimeout, _ = commandFlags.GetDuration(flagTimeoutNameConstant)
	}
	return configuration.Sanitize()
}

func (builder *CommandBuilder) newService(logger *zap.Logger) (*Service, error) {
	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}

	statisticsConfiguration := filestats.DefaultConfiguration()
	if builder.StatisticsConfigurationProvider != nil {
		statisticsConfiguration = builder.StatisticsConfigurationProvider()
	}
	statisticsCollector, collectorError := filestats.NewHelperCollector(executor, statisticsConfiguration)
	if collectorError != nil {
		return nil, collectorError
	}

	return NewService(Dependencies{
		Logger:              logger,
		RepositoryOpener:    builder.RepositoryOpener,
		StatisticsCollector: statisticsCollector,
	})
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (filestats.CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	var eventObserver execshell.CommandEventObserver
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		eventObserver = ui.NewConsoleCommandEventLogger(logger)
	}
	shellExecutor, creationError := execshell.NewShellExecutorWithObserver(logger, execshell.NewOSCommandRunner(), eventObserver)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolvePathResolver() *pathutils.RepositoryPathResolver {
	if builder.PathResolver != nil {
		return builder.PathResolver
	}
	return pathutils.NewRepositoryPathResolver()
}

func collectionContext(command *cobra.Command, configuration CommandConfiguration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(commandContext(command), configuration.CollectionTimeout)
}

func newRendererFor(output string) (*Renderer, error) {
	normalizedOutput, normalizeError := flags.NormalizeChoice(outputSubjectConstant, output, string(OutputFormatJSON), SupportedOutputFormats())
	if normalizeError != nil {
		return nil, normalizeError
	}
	return NewRenderer(OutputFormat(normalizedOutput))
}

func commandContext(command *cobra.Command) context.Context {
	if command.Context() != nil {
		return command.Context()
	}
	return context.Background()
}
