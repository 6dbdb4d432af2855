package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/livegit/internal/filestats"
	"github.com/temirov/livegit/internal/utils"
	"github.com/temirov/livegit/internal/utils/flags"
	"github.com/temirov/livegit/internal/workingcopy"
)

const (
	applicationNameConstant                 = "livegit"
	applicationShortDescriptionConstant     = "Report the live state of a local git working copy"
	applicationLongDescriptionConstant      = "livegit reads identity, origin remote, untracked files, unpushed commits with their diffs, and file statistics from a local git repository and prints them as a structured record."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonLogLevelConfigKeyConstant         = "common.log_level"
	commonLogFormatConfigKeyConstant        = "common.log_format"
	workingCopyConfigurationKeyConstant     = "working_copy"
	statisticsHelperConfigKeyConstant       = "statistics.helper"
	statisticsArgumentsConfigKeyConstant    = "statistics.arguments"
	statisticsTimeoutConfigKeyConstant      = "statistics.timeout"
	environmentPrefixConstant               = "LIVEGIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	collectionIdentifierFieldConstant       = "collection_id"
	commandNameFieldConstant                = "command_name"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build command: %w"
)

// Version is reported by --version and is overridden at link time.
var Version = "dev"

// ApplicationConfiguration is the full livegit configuration document.
type ApplicationConfiguration struct {
	Common      ApplicationCommonConfiguration   `mapstructure:"common"`
	WorkingCopy workingcopy.CommandConfiguration `mapstructure:"working_copy"`
	Statistics  filestats.Configuration          `mapstructure:"statistics"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
	identifierGenerator    func() string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() (*Application, error) {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		identifierGenerator:    uuid.NewString,
	}

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
	}
	rootCommand.SetContext(context.Background())

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogLevelInfo), utils.SupportedLogLevels(), logLevelFlagUsageConstant),
	)
	persistentFlags.StringVar(
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogFormatConsole), utils.SupportedLogFormats(), logFormatFlagUsageConstant),
	)

	commandBuilder := workingcopy.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() workingcopy.CommandConfiguration {
			return application.configuration.WorkingCopy
		},
		StatisticsConfigurationProvider: func() filestats.Configuration {
			return application.configuration.Statistics
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
	}

	computerCommand, computerBuildError := commandBuilder.BuildComputer()
	if computerBuildError != nil {
		return nil, fmt.Errorf(commandBuildErrorTemplateConstant, computerBuildError)
	}
	rootCommand.AddCommand(computerCommand)

	workingCopyCommand, workingCopyBuildError := commandBuilder.BuildWorkingCopy()
	if workingCopyBuildError != nil {
		return nil, fmt.Errorf(commandBuildErrorTemplateConstant, workingCopyBuildError)
	}
	rootCommand.AddCommand(workingCopyCommand)

	application.rootCommand = rootCommand
	return application, nil
}

// RootCommand exposes the root Cobra command.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute runs the command hierarchy and flushes the logger.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	application, creationError := NewApplication()
	if creationError != nil {
		return creationError
	}
	return application.Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:      string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:     string(utils.LogFormatConsole),
		statisticsHelperConfigKeyConstant:    filestats.DefaultHelperConstant,
		statisticsArgumentsConfigKeyConstant: []string{},
		statisticsTimeoutConfigKeyConstant:   filestats.DefaultTimeoutConstant,
	}
	for configurationKey, configurationValue := range workingcopy.DefaultConfigurationValues(workingCopyConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	collectionIdentifier := application.identifierGenerator()
	application.logger = logger.With(zap.String(collectionIdentifierFieldConstant, collectionIdentifier))
	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(commandNameFieldConstant, command.Name()),
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
	updatedContext = application.commandContextAccessor.WithCollectionIdentifier(updatedContext, collectionIdentifier)
	command.SetContext(updatedContext)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogFormat), string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	flagSetsToInspect := []*pflag.FlagSet{command.PersistentFlags(), command.InheritedFlags()}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}
