package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	collectionIdentifierContextKeyConstant  = commandContextKey("collectionIdentifier")
)

type commandContextKey string

// CommandContextAccessor stores per-invocation values on command contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the resolved configuration file path.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return accessor.withValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath returns the configuration file path stored on the context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return accessor.stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithCollectionIdentifier attaches the identifier correlating log entries of one invocation.
func (accessor CommandContextAccessor) WithCollectionIdentifier(parentContext context.Context, collectionIdentifier string) context.Context {
	return accessor.withValue(parentContext, collectionIdentifierContextKeyConstant, collectionIdentifier)
}

// CollectionIdentifier returns the invocation identifier stored on the context.
func (accessor CommandContextAccessor) CollectionIdentifier(executionContext context.Context) (string, bool) {
	return accessor.stringValue(executionContext, collectionIdentifierContextKeyConstant)
}

func (accessor CommandContextAccessor) withValue(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func (accessor CommandContextAccessor) stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	storedValue, storedValueAvailable := executionContext.Value(key).(string)
	if !storedValueAvailable || len(storedValue) == 0 {
		return "", false
	}
	return storedValue, true
}
