// Package utils holds the ambient plumbing shared by livegit commands.
//
// ConfigurationLoader layers the embedded defaults, an optional configuration
// file, and LIVEGIT_* environment variables through Viper. LoggerFactory builds
// zap loggers in structured or console encodings. CommandContextAccessor
// carries per-invocation values such as the collection identifier on Cobra
// command contexts.
package utils
