// Package cli builds the livegit command-line interface: the Cobra command
// tree, layered Viper configuration with LIVEGIT_* environment overrides, and
// the zap logger shared by every command.
package cli
