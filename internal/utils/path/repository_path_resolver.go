package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant                 = "~"
	currentDirectoryConstant            = "."
	absolutePathErrorTemplateConstant   = "unable to resolve absolute path for %s: %w"
	homeDirectoryErrorTemplateConstant  = "unable to expand %s: %w"
	homeDirectoryMissingMessageConstant = "home directory is unknown"
)

// ErrHomeDirectoryUnavailable indicates a tilde path could not be expanded.
var ErrHomeDirectoryUnavailable = errors.New(homeDirectoryMissingMessageConstant)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// RepositoryPathResolver turns user-supplied repository paths into clean absolute paths.
type RepositoryPathResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	homeDirectoryOnce     sync.Once
}

// NewRepositoryPathResolver constructs a resolver backed by os.UserHomeDir.
func NewRepositoryPathResolver() *RepositoryPathResolver {
	return NewRepositoryPathResolverWithProvider(os.UserHomeDir)
}

// NewRepositoryPathResolverWithProvider constructs a resolver with a custom home directory lookup.
func NewRepositoryPathResolverWithProvider(provider HomeDirectoryProvider) *RepositoryPathResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &RepositoryPathResolver{homeDirectoryProvider: provider}
}

// Resolve expands "~" and "~/..." prefixes, defaults an empty path to the
// working directory, and returns the cleaned absolute path.
func (resolver *RepositoryPathResolver) Resolve(candidatePath string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		trimmedPath = currentDirectoryConstant
	}

	expandedPath, expansionError := resolver.expandHome(trimmedPath)
	if expansionError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, trimmedPath, expansionError)
	}

	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", fmt.Errorf(absolutePathErrorTemplateConstant, expandedPath, absoluteError)
	}
	return absolutePath, nil
}

func (resolver *RepositoryPathResolver) expandHome(candidatePath string) (string, error) {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath, nil
	}

	remainder := strings.TrimPrefix(candidatePath, tildeSymbolConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath, nil
	}

	homeDirectory, homeDirectoryError := resolver.resolveHomeDirectory()
	if homeDirectoryError != nil {
		return "", homeDirectoryError
	}
	return filepath.Join(homeDirectory, remainder), nil
}

func (resolver *RepositoryPathResolver) resolveHomeDirectory() (string, error) {
	resolver.homeDirectoryOnce.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
		if resolver.homeDirectoryError == nil && len(resolver.homeDirectory) == 0 {
			resolver.homeDirectoryError = ErrHomeDirectoryUnavailable
		}
	})
	return resolver.homeDirectory, resolver.homeDirectoryError
}
