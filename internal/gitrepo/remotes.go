package gitrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
)

const (
	// OriginRemoteNameConstant names the only remote a working-copy report accepts.
	OriginRemoteNameConstant           = "origin"
	originRemoteMissingMessageConstant = "this tool requires a remote named 'origin'"
	originRemoteNoURLMessageConstant   = "remote 'origin' has no configured URL"
	remoteListErrorTemplateConstant    = "unable to list remotes: %w"
	originFetchErrorTemplateConstant   = "unable to fetch from origin (%s): %w"
)

// ErrOriginRemoteMissing indicates the repository has no remote named origin.
var ErrOriginRemoteMissing = errors.New(originRemoteMissingMessageConstant)

// ErrOriginRemoteURLMissing indicates the origin remote exists without a URL.
var ErrOriginRemoteURLMissing = errors.New(originRemoteNoURLMessageConstant)

// OriginRemote describes the resolved origin remote.
type OriginRemote struct {
	Name string
	URL  string
}

// OriginRemote finds the remote named exactly origin among the configured remotes.
func (repository *Repository) OriginRemote() (OriginRemote, error) {
	originRemote, lookupError := repository.originRemote()
	if lookupError != nil {
		return OriginRemote{}, lookupError
	}

	remoteConfiguration := originRemote.Config()
	if len(remoteConfiguration.URLs) == 0 {
		return OriginRemote{}, ErrOriginRemoteURLMissing
	}

	return OriginRemote{Name: remoteConfiguration.Name, URL: remoteConfiguration.URLs[0]}, nil
}

// FetchOrigin fetches the origin remote. An already up-to-date remote is not an error.
func (repository *Repository) FetchOrigin(executionContext context.Context) error {
	originRemote, lookupError := repository.originRemote()
	if lookupError != nil {
		return lookupError
	}

	fetchError := originRemote.FetchContext(executionContext, &git.FetchOptions{RemoteName: OriginRemoteNameConstant})
	if fetchError == nil || errors.Is(fetchError, git.NoErrAlreadyUpToDate) {
		return nil
	}

	remoteURL := ""
	if urls := originRemote.Config().URLs; len(urls) > 0 {
		remoteURL = urls[0]
	}
	return fmt.Errorf(originFetchErrorTemplateConstant, remoteURL, fetchError)
}

func (repository *Repository) originRemote() (*git.Remote, error) {
	configuredRemotes, listError := repository.repository.Remotes()
	if listError != nil {
		return nil, fmt.Errorf(remoteListErrorTemplateConstant, listError)
	}

	for _, configuredRemote := range configuredRemotes {
		if configuredRemote.Config().Name == OriginRemoteNameConstant {
			return configuredRemote, nil
		}
	}

	return nil, ErrOriginRemoteMissing
}
