package workingcopy

import (
	"context"

	"github.com/google/uuid"

	"github.com/temirov/livegit/internal/gitrepo"
)

// RepositoryOpener opens the repository rooted at repositoryPath.
type RepositoryOpener func(repositoryPath string) (*gitrepo.Repository, error)

// StatisticsCollector produces the fileStats mapping for a repository.
type StatisticsCollector interface {
	Collect(executionContext context.Context, repositoryPath string) (map[string]any, error)
}

// IdentifierGenerator returns a fresh collection identifier.
type IdentifierGenerator func() string

func newRandomIdentifier() string {
	return uuid.NewString()
}
