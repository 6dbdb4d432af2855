package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	remoteReferencePrefixTemplateConstant = "refs/remotes/%s/"
	commitLookupErrorTemplateConstant     = "unable to load commit %s: %w"
	remoteReferenceErrorTemplateConstant  = "unable to resolve %s: %w"
	referenceListErrorTemplateConstant    = "unable to list references: %w"
	historyWalkErrorTemplateConstant      = "unable to walk history from %s: %w"
	parentLookupErrorTemplateConstant     = "unable to load first parent of %s: %w"
)

// UnpushedCommits returns commits reachable from HEAD but not from origin/<branchName>, oldest first:
// parents always precede their children, whatever their committer clocks say.
// When origin/<branchName> does not exist every origin remote-tracking ref is treated as pushed.
func (repository *Repository) UnpushedCommits(executionContext context.Context, branchName string) ([]*object.Commit, error) {
	headReference, headError := repository.head()
	if headError != nil {
		return nil, headError
	}

	pushedTips, tipsError := repository.pushedTips(branchName)
	if tipsError != nil {
		return nil, tipsError
	}

	pushedCommits := map[plumbing.Hash]bool{}
	for _, pushedTip := range pushedTips {
		if pushedCommits[pushedTip] {
			continue
		}
		tipCommit, tipError := repository.commit(pushedTip)
		if tipError != nil {
			return nil, tipError
		}
		walkError := object.NewCommitPreorderIter(tipCommit, pushedCommits, nil).ForEach(func(reachable *object.Commit) error {
			if contextError := executionContext.Err(); contextError != nil {
				return contextError
			}
			pushedCommits[reachable.Hash] = true
			return nil
		})
		if walkError != nil {
			return nil, fmt.Errorf(historyWalkErrorTemplateConstant, pushedTip, walkError)
		}
	}

	headCommit, headCommitError := repository.commit(headReference.Hash())
	if headCommitError != nil {
		return nil, headCommitError
	}

	unpushedCommits := []*object.Commit{}
	walkError := object.NewCommitPreorderIter(headCommit, pushedCommits, nil).ForEach(func(candidate *object.Commit) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		unpushedCommits = append(unpushedCommits, candidate)
		return nil
	})
	if walkError != nil {
		return nil, fmt.Errorf(historyWalkErrorTemplateConstant, headReference.Hash(), walkError)
	}

	return parentsFirst(unpushedCommits), nil
}

// History walks every commit reachable from HEAD in go-git's default log order (newest first).
func (repository *Repository) History(executionContext context.Context) ([]*object.Commit, error) {
	headReference, headError := repository.head()
	if headError != nil {
		return nil, headError
	}

	commitIterator, logError := repository.repository.Log(&git.LogOptions{From: headReference.Hash()})
	if logError != nil {
		return nil, fmt.Errorf(historyWalkErrorTemplateConstant, headReference.Hash(), logError)
	}
	defer commitIterator.Close()

	historyCommits := []*object.Commit{}
	walkError := commitIterator.ForEach(func(visited *object.Commit) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		historyCommits = append(historyCommits, visited)
		return nil
	})
	if walkError != nil {
		return nil, fmt.Errorf(historyWalkErrorTemplateConstant, headReference.Hash(), walkError)
	}

	return historyCommits, nil
}

// FirstParent returns the first parent of commit, or nil for a root commit.
func (repository *Repository) FirstParent(commit *object.Commit) (*object.Commit, error) {
	if commit == nil || commit.NumParents() == 0 {
		return nil, nil
	}
	parentCommit, parentError := commit.Parent(0)
	if parentError != nil {
		return nil, fmt.Errorf(parentLookupErrorTemplateConstant, commit.Hash, parentError)
	}
	return parentCommit, nil
}

func (repository *Repository) pushedTips(branchName string) ([]plumbing.Hash, error) {
	trackingReferenceName := plumbing.NewRemoteReferenceName(OriginRemoteNameConstant, branchName)
	trackingReference, referenceError := repository.repository.Reference(trackingReferenceName, true)
	if referenceError == nil {
		return []plumbing.Hash{trackingReference.Hash()}, nil
	}
	if !errors.Is(referenceError, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf(remoteReferenceErrorTemplateConstant, trackingReferenceName, referenceError)
	}

	references, listError := repository.repository.References()
	if listError != nil {
		return nil, fmt.Errorf(referenceListErrorTemplateConstant, listError)
	}
	defer references.Close()

	originPrefix := fmt.Sprintf(remoteReferencePrefixTemplateConstant, OriginRemoteNameConstant)
	pushedTips := []plumbing.Hash{}
	iterationError := references.ForEach(func(reference *plumbing.Reference) error {
		if reference.Type() != plumbing.HashReference {
			return nil
		}
		if !strings.HasPrefix(reference.Name().String(), originPrefix) {
			return nil
		}
		pushedTips = append(pushedTips, reference.Hash())
		return nil
	})
	if iterationError != nil {
		return nil, fmt.Errorf(referenceListErrorTemplateConstant, iterationError)
	}

	return pushedTips, nil
}

func (repository *Repository) commit(commitHash plumbing.Hash) (*object.Commit, error) {
	loadedCommit, lookupError := repository.repository.CommitObject(commitHash)
	if lookupError != nil {
		return nil, fmt.Errorf(commitLookupErrorTemplateConstant, commitHash, lookupError)
	}
	return loadedCommit, nil
}

// parentsFirst orders commits so that every commit follows its parents within the set.
// Committer time only breaks ties between commits that are ready at the same time.
func parentsFirst(commits []*object.Commit) []*object.Commit {
	members := make(map[plumbing.Hash]bool, len(commits))
	for _, member := range commits {
		members[member.Hash] = true
	}

	pendingParents := make(map[plumbing.Hash]int, len(commits))
	children := make(map[plumbing.Hash][]*object.Commit, len(commits))
	ready := []*object.Commit{}
	for _, member := range commits {
		for _, parentHash := range member.ParentHashes {
			if !members[parentHash] {
				continue
			}
			pendingParents[member.Hash]++
			children[parentHash] = append(children[parentHash], member)
		}
		if pendingParents[member.Hash] == 0 {
			ready = append(ready, member)
		}
	}

	ordered := make([]*object.Commit, 0, len(commits))
	for len(ready) > 0 {
		earliestIndex := 0
		for candidateIndex := 1; candidateIndex < len(ready); candidateIndex++ {
			if committedBefore(ready[candidateIndex], ready[earliestIndex]) {
				earliestIndex = candidateIndex
			}
		}
		next := ready[earliestIndex]
		ready = append(ready[:earliestIndex], ready[earliestIndex+1:]...)
		ordered = append(ordered, next)

		for _, child := range children[next.Hash] {
			pendingParents[child.Hash]--
			if pendingParents[child.Hash] == 0 {
				ready = append(ready, child)
			}
		}
	}
	return ordered
}

func committedBefore(left *object.Commit, right *object.Commit) bool {
	if !left.Committer.When.Equal(right.Committer.When) {
		return left.Committer.When.Before(right.Committer.When)
	}
	return left.Hash.String() < right.Hash.String()
}
