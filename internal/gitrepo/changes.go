package gitrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	patchErrorTemplateConstant  = "unable to diff %s against %s: %w"
	encodeErrorTemplateConstant = "unable to render diff for %s: %w"
)

// FileDiff is the unified diff of a single file.
type FileDiff struct {
	Path    string
	Content string
}

// CommitChanges lists the files a commit changed relative to a previous commit.
type CommitChanges struct {
	Files []string
	Diffs []FileDiff
}

// Changes compares previous to commit. A nil previous yields no changes.
// Files names every changed path (the new path, or the old one for deletions);
// Diffs skips deleted and renamed files.
func (repository *Repository) Changes(executionContext context.Context, commit *object.Commit, previous *object.Commit) (CommitChanges, error) {
	changes := CommitChanges{Files: []string{}, Diffs: []FileDiff{}}
	if commit == nil || previous == nil {
		return changes, nil
	}

	patch, patchError := previous.PatchContext(executionContext, commit)
	if patchError != nil {
		return CommitChanges{}, fmt.Errorf(patchErrorTemplateConstant, commit.Hash, previous.Hash, patchError)
	}

	for _, filePatch := range patch.FilePatches() {
		fromFile, toFile := filePatch.Files()
		if fromFile == nil && toFile == nil {
			continue
		}

		if toFile == nil {
			changes.Files = append(changes.Files, fromFile.Path())
			continue
		}
		changes.Files = append(changes.Files, toFile.Path())

		if fromFile != nil && fromFile.Path() != toFile.Path() {
			continue
		}

		renderedDiff, renderError := renderFilePatch(filePatch)
		if renderError != nil {
			return CommitChanges{}, fmt.Errorf(encodeErrorTemplateConstant, toFile.Path(), renderError)
		}
		changes.Diffs = append(changes.Diffs, FileDiff{Path: toFile.Path(), Content: renderedDiff})
	}

	return changes, nil
}

type singleFilePatch struct {
	filePatch diff.FilePatch
}

func (patch singleFilePatch) FilePatches() []diff.FilePatch {
	return []diff.FilePatch{patch.filePatch}
}

func (patch singleFilePatch) Message() string {
	return ""
}

func renderFilePatch(filePatch diff.FilePatch) (string, error) {
	var builder strings.Builder
	encoder := diff.NewUnifiedEncoder(&builder, diff.DefaultContextLines)
	if encodeError := encoder.Encode(singleFilePatch{filePatch: filePatch}); encodeError != nil {
		return "", encodeError
	}
	return builder.String(), nil
}
