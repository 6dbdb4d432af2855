package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"
	textdiff "github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	headTreeErrorTemplateConstant        = "unable to load tree of HEAD: %w"
	headFileErrorTemplateConstant        = "unable to read %s at HEAD: %w"
	worktreeFileErrorTemplateConstant    = "unable to read %s from the worktree: %w"
	binaryDetectionErrorTemplateConstant = "unable to inspect %s: %w"
)

// WorkingTreeChanges renders the uncommitted edits of tracked files as unified diffs of HEAD against
// the worktree, sorted by path. Untracked files are left out; pending deletions are included.
func (repository *Repository) WorkingTreeChanges(executionContext context.Context) ([]FileDiff, error) {
	headReference, headError := repository.head()
	if headError != nil {
		return nil, headError
	}
	headCommit, commitError := repository.commit(headReference.Hash())
	if commitError != nil {
		return nil, commitError
	}
	headTree, treeError := headCommit.Tree()
	if treeError != nil {
		return nil, fmt.Errorf(headTreeErrorTemplateConstant, treeError)
	}

	worktree, worktreeError := repository.repository.Worktree()
	if worktreeError != nil {
		return nil, fmt.Errorf(worktreeErrorTemplateConstant, worktreeError)
	}
	worktreeStatus, statusError := worktree.Status()
	if statusError != nil {
		return nil, fmt.Errorf(statusErrorTemplateConstant, statusError)
	}

	changedPaths := []string{}
	for filePath, fileStatus := range worktreeStatus {
		if fileStatus.Worktree == git.Untracked {
			continue
		}
		if fileStatus.Staging == git.Unmodified && fileStatus.Worktree == git.Unmodified {
			continue
		}
		changedPaths = append(changedPaths, filePath)
	}
	sort.Strings(changedPaths)

	fileDiffs := []FileDiff{}
	for _, changedPath := range changedPaths {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, contextError
		}

		committedSide, committedError := committedSnapshot(headTree, changedPath)
		if committedError != nil {
			return nil, committedError
		}
		worktreeSide, worktreeReadError := worktreeSnapshot(worktree, changedPath, committedSide)
		if worktreeReadError != nil {
			return nil, worktreeReadError
		}
		if committedSide == nil && worktreeSide == nil {
			continue
		}
		if committedSide != nil && worktreeSide != nil && committedSide.hash == worktreeSide.hash {
			continue
		}

		renderedDiff, renderError := renderFilePatch(newSnapshotPatch(committedSide, worktreeSide))
		if renderError != nil {
			return nil, fmt.Errorf(encodeErrorTemplateConstant, changedPath, renderError)
		}
		fileDiffs = append(fileDiffs, FileDiff{Path: changedPath, Content: renderedDiff})
	}

	return fileDiffs, nil
}

type fileSnapshot struct {
	path    string
	hash    plumbing.Hash
	mode    filemode.FileMode
	content string
	binary  bool
}

func (snapshot *fileSnapshot) Hash() plumbing.Hash {
	return snapshot.hash
}

func (snapshot *fileSnapshot) Mode() filemode.FileMode {
	return snapshot.mode
}

func (snapshot *fileSnapshot) Path() string {
	return snapshot.path
}

func committedSnapshot(headTree *object.Tree, filePath string) (*fileSnapshot, error) {
	committedFile, lookupError := headTree.File(filePath)
	if errors.Is(lookupError, object.ErrFileNotFound) {
		return nil, nil
	}
	if lookupError != nil {
		return nil, fmt.Errorf(headFileErrorTemplateConstant, filePath, lookupError)
	}

	isBinary, binaryError := committedFile.IsBinary()
	if binaryError != nil {
		return nil, fmt.Errorf(binaryDetectionErrorTemplateConstant, filePath, binaryError)
	}
	snapshot := &fileSnapshot{path: filePath, hash: committedFile.Hash, mode: committedFile.Mode, binary: isBinary}
	if isBinary {
		return snapshot, nil
	}

	content, contentError := committedFile.Contents()
	if contentError != nil {
		return nil, fmt.Errorf(headFileErrorTemplateConstant, filePath, contentError)
	}
	snapshot.content = content
	return snapshot, nil
}

func worktreeSnapshot(worktree *git.Worktree, filePath string, committedSide *fileSnapshot) (*fileSnapshot, error) {
	content, readError := util.ReadFile(worktree.Filesystem, filePath)
	if errors.Is(readError, os.ErrNotExist) {
		return nil, nil
	}
	if readError != nil {
		return nil, fmt.Errorf(worktreeFileErrorTemplateConstant, filePath, readError)
	}

	isBinary, binaryError := binary.IsBinary(bytes.NewReader(content))
	if binaryError != nil {
		return nil, fmt.Errorf(binaryDetectionErrorTemplateConstant, filePath, binaryError)
	}

	mode := filemode.Regular
	if committedSide != nil {
		mode = committedSide.mode
	}
	return &fileSnapshot{
		path:    filePath,
		hash:    plumbing.ComputeHash(plumbing.BlobObject, content),
		mode:    mode,
		content: string(content),
		binary:  isBinary,
	}, nil
}

type snapshotPatch struct {
	from   *fileSnapshot
	to     *fileSnapshot
	chunks []diff.Chunk
}

func newSnapshotPatch(from *fileSnapshot, to *fileSnapshot) snapshotPatch {
	patch := snapshotPatch{from: from, to: to}
	if patch.IsBinary() {
		return patch
	}

	var fromContent, toContent string
	if from != nil {
		fromContent = from.content
	}
	if to != nil {
		toContent = to.content
	}
	for _, lineDiff := range textdiff.Do(fromContent, toContent) {
		operation := diff.Equal
		switch lineDiff.Type {
		case diffmatchpatch.DiffInsert:
			operation = diff.Add
		case diffmatchpatch.DiffDelete:
			operation = diff.Delete
		}
		patch.chunks = append(patch.chunks, textChunk{content: lineDiff.Text, operation: operation})
	}
	return patch
}

func (patch snapshotPatch) IsBinary() bool {
	return (patch.from != nil && patch.from.binary) || (patch.to != nil && patch.to.binary)
}

// Files reports an absent side as a nil interface.
func (patch snapshotPatch) Files() (diff.File, diff.File) {
	var fromFile, toFile diff.File
	if patch.from != nil {
		fromFile = patch.from
	}
	if patch.to != nil {
		toFile = patch.to
	}
	return fromFile, toFile
}

func (patch snapshotPatch) Chunks() []diff.Chunk {
	return patch.chunks
}

type textChunk struct {
	content   string
	operation diff.Operation
}

func (chunk textChunk) Content() string {
	return chunk.content
}

func (chunk textChunk) Type() diff.Operation {
	return chunk.operation
}
