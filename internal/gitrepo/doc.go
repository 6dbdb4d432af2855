// Package gitrepo wraps go-git to answer the questions a working-copy report
// asks of a local repository.
//
// Open validates the `.git` directory and returns a Repository. The Repository
// resolves the origin remote, reads the merged user identity, fetches, lists
// untracked files, diffs uncommitted edits against HEAD, enumerates unpushed and
// historical commits, and computes the per-commit changes that feed commit records.
package gitrepo
