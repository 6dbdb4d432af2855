// Package filestats obtains working-tree statistics from an external helper process.
//
// The helper (by default the zsh-git-prompt style `gitstatus` executable) runs
// with the repository path as its last argument. A JSON object on standard
// output is passed through untouched; the classic whitespace-separated
// "branch ahead behind staged conflicts changed untracked" line is mapped onto
// named keys.
package filestats
