// Package workingcopy assembles the records livegit reports about a local
// repository.
//
// Service.CollectComputer reads the user identity and origin URL.
// Service.CollectWorkingCopy additionally fetches origin, lists untracked
// files, diffs pending edits, the unpushed commits and the full history, and merges the
// statistics helper output. The Cobra commands in this package render either
// record as JSON, YAML, or a colorized summary.
package workingcopy
