// Package execshell runs external helper processes in a testable, logged way.
//
// ShellExecutor wraps a CommandRunner with structured zap logging, converts
// non-zero exit codes into CommandFailedError values, and notifies an optional
// CommandEventObserver. OSCommandRunner is the os/exec-backed runner.
package execshell
