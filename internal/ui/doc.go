// Package ui turns internal events into short console messages.
//
// When the console log format is selected, helper process lifecycle events are
// rendered as "Running ..."/"Completed ..." lines instead of structured fields.
package ui
