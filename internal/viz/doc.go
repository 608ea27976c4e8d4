// Package viz renders estimation progress and results for the
// terminal: styled fit summaries, ascii cost-trace plots, and a
// bubbletea view that follows a running fit.
package viz
