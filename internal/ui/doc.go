// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for scan monitoring:
//  1. [HistoryView] : Browse past and running scans
//  2. [ProgressView] : Watch a live scan's pipeline progress and cancel it
//  3. [ResultsView] : Browse a finished scan's stored results
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via typed message structs.
// Progress view-models flow through a channel from the scan controller, providing non-blocking status reporting while a scan runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, w, c, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
