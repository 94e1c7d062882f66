package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chazjack/parliamentary-scanner/internal/models"
	"github.com/chazjack/parliamentary-scanner/internal/services"
)

type historyFetchedMsg struct {
	scans []services.ScanSummary
	err   error
}

type resultsFetchedMsg struct {
	results *services.ScanResults
	err     error
}

// progressMsg carries one view-model from the controller's update channel.
type progressMsg models.ViewModel

// watchStartedMsg reports whether attaching to a running scan succeeded.
type watchStartedMsg struct {
	scanID int64
	err    error
}

var (
	_ tea.Msg = historyFetchedMsg{}
	_ tea.Msg = resultsFetchedMsg{}
	_ tea.Msg = progressMsg{}
	_ tea.Msg = watchStartedMsg{}
)
