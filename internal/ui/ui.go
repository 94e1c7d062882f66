package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chazjack/parliamentary-scanner/internal/models"
	"github.com/chazjack/parliamentary-scanner/internal/scan"
	"github.com/chazjack/parliamentary-scanner/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HistoryView ViewState = iota
	ProgressView
	ResultsView
)

// Model represents the TUI application state.
//
// The progress view is a pure sink: it renders the view-models the
// controller publishes and sends key presses back as controller calls,
// never touching job state directly.
type Model struct {
	ctx        context.Context
	view       ViewState
	api        services.ScanAPI
	controller *scan.Controller
	width      int
	height     int
	scanList   list.Model
	scans      []services.ScanSummary
	resultList list.Model
	results    *services.ScanResults
	progress   *models.ViewModel
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, api services.ScanAPI, controller *scan.Controller) *Model {
	return &Model{
		ctx:        ctx,
		view:       HistoryView,
		api:        api,
		controller: controller,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init initializes the TUI by fetching the scan history.
func (m *Model) Init() tea.Cmd {
	return m.fetchHistory()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.scanList.Width() == 0 {
			m.scanList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.resultList.Width() == 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case HistoryView:
			return m.handleHistoryKeys(msg)
		case ProgressView:
			return m.handleProgressKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		}

	case historyFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.scans = msg.scans
		items := make([]list.Item, len(msg.scans))
		for i, s := range msg.scans {
			items[i] = scanItem{scan: s}
		}
		m.scanList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.scanList.Title = "Scan History"
		m.scanList.SetSize(m.width-4, m.height-8)
		return m, nil

	case resultsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = HistoryView
			return m, nil
		}
		m.err = nil
		m.results = msg.results
		items := make([]list.Item, len(msg.results.Results))
		for i, r := range msg.results.Results {
			items[i] = resultItem{result: r}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.resultList.Title = fmt.Sprintf("Scan %d Results", msg.results.Scan.ID)
		m.resultList.SetSize(m.width-4, m.height-8)
		m.view = ResultsView
		return m, nil

	case watchStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = HistoryView
			return m, nil
		}
		m.err = nil
		m.view = ProgressView
		return m, m.waitForUpdate()

	case progressMsg:
		vm := models.ViewModel(msg)
		m.progress = &vm
		if vm.Terminal {
			// Final frame: refresh history so the terminal row shows up.
			return m, m.fetchHistory()
		}
		return m, m.waitForUpdate()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == HistoryView && len(m.scans) == 0 {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case HistoryView:
		return m.renderHistory()
	case ProgressView:
		return m.renderProgress()
	case ResultsView:
		return m.renderResults()
	default:
		return ""
	}
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.fetchHistory()
	case "enter":
		if item, ok := m.scanList.SelectedItem().(scanItem); ok {
			return m, m.fetchResults(item.scan.ID)
		}
	case "w":
		if item, ok := m.scanList.SelectedItem().(scanItem); ok {
			status := models.ScanStatus(item.scan.Status)
			if status.Terminal() {
				m.err = fmt.Errorf("scan %d already finished", item.scan.ID)
				return m, nil
			}
			return m, m.startWatch(item.scan.ID)
		}
	}

	var cmd tea.Cmd
	m.scanList, cmd = m.scanList.Update(msg)
	return m, cmd
}

func (m *Model) handleProgressKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = HistoryView
		return m, m.fetchHistory()
	case "c":
		return m, m.requestCancel()
	}
	return m, nil
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = HistoryView
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case HistoryView:
		m.scanList, cmd = m.scanList.Update(msg)
	case ResultsView:
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		scans, err := m.api.FetchScans(m.ctx)
		return historyFetchedMsg{scans: scans, err: err}
	}
}

func (m *Model) fetchResults(scanID int64) tea.Cmd {
	return func() tea.Msg {
		results, err := m.api.FetchResults(m.ctx, scanID)
		return resultsFetchedMsg{results: results, err: err}
	}
}

func (m *Model) startWatch(scanID int64) tea.Cmd {
	return func() tea.Msg {
		err := m.controller.Attach(m.ctx, scanID, nil)
		return watchStartedMsg{scanID: scanID, err: err}
	}
}

func (m *Model) requestCancel() tea.Cmd {
	return func() tea.Msg {
		if err := m.controller.Cancel(m.ctx); err != nil {
			return watchStartedMsg{err: err}
		}
		return nil
	}
}

// waitForUpdate blocks on the controller's update channel and wraps the
// next view-model as a message.
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case vm := <-m.controller.Updates():
			return progressMsg(vm)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) renderHistory() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.watch, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	errLine := ""
	if m.err != nil {
		errLine = "\n" + styles.warn.Render(m.err.Error())
	}
	return fmt.Sprintf("%s%s\n\n%s", m.scanList.View(), errLine, helpView)
}

func (m *Model) renderProgress() string {
	if m.progress == nil {
		return styles.title.Render("Waiting for progress...") + "\n"
	}
	vm := m.progress

	title := styles.title.Render(fmt.Sprintf("Scan %d", vm.JobID))

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(renderStages(vm.Stage))
	b.WriteString("\n\n")

	badge := vm.StatusBadge
	switch {
	case vm.Status == models.StatusError:
		badge = styles.err.Render(badge)
	case vm.Degraded || vm.Paused:
		badge = styles.warn.Render(badge)
	case vm.Terminal:
		badge = styles.ok.Render(badge)
	}
	b.WriteString(badge)
	b.WriteString("\n")

	if vm.Label != "" {
		b.WriteString(vm.Label)
		b.WriteString("\n")
	}
	if vm.Percent > 0 {
		b.WriteString(fmt.Sprintf("%.0f%%\n", vm.Percent))
	}

	b.WriteString(fmt.Sprintf(
		"\nFetched: %d  Deduped: %d  Classified: %d  Relevant: %d  Discarded: %d\n",
		vm.Counts.TotalFetched,
		vm.Counts.UniqueAfterDedup,
		vm.Counts.SentToClassifier,
		vm.Counts.ClassifiedRelevant,
		vm.Counts.ClassifiedDiscarded,
	))

	for _, g := range vm.KeywordGroups {
		marker := " "
		if g.Complete {
			marker = styles.ok.Render("✓")
		}
		b.WriteString(fmt.Sprintf("%s %s (%d/%d)\n", marker, g.Topic, g.Done, len(g.Keywords)))
	}

	helpKeys := []key.Binding{m.keys.cancel, m.keys.back, m.keys.quit}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func renderStages(current models.Stage) string {
	parts := make([]string, 0, 3)
	for _, s := range []models.Stage{models.StageSearching, models.StageClassifying, models.StageStoring} {
		label := s.String()
		if s == current {
			label = styles.ok.Render(label)
		} else {
			label = styles.help.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " → ")
}

func (m *Model) renderResults() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}
