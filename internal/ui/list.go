package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/list"

	"github.com/chazjack/parliamentary-scanner/internal/services"
)

var (
	_ list.Item = scanItem{}
	_ list.Item = resultItem{}
)

// scanItem wraps [services.ScanSummary] to implement [list.Item].
type scanItem struct {
	scan services.ScanSummary
}

func (i scanItem) FilterValue() string { return strconv.FormatInt(i.scan.ID, 10) }
func (i scanItem) Title() string {
	return fmt.Sprintf("Scan %d • %s to %s", i.scan.ID, i.scan.StartDate, i.scan.EndDate)
}
func (i scanItem) Description() string {
	desc := fmt.Sprintf("%s • %d relevant", i.scan.Status, i.scan.TotalRelevant)
	if i.scan.ErrorMessage != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.scan.ErrorMessage)
	}
	return desc
}

// resultItem wraps [services.ScanResult] to implement [list.Item].
type resultItem struct {
	result services.ScanResult
}

func (i resultItem) FilterValue() string { return i.result.MemberName }
func (i resultItem) Title() string {
	title := i.result.MemberName
	if i.result.Party != "" {
		title = fmt.Sprintf("%s (%s)", title, i.result.Party)
	}
	return title
}
func (i resultItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.result.ActivityDate, i.result.Forum)
	if i.result.Summary != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.result.Summary)
	}
	return desc
}
