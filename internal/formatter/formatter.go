// package formatter provides functions to export scan results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/chazjack/parliamentary-scanner/internal/services"
)

// topicNames decodes the JSON-encoded topic name array carried on each
// result row. A malformed value falls back to the raw string so nothing
// disappears from an export.
func topicNames(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(encoded), &names); err != nil {
		return []string{encoded}
	}
	return names
}

// ExportToCSV converts scan results to CSV format with columns: Member, Party, Constituency, Date, Forum, Topics, Summary, Quote, Source URL, Confidence
func ExportToCSV(export *services.ScanResults) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Member", "Party", "Constituency", "Date", "Forum", "Topics", "Summary", "Quote", "Source URL", "Confidence"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range export.Results {
		record := []string{
			r.MemberName,
			r.Party,
			r.Constituency,
			r.ActivityDate,
			r.Forum,
			joinTopics(r.Topics),
			r.Summary,
			r.VerbatimQuote,
			r.SourceURL,
			r.Confidence,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func joinTopics(encoded string) string {
	names := topicNames(encoded)
	var buf bytes.Buffer
	for i, n := range names {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(n)
	}
	return buf.String()
}

// ExportToMarkdown converts scan results to a Markdown report grouped by member
func ExportToMarkdown(export *services.ScanResults) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Scan %d\n\n", export.Scan.ID))
	buf.WriteString(fmt.Sprintf("**Period**: %s to %s\n", export.Scan.StartDate, export.Scan.EndDate))
	buf.WriteString(fmt.Sprintf("**Status**: %s\n", export.Scan.Status))
	buf.WriteString(fmt.Sprintf("**Relevant contributions**: %d\n\n", len(export.Results)))

	byMember := make(map[string][]services.ScanResult)
	for _, r := range export.Results {
		byMember[r.MemberName] = append(byMember[r.MemberName], r)
	}
	members := make([]string, 0, len(byMember))
	for m := range byMember {
		members = append(members, m)
	}
	sort.Strings(members)

	for _, m := range members {
		first := byMember[m][0]
		heading := m
		if first.Party != "" {
			heading = fmt.Sprintf("%s (%s)", m, first.Party)
		}
		buf.WriteString(fmt.Sprintf("## %s\n\n", heading))
		for _, r := range byMember[m] {
			buf.WriteString(fmt.Sprintf("- **%s**, %s", r.ActivityDate, r.Forum))
			if names := topicNames(r.Topics); len(names) > 0 {
				buf.WriteString(fmt.Sprintf(" — %s", joinTopics(r.Topics)))
			}
			buf.WriteString("\n")
			if r.Summary != "" {
				buf.WriteString(fmt.Sprintf("  %s\n", r.Summary))
			}
			if r.VerbatimQuote != "" {
				buf.WriteString(fmt.Sprintf("  > %s\n", r.VerbatimQuote))
			}
			if r.SourceURL != "" {
				buf.WriteString(fmt.Sprintf("  [source](%s)\n", r.SourceURL))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts scan results to plain text format
func ExportToText(export *services.ScanResults) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Scan %d: %s to %s\n", export.Scan.ID, export.Scan.StartDate, export.Scan.EndDate))
	buf.WriteString(fmt.Sprintf("Results: %d\n\n", len(export.Results)))

	for i, r := range export.Results {
		buf.WriteString(fmt.Sprintf("%d. %s — %s, %s\n", i+1, r.MemberName, r.ActivityDate, r.Forum))
		if r.Summary != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", r.Summary))
		}
	}

	return buf.Bytes(), nil
}

// ExportResult contains the path of the file created by WriteExport
type ExportResult struct {
	File   string
	Format string
}

// WriteExport exports scan results to the given format ("csv", "markdown", or "text").
//
// Defaults to scan_{id}.{ext} as the filename when path is empty.
func WriteExport(export *services.ScanResults, format, path string) (*ExportResult, error) {
	var (
		data []byte
		err  error
		ext  string
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(export)
		ext = "csv"
	case "markdown", "md":
		data, err = ExportToMarkdown(export)
		ext = "md"
	case "text", "txt":
		data, err = ExportToText(export)
		ext = "txt"
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if path == "" {
		path = "scan_" + strconv.FormatInt(export.Scan.ID, 10) + "." + ext
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	return &ExportResult{File: path, Format: format}, nil
}
