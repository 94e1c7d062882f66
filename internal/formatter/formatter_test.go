package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazjack/parliamentary-scanner/internal/services"
)

func testExport() *services.ScanResults {
	return &services.ScanResults{
		Scan: services.ScanSummary{
			ID:        42,
			StartDate: "2026-01-01",
			EndDate:   "2026-01-31",
			Status:    "completed",
		},
		Results: []services.ScanResult{
			{
				ScanID:        42,
				DedupKey:      "a",
				MemberName:    "Jo Bloggs",
				Party:         "Independent",
				Constituency:  "Testshire",
				Topics:        `["Fisheries","Aquaculture"]`,
				Summary:       "Raised fishing quota concerns",
				ActivityDate:  "2026-01-15",
				Forum:         "Oral Questions",
				VerbatimQuote: "Quotas are too low.",
				SourceURL:     "https://example.org/q/1",
				Confidence:    "high",
			},
			{
				ScanID:       42,
				DedupKey:     "b",
				MemberName:   "Ash Doe",
				Topics:       `["Fisheries"]`,
				Summary:      "Asked about harbour funding",
				ActivityDate: "2026-01-20",
				Forum:        "Written Questions",
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Member,Party,Constituency,Date,Forum,Topics,Summary,Quote,Source URL,Confidence") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Jo Bloggs") {
			t.Errorf("CSV missing member name")
		}
		if !strings.Contains(output, "Fisheries; Aquaculture") {
			t.Errorf("CSV missing joined topics, got: %s", output)
		}

		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 3 {
			t.Errorf("expected header plus two records, got %d lines", len(lines))
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Scan 42") {
			t.Errorf("Markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "## Jo Bloggs (Independent)") {
			t.Errorf("Markdown missing member heading")
		}
		if !strings.Contains(output, "> Quotas are too low.") {
			t.Errorf("Markdown missing verbatim quote")
		}
		if strings.Index(output, "## Ash Doe") > strings.Index(output, "## Jo Bloggs") {
			t.Errorf("members must be sorted alphabetically")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Scan 42: 2026-01-01 to 2026-01-31") {
			t.Errorf("text missing header, got: %s", output)
		}
		if !strings.Contains(output, "1. Jo Bloggs") {
			t.Errorf("text missing numbered entry")
		}
	})

	t.Run("Malformed Topics Fall Back To Raw", func(t *testing.T) {
		export := testExport()
		export.Results[0].Topics = "not json"

		data, err := ExportToCSV(export)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if !strings.Contains(string(data), "not json") {
			t.Errorf("raw topics string must survive a malformed value")
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("Writes CSV File", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.csv")

		result, err := WriteExport(testExport(), "csv", path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if result.File != path {
			t.Errorf("expected file %s, got %s", path, result.File)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.Contains(string(data), "Jo Bloggs") {
			t.Errorf("export file missing content")
		}
	})

	t.Run("Default Filename", func(t *testing.T) {
		dir := t.TempDir()
		cwd, _ := os.Getwd()
		if err := os.Chdir(dir); err != nil {
			t.Fatalf("failed to change directory: %v", err)
		}
		defer os.Chdir(cwd)

		result, err := WriteExport(testExport(), "markdown", "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if result.File != "scan_42.md" {
			t.Errorf("expected default filename scan_42.md, got %s", result.File)
		}
	})

	t.Run("Unsupported Format", func(t *testing.T) {
		if _, err := WriteExport(testExport(), "xml", ""); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}
