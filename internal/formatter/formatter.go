// package formatter renders run reports as JSON, Markdown, CSV or plain text and writes them to disk
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/wpx/internal/shared"
	"github.com/desertthunder/wpx/internal/tasks"
)

// Format names an output encoding for a run report.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatText     Format = "txt"
)

// ParseFormat accepts the names used on the command line, including the md and text aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q (want json, markdown, csv or txt)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return "." + string(f)
	}
}

// ReportToJSON encodes the full report with every outcome.
func ReportToJSON(report *tasks.RunReport) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// ReportToMarkdown renders a summary table per kind followed by the failures.
func ReportToMarkdown(report *tasks.RunReport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Migration run %s\n\n", report.ID)
	fmt.Fprintf(&buf, "**Started**: %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "**Duration**: %s\n\n", report.Duration().Round(time.Millisecond))

	buf.WriteString("| Kind | Total | Submitted | Failed | Asset failures |\n")
	buf.WriteString("|------|------:|----------:|-------:|---------------:|\n")
	for _, kr := range report.Kinds {
		fmt.Fprintf(&buf, "| %s | %d | %d | %d | %d |\n", kr.Kind, kr.Total, kr.Submitted, kr.Failed, kr.AssetFailures)
	}
	total, submitted, failed, assetFailures := report.Totals()
	fmt.Fprintf(&buf, "| **total** | %d | %d | %d | %d |\n", total, submitted, failed, assetFailures)

	for _, kr := range report.Kinds {
		if kr.FetchError == "" {
			continue
		}
		fmt.Fprintf(&buf, "\n> **%s could not be fetched**: %s\n", kr.Kind, escapeMarkdown(kr.FetchError))
	}

	if failures := report.Failures(); len(failures) > 0 {
		buf.WriteString("\n## Failures\n\n")
		for _, o := range failures {
			fmt.Fprintf(&buf, "- %s %d `%s`: %s\n", singular(o.Kind), o.SourceID, o.Label, escapeMarkdown(o.Error))
		}
	}

	if assets := assetProblems(report); len(assets) > 0 {
		buf.WriteString("\n## Asset problems\n\n")
		for _, o := range assets {
			fmt.Fprintf(&buf, "- %s %d `%s`: %s\n", singular(o.Kind), o.SourceID, o.Label, escapeMarkdown(o.AssetError))
		}
	}

	return buf.Bytes(), nil
}

// ReportToCSV writes one row per outcome.
func ReportToCSV(report *tasks.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "SourceID", "Label", "State", "DestinationID", "AssetPath", "AssetError", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, kr := range report.Kinds {
		for _, o := range kr.Outcomes {
			record := []string{
				string(o.Kind),
				strconv.FormatInt(o.SourceID, 10),
				o.Label,
				o.State.String(),
				o.Reference.ID,
				o.AssetPath,
				o.AssetError,
				o.Error,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportToText renders the summary printed at the end of a run.
func ReportToText(report *tasks.RunReport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Run: %s\n", report.ID)
	fmt.Fprintf(&buf, "Duration: %s\n\n", report.Duration().Round(time.Millisecond))

	for _, kr := range report.Kinds {
		if kr.FetchError != "" {
			fmt.Fprintf(&buf, "%-8s fetch failed: %s\n", kr.Kind, kr.FetchError)
			continue
		}
		fmt.Fprintf(&buf, "%-8s %d total, %d submitted, %d failed, %d asset failures\n",
			kr.Kind, kr.Total, kr.Submitted, kr.Failed, kr.AssetFailures)
	}

	if failures := report.Failures(); len(failures) > 0 {
		fmt.Fprintf(&buf, "\nFailed (%d):\n", len(failures))
		for _, o := range failures {
			fmt.Fprintf(&buf, "  %s %d (%s): %s\n", singular(o.Kind), o.SourceID, o.Label, o.Error)
		}
	}

	return buf.Bytes(), nil
}

// Render dispatches to the encoder for f.
func Render(report *tasks.RunReport, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ReportToJSON(report)
	case FormatMarkdown:
		return ReportToMarkdown(report)
	case FormatCSV:
		return ReportToCSV(report)
	case FormatText:
		return ReportToText(report)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, f)
	}
}

// WriteReport renders the report and writes it to path.
//
// An empty path defaults to wpx-run-{id} with the format's extension in the working directory.
// When path is an existing directory the default file name is placed inside it.
func WriteReport(report *tasks.RunReport, f Format, path string) (string, error) {
	data, err := Render(report, f)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	name := fmt.Sprintf("wpx-run-%s%s", report.ID, f.Extension())
	switch info, statErr := os.Stat(path); {
	case path == "":
		path = name
	case statErr == nil && info.IsDir():
		path = filepath.Join(path, name)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func assetProblems(report *tasks.RunReport) []tasks.Outcome {
	var out []tasks.Outcome
	for _, kr := range report.Kinds {
		for _, o := range kr.Outcomes {
			if o.AssetError != "" || o.InlineFailures > 0 {
				if o.AssetError == "" {
					o.AssetError = fmt.Sprintf("%d inline images failed to upload", o.InlineFailures)
				}
				out = append(out, o)
			}
		}
	}
	return out
}

func singular(k tasks.Kind) string {
	return strings.TrimSuffix(string(k), "s")
}

// escapeMarkdown keeps error bodies on one line and out of table or code syntax.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "`", "'")
}
