// Package report renders year records to the console and persists them as JSON and CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/github-metrics/internal/domain"
)

// Output file names inside the output directory.
const (
	JSONFileName = "metrics_report.json"
	CSVFileName  = "metrics_report.csv"
)

// DefaultOutputDir is the directory, relative to the working directory, the report is saved to.
const DefaultOutputDir = "out"

// CSVHeader is the header row of the CSV file.
var CSVHeader = []string{"Year", "Commits", "PRs Created", "PRs Merged", "Issues Created"}

var titleStyle = lipgloss.NewStyle().Bold(true)

// PrintIdentity writes the line naming the authenticated user.
func PrintIdentity(w io.Writer, viewer domain.Viewer) {
	fmt.Fprintf(w, "Authenticated as: %s (ID: %s)\n", viewer.Login, viewer.ID)
}

// PrintTable writes the fixed-width report table, one row per record, followed by a totals line.
func PrintTable(w io.Writer, records []domain.YearRecord) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("=== GitHub Metrics Report ==="))
	fmt.Fprintf(w, "| %-6s | %-10s | %-12s | %-12s | %-8s |\n", "Year", "Commits", "PRs Created", "PRs Merged", "Issues")
	fmt.Fprintf(w, "|%s|%s|%s|%s|%s|\n", strings.Repeat("-", 8), strings.Repeat("-", 12), strings.Repeat("-", 14), strings.Repeat("-", 14), strings.Repeat("-", 10))
	for _, r := range records {
		fmt.Fprintf(w, "| %-6d | %-10d | %-12d | %-12d | %-8d |\n", r.Year, r.Commits, r.PRsCreated, r.PRsMerged, r.IssuesCreated)
	}
	if len(records) > 0 {
		s := Summarize(records)
		fmt.Fprintf(w, "\nTotals: %d commits (%.1f per year), %d PRs created, %d PRs merged, %d issues\n",
			s.Commits, s.CommitsPerYear, s.PRsCreated, s.PRsMerged, s.IssuesCreated)
	}
}

// Summary aggregates all records of a report.
type Summary struct {
	Commits        int
	PRsCreated     int
	PRsMerged      int
	IssuesCreated  int
	CommitsPerYear float64
}

// Summarize sums every column across records and computes the mean commits per year.
func Summarize(records []domain.YearRecord) Summary {
	column := func(get func(domain.YearRecord) int) stats.Float64Data {
		data := make(stats.Float64Data, 0, len(records))
		for _, r := range records {
			data = append(data, float64(get(r)))
		}
		return data
	}
	sum := func(data stats.Float64Data) int {
		total, err := data.Sum()
		if err != nil {
			return 0
		}
		return int(total)
	}

	commits := column(func(r domain.YearRecord) int { return r.Commits })
	mean, err := commits.Mean()
	if err != nil {
		mean = 0
	}
	return Summary{
		Commits:        sum(commits),
		PRsCreated:     sum(column(func(r domain.YearRecord) int { return r.PRsCreated })),
		PRsMerged:      sum(column(func(r domain.YearRecord) int { return r.PRsMerged })),
		IssuesCreated:  sum(column(func(r domain.YearRecord) int { return r.IssuesCreated })),
		CommitsPerYear: mean,
	}
}

// WriteJSON writes records as a JSON array indented with two spaces.
func WriteJSON(w io.Writer, records []domain.YearRecord) error {
	if records == nil {
		records = []domain.YearRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records to JSON: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// WriteCSV writes the header row followed by one row per record.
func WriteCSV(w io.Writer, records []domain.YearRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Commits),
			strconv.Itoa(r.PRsCreated),
			strconv.Itoa(r.PRsMerged),
			strconv.Itoa(r.IssuesCreated),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %d: %w", r.Year, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// Save creates dir if needed and writes the JSON and CSV files into it.
// It returns the paths of both files.
func Save(dir string, records []domain.YearRecord) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	jsonPath = filepath.Join(dir, JSONFileName)
	csvPath = filepath.Join(dir, CSVFileName)
	if err := writeFile(jsonPath, records, WriteJSON); err != nil {
		return "", "", err
	}
	if err := writeFile(csvPath, records, WriteCSV); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}

func writeFile(path string, records []domain.YearRecord, write func(io.Writer, []domain.YearRecord) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f, records)
}
