package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/scholarship-analytics/enrollment-planner/internal/logging"
)

type column int

const (
	colDate column = iota
	colStudents
	colMarketing
	colEvents
)

func (c column) String() string {
	switch c {
	case colDate:
		return "date"
	case colStudents:
		return "students"
	case colMarketing:
		return "marketing spend"
	case colEvents:
		return "scholarship events"
	default:
		return "unknown"
	}
}

// columnAliases lists accepted header names per column, most preferred first.
// Headers are compared lower-cased and trimmed; "bulan" wins over "month" when
// both are present.
var columnAliases = map[column][]string{
	colDate:      {"bulan", "month", "date"},
	colStudents:  {"student", "students", "student_count"},
	colMarketing: {"spending_marketing", "marketing_spend", "marketing"},
	colEvents:    {"beasiswa", "scholarship_events", "events"},
}

// dateLayouts are tried in order for the date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/2006",
	"1/2006",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"2006/01/02",
	"2006/01",
}

// LoadReport summarizes a CSV load.
type LoadReport struct {
	// Rows is the number of data rows read (excluding the header).
	Rows int
	// Loaded is the number of observations produced.
	Loaded int
	// SkippedLines are 1-based CSV line numbers dropped for an unparseable date.
	SkippedLines []int
	// MissingColumns names optional columns that were absent and zero-filled.
	MissingColumns []string
}

// LoadFile reads and normalizes a historical CSV file.
func LoadFile(ctx context.Context, path string) (*Dataset, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, report, err := Load(ctx, f)
	if err != nil {
		return nil, report, fmt.Errorf("failed to load history from %s: %w", path, err)
	}
	return ds, report, nil
}

// Load reads CSV history from r. The date and student columns are required;
// marketing spend and scholarship events are zero-filled when absent. Currency
// and count cells are coerced with ParseCurrency and ParseCount.
func Load(ctx context.Context, r io.Reader) (*Dataset, LoadReport, error) {
	logger := ctrl.LoggerFrom(ctx)
	var report LoadReport

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, ErrEmptyHistory
	}
	if err != nil {
		return nil, report, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := resolveColumns(header)
	for _, required := range []column{colDate, colStudents} {
		if _, ok := index[required]; !ok {
			return nil, report, fmt.Errorf("missing required %s column (accepted headers: %s)",
				required, strings.Join(columnAliases[required], ", "))
		}
	}
	for _, optional := range []column{colMarketing, colEvents} {
		if _, ok := index[optional]; !ok {
			report.MissingColumns = append(report.MissingColumns, optional.String())
		}
	}

	var obs []Observation
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}
		report.Rows++

		date, err := ParseMonth(cell(record, index, colDate))
		if err != nil {
			report.SkippedLines = append(report.SkippedLines, line)
			logger.V(logging.DEBUG).Info("Skipping history row with unparseable date",
				"line", line, "value", cell(record, index, colDate))
			continue
		}
		obs = append(obs, Observation{
			Date:              date,
			Students:          ParseCount(cell(record, index, colStudents)),
			MarketingSpend:    ParseCurrency(cell(record, index, colMarketing)),
			ScholarshipEvents: ParseCount(cell(record, index, colEvents)),
		})
	}
	report.Loaded = len(obs)

	if len(report.SkippedLines) > 0 {
		logger.Info("Skipped history rows with unparseable dates",
			"skipped", len(report.SkippedLines), "lines", report.SkippedLines)
	}
	if len(report.MissingColumns) > 0 {
		logger.Info("Optional history columns missing, values default to zero",
			"columns", report.MissingColumns)
	}

	ds, err := NewDataset(obs)
	if err != nil {
		return nil, report, err
	}
	logger.V(logging.DEBUG).Info("Loaded history", "rows", report.Rows, "observations", report.Loaded)
	return ds, report, nil
}

// ParseMonth parses a date cell in any supported layout and normalizes it to the
// first day of its month.
func ParseMonth(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return MonthStart(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func resolveColumns(header []string) map[column]int {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}
	index := make(map[column]int)
	for col, aliases := range columnAliases {
		for _, alias := range aliases {
			if pos, ok := positions[alias]; ok {
				index[col] = pos
				break
			}
		}
	}
	return index
}

func cell(record []string, index map[column]int, col column) string {
	pos, ok := index[col]
	if !ok || pos >= len(record) {
		return ""
	}
	return record[pos]
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
