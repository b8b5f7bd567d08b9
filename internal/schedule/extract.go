package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/coursecal/internal/logger"
)

// Column names and values of a registration export.
const (
	ColumnSection            = "Section"
	ColumnRegistrationStatus = "Registration Status"
	ColumnMeetingPatterns    = "Meeting Patterns"
	StatusRegistered         = "Registered"

	// DefaultHeaderRow is the 0-based row holding column names; the rows
	// above it are a title and a blank line.
	DefaultHeaderRow = 2
)

// Skip records a meeting pattern that was dropped and why.
type Skip struct {
	Row     int    `json:"row" yaml:"row"`
	Section string `json:"section" yaml:"section"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Reason  string `json:"reason" yaml:"reason"`
}

// Result is the outcome of reading one sheet. Rows that are simply not
// registered courses do not appear in Skipped.
type Result struct {
	Records []Record `json:"courses" yaml:"courses"`
	Skipped []Skip   `json:"skipped" yaml:"skipped"`
}

// Extract turns decoded sheet rows into course records. Column names come
// from rows[headerRow]; every later row with a "Registered" status and a
// non-blank meeting pattern cell contributes one record per pattern line.
func Extract(rows [][]string, headerRow int) Result {
	result := Result{Records: []Record{}, Skipped: []Skip{}}

	if headerRow < 0 || headerRow >= len(rows) {
		result.Skipped = append(result.Skipped, Skip{
			Row:    headerRow,
			Reason: fmt.Sprintf("sheet has %d rows, no header at row %d", len(rows), headerRow),
		})
		return result
	}

	headers := make([]string, len(rows[headerRow]))
	for i, h := range rows[headerRow] {
		headers[i] = strings.TrimSpace(h)
	}

	for offset, row := range rows[headerRow+1:] {
		rowIndex := headerRow + 1 + offset
		course := zipRow(headers, row)

		patterns := course[ColumnMeetingPatterns]
		if course[ColumnRegistrationStatus] != StatusRegistered || strings.TrimSpace(patterns) == "" {
			continue
		}

		section := course[ColumnSection]
		for _, pattern := range strings.Split(strings.ReplaceAll(patterns, "\r\n", "\n"), "\n") {
			if strings.TrimSpace(pattern) == "" {
				continue
			}
			recs, err := ParseMeetingPattern(pattern, section)
			if err != nil {
				logger.Warn("skipping meeting pattern", "row", rowIndex, "section", section, "error", err)
				result.Skipped = append(result.Skipped, Skip{
					Row:     rowIndex,
					Section: section,
					Pattern: pattern,
					Reason:  skipReason(err),
				})
				continue
			}
			result.Records = append(result.Records, recs...)
		}
	}

	logger.Info("extracted courses", "records", len(result.Records), "skipped", len(result.Skipped))
	return result
}

// zipRow aligns cells with headers by position. Cells past the last header
// are ignored and missing cells leave their key absent.
func zipRow(headers, row []string) map[string]string {
	course := make(map[string]string, len(headers))
	for i, h := range headers {
		if i >= len(row) {
			break
		}
		course[h] = row[i]
	}
	return course
}

func skipReason(err error) string {
	var perr *PatternError
	if errors.As(err, &perr) {
		if perr.Err != nil {
			return fmt.Sprintf("%s: %v", perr.Reason, perr.Err)
		}
		return perr.Reason
	}
	return err.Error()
}
