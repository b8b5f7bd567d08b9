// Package spreadsheet decodes registration exports into rows of cell text.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/bnema/coursecal/internal/logger"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Options selects what to read from a workbook.
type Options struct {
	// Sheet names the worksheet to read; empty means the first one.
	Sheet string
}

// ReadFile decodes the spreadsheet at path, choosing the decoder by extension.
func ReadFile(path string, opts Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	return Read(f, filepath.Base(path), opts)
}

// Read decodes r; name is only used to pick the format.
func Read(r io.Reader, name string, opts Options) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r, opts.Sheet)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadXLSX returns every row of one worksheet as cell text.
func ReadXLSX(r io.Reader, sheet string) ([][]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if closeErr := wb.Close(); closeErr != nil {
			logger.Warn("failed to close workbook", "error", closeErr)
		}
	}()

	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	logger.Debug("read workbook", "sheet", sheet, "rows", len(rows))
	return rows, nil
}

// ReadCSV reads a csv export. A UTF-8 or UTF-16 byte order mark is honored;
// without one the input is taken as UTF-8. Rows may differ in length.
func ReadCSV(r io.Reader) ([][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	logger.Debug("read csv", "rows", len(rows))
	return rows, nil
}
