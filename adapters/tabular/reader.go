// Package tabular reads Excel and CSV files into typed column tables.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"datalens/domain/table"
	"datalens/internal"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      *internal.Logger
}

// NewDataReader creates a reader that handles both Excel and CSV files,
// picking the format from the file extension.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		log:      internal.DefaultLogger.Named("tabular"),
	}
}

// ReadTable reads the file into a typed table. The first row is the header;
// every column's kind is inferred from its cells.
func (r *DataReader) ReadTable() (*table.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}
	return r.buildTable(rows)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	r.log.Debug("read %d rows from %s in %.2fms", len(rows), sheet, float64(time.Since(start).Nanoseconds())/1e6)
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// buildTable pivots rows into columns and infers each column's kind.
// Short rows pad with empty cells so ragged files still load.
func (r *DataReader) buildTable(rows [][]string) (*table.Table, error) {
	header := rows[0]
	if len(header) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}

	columns := make([]table.Column, 0, len(header))
	for j, rawName := range header {
		name := strings.TrimSpace(rawName)
		if name == "" {
			name = fmt.Sprintf("column_%d", j+1)
		}
		cells := make([]string, 0, len(rows)-1)
		for _, row := range rows[1:] {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			cells = append(cells, cell)
		}
		columns = append(columns, inferColumn(name, cells))
	}

	t, err := table.NewTable(columns)
	if err != nil {
		return nil, err
	}
	r.log.Info("loaded %d columns from %s", t.ColumnCount(), filepath.Base(r.filePath))
	return t, nil
}

// inferColumn tries numbers first, then booleans, then dates, and falls back
// to text. A single cell that fails a parse demotes the whole column.
func inferColumn(name string, cells []string) table.Column {
	if numbers, ok := tryParseNumbers(cells); ok {
		return table.NewNumberColumn(name, numbers)
	}
	if bools, ok := tryParseBools(cells); ok {
		return table.NewBooleanColumn(name, bools)
	}
	if dates, ok := tryParseDates(cells); ok {
		return table.NewDateColumn(name, dates)
	}
	return table.NewTextColumn(name, cells)
}

func tryParseNumbers(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, cell := range cells {
		cleaned := strings.ReplaceAll(cell, ",", "")
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "$"), "%")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, len(cells) > 0
}

func tryParseBools(cells []string) ([]bool, bool) {
	out := make([]bool, len(cells))
	for i, cell := range cells {
		switch strings.ToLower(cell) {
		case "true", "yes", "y", "1":
			out[i] = true
		case "false", "no", "n", "0":
			out[i] = false
		default:
			return nil, false
		}
	}
	return out, len(cells) > 0
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
}

func tryParseDates(cells []string) ([]time.Time, bool) {
	out := make([]time.Time, len(cells))
	for i, cell := range cells {
		parsed, ok := parseDate(cell)
		if !ok {
			return nil, false
		}
		out[i] = parsed
	}
	return out, len(cells) > 0
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
