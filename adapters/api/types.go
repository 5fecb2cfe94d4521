package api

import (
	"fmt"
	"sort"
	"time"

	"datalens/domain/table"
	"datalens/engine"
)

// AnalyzeRequest is the wire shape of POST /analyze. Data maps column name to
// its raw values; the server infers each column's kind.
type AnalyzeRequest struct {
	Data         map[string][]interface{} `json:"data"`
	AnalysisType string                   `json:"analysis_type"`
	Parameters   engine.Params            `json:"parameters"`
}

// AnalyzeResponse is the uniform wire envelope for success and failure
type AnalyzeResponse struct {
	Success      bool        `json:"success"`
	Data         interface{} `json:"data,omitempty"`
	Error        *WireError  `json:"error,omitempty"`
	AnalysisType string      `json:"analysis_type"`
	Timestamp    time.Time   `json:"timestamp"`
}

// WireError carries the taxonomy code over the wire
type WireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// dateLayouts are the accepted date formats, most specific first
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// decodeTable converts the request's raw column map into typed columns.
// Column order is sorted by name so identical requests build identical
// tables regardless of JSON map ordering.
func decodeTable(data map[string][]interface{}) (*table.Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data must contain at least one column")
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]table.Column, 0, len(names))
	for _, name := range names {
		col, err := decodeColumn(name, data[name])
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return table.NewTable(columns)
}

// decodeColumn infers a column kind from its values: all-numeric wins, then
// all-boolean, then all-parseable-dates, falling back to text.
func decodeColumn(name string, raw []interface{}) (table.Column, error) {
	if len(raw) == 0 {
		return table.Column{}, fmt.Errorf("column %q has no values", name)
	}

	if numbers, ok := tryNumbers(raw); ok {
		return table.NewNumberColumn(name, numbers), nil
	}
	if bools, ok := tryBools(raw); ok {
		return table.NewBooleanColumn(name, bools), nil
	}

	texts := make([]string, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return table.Column{}, fmt.Errorf("column %q mixes value types", name)
		}
		texts[i] = s
	}
	if dates, ok := tryDates(texts); ok {
		return table.NewDateColumn(name, dates), nil
	}
	return table.NewTextColumn(name, texts), nil
}

func tryNumbers(raw []interface{}) ([]float64, bool) {
	out := make([]float64, len(raw))
	for i, v := range raw {
		f, ok := v.(float64) // encoding/json decodes all JSON numbers as float64
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func tryBools(raw []interface{}) ([]bool, bool) {
	out := make([]bool, len(raw))
	for i, v := range raw {
		b, ok := v.(bool)
		if !ok {
			return nil, false
		}
		out[i] = b
	}
	return out, true
}

func tryDates(texts []string) ([]time.Time, bool) {
	out := make([]time.Time, len(texts))
	for i, s := range texts {
		parsed, ok := parseDate(s)
		if !ok {
			return nil, false
		}
		out[i] = parsed
	}
	return out, true
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
