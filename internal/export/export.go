// Package export writes parsed tables to CSV or JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sql-playground/internal/model"
)

// Table is a column list with positional rows
type Table struct {
	Columns []string    `json:"columns"`
	Rows    []model.Row `json:"rows"`
}

// InputTable builds the exportable form of a question's input data
func InputTable(pq *model.ParsedQuestion) Table {
	return Table{Columns: pq.ColumnNames(), Rows: pq.InputData}
}

// WriteCSV writes a header row followed by one record per row. nil becomes
// an empty field.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) {
				record[j] = FormatValue(row[j])
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes {"columns": [...], "rows": [[...]]}
func WriteJSON(w io.Writer, t Table) error {
	if t.Rows == nil {
		t.Rows = []model.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ToFile writes t to path, choosing the format from the extension (CSV by
// default). It returns the number of rows written.
func ToFile(path string, t Table) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = WriteJSON(file, t)
	default:
		err = WriteCSV(file, t)
	}
	if err != nil {
		return 0, err
	}
	return len(t.Rows), file.Close()
}

// FormatValue renders a cell the way it was written in the question
func FormatValue(v model.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
