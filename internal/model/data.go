package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s is safe to use as a dataset or table id
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// TableRef addresses a table inside a dataset
type TableRef struct {
	DatasetID string `json:"datasetId"`
	TableID   string `json:"tableId"`
}

func (r TableRef) String() string {
	return r.DatasetID + "." + r.TableID
}

// Validate checks both parts are safe identifiers
func (r TableRef) Validate() error {
	if !ValidIdentifier(r.DatasetID) {
		return fmt.Errorf("invalid dataset id %q", r.DatasetID)
	}
	if !ValidIdentifier(r.TableID) {
		return fmt.Errorf("invalid table id %q", r.TableID)
	}
	return nil
}

// ParseTableRef splits "dataset.table"
func ParseTableRef(s string) (TableRef, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return TableRef{}, fmt.Errorf("table reference %q must be dataset.table", s)
	}
	ref := TableRef{DatasetID: parts[0], TableID: parts[1]}
	if err := ref.Validate(); err != nil {
		return TableRef{}, err
	}
	return ref, nil
}

// DatasetInfo describes a dataset (container of tables)
type DatasetInfo struct {
	ID       string `json:"id"`
	Location string `json:"location,omitempty"`
}

// TableInfo represents table metadata
type TableInfo struct {
	ID           string    `json:"id"`
	DatasetID    string    `json:"datasetId"`
	FullID       string    `json:"fullId"`
	Schema       []Column  `json:"schema,omitempty"`
	NumRows      int64     `json:"numRows"`
	CreationTime time.Time `json:"creationTime,omitempty"`
}

// QueryResult represents the result of a SQL query
type QueryResult struct {
	JobID         string                   `json:"jobId"`
	Columns       []string                 `json:"columns"`
	Rows          []map[string]interface{} `json:"rows"`
	RowCount      int                      `json:"rowCount"`
	ExecutionTime int64                    `json:"executionTime"` // milliseconds
	Truncated     bool                     `json:"truncated"`
}

// LoadResult represents the result of materializing a parsed question
type LoadResult struct {
	ProjectID     string    `json:"projectId"`
	DatasetID     string    `json:"datasetId"`
	TableID       string    `json:"tableId"`
	FullTablePath string    `json:"fullTablePath"`
	RowsInserted  int       `json:"rowsInserted"`
	Schema        []Column  `json:"schema"`
	Timestamp     time.Time `json:"timestamp"`
}

// ImportResult represents the result of copying a table to another dataset
type ImportResult struct {
	DestinationTable string `json:"destinationTable"`
	Message          string `json:"message"`
}
