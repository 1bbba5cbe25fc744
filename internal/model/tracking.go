package model

import (
	"time"
)

// Load statuses
const (
	LoadPending = "pending"
	LoadParsed  = "parsed"
	LoadLoaded  = "loaded"
	LoadFailed  = "failed"
)

// Stages a load passes through; used to label errors
const (
	StageParse       = "parse"
	StageValidate    = "validate"
	StageMaterialize = "materialize"
	StageExport      = "export"
)

// LoadRecord tracks one attempt to turn a question into a warehouse table
type LoadRecord struct {
	ID             string          `json:"id"`
	TableName      string          `json:"tableName"`
	FullTableName  string          `json:"fullTableName"`
	DatasetID      string          `json:"datasetId"`
	Status         string          `json:"status"`
	RowCount       int             `json:"rowCount"`
	ColumnCount    int             `json:"columnCount"`
	RowsInserted   int             `json:"rowsInserted"`
	ExpectedOutput *ExpectedOutput `json:"expectedOutput,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ErrorDetail represents a recorded load error with its stage
type ErrorDetail struct {
	ID        int64     `json:"id"`
	LoadID    string    `json:"loadId"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
