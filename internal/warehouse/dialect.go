package warehouse

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"sql-playground/internal/model"
	"sql-playground/pkg/utils"
)

// dialect isolates what differs between database engines.
type dialect interface {
	Name() string
	Quote(ident string) string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	SQLType(t model.ColumnType) string
	// MaxParams bounds the bind arguments of one statement.
	MaxParams() int

	ensureDataset(ctx context.Context, db *sql.DB, dataset string) error
	datasetExists(ctx context.Context, db *sql.DB, dataset string) (bool, error)
	listDatasets(ctx context.Context, db *sql.DB) ([]string, error)
	tableNamesQuery(dataset string) (string, []interface{})
	tableExistsQuery(ref model.TableRef) (string, []interface{})
}

var sqlTypes = map[string]map[model.ColumnType]string{
	"sqlite": {
		model.ColumnString:    "TEXT",
		model.ColumnInteger:   "INTEGER",
		model.ColumnFloat:     "REAL",
		model.ColumnDate:      "DATE",
		model.ColumnTimestamp: "TIMESTAMP",
		model.ColumnBoolean:   "BOOLEAN",
	},
	"postgres": {
		model.ColumnString:    "TEXT",
		model.ColumnInteger:   "BIGINT",
		model.ColumnFloat:     "DOUBLE PRECISION",
		model.ColumnDate:      "DATE",
		model.ColumnTimestamp: "TIMESTAMP",
		model.ColumnBoolean:   "BOOLEAN",
	},
}

// columnTypeOf maps a driver-reported type name back to a column type.
// Unknown names are treated as STRING.
func columnTypeOf(dbType string) model.ColumnType {
	switch strings.ToUpper(strings.TrimSpace(dbType)) {
	case "INTEGER", "INT", "BIGINT", "INT8", "INT4", "INT2", "SMALLINT":
		return model.ColumnInteger
	case "REAL", "FLOAT", "DOUBLE", "DOUBLE PRECISION", "FLOAT8", "FLOAT4", "NUMERIC":
		return model.ColumnFloat
	case "DATE":
		return model.ColumnDate
	case "TIMESTAMP", "DATETIME", "TIMESTAMPTZ":
		return model.ColumnTimestamp
	case "BOOLEAN", "BOOL":
		return model.ColumnBoolean
	default:
		return model.ColumnString
	}
}

// coerceValue converts v to the Go type the column expects when that is
// lossless; anything else is passed through for the database to judge.
func coerceValue(v model.Value, t model.ColumnType) interface{} {
	switch t {
	case model.ColumnBoolean:
		if s, ok := v.(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true":
				return true
			case "false":
				return false
			}
		}
	case model.ColumnFloat:
		if f, ok := utils.Numeric(v); ok {
			return f
		}
	case model.ColumnInteger:
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) <= 1<<53 {
			return int64(f)
		}
	}
	return v
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func qualified(d dialect, ref model.TableRef) string {
	return d.Quote(ref.DatasetID) + "." + d.Quote(ref.TableID)
}

// batchRows caps rows per INSERT so one statement stays under MaxParams.
func batchRows(d dialect, batchSize, columns int) int {
	if columns < 1 {
		columns = 1
	}
	limit := d.MaxParams() / columns
	if limit < 1 {
		limit = 1
	}
	if batchSize < 1 || batchSize > limit {
		return limit
	}
	return batchSize
}
