package question

import (
	"math"
	"regexp"
	"strings"

	"sql-playground/internal/model"
)

var (
	datePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T\s]\d{2}:\d{2}:\d{2}`)
)

// classifyValue maps a sample value to a column type. Numbers are classified
// by value: a float with no fractional part counts as INTEGER.
func classifyValue(v model.Value) model.ColumnType {
	switch val := v.(type) {
	case nil:
		return model.ColumnString
	case int, int32, int64:
		return model.ColumnInteger
	case float32:
		return classifyFloat(float64(val))
	case float64:
		return classifyFloat(val)
	case bool:
		return model.ColumnBoolean
	case string:
		return classifyString(val)
	default:
		return model.ColumnString
	}
}

func classifyFloat(f float64) model.ColumnType {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return model.ColumnInteger
	}
	return model.ColumnFloat
}

func classifyString(s string) model.ColumnType {
	switch {
	case datePattern.MatchString(s):
		return model.ColumnDate
	case timestampPattern.MatchString(s):
		return model.ColumnTimestamp
	case strings.EqualFold(s, "true"), strings.EqualFold(s, "false"):
		return model.ColumnBoolean
	default:
		return model.ColumnString
	}
}

// inferSchema types each column from its first non-nil value, scanning rows in
// order. Later values never change the type; all-nil columns are STRING.
func inferSchema(names []string, rows []model.Row) []model.Column {
	schema := make([]model.Column, len(names))
	for i, name := range names {
		var sample model.Value
		for _, row := range rows {
			if i < len(row) && row[i] != nil {
				sample = row[i]
				break
			}
		}
		schema[i] = model.Column{Name: name, Type: classifyValue(sample)}
	}
	return schema
}
