package model

// ColumnType is the warehouse field type inferred for a parsed column
type ColumnType string

const (
	ColumnString    ColumnType = "STRING"
	ColumnInteger   ColumnType = "INTEGER"
	ColumnFloat     ColumnType = "FLOAT"
	ColumnDate      ColumnType = "DATE"
	ColumnTimestamp ColumnType = "TIMESTAMP"
	ColumnBoolean   ColumnType = "BOOLEAN"
)

// ColumnTypes lists every supported type in declaration order
var ColumnTypes = []ColumnType{
	ColumnString,
	ColumnInteger,
	ColumnFloat,
	ColumnDate,
	ColumnTimestamp,
	ColumnBoolean,
}

// Valid reports whether t is one of the supported column types
func (t ColumnType) Valid() bool {
	for _, ct := range ColumnTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// Column is one field of a parsed table schema
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Value holds a single parsed cell: string, int64, float64, bool or nil
type Value = interface{}

// Row is an ordered list of values, one per schema column
type Row []Value

// ExpectedOutput is the optional result table that follows "Output:" in a question
type ExpectedOutput struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Metadata summarizes a parsed question
type Metadata struct {
	RowCount    int    `json:"rowCount"`
	ColumnCount int    `json:"columnCount"`
	Timestamp   string `json:"timestamp"` // YYYYMMDD suffix used in FullTableName
}

// ParsedQuestion is the structured form of a question's input table.
// It is built once per parse and not mutated afterwards.
type ParsedQuestion struct {
	TableName      string          `json:"tableName"`
	FullTableName  string          `json:"fullTableName"`
	Schema         []Column        `json:"schema"`
	InputData      []Row           `json:"inputData"`
	ExpectedOutput *ExpectedOutput `json:"expectedOutput"`
	Metadata       Metadata        `json:"metadata"`
}

// ColumnNames returns the schema column names in order
func (p *ParsedQuestion) ColumnNames() []string {
	names := make([]string, len(p.Schema))
	for i, col := range p.Schema {
		names[i] = col.Name
	}
	return names
}

// Summary is the parse response shape surfaced by the API
type Summary struct {
	TableName      string          `json:"tableName"`
	FullTableName  string          `json:"fullTableName"`
	Schema         []Column        `json:"schema"`
	RowCount       int             `json:"rowCount"`
	ColumnCount    int             `json:"columnCount"`
	ExpectedOutput *ExpectedOutput `json:"expectedOutput"`
}

// Summarize drops the row data and keeps what callers display
func (p *ParsedQuestion) Summarize() Summary {
	return Summary{
		TableName:      p.TableName,
		FullTableName:  p.FullTableName,
		Schema:         p.Schema,
		RowCount:       len(p.InputData),
		ColumnCount:    len(p.Schema),
		ExpectedOutput: p.ExpectedOutput,
	}
}
