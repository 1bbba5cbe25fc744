// Package question converts human-written SQL interview questions into a
// table schema plus rows.
//
// A question looks like:
//
//	table : electric_items.
//	Type  Status  Time_in_Minutes
//	===============================
//	light 'on'  100
//	fan   'off'    120
//	Output:
//	Type     Time_Duration
//	=========================
//	light       60
//
// Parsing is deterministic and does no I/O; a Parser is safe for concurrent use.
package question

import (
	"strings"
	"time"
	"unicode/utf8"

	"sql-playground/internal/model"
)

// Parser turns question text into a ParsedQuestion.
type Parser struct {
	now func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock sets the clock used for the FullTableName date suffix.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse parses text with the wall clock.
func Parse(text string) (*model.ParsedQuestion, error) {
	return defaultParser.Parse(text)
}

type inputTable struct {
	tableName string
	schema    []model.Column
	rows      []model.Row
}

// Parse splits the text into input and output sections, extracts the table
// name, header, rows and inferred schema, and the optional expected output.
func (p *Parser) Parse(text string) (*model.ParsedQuestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Err: ErrEmptyText}
	}
	if !utf8.ValidString(text) {
		return nil, &ParseError{Err: ErrNotText}
	}

	sec := splitSections(text)

	input, err := parseInputSection(sec.input)
	if err != nil {
		return nil, err
	}

	var expected *model.ExpectedOutput
	if sec.hasOutput {
		expected = parseOutputSection(sec.output)
	}

	stamp := p.now().UTC().Format("20060102")
	base := input.tableName
	if base == "" {
		base = DefaultTableName
	}

	return &model.ParsedQuestion{
		TableName:      base,
		FullTableName:  base + "_" + stamp,
		Schema:         input.schema,
		InputData:      input.rows,
		ExpectedOutput: expected,
		Metadata: model.Metadata{
			RowCount:    len(input.rows),
			ColumnCount: len(input.schema),
			Timestamp:   stamp,
		},
	}, nil
}

func parseInputSection(section string) (*inputTable, error) {
	lines := splitLines(section)
	tableName := extractTableName(lines)

	headerIdx := findHeaderLine(lines)
	if headerIdx < 0 {
		return nil, &ParseError{Err: ErrHeaderNotFound}
	}

	names := splitColumnNames(lines[headerIdx])
	dataStart := skipSeparators(lines, headerIdx+1)
	rows := parseRows(lines[dataStart:], len(names))

	return &inputTable{
		tableName: tableName,
		schema:    inferSchema(names, rows),
		rows:      rows,
	}, nil
}

// parseOutputSection reads the expected output table. Without a proper header
// line the first line (the "Output:" heading) becomes the only column, so an
// output section always yields a result.
func parseOutputSection(section string) *model.ExpectedOutput {
	lines := splitLines(section)
	if len(lines) == 0 {
		return nil
	}

	headerIdx := findOutputHeaderLine(lines)
	if headerIdx < 0 {
		headerIdx = 0
	}

	columns := splitColumnNames(lines[headerIdx])
	dataStart := skipSeparators(lines, headerIdx+1)

	return &model.ExpectedOutput{
		Columns: columns,
		Rows:    parseRows(lines[dataStart:], len(columns)),
	}
}
