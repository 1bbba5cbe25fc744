package question

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-playground/internal/model"
)

const electricItemsQuestion = `
table : electric_items.
Type  Status  Time_in_Minutes
===============================
light 'on'  100
light 'off'    110
fan   'on'  80
fan   'off'    120
Output:
===========
Type     Time_Duration
=========================
light       60
fan      40
`

const customersQuestion = `
table: customers
customer_id  first_name  last_name  age
1  John  Doe  31
2  Robert  Luna  22
3  David  Robinson  22

Output:
first_name  age
John  31
Robert  22
David  22
`

const productsQuestion = `
table: products
product_id  name  price
1  Laptop  1299.99
2  Mouse  29.50
3  'Keyboard Pro'  89.99

Output:
name  price
Laptop  1299.99
`

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
}

func newTestParser() *Parser {
	return NewParser(WithClock(fixedClock))
}

func TestParse_ElectricItems(t *testing.T) {
	parsed, err := newTestParser().Parse(electricItemsQuestion)
	require.NoError(t, err)
	require.NoError(t, Validate(parsed))

	assert.Equal(t, "electric_items", parsed.TableName)
	assert.Equal(t, "electric_items_20261019", parsed.FullTableName)
	assert.Equal(t, []model.Column{
		{Name: "Type", Type: model.ColumnString},
		{Name: "Status", Type: model.ColumnString},
		{Name: "Time_in_Minutes", Type: model.ColumnInteger},
	}, parsed.Schema)

	require.Len(t, parsed.InputData, 4)
	assert.Equal(t, model.Row{"light", "on", int64(100)}, parsed.InputData[0])
	assert.Equal(t, model.Row{"fan", "off", int64(120)}, parsed.InputData[3])

	require.NotNil(t, parsed.ExpectedOutput)
	assert.Equal(t, []string{"Type", "Time_Duration"}, parsed.ExpectedOutput.Columns)
	assert.Equal(t, []model.Row{
		{"light", int64(60)},
		{"fan", int64(40)},
	}, parsed.ExpectedOutput.Rows)

	assert.Equal(t, model.Metadata{RowCount: 4, ColumnCount: 3, Timestamp: "20261019"}, parsed.Metadata)
}

func TestParse_Customers(t *testing.T) {
	parsed, err := newTestParser().Parse(customersQuestion)
	require.NoError(t, err)

	assert.Equal(t, "customers", parsed.TableName)
	assert.Equal(t, []model.Column{
		{Name: "customer_id", Type: model.ColumnInteger},
		{Name: "first_name", Type: model.ColumnString},
		{Name: "last_name", Type: model.ColumnString},
		{Name: "age", Type: model.ColumnInteger},
	}, parsed.Schema)
	assert.Equal(t, model.Row{int64(2), "Robert", "Luna", int64(22)}, parsed.InputData[1])

	require.NotNil(t, parsed.ExpectedOutput)
	assert.Equal(t, []string{"first_name", "age"}, parsed.ExpectedOutput.Columns)
	assert.Len(t, parsed.ExpectedOutput.Rows, 3)
}

func TestParse_DecimalsAndQuotedStrings(t *testing.T) {
	parsed, err := newTestParser().Parse(productsQuestion)
	require.NoError(t, err)

	assert.Equal(t, model.ColumnInteger, parsed.Schema[0].Type)
	assert.Equal(t, model.ColumnString, parsed.Schema[1].Type)
	assert.Equal(t, model.ColumnFloat, parsed.Schema[2].Type)

	assert.Equal(t, model.Row{int64(3), "Keyboard Pro", 89.99}, parsed.InputData[2])
	assert.Equal(t, model.Row{"Laptop", 1299.99}, parsed.ExpectedOutput.Rows[0])
}

func TestParse_NoOutputSection(t *testing.T) {
	text := "table: t\nid  name\n1  a\n2  b\n"
	parsed, err := newTestParser().Parse(text)
	require.NoError(t, err)
	assert.Nil(t, parsed.ExpectedOutput)
	assert.Len(t, parsed.InputData, 2)
}

func TestParse_OutputWithoutHeader(t *testing.T) {
	text := "id  name\n1  a\nOutput:\n=========\n"
	parsed, err := newTestParser().Parse(text)
	require.NoError(t, err)
	require.NotNil(t, parsed.ExpectedOutput)
	assert.Equal(t, []string{"Output:"}, parsed.ExpectedOutput.Columns)
	assert.Empty(t, parsed.ExpectedOutput.Rows)
	assert.NotNil(t, parsed.ExpectedOutput.Rows)
	assert.Len(t, parsed.InputData, 1)
}

func TestParse_OutputMarkerIsCaseInsensitive(t *testing.T) {
	text := "id  name\n1  a\nOUTPUT :\nname\na\n"
	parsed, err := newTestParser().Parse(text)
	require.NoError(t, err)
	require.NotNil(t, parsed.ExpectedOutput)
	assert.Equal(t, []string{"name"}, parsed.ExpectedOutput.Columns)
	assert.Equal(t, []model.Row{{"a"}}, parsed.ExpectedOutput.Rows)
	assert.Len(t, parsed.InputData, 1)
}

func TestParse_FallbackTableName(t *testing.T) {
	parsed, err := newTestParser().Parse("id  name\n1  a\n")
	require.NoError(t, err)
	assert.Equal(t, FallbackTableName, parsed.TableName)
	assert.Equal(t, "parsed_table_20261019", parsed.FullTableName)
}

func TestParse_DateSuffixUsesUTC(t *testing.T) {
	zone := time.FixedZone("UTC+14", 14*60*60)
	clock := func() time.Time { return time.Date(2026, 10, 20, 5, 0, 0, 0, zone) }
	parsed, err := NewParser(WithClock(clock)).Parse("id  name\n1  a\n")
	require.NoError(t, err)
	assert.Equal(t, "20261019", parsed.Metadata.Timestamp)
}

func TestParse_SameDayCollides(t *testing.T) {
	morning := NewParser(WithClock(func() time.Time { return time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC) }))
	evening := NewParser(WithClock(func() time.Time { return time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC) }))

	a, err := morning.Parse(customersQuestion)
	require.NoError(t, err)
	b, err := evening.Parse(customersQuestion)
	require.NoError(t, err)
	assert.Equal(t, a.FullTableName, b.FullTableName)
}

func TestParse_Idempotent(t *testing.T) {
	p := newTestParser()
	for _, text := range []string{electricItemsQuestion, customersQuestion, productsQuestion} {
		first, err := p.Parse(text)
		require.NoError(t, err)
		second, err := p.Parse(text)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestParse_RowWidthInvariant(t *testing.T) {
	text := `table: ragged
a  b  c
1
1  2
1  2  3
1  2  3  4  5
`
	parsed, err := newTestParser().Parse(text)
	require.NoError(t, err)
	require.Len(t, parsed.InputData, 4)
	for _, row := range parsed.InputData {
		assert.Len(t, row, len(parsed.Schema))
	}
	assert.Equal(t, model.Row{int64(1), nil, nil}, parsed.InputData[0])
	// extra values are dropped without error
	assert.Equal(t, model.Row{int64(1), int64(2), int64(3)}, parsed.InputData[3])
	require.NoError(t, Validate(parsed))
}

func TestParse_TypeFromFirstNonNullSample(t *testing.T) {
	text := `table: mixed
id  code  note
1
2  7  x
3  abc  y
`
	parsed, err := newTestParser().Parse(text)
	require.NoError(t, err)
	// row 1 has nil for code and note; row 2 supplies the samples
	assert.Equal(t, model.ColumnInteger, parsed.Schema[1].Type)
	assert.Equal(t, model.ColumnString, parsed.Schema[2].Type)
	assert.Equal(t, "abc", parsed.InputData[2][1])
}

func TestParse_AllNullColumnIsString(t *testing.T) {
	text := "id  empty\n1\n2\n"
	parsed, err := newTestParser().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, model.ColumnString, parsed.Schema[1].Type)
}

func TestParse_SeparatorTolerance(t *testing.T) {
	base, err := newTestParser().Parse("table: s\nid  name\n1  a\n2  b\n")
	require.NoError(t, err)

	variants := map[string]string{
		"equals":   "table: s\nid  name\n=====\n1  a\n2  b\n",
		"dashes":   "table: s\nid  name\n-----\n1  a\n2  b\n",
		"under":    "table: s\nid  name\n_____\n1  a\n2  b\n",
		"mixed":    "table: s\nid  name\n=-_=-_\n1  a\n2  b\n",
		"several":  "table: s\n=====\nid  name\n=====\n-----\n___\n1  a\n2  b\n",
		"inside":   "table: s\nid  name\n1  a\n-----\n2  b\n",
		"indented": "table: s\n   id  name   \n   ====   \n 1  a\n2  b\n",
	}
	for name, text := range variants {
		t.Run(name, func(t *testing.T) {
			parsed, err := newTestParser().Parse(text)
			require.NoError(t, err)
			assert.Equal(t, base.Schema, parsed.Schema)
			assert.Equal(t, base.InputData, parsed.InputData)
		})
	}
}

func TestParse_WindowsLineEndings(t *testing.T) {
	parsed, err := newTestParser().Parse("table: w\r\nid  name\r\n1  a\r\n")
	require.NoError(t, err)
	assert.Equal(t, "w", parsed.TableName)
	assert.Equal(t, model.Row{int64(1), "a"}, parsed.InputData[0])
}

func TestParse_HeaderSkipsLinesMentioningTable(t *testing.T) {
	// Known limitation: a header that mentions "table" is never picked.
	text := "table: t\nid  table_ref\nfoo  bar\n1  2\n"
	parsed, err := newTestParser().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar"}, parsed.ColumnNames())
	assert.Len(t, parsed.InputData, 1)
}

func TestParse_UnbalancedQuoteIsLenient(t *testing.T) {
	text := "a  b  c\n1  'abc  2\n"
	parsed, err := newTestParser().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, model.Row{int64(1), "'abc  2", nil}, parsed.InputData[0])
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", ErrEmptyText},
		{"whitespace", "  \n\t\n", ErrEmptyText},
		{"invalid utf8", "id  name\n\xff\xfe", ErrNotText},
		{"only table line", "table: t\n=====\n", ErrHeaderNotFound},
		{"single words", "alpha\nbeta\ngamma\n", ErrHeaderNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := newTestParser().Parse(tc.text)
			assert.Nil(t, parsed)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestParse_PackageLevel(t *testing.T) {
	parsed, err := Parse(customersQuestion)
	require.NoError(t, err)
	assert.Equal(t, "customers_"+time.Now().UTC().Format("20060102"), parsed.FullTableName)
}
