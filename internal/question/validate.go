package question

import (
	"fmt"

	"sql-playground/internal/model"
)

// Validate checks a parsed question before it is materialized, stopping at
// the first failing rule. It never repairs anything.
func Validate(parsed *model.ParsedQuestion) error {
	if parsed == nil {
		return &ValidationError{Rule: RuleTableName, Message: "parsed question is nil"}
	}

	if parsed.TableName == "" {
		return &ValidationError{Rule: RuleTableName, Message: "table name is required"}
	}

	if len(parsed.Schema) == 0 {
		return &ValidationError{Rule: RuleSchema, Message: "schema must have at least one column"}
	}

	if len(parsed.InputData) == 0 {
		return &ValidationError{Rule: RuleInputData, Message: "input data must have at least one row"}
	}

	expected := len(parsed.Schema)
	for i, row := range parsed.InputData {
		if len(row) != expected {
			return &ValidationError{
				Rule:    RuleRowWidth,
				Message: fmt.Sprintf("row %d has %d columns, expected %d", i+1, len(row), expected),
			}
		}
	}

	return nil
}

// ParseAndValidate runs Parse then Validate.
func (p *Parser) ParseAndValidate(text string) (*model.ParsedQuestion, error) {
	parsed, err := p.Parse(text)
	if err != nil {
		return nil, err
	}
	if err := Validate(parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}
