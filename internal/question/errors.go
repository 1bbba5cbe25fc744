package question

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyText      = errors.New("question text is empty")
	ErrNotText        = errors.New("question text is not valid UTF-8")
	ErrHeaderNotFound = errors.New("header not found")
)

// ParseError means the text could not be understood as a question.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse question: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Validation rules, in the order Validate checks them.
const (
	RuleTableName = "table_name"
	RuleSchema    = "schema"
	RuleInputData = "input_data"
	RuleRowWidth  = "row_width"
)

// ValidationError reports the first post-condition a parsed question failed.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
