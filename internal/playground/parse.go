package playground

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sql-playground/internal/apperr"
	"sql-playground/internal/model"
	"sql-playground/internal/observability"
	"sql-playground/internal/question"
)

func parseResult(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		return "validation_error"
	case apperr.CodeParse:
		return "parse_error"
	default:
		return "error"
	}
}

func (s *Service) checkSize(text string) error {
	if s.opts.MaxQuestionBytes > 0 && len(text) > s.opts.MaxQuestionBytes {
		return apperr.New(apperr.CodeBadRequest,
			fmt.Sprintf("question text is %d bytes, limit is %d", len(text), s.opts.MaxQuestionBytes)).
			WithContext(apperr.CtxStage, model.StageParse)
	}
	return nil
}

// parse runs the parser alone; validation is a separate stage in CreateTable.
func (s *Service) parse(text string) (*model.ParsedQuestion, error) {
	if err := s.checkSize(text); err != nil {
		return nil, err
	}
	parsed, err := s.parser.Parse(text)
	if err != nil {
		return nil, questionErr(err)
	}
	return parsed, nil
}

// ParseOnly parses and validates text without touching the warehouse.
func (s *Service) ParseOnly(text string) (parsed *model.ParsedQuestion, err error) {
	start := time.Now()
	defer func() {
		observability.ParseDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			observability.QuestionsParsed.WithLabelValues(parseResult(err)).Inc()
		} else {
			observability.QuestionsParsed.WithLabelValues("ok").Inc()
		}
	}()

	parsed, err = s.parse(text)
	if err != nil {
		return nil, err
	}
	if err := question.Validate(parsed); err != nil {
		return nil, questionErr(err)
	}
	return parsed, nil
}

// BatchItem is one entry of a ParseBatch response, in input order.
type BatchItem struct {
	Index   int              `json:"index"`
	Success bool             `json:"success"`
	Parsed  *model.Summary   `json:"parsed,omitempty"`
	Error   string           `json:"error,omitempty"`
	Code    apperr.ErrorCode `json:"code,omitempty"`
	Stage   string           `json:"stage,omitempty"`
}

// ParseBatch parses and validates many questions concurrently. Oversized
// texts are rejected individually; an oversized batch is rejected whole.
func (s *Service) ParseBatch(ctx context.Context, texts []string) ([]BatchItem, error) {
	if len(texts) == 0 {
		return nil, apperr.New(apperr.CodeBadRequest, "questions must not be empty")
	}
	if s.opts.MaxBatchSize > 0 && len(texts) > s.opts.MaxBatchSize {
		return nil, apperr.New(apperr.CodeBadRequest,
			fmt.Sprintf("batch has %d questions, limit is %d", len(texts), s.opts.MaxBatchSize))
	}

	items := make([]BatchItem, len(texts))
	pending := make([]string, 0, len(texts))
	index := make([]int, 0, len(texts))
	for i, text := range texts {
		if err := s.checkSize(text); err != nil {
			items[i] = failedItem(i, err)
			continue
		}
		pending = append(pending, text)
		index = append(index, i)
	}

	for _, r := range s.parser.ParseBatch(ctx, pending, s.opts.BatchWorkers) {
		i := index[r.Index]
		if r.Err != nil {
			err := r.Err
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				err = questionErr(err)
			}
			items[i] = failedItem(i, err)
			observability.QuestionsParsed.WithLabelValues(parseResult(err)).Inc()
			continue
		}
		summary := r.Parsed.Summarize()
		items[i] = BatchItem{Index: i, Success: true, Parsed: &summary}
		observability.QuestionsParsed.WithLabelValues("ok").Inc()
	}

	s.logger.Debug("batch parsed", "questions", len(texts))
	return items, nil
}

func failedItem(i int, err error) BatchItem {
	item := BatchItem{Index: i, Error: err.Error(), Code: apperr.CodeOf(err)}
	var de *apperr.DomainError
	if errors.As(err, &de) {
		item.Error = de.Detail()
		item.Stage = de.Stage()
	}
	return item
}
