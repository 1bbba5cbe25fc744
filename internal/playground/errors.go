package playground

import (
	"context"
	"errors"

	"sql-playground/internal/apperr"
	"sql-playground/internal/model"
	"sql-playground/internal/question"
	"sql-playground/internal/warehouse"
)

const ctxRule = "rule"

// Stages of the operations that do not go through the load pipeline.
const (
	stageQuery   = "query"
	stageImport  = "import"
	stageCatalog = "catalog"
)

// questionErr classifies a parser or validator failure.
func questionErr(err error) error {
	var ve *question.ValidationError
	if errors.As(err, &ve) {
		return apperr.AtStage(err, apperr.CodeValidation, model.StageValidate, "question failed validation").
			WithContext(ctxRule, ve.Rule)
	}
	var de *apperr.DomainError
	if errors.As(err, &de) {
		return de
	}
	return apperr.AtStage(err, apperr.CodeParse, model.StageParse, "could not parse question")
}

// warehouseErr classifies a warehouse failure by the sentinel it carries.
func warehouseErr(err error, stage, msg string) *apperr.DomainError {
	code := apperr.CodeWarehouse
	switch {
	case errors.Is(err, warehouse.ErrTableNotFound), errors.Is(err, warehouse.ErrDatasetNotFound):
		code = apperr.CodeNotFound
	case errors.Is(err, warehouse.ErrTableExists):
		code = apperr.CodeConflict
	case errors.Is(err, context.DeadlineExceeded):
		msg = msg + " (timed out)"
	case warehouse.IsQueryError(err):
		code = apperr.CodeBadRequest
	}
	return apperr.AtStage(err, code, stage, msg)
}

// tableErr is warehouseErr for a failure on one table.
func tableErr(err error, stage string, ref model.TableRef, msg string) error {
	return warehouseErr(err, stage, msg).
		WithContext(apperr.CtxDataset, ref.DatasetID).
		WithContext(apperr.CtxTable, ref.String())
}
