package playground

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sql-playground/internal/apperr"
	"sql-playground/internal/export"
	"sql-playground/internal/model"
	"sql-playground/internal/observability"
	"sql-playground/internal/question"
	"sql-playground/pkg/utils"
)

// Materialize creates dataset.FullTableName and fills it with the question's
// input rows. An existing table of the same name is replaced. If the insert
// fails the new table is dropped again so no partially loaded table is left.
func (s *Service) Materialize(ctx context.Context, pq *model.ParsedQuestion, dataset string) (*model.LoadResult, error) {
	ref := model.TableRef{DatasetID: s.dataset(dataset), TableID: pq.FullTableName}
	if err := ref.Validate(); err != nil {
		return nil, apperr.AtStage(err, apperr.CodeBadRequest, model.StageMaterialize, "invalid table reference")
	}
	log := s.logger.With("table", ref.String())

	if err := s.wh.EnsureDataset(ctx, ref.DatasetID); err != nil {
		return nil, tableErr(err, model.StageMaterialize, ref, "failed to prepare dataset")
	}

	exists, err := s.wh.TableExists(ctx, ref)
	if err != nil {
		return nil, tableErr(err, model.StageMaterialize, ref, "failed to check existing table")
	}
	if exists {
		log.Info("replacing existing table")
		if err := s.wh.DeleteTable(ctx, ref); err != nil {
			return nil, tableErr(err, model.StageMaterialize, ref, "failed to replace existing table")
		}
	}

	if err := s.wh.CreateTable(ctx, ref, pq.Schema); err != nil {
		return nil, tableErr(err, model.StageMaterialize, ref, "failed to create table")
	}

	inserted, err := s.wh.InsertRows(ctx, ref, pq.Schema, pq.InputData)
	if err != nil {
		observability.Rollbacks.Inc()
		if derr := s.wh.DeleteTable(context.WithoutCancel(ctx), ref); derr != nil {
			log.Warn("failed to drop table after insert error", "error", derr)
		}
		return nil, tableErr(err, model.StageMaterialize, ref, "failed to insert rows")
	}

	observability.TablesMaterialized.Inc()
	observability.RowsInserted.Add(float64(inserted))
	log.Info("table materialized", "rows", inserted, "columns", len(pq.Schema))

	return &model.LoadResult{
		ProjectID:     s.opts.ProjectID,
		DatasetID:     ref.DatasetID,
		TableID:       ref.TableID,
		FullTablePath: s.fullTablePath(ref),
		RowsInserted:  inserted,
		Schema:        pq.Schema,
		Timestamp:     s.now().UTC(),
	}, nil
}

// CreateResult is what CreateTable returns on success.
type CreateResult struct {
	LoadID    string               `json:"loadId"`
	Parsed    model.Summary        `json:"parsed"`
	Warehouse *model.LoadResult    `json:"warehouse"`
	Files     []utils.ExportedFile `json:"files,omitempty"`
	Message   string               `json:"message"`
}

// CreateTable runs parse, validate and materialize for one question and
// records the attempt. A failing stage stops the pipeline; the returned error
// names the stage and carries the load id.
func (s *Service) CreateTable(ctx context.Context, text, dataset string) (*CreateResult, error) {
	dataset = s.dataset(dataset)
	rec := model.LoadRecord{ID: s.newID(), DatasetID: dataset, Status: model.LoadPending}
	log := s.logger.With("load_id", rec.ID)
	s.record(log, "save load", s.saveLoad(rec))

	fail := func(stage string, err error) error {
		if s.loads != nil {
			s.record(log, "save load error", s.loads.SaveLoadError(rec.ID, stage, err))
			s.record(log, "update load status", s.loads.UpdateLoadStatus(rec.ID, model.LoadFailed, 0))
		}
		log.Warn("load failed", "stage", stage, "error", err)
		return apperr.AddContext(err, apperr.CtxLoadID, rec.ID)
	}

	start := time.Now()
	pq, err := s.parse(text)
	if err != nil {
		observability.QuestionsParsed.WithLabelValues(parseResult(err)).Inc()
		return nil, fail(model.StageParse, err)
	}
	if err := question.Validate(pq); err != nil {
		err = questionErr(err)
		observability.QuestionsParsed.WithLabelValues(parseResult(err)).Inc()
		return nil, fail(model.StageValidate, err)
	}
	observability.ParseDuration.Observe(time.Since(start).Seconds())
	observability.QuestionsParsed.WithLabelValues("ok").Inc()

	rec.TableName = pq.TableName
	rec.FullTableName = pq.FullTableName
	rec.Status = model.LoadParsed
	rec.RowCount = len(pq.InputData)
	rec.ColumnCount = len(pq.Schema)
	rec.ExpectedOutput = pq.ExpectedOutput
	if s.loads != nil {
		s.record(log, "update load", s.loads.UpdateLoad(rec))
	}

	files, err := s.exportFiles(rec.ID, pq)
	if err != nil {
		log.Warn("export failed", "error", err)
		if s.loads != nil {
			s.record(log, "save load error", s.loads.SaveLoadError(rec.ID, model.StageExport, err))
		}
	}

	result, err := s.Materialize(ctx, pq, dataset)
	if err != nil {
		return nil, fail(model.StageMaterialize, err)
	}
	if s.loads != nil {
		s.record(log, "update load status", s.loads.UpdateLoadStatus(rec.ID, model.LoadLoaded, result.RowsInserted))
	}

	return &CreateResult{
		LoadID:    rec.ID,
		Parsed:    pq.Summarize(),
		Warehouse: result,
		Files:     files,
		Message:   fmt.Sprintf("Table %s created with %d rows", result.FullTablePath, result.RowsInserted),
	}, nil
}

func (s *Service) saveLoad(rec model.LoadRecord) error {
	if s.loads == nil {
		return nil
	}
	return s.loads.SaveLoad(rec)
}

// record logs load-history write failures; history is best effort.
func (s *Service) record(log *slog.Logger, what string, err error) {
	if err != nil {
		log.Warn("load history write failed", "op", what, "error", err)
	}
}

type exportJob struct {
	name  string
	table export.Table
}

// exportFiles writes the input rows (CSV and JSON) and the expected output
// (CSV) under the load's output directory.
func (s *Service) exportFiles(loadID string, pq *model.ParsedQuestion) ([]utils.ExportedFile, error) {
	if s.outputs == nil {
		return nil, nil
	}

	tables := []exportJob{
		{"input_data.csv", export.InputTable(pq)},
		{"input_data.json", export.InputTable(pq)},
	}
	if eo := pq.ExpectedOutput; eo != nil {
		tables = append(tables, exportJob{"expected_output.csv", export.Table{Columns: eo.Columns, Rows: eo.Rows}})
	}

	var files []utils.ExportedFile
	var errs []error
	for _, t := range tables {
		path, err := s.outputs.GetOutputFilePath(loadID, t.name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := export.ToFile(path, t.table); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
			continue
		}
		desc, err := s.outputs.Describe(loadID, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, desc)
	}
	return files, errors.Join(errs...)
}
