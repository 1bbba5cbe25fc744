package playground

import (
	"context"
	"fmt"
	"strings"

	"sql-playground/internal/apperr"
	"sql-playground/internal/model"
	"sql-playground/internal/observability"
)

// ExecuteQuery runs sql with the configured timeout and row limit.
func (s *Service) ExecuteQuery(ctx context.Context, sql string) (*model.QueryResult, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, apperr.New(apperr.CodeBadRequest, "query is required")
	}
	return s.query(ctx, sql, s.opts.QueryMaxRows)
}

func (s *Service) query(ctx context.Context, sql string, maxRows int) (*model.QueryResult, error) {
	if s.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()
	}

	res, err := s.wh.Query(ctx, sql, maxRows)
	observability.QueriesExecuted.WithLabelValues(observability.Result(err)).Inc()
	if err != nil {
		return nil, warehouseErr(err, stageQuery, "query failed")
	}
	s.logger.Debug("query executed", "job_id", res.JobID, "rows", res.RowCount, "ms", res.ExecutionTime)
	return res, nil
}

type ImportRequest struct {
	SourceTable        string `json:"sourceTable"`
	DestinationDataset string `json:"destinationDataset"`
	DestinationTable   string `json:"destinationTable"`
	Overwrite          bool   `json:"overwrite"`
}

// Import copies SourceTable ("dataset.table") to the destination. An existing
// destination is replaced only when Overwrite is set.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*model.ImportResult, error) {
	if req.SourceTable == "" || req.DestinationDataset == "" || req.DestinationTable == "" {
		return nil, apperr.New(apperr.CodeBadRequest,
			"sourceTable, destinationDataset, and destinationTable are required")
	}
	src, err := model.ParseTableRef(req.SourceTable)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeBadRequest, "invalid source table")
	}
	dst := model.TableRef{DatasetID: req.DestinationDataset, TableID: req.DestinationTable}
	if err := dst.Validate(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeBadRequest, "invalid destination table")
	}
	if src == dst {
		return nil, apperr.New(apperr.CodeBadRequest, "source and destination are the same table")
	}

	if err := s.wh.EnsureDataset(ctx, dst.DatasetID); err != nil {
		return nil, tableErr(err, stageImport, dst, "failed to prepare destination dataset")
	}
	exists, err := s.wh.TableExists(ctx, dst)
	if err != nil {
		return nil, tableErr(err, stageImport, dst, "failed to check destination table")
	}
	if exists && !req.Overwrite {
		return nil, apperr.New(apperr.CodeConflict,
			fmt.Sprintf("Table %s already exists. Use overwrite=true to replace.", dst)).
			WithContext(apperr.CtxStage, stageImport).
			WithContext(apperr.CtxTable, dst.String())
	}

	// the warehouse drops an existing destination inside the copy transaction
	if err := s.wh.CopyTable(ctx, src, dst, req.Overwrite); err != nil {
		return nil, tableErr(err, stageImport, dst, "import failed")
	}
	s.logger.Info("table imported", "source", src.String(), "destination", dst.String())

	return &model.ImportResult{
		DestinationTable: dst.String(),
		Message:          "Table successfully imported",
	}, nil
}

func (s *Service) tableRef(dataset, table string) (model.TableRef, error) {
	ref := model.TableRef{DatasetID: s.dataset(dataset), TableID: table}
	if err := ref.Validate(); err != nil {
		return ref, apperr.Wrap(err, apperr.CodeBadRequest, "invalid table reference")
	}
	return ref, nil
}

// TableSchema returns columns, row count and creation time of a table.
func (s *Service) TableSchema(ctx context.Context, dataset, table string) (*model.TableInfo, error) {
	ref, err := s.tableRef(dataset, table)
	if err != nil {
		return nil, err
	}
	info, err := s.wh.TableMetadata(ctx, ref)
	if err != nil {
		return nil, tableErr(err, stageCatalog, ref, "failed to read table schema")
	}
	return info, nil
}

// SampleData returns the first limit rows of a table (DefaultSampleLimit when
// limit <= 0, capped at the query row limit).
func (s *Service) SampleData(ctx context.Context, dataset, table string, limit int) (*model.QueryResult, error) {
	ref, err := s.tableRef(dataset, table)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	if s.opts.QueryMaxRows > 0 && limit > s.opts.QueryMaxRows {
		limit = s.opts.QueryMaxRows
	}

	exists, err := s.wh.TableExists(ctx, ref)
	if err != nil {
		return nil, tableErr(err, stageCatalog, ref, "failed to check table")
	}
	if !exists {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("table %s not found", ref)).
			WithContext(apperr.CtxTable, ref.String())
	}

	// ids are validated identifiers, so ANSI quoting is safe on every driver
	sql := fmt.Sprintf(`SELECT * FROM "%s"."%s" LIMIT %d`, ref.DatasetID, ref.TableID, limit)
	return s.query(ctx, sql, limit)
}

func (s *Service) DeleteTable(ctx context.Context, dataset, table string) error {
	ref, err := s.tableRef(dataset, table)
	if err != nil {
		return err
	}
	if err := s.wh.DeleteTable(ctx, ref); err != nil {
		return tableErr(err, stageCatalog, ref, "failed to delete table")
	}
	s.logger.Info("table deleted", "table", ref.String())
	return nil
}

func (s *Service) ListTables(ctx context.Context, dataset string) ([]model.TableInfo, error) {
	dataset = s.dataset(dataset)
	if !model.ValidIdentifier(dataset) {
		return nil, apperr.New(apperr.CodeBadRequest, fmt.Sprintf("invalid dataset id %q", dataset))
	}
	tables, err := s.wh.ListTables(ctx, dataset)
	if err != nil {
		return nil, warehouseErr(err, stageCatalog, "failed to list tables").WithContext(apperr.CtxDataset, dataset)
	}
	return tables, nil
}

func (s *Service) ListDatasets(ctx context.Context) ([]model.DatasetInfo, error) {
	datasets, err := s.wh.ListDatasets(ctx)
	if err != nil {
		return nil, warehouseErr(err, stageCatalog, "failed to list datasets")
	}
	return datasets, nil
}
