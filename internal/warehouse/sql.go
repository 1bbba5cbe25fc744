package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sql-playground/internal/config"
	"sql-playground/internal/model"
	"sql-playground/internal/observability"
)

const catalogTable = "warehouse_catalog"

const catalogDDL = `CREATE TABLE IF NOT EXISTS ` + catalogTable + ` (
	dataset_id TEXT NOT NULL,
	table_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (dataset_id, table_id)
)`

// SQL is a Warehouse backed by database/sql.
//
// Callers must not hold a *sql.Rows open while issuing another statement:
// the SQLite pool has a single connection.
type SQL struct {
	db        *sql.DB
	dialect   dialect
	projectID string
	location  string
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func newSQL(ctx context.Context, db *sql.DB, d dialect, cfg config.Warehouse, retry RetryConfig, logger *slog.Logger) (*SQL, error) {
	w := &SQL{
		db:        db,
		dialect:   d,
		projectID: cfg.ProjectID,
		location:  cfg.Location,
		batchSize: cfg.BatchSize,
		logger:    logger.With("component", "warehouse", "driver", d.Name()),
		now:       time.Now,
	}

	err := withRetry(ctx, retry, w.logger, "connect", func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, catalogDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog: %w", err)
	}

	w.logger.Info("warehouse connected", "project", w.projectID)
	return w, nil
}

func (w *SQL) Driver() string    { return w.dialect.Name() }
func (w *SQL) ProjectID() string { return w.projectID }

func (w *SQL) Close() error {
	return w.db.Close()
}

func (w *SQL) EnsureDataset(ctx context.Context, dataset string) (err error) {
	defer func(start time.Time) { observability.ObserveWarehouseOp("ensure_dataset", start, err) }(time.Now())

	if !model.ValidIdentifier(dataset) {
		return fmt.Errorf("invalid dataset id %q", dataset)
	}
	if err := w.dialect.ensureDataset(ctx, w.db, dataset); err != nil {
		return err
	}
	w.logger.Debug("dataset ready", "dataset", dataset)
	return nil
}

func (w *SQL) ListDatasets(ctx context.Context) ([]model.DatasetInfo, error) {
	names, err := w.dialect.listDatasets(ctx, w.db)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	out := make([]model.DatasetInfo, 0, len(names))
	for _, name := range names {
		out = append(out, model.DatasetInfo{ID: name, Location: w.location})
	}
	return out, nil
}

func (w *SQL) requireDataset(ctx context.Context, dataset string) error {
	ok, err := w.dialect.datasetExists(ctx, w.db, dataset)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, dataset)
	}
	return nil
}

func (w *SQL) TableExists(ctx context.Context, ref model.TableRef) (bool, error) {
	if err := ref.Validate(); err != nil {
		return false, err
	}
	ok, err := w.dialect.datasetExists(ctx, w.db, ref.DatasetID)
	if err != nil || !ok {
		return false, err
	}

	query, args := w.dialect.tableExistsQuery(ref)
	var n int
	if err := w.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check table %s: %w", ref, err)
	}
	return n > 0, nil
}

func createTableSQL(d dialect, ref model.TableRef, schema []model.Column) string {
	defs := make([]string, len(schema))
	for i, col := range schema {
		defs[i] = d.Quote(col.Name) + " " + d.SQLType(col.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", qualified(d, ref), strings.Join(defs, ", "))
}

func (w *SQL) upsertCatalog(ctx context.Context, tx *sql.Tx, ref model.TableRef) error {
	d := w.dialect
	query := fmt.Sprintf(`INSERT INTO %s (dataset_id, table_id, created_at) VALUES (%s, %s, %s)
		ON CONFLICT (dataset_id, table_id) DO UPDATE SET created_at = excluded.created_at`,
		catalogTable, d.Placeholder(1), d.Placeholder(2), d.Placeholder(3))
	_, err := tx.ExecContext(ctx, query, ref.DatasetID, ref.TableID, w.now().UTC())
	return err
}

// CreateTable creates ref with every column nullable.
func (w *SQL) CreateTable(ctx context.Context, ref model.TableRef, schema []model.Column) (err error) {
	defer func(start time.Time) { observability.ObserveWarehouseOp("create_table", start, err) }(time.Now())

	if err := ref.Validate(); err != nil {
		return err
	}
	if len(schema) == 0 {
		return fmt.Errorf("create table %s: empty schema", ref)
	}
	if err := w.requireDataset(ctx, ref.DatasetID); err != nil {
		return err
	}
	exists, err := w.TableExists(ctx, ref)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTableExists, ref)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create table %s: %w", ref, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL(w.dialect, ref, schema)); err != nil {
		return fmt.Errorf("create table %s: %w", ref, err)
	}
	if err := w.upsertCatalog(ctx, tx, ref); err != nil {
		return fmt.Errorf("record table %s: %w", ref, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create table %s: %w", ref, err)
	}

	w.logger.Debug("table created", "table", ref.String(), "columns", len(schema))
	return nil
}

// insertStatement builds one multi-row INSERT. Row values map to schema
// columns by position; short rows are padded with NULL.
func insertStatement(d dialect, ref model.TableRef, schema []model.Column, rows []model.Row) (string, []interface{}, error) {
	cols := make([]string, len(schema))
	for i, col := range schema {
		cols[i] = d.Quote(col.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", qualified(d, ref), strings.Join(cols, ", "))

	args := make([]interface{}, 0, len(rows)*len(schema))
	n := 0
	for i, row := range rows {
		if len(row) > len(schema) {
			return "", nil, fmt.Errorf("row %d has %d values, schema has %d columns", i+1, len(row), len(schema))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, col := range schema {
			if j > 0 {
				sb.WriteString(", ")
			}
			n++
			sb.WriteString(d.Placeholder(n))

			var v model.Value
			if j < len(row) {
				v = row[j]
			}
			args = append(args, coerceValue(v, col.Type))
		}
		sb.WriteByte(')')
	}
	return sb.String(), args, nil
}

// InsertRows appends rows to ref in one transaction, batching the INSERTs.
// Either every row is inserted or none are.
func (w *SQL) InsertRows(ctx context.Context, ref model.TableRef, schema []model.Column, rows []model.Row) (inserted int, err error) {
	defer func(start time.Time) { observability.ObserveWarehouseOp("insert_rows", start, err) }(time.Now())

	if len(rows) == 0 {
		return 0, nil
	}
	exists, err := w.TableExists(ctx, ref)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrTableNotFound, ref)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", ref, err)
	}
	defer tx.Rollback()

	per := batchRows(w.dialect, w.batchSize, len(schema))
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}
		query, args, err := insertStatement(w.dialect, ref, schema, rows[start:end])
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", ref, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert rows %d-%d into %s: %w", start+1, end, ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", ref, err)
	}
	w.logger.Debug("rows inserted", "table", ref.String(), "rows", len(rows))
	return len(rows), nil
}

func (w *SQL) DeleteTable(ctx context.Context, ref model.TableRef) (err error) {
	defer func(start time.Time) { observability.ObserveWarehouseOp("delete_table", start, err) }(time.Now())

	exists, err := w.TableExists(ctx, ref)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTableNotFound, ref)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete table %s: %w", ref, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE "+qualified(w.dialect, ref)); err != nil {
		return fmt.Errorf("delete table %s: %w", ref, err)
	}
	d := w.dialect
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE dataset_id = %s AND table_id = %s", catalogTable, d.Placeholder(1), d.Placeholder(2)),
		ref.DatasetID, ref.TableID)
	if err != nil {
		return fmt.Errorf("unrecord table %s: %w", ref, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete table %s: %w", ref, err)
	}

	w.logger.Debug("table deleted", "table", ref.String())
	return nil
}

func (w *SQL) creationTimes(ctx context.Context, dataset string) (map[string]time.Time, error) {
	rows, err := w.db.QueryContext(ctx,
		fmt.Sprintf("SELECT table_id, created_at FROM %s WHERE dataset_id = %s", catalogTable, w.dialect.Placeholder(1)),
		dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var table string
		var created sql.NullTime
		if err := rows.Scan(&table, &created); err != nil {
			return nil, err
		}
		if created.Valid {
			out[table] = created.Time.UTC()
		}
	}
	return out, rows.Err()
}

func (w *SQL) countRows(ctx context.Context, ref model.TableRef) (int64, error) {
	var n int64
	err := w.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+qualified(w.dialect, ref)).Scan(&n)
	return n, err
}

func (w *SQL) fullID(ref model.TableRef) string {
	return w.projectID + "." + ref.String()
}

func (w *SQL) tableNames(ctx context.Context, dataset string) ([]string, error) {
	query, args := w.dialect.tableNamesQuery(dataset)
	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (w *SQL) ListTables(ctx context.Context, dataset string) ([]model.TableInfo, error) {
	if !model.ValidIdentifier(dataset) {
		return nil, fmt.Errorf("invalid dataset id %q", dataset)
	}
	if err := w.requireDataset(ctx, dataset); err != nil {
		return nil, err
	}

	names, err := w.tableNames(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", dataset, err)
	}
	created, err := w.creationTimes(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	tables := make([]model.TableInfo, 0, len(names))
	for _, name := range names {
		ref := model.TableRef{DatasetID: dataset, TableID: name}
		count, err := w.countRows(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("count rows in %s: %w", ref, err)
		}
		tables = append(tables, model.TableInfo{
			ID:           name,
			DatasetID:    dataset,
			FullID:       w.fullID(ref),
			NumRows:      count,
			CreationTime: created[name],
		})
	}
	return tables, nil
}

func (w *SQL) columns(ctx context.Context, ref model.TableRef) ([]model.Column, error) {
	rows, err := w.db.QueryContext(ctx, "SELECT * FROM "+qualified(w.dialect, ref)+" LIMIT 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	schema := make([]model.Column, len(types))
	for i, ct := range types {
		schema[i] = model.Column{Name: ct.Name(), Type: columnTypeOf(ct.DatabaseTypeName())}
	}
	return schema, nil
}

func (w *SQL) TableMetadata(ctx context.Context, ref model.TableRef) (info *model.TableInfo, err error) {
	defer func(start time.Time) { observability.ObserveWarehouseOp("table_metadata", start, err) }(time.Now())

	exists, err := w.TableExists(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, ref)
	}

	schema, err := w.columns(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("read schema of %s: %w", ref, err)
	}
	count, err := w.countRows(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("count rows in %s: %w", ref, err)
	}
	created, err := w.creationTimes(ctx, ref.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	return &model.TableInfo{
		ID:           ref.TableID,
		DatasetID:    ref.DatasetID,
		FullID:       w.fullID(ref),
		Schema:       schema,
		NumRows:      count,
		CreationTime: created[ref.TableID],
	}, nil
}

// CopyTable creates dst with src's schema and copies every row. An existing
// dst is an error unless overwrite is set, in which case it is dropped in the
// same transaction as the copy and survives any failure.
func (w *SQL) CopyTable(ctx context.Context, src, dst model.TableRef, overwrite bool) (err error) {
	defer func(start time.Time) { observability.ObserveWarehouseOp("copy_table", start, err) }(time.Now())

	if err := dst.Validate(); err != nil {
		return err
	}
	meta, err := w.TableMetadata(ctx, src)
	if err != nil {
		return err
	}
	if err := w.requireDataset(ctx, dst.DatasetID); err != nil {
		return err
	}
	exists, err := w.TableExists(ctx, dst)
	if err != nil {
		return err
	}
	if exists && !overwrite {
		return fmt.Errorf("%w: %s", ErrTableExists, dst)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer tx.Rollback()

	if exists {
		if _, err := tx.ExecContext(ctx, "DROP TABLE "+qualified(w.dialect, dst)); err != nil {
			return fmt.Errorf("replace table %s: %w", dst, err)
		}
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(w.dialect, dst, meta.Schema)); err != nil {
		return fmt.Errorf("create table %s: %w", dst, err)
	}
	copySQL := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", qualified(w.dialect, dst), qualified(w.dialect, src))
	if _, err := tx.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := w.upsertCatalog(ctx, tx, dst); err != nil {
		return fmt.Errorf("record table %s: %w", dst, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	w.logger.Info("table copied", "source", src.String(), "destination", dst.String(), "rows", meta.NumRows, "replaced", exists)
	return nil
}

// Query runs a SQL statement and returns at most maxRows rows (no limit when
// maxRows <= 0). Truncated is set when more rows were available.
func (w *SQL) Query(ctx context.Context, query string, maxRows int) (res *model.QueryResult, err error) {
	start := time.Now()
	defer func() { observability.ObserveWarehouseOp("query", start, err) }()

	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}

	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res = &model.QueryResult{
		JobID:   uuid.NewString(),
		Columns: columns,
		Rows:    make([]map[string]interface{}, 0),
	}

	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if maxRows > 0 && len(res.Rows) >= maxRows {
			res.Truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res.RowCount = len(res.Rows)
	res.ExecutionTime = time.Since(start).Milliseconds()
	return res, nil
}

func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
