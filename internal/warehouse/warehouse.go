// Package warehouse materializes parsed question tables in a SQL database.
//
// A dataset is a namespace of tables: an attached database file for SQLite
// and a schema for PostgreSQL. Table and dataset ids are always validated
// identifiers and are quoted by the dialect before reaching SQL.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sql-playground/internal/config"
	"sql-playground/internal/model"
)

var (
	ErrTableNotFound   = errors.New("table not found")
	ErrTableExists     = errors.New("table already exists")
	ErrDatasetNotFound = errors.New("dataset not found")
)

// Warehouse is the table-materialization collaborator used by the service.
type Warehouse interface {
	EnsureDataset(ctx context.Context, dataset string) error
	ListDatasets(ctx context.Context) ([]model.DatasetInfo, error)
	CreateTable(ctx context.Context, ref model.TableRef, schema []model.Column) error
	InsertRows(ctx context.Context, ref model.TableRef, schema []model.Column, rows []model.Row) (int, error)
	TableExists(ctx context.Context, ref model.TableRef) (bool, error)
	DeleteTable(ctx context.Context, ref model.TableRef) error
	ListTables(ctx context.Context, dataset string) ([]model.TableInfo, error)
	TableMetadata(ctx context.Context, ref model.TableRef) (*model.TableInfo, error)
	CopyTable(ctx context.Context, src, dst model.TableRef, overwrite bool) error
	Query(ctx context.Context, query string, maxRows int) (*model.QueryResult, error)
	Close() error
}

var _ Warehouse = (*SQL)(nil)

// Open connects to the warehouse named by cfg.Driver, retrying the initial
// ping with backoff.
func Open(ctx context.Context, cfg config.Warehouse, logger *slog.Logger) (*SQL, error) {
	if logger == nil {
		logger = slog.Default()
	}
	retry := DefaultConnectRetry
	retry.MaxAttempts = cfg.ConnectAttempts

	switch cfg.Driver {
	case "sqlite":
		return openSQLite(ctx, cfg, retry, logger)
	case "postgres":
		return openPostgres(ctx, cfg, retry, logger)
	default:
		return nil, fmt.Errorf("unsupported warehouse driver %q", cfg.Driver)
	}
}

// IsQueryError reports whether err was raised by the database for the SQL
// text itself (syntax, unknown table or column) rather than by the connection.
func IsQueryError(err error) bool {
	return isSQLiteQueryError(err) || isPostgresQueryError(err)
}
