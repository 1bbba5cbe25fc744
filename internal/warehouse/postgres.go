package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"sql-playground/internal/config"
	"sql-playground/internal/model"
)

// postgresDialect maps each dataset to a schema.
type postgresDialect struct{}

func (postgresDialect) Name() string              { return "postgres" }
func (postgresDialect) Quote(ident string) string { return pq.QuoteIdentifier(ident) }
func (postgresDialect) Placeholder(n int) string  { return "$" + strconv.Itoa(n) }
func (postgresDialect) MaxParams() int            { return 65535 }

func (postgresDialect) SQLType(t model.ColumnType) string {
	if s, ok := sqlTypes["postgres"][t]; ok {
		return s
	}
	return "TEXT"
}

func (d postgresDialect) ensureDataset(ctx context.Context, db *sql.DB, dataset string) error {
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+d.Quote(dataset)); err != nil {
		return fmt.Errorf("create schema %s: %w", dataset, err)
	}
	return nil
}

func (postgresDialect) datasetExists(ctx context.Context, db *sql.DB, dataset string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = $1`, dataset).Scan(&n)
	return n > 0, err
}

func (postgresDialect) listDatasets(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT schema_name FROM information_schema.schemata
		WHERE schema_name NOT IN ('public', 'information_schema')
		  AND schema_name NOT LIKE 'pg\_%'
		ORDER BY schema_name`)
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

func (postgresDialect) tableNamesQuery(dataset string) (string, []interface{}) {
	return `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name`,
		[]interface{}{dataset}
}

func (postgresDialect) tableExistsQuery(ref model.TableRef) (string, []interface{}) {
	return `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2`,
		[]interface{}{ref.DatasetID, ref.TableID}
}

func openPostgres(ctx context.Context, cfg config.Warehouse, retry RetryConfig, logger *slog.Logger) (*SQL, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		dsn = cfg.Postgres.ConnString()
	}
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return newSQL(ctx, db, postgresDialect{}, cfg, retry, logger)
}

// Class 42 is syntax/access rule violations, class 22 is data exceptions.
func isPostgresQueryError(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) {
		class := pe.Code.Class()
		return class == "42" || class == "22"
	}
	return false
}
