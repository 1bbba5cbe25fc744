package warehouse

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"sql-playground/internal/config"
	"sql-playground/internal/model"
)

const (
	memoryDir   = ":memory:"
	catalogFile = "catalog.sqlite3"
)

// sqliteDialect keeps one attached database per dataset. The attachment list
// is replayed on every new connection by sqliteConnector.
type sqliteDialect struct {
	dir string

	ensureMu sync.Mutex // serializes ATTACH statements
	mu       sync.Mutex
	attached map[string]string // dataset -> file
}

func newSQLiteDialect(dir string) *sqliteDialect {
	return &sqliteDialect{dir: dir, attached: make(map[string]string)}
}

func (d *sqliteDialect) Name() string              { return "sqlite" }
func (d *sqliteDialect) Quote(ident string) string { return quoteIdent(ident) }
func (d *sqliteDialect) Placeholder(int) string    { return "?" }
func (d *sqliteDialect) MaxParams() int            { return 32766 }

func (d *sqliteDialect) SQLType(t model.ColumnType) string {
	if s, ok := sqlTypes["sqlite"][t]; ok {
		return s
	}
	return "TEXT"
}

func (d *sqliteDialect) memory() bool {
	return d.dir == "" || d.dir == memoryDir
}

func (d *sqliteDialect) datasetPath(dataset string) string {
	if d.memory() {
		return memoryDir
	}
	return filepath.Join(d.dir, dataset+".db")
}

func (d *sqliteDialect) snapshot() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.attached))
	for k, v := range d.attached {
		out[k] = v
	}
	return out
}

func attachSQL(dataset string) string {
	return "ATTACH DATABASE ? AS " + quoteIdent(dataset)
}

func (d *sqliteDialect) ensureDataset(ctx context.Context, db *sql.DB, dataset string) error {
	d.ensureMu.Lock()
	defer d.ensureMu.Unlock()

	if ok, _ := d.datasetExists(ctx, db, dataset); ok {
		return nil
	}
	path := d.datasetPath(dataset)
	if _, err := db.ExecContext(ctx, attachSQL(dataset), path); err != nil {
		return fmt.Errorf("attach dataset %s: %w", dataset, err)
	}

	d.mu.Lock()
	d.attached[dataset] = path
	d.mu.Unlock()
	return nil
}

func (d *sqliteDialect) datasetExists(_ context.Context, _ *sql.DB, dataset string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.attached[dataset]
	return ok, nil
}

func (d *sqliteDialect) listDatasets(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM pragma_database_list WHERE name NOT IN ('main', 'temp') ORDER BY name`)
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

func (d *sqliteDialect) tableNamesQuery(dataset string) (string, []interface{}) {
	return fmt.Sprintf(`SELECT name FROM %s.sqlite_master WHERE type = 'table' ORDER BY name`,
		quoteIdent(dataset)), nil
}

func (d *sqliteDialect) tableExistsQuery(ref model.TableRef) (string, []interface{}) {
	return fmt.Sprintf(`SELECT COUNT(*) FROM %s.sqlite_master WHERE type = 'table' AND name = ?`,
		quoteIdent(ref.DatasetID)), []interface{}{ref.TableID}
}

// discover registers dataset files already present in the warehouse dir.
func (d *sqliteDialect) discover() error {
	if d.memory() {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(d.dir, "*.db"))
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, path := range matches {
		name := strings.TrimSuffix(filepath.Base(path), ".db")
		if model.ValidIdentifier(name) {
			d.attached[name] = path
		}
	}
	return nil
}

// sqliteConnector opens mattn connections and re-attaches every known dataset.
type sqliteConnector struct {
	driver  *sqlite3.SQLiteDriver
	dsn     string
	dialect *sqliteDialect
}

func (c *sqliteConnector) Connect(_ context.Context) (driver.Conn, error) {
	conn, err := c.driver.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	sc, ok := conn.(*sqlite3.SQLiteConn)
	if !ok {
		return conn, nil
	}
	for name, path := range c.dialect.snapshot() {
		if _, err := sc.Exec(attachSQL(name), []driver.Value{path}); err != nil {
			sc.Close()
			return nil, fmt.Errorf("attach dataset %s: %w", name, err)
		}
	}
	return sc, nil
}

func (c *sqliteConnector) Driver() driver.Driver {
	return c.driver
}

func openSQLite(ctx context.Context, cfg config.Warehouse, retry RetryConfig, logger *slog.Logger) (*SQL, error) {
	d := newSQLiteDialect(cfg.Dir)

	dsn := cfg.DSN
	if dsn == "" {
		if d.memory() {
			dsn = memoryDir
		} else {
			if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
				return nil, fmt.Errorf("create warehouse dir: %w", err)
			}
			dsn = filepath.Join(cfg.Dir, catalogFile) + "?_busy_timeout=5000"
		}
	}
	if err := d.discover(); err != nil {
		return nil, fmt.Errorf("scan warehouse dir: %w", err)
	}

	db := sql.OpenDB(&sqliteConnector{driver: &sqlite3.SQLiteDriver{}, dsn: dsn, dialect: d})
	// Attachments and in-memory databases live on one connection.
	db.SetMaxOpenConns(1)

	return newSQL(ctx, db, d, cfg, retry, logger)
}

func isSQLiteQueryError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrError
	}
	return false
}
