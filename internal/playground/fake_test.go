package playground

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"sql-playground/internal/model"
	"sql-playground/internal/warehouse"
)

type fakeTable struct {
	schema []model.Column
	rows   []model.Row
}

// fakeWarehouse keeps tables in memory and records the calls it receives.
type fakeWarehouse struct {
	mu       sync.Mutex
	datasets map[string]bool
	tables   map[model.TableRef]*fakeTable
	calls    []string

	insertErr error
	queryErr  error
	lastQuery string
	lastMax   int
}

var _ warehouse.Warehouse = (*fakeWarehouse)(nil)

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{datasets: map[string]bool{}, tables: map[model.TableRef]*fakeTable{}}
}

func (f *fakeWarehouse) call(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeWarehouse) EnsureDataset(_ context.Context, dataset string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("ensure %s", dataset)
	f.datasets[dataset] = true
	return nil
}

func (f *fakeWarehouse) ListDatasets(context.Context) ([]model.DatasetInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DatasetInfo
	for ds := range f.datasets {
		out = append(out, model.DatasetInfo{ID: ds})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeWarehouse) CreateTable(_ context.Context, ref model.TableRef, schema []model.Column) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("create %s", ref)
	if _, ok := f.tables[ref]; ok {
		return fmt.Errorf("%w: %s", warehouse.ErrTableExists, ref)
	}
	f.tables[ref] = &fakeTable{schema: schema}
	return nil
}

func (f *fakeWarehouse) InsertRows(_ context.Context, ref model.TableRef, _ []model.Column, rows []model.Row) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("insert %s %d", ref, len(rows))
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	t, ok := f.tables[ref]
	if !ok {
		return 0, warehouse.ErrTableNotFound
	}
	t.rows = append(t.rows, rows...)
	return len(rows), nil
}

func (f *fakeWarehouse) TableExists(_ context.Context, ref model.TableRef) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tables[ref]
	return ok, nil
}

func (f *fakeWarehouse) DeleteTable(_ context.Context, ref model.TableRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("delete %s", ref)
	if _, ok := f.tables[ref]; !ok {
		return fmt.Errorf("%w: %s", warehouse.ErrTableNotFound, ref)
	}
	delete(f.tables, ref)
	return nil
}

func (f *fakeWarehouse) ListTables(_ context.Context, dataset string) ([]model.TableInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.datasets[dataset] {
		return nil, warehouse.ErrDatasetNotFound
	}
	var out []model.TableInfo
	for ref, t := range f.tables {
		if ref.DatasetID == dataset {
			out = append(out, model.TableInfo{ID: ref.TableID, DatasetID: dataset, NumRows: int64(len(t.rows))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeWarehouse) TableMetadata(_ context.Context, ref model.TableRef) (*model.TableInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", warehouse.ErrTableNotFound, ref)
	}
	return &model.TableInfo{ID: ref.TableID, DatasetID: ref.DatasetID, Schema: t.schema, NumRows: int64(len(t.rows))}, nil
}

func (f *fakeWarehouse) CopyTable(_ context.Context, src, dst model.TableRef, overwrite bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("copy %s %s overwrite=%t", src, dst, overwrite)
	t, ok := f.tables[src]
	if !ok {
		return fmt.Errorf("%w: %s", warehouse.ErrTableNotFound, src)
	}
	if _, ok := f.tables[dst]; ok && !overwrite {
		return fmt.Errorf("%w: %s", warehouse.ErrTableExists, dst)
	}
	f.tables[dst] = &fakeTable{schema: t.schema, rows: append([]model.Row(nil), t.rows...)}
	return nil
}

func (f *fakeWarehouse) Query(ctx context.Context, query string, maxRows int) (*model.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	f.lastMax = maxRows
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("query without deadline")
	}
	return &model.QueryResult{JobID: "job-1", Columns: []string{"n"}, Rows: []map[string]interface{}{{"n": int64(1)}}, RowCount: 1}, nil
}

func (f *fakeWarehouse) Close() error { return nil }

// fakeRecorder is an in-memory LoadRecorder.
type fakeRecorder struct {
	mu     sync.Mutex
	loads  map[string]model.LoadRecord
	errors map[string][]string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{loads: map[string]model.LoadRecord{}, errors: map[string][]string{}}
}

func (r *fakeRecorder) SaveLoad(rec model.LoadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.CreatedAt = time.Now()
	r.loads[rec.ID] = rec
	return nil
}

func (r *fakeRecorder) UpdateLoad(rec model.LoadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads[rec.ID] = rec
	return nil
}

func (r *fakeRecorder) UpdateLoadStatus(id, status string, rowsInserted int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.loads[id]
	rec.Status = status
	rec.RowsInserted = rowsInserted
	r.loads[id] = rec
	return nil
}

func (r *fakeRecorder) SaveLoadError(id, stage string, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[id] = append(r.errors[id], stage+": "+err.Error())
	return nil
}
