// Package playground ties the question parser to the warehouse: it turns
// question text into populated tables and serves queries against them.
package playground

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sql-playground/internal/config"
	"sql-playground/internal/model"
	"sql-playground/internal/question"
	"sql-playground/internal/warehouse"
	"sql-playground/pkg/utils"
)

const DefaultSampleLimit = 10

// LoadRecorder persists the history of CreateTable attempts.
type LoadRecorder interface {
	SaveLoad(rec model.LoadRecord) error
	UpdateLoad(rec model.LoadRecord) error
	UpdateLoadStatus(loadID, status string, rowsInserted int) error
	SaveLoadError(loadID, stage string, err error) error
}

type Options struct {
	ProjectID        string
	DefaultDataset   string
	QueryMaxRows     int
	QueryTimeout     time.Duration
	BatchWorkers     int
	MaxBatchSize     int
	MaxQuestionBytes int
}

// OptionsFromConfig picks the service settings out of the app config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ProjectID:        cfg.Warehouse.ProjectID,
		DefaultDataset:   cfg.Warehouse.DefaultDataset,
		QueryMaxRows:     cfg.Warehouse.QueryMaxRows,
		QueryTimeout:     cfg.Warehouse.QueryDeadline(),
		BatchWorkers:     cfg.Parser.BatchWorkers,
		MaxBatchSize:     cfg.Parser.MaxBatchSize,
		MaxQuestionBytes: cfg.Parser.MaxQuestionBytes,
	}
}

type Service struct {
	wh      warehouse.Warehouse
	parser  *question.Parser
	loads   LoadRecorder
	outputs *utils.OutputManager
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

type ServiceOption func(*Service)

func WithParser(p *question.Parser) ServiceOption {
	return func(s *Service) { s.parser = p }
}

// WithLoadRecorder enables load history for CreateTable.
func WithLoadRecorder(r LoadRecorder) ServiceOption {
	return func(s *Service) { s.loads = r }
}

// WithOutputs enables CSV/JSON export of parsed tables.
func WithOutputs(om *utils.OutputManager) ServiceOption {
	return func(s *Service) { s.outputs = om }
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(wh warehouse.Warehouse, opts Options, options ...ServiceOption) *Service {
	if opts.DefaultDataset == "" {
		opts.DefaultDataset = "customer_data"
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = 4
	}
	s := &Service{
		wh:     wh,
		opts:   opts,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range options {
		o(s)
	}
	if s.parser == nil {
		s.parser = question.NewParser(question.WithClock(s.now))
	}
	s.logger = s.logger.With("component", "playground")
	return s
}

func (s *Service) DefaultDataset() string {
	return s.opts.DefaultDataset
}

func (s *Service) dataset(id string) string {
	if id == "" {
		return s.opts.DefaultDataset
	}
	return id
}

func (s *Service) fullTablePath(ref model.TableRef) string {
	return fmt.Sprintf("%s.%s", s.opts.ProjectID, ref)
}
