package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sql-playground/internal/api"
	"sql-playground/internal/api/handler"
	"sql-playground/internal/config"
	"sql-playground/internal/playground"
	"sql-playground/internal/store"
	"sql-playground/internal/warehouse"
	"sql-playground/pkg/router"
	"sql-playground/pkg/utils"
)

// App owns the long-lived resources shared by the server and the CLI.
type App struct {
	Config    *config.Config
	Warehouse *warehouse.SQL
	Loads     *store.Store
	Outputs   *utils.OutputManager
	Service   *playground.Service
	Logger    *slog.Logger
}

// New opens the warehouse and load store and builds the service. Exports are
// skipped when outputs are disabled in config.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	wh, err := warehouse.Open(ctx, cfg.Warehouse, logger)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}

	loads, err := store.Open(cfg.Store.Path)
	if err != nil {
		_ = wh.Close()
		return nil, fmt.Errorf("open load store: %w", err)
	}

	a := &App{Config: cfg, Warehouse: wh, Loads: loads, Logger: logger}
	options := []playground.ServiceOption{
		playground.WithLoadRecorder(loads),
		playground.WithLogger(logger),
	}
	if !cfg.Outputs.Disabled {
		a.Outputs = utils.NewOutputManager(cfg.Outputs.Dir)
		if err := a.Outputs.EnsureOutputDirExists(); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		options = append(options, playground.WithOutputs(a.Outputs))
	}
	a.Service = playground.NewService(wh, playground.OptionsFromConfig(cfg), options...)

	logger.Info("playground ready",
		"driver", wh.Driver(),
		"project", wh.ProjectID(),
		"dataset", a.Service.DefaultDataset(),
		"store", cfg.Store.Path)
	return a, nil
}

// Router builds the HTTP router with middleware and every API route.
func (a *App) Router(limiter *api.RateLimiter) *router.Router {
	r := router.New()
	api.Middleware(r, a.Config.Server, limiter)

	var history handler.LoadHistory
	if a.Loads != nil {
		history = a.Loads
	}
	api.RegisterRoutes(r, handler.New(a.Service, history, a.Outputs, a.Warehouse.Driver(), a.Logger))
	return r
}

func (a *App) Close() error {
	var errs []error
	if a.Loads != nil {
		errs = append(errs, a.Loads.Close())
	}
	if a.Warehouse != nil {
		errs = append(errs, a.Warehouse.Close())
	}
	return errors.Join(errs...)
}
