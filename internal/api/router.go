package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "sql-playground/docs"
	"sql-playground/internal/api/handler"
	"sql-playground/internal/config"
	"sql-playground/pkg/router"
)

// Middleware installs the request pipeline shared by every route. limiter
// may be nil.
func Middleware(r *router.Router, cfg config.Server, limiter *RateLimiter) {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		limiter.Middleware,
		middleware.RequestSize(cfg.MaxBodyBytes),
		middleware.SetHeader("X-Content-Type-Options", "nosniff"),
	)
}

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.GET("/health", h.Health)

	r.POST("/api/v1/questions/parse", h.ParseQuestion)
	r.POST("/api/v1/questions/batch", h.ParseBatch)
	r.POST("/api/v1/tables", h.CreateTable)
	r.POST("/api/v1/query", h.ExecuteQuery)
	r.POST("/api/v1/import", h.ImportTable)

	r.GET("/api/v1/datasets", h.ListDatasets)
	r.GET("/api/v1/datasets/*/tables", h.ListTables)
	// More specific routes first
	r.GET("/api/v1/tables/*/*/schema", h.TableSchema)
	r.GET("/api/v1/tables/*/*/sample", h.SampleData)
	r.DELETE("/api/v1/tables/*/*", h.DeleteTable)

	r.GET("/api/v1/loads", h.ListLoads)
	r.GET("/api/v1/loads/*/errors", h.GetLoadErrors)
	r.GET("/api/v1/loads/*", h.GetLoad)

	r.GET("/api/v1/download/*/*", h.DownloadFile)

	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle(http.MethodGet, "/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
