package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	QuestionsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playground_questions_parsed_total",
		Help: "Questions parsed, by result (ok, parse_error, validation_error).",
	}, []string{"result"})

	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playground_parse_seconds",
		Help:    "Time spent parsing and validating one question.",
		Buckets: prometheus.DefBuckets,
	})

	TablesMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playground_tables_materialized_total",
		Help: "Tables created and populated in the warehouse.",
	})

	RowsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playground_rows_inserted_total",
		Help: "Rows inserted into warehouse tables.",
	})

	Rollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playground_materialize_rollbacks_total",
		Help: "Tables deleted after a failed insert.",
	})

	WarehouseOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playground_warehouse_op_seconds",
		Help:    "Latency of warehouse operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})

	QueriesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playground_queries_executed_total",
		Help: "SQL queries executed against the warehouse, by result.",
	}, []string{"result"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playground_http_rate_limited_total",
		Help: "Requests rejected by the per-client rate limiter.",
	})
)

// ObserveWarehouseOp records the latency of op since start.
func ObserveWarehouseOp(op string, start time.Time, err error) {
	WarehouseOpDuration.WithLabelValues(op, Result(err)).Observe(time.Since(start).Seconds())
}

// Result is the label used for success/failure splits.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
