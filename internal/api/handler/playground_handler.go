package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sql-playground/internal/apperr"
	"sql-playground/internal/model"
	"sql-playground/internal/playground"
	"sql-playground/pkg/router"
	"sql-playground/pkg/utils"
)

// LoadHistory is the read side of the load store.
type LoadHistory interface {
	ListLoads(limit int) ([]model.LoadRecord, error)
	GetLoad(loadID string) (*model.LoadRecord, error)
	GetLoadErrors(loadID string) ([]model.ErrorDetail, error)
}

type Handler struct {
	svc     *playground.Service
	loads   LoadHistory
	outputs *utils.OutputManager
	logger  *slog.Logger
	driver  string
}

// New builds the API handlers. loads and outputs may be nil, in which case
// the history and download endpoints report 404.
func New(svc *playground.Service, loads LoadHistory, outputs *utils.OutputManager, driver string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, loads: loads, outputs: outputs, driver: driver, logger: logger}
}

type QuestionRequest struct {
	QuestionText string `json:"questionText"`
}

type BatchRequest struct {
	Questions []string `json:"questions"`
}

type CreateTableRequest struct {
	QuestionText string `json:"questionText"`
	DatasetID    string `json:"datasetId,omitempty"`
}

type QueryRequest struct {
	Query string `json:"query"`
}

type ParseResponse struct {
	Success bool          `json:"success"`
	Parsed  model.Summary `json:"parsed"`
}

type BatchResponse struct {
	Success bool                   `json:"success"`
	Results []playground.BatchItem `json:"results"`
}

type CreateTableResponse struct {
	Success bool `json:"success"`
	*playground.CreateResult
}

type QueryResponse struct {
	Success bool `json:"success"`
	*model.QueryResult
}

type HealthResponse struct {
	Status         string    `json:"status"`
	Driver         string    `json:"driver"`
	DefaultDataset string    `json:"defaultDataset"`
	Timestamp      time.Time `json:"timestamp"`
}

// Health reports that the server is up
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		Driver:         h.driver,
		DefaultDataset: h.svc.DefaultDataset(),
		Timestamp:      time.Now().UTC(),
	})
}

// ParseQuestion parses and validates a question without creating a table
// @Summary Parse a question
// @Description Parse question text into a table name, inferred schema, rows and expected output
// @Tags questions
// @Accept json
// @Produce json
// @Param request body QuestionRequest true "Question text"
// @Success 200 {object} ParseResponse
// @Failure 400 {object} ErrorResponse "Parse or validation error"
// @Router /api/v1/questions/parse [post]
func (h *Handler) ParseQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.QuestionText == "" {
		h.writeError(w, r, apperr.New(apperr.CodeBadRequest, "questionText is required"))
		return
	}

	parsed, err := h.svc.ParseOnly(req.QuestionText)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ParseResponse{Success: true, Parsed: parsed.Summarize()})
}

// ParseBatch parses several questions at once
// @Summary Parse questions in bulk
// @Description Each question succeeds or fails on its own; results keep input order
// @Tags questions
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Question texts"
// @Success 200 {object} BatchResponse
// @Failure 400 {object} ErrorResponse "Empty or oversized batch"
// @Router /api/v1/questions/batch [post]
func (h *Handler) ParseBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.svc.ParseBatch(r.Context(), req.Questions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchResponse{Success: true, Results: items})
}

// CreateTable parses a question and materializes its input table
// @Summary Create a table from a question
// @Description Parse, validate and load the question's input data into the warehouse
// @Tags tables
// @Accept json
// @Produce json
// @Param request body CreateTableRequest true "Question text and optional dataset"
// @Success 200 {object} CreateTableResponse
// @Failure 400 {object} ErrorResponse "Parse or validation error"
// @Failure 502 {object} ErrorResponse "Warehouse error"
// @Router /api/v1/tables [post]
func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req CreateTableRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.QuestionText == "" {
		h.writeError(w, r, apperr.New(apperr.CodeBadRequest, "questionText is required"))
		return
	}

	res, err := h.svc.CreateTable(r.Context(), req.QuestionText, req.DatasetID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CreateTableResponse{Success: true, CreateResult: res})
}

// ExecuteQuery runs SQL against the warehouse
// @Summary Execute a query
// @Tags query
// @Accept json
// @Produce json
// @Param request body QueryRequest true "SQL text"
// @Success 200 {object} QueryResponse
// @Failure 400 {object} ErrorResponse "Missing or invalid SQL"
// @Failure 502 {object} ErrorResponse "Warehouse error"
// @Router /api/v1/query [post]
func (h *Handler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.svc.ExecuteQuery(r.Context(), req.Query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Success: true, QueryResult: res})
}

// ImportTable copies a table into another dataset
// @Summary Import a table
// @Tags tables
// @Accept json
// @Produce json
// @Param request body playground.ImportRequest true "Source and destination"
// @Success 200 {object} map[string]interface{} "Table imported"
// @Failure 400 {object} ErrorResponse "Missing fields"
// @Failure 409 {object} ErrorResponse "Destination exists"
// @Router /api/v1/import [post]
func (h *Handler) ImportTable(w http.ResponseWriter, r *http.Request) {
	var req playground.ImportRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.svc.Import(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"destinationTable": res.DestinationTable,
		"message":          res.Message,
	})
}

// ListDatasets lists warehouse datasets
// @Summary List datasets
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{} "Datasets"
// @Failure 502 {object} ErrorResponse "Warehouse error"
// @Router /api/v1/datasets [get]
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.svc.ListDatasets(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if datasets == nil {
		datasets = []model.DatasetInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "datasets": datasets})
}

// ListTables lists the tables of a dataset
// @Summary List tables
// @Tags catalog
// @Produce json
// @Param dataset path string true "Dataset ID"
// @Success 200 {object} map[string]interface{} "Tables"
// @Failure 404 {object} ErrorResponse "Dataset not found"
// @Router /api/v1/datasets/{dataset}/tables [get]
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.ListTables(r.Context(), router.Wildcard(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if tables == nil {
		tables = []model.TableInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "tables": tables})
}

// TableSchema returns a table's columns and row count
// @Summary Get table schema
// @Tags catalog
// @Produce json
// @Param dataset path string true "Dataset ID"
// @Param table path string true "Table ID"
// @Success 200 {object} map[string]interface{} "Table metadata"
// @Failure 404 {object} ErrorResponse "Table not found"
// @Router /api/v1/tables/{dataset}/{table}/schema [get]
func (h *Handler) TableSchema(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.TableSchema(r.Context(), router.Wildcard(r, 0), router.Wildcard(r, 1))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "table": info})
}

// SampleData returns the first rows of a table
// @Summary Sample table rows
// @Tags catalog
// @Produce json
// @Param dataset path string true "Dataset ID"
// @Param table path string true "Table ID"
// @Param limit query int false "Row limit (default 10)"
// @Success 200 {object} QueryResponse
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Failure 404 {object} ErrorResponse "Table not found"
// @Router /api/v1/tables/{dataset}/{table}/sample [get]
func (h *Handler) SampleData(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, r, apperr.New(apperr.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	res, err := h.svc.SampleData(r.Context(), router.Wildcard(r, 0), router.Wildcard(r, 1), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Success: true, QueryResult: res})
}

// DeleteTable drops a table
// @Summary Delete a table
// @Tags tables
// @Produce json
// @Param dataset path string true "Dataset ID"
// @Param table path string true "Table ID"
// @Success 200 {object} map[string]interface{} "Table deleted"
// @Failure 404 {object} ErrorResponse "Table not found"
// @Router /api/v1/tables/{dataset}/{table} [delete]
func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	dataset, table := router.Wildcard(r, 0), router.Wildcard(r, 1)
	if err := h.svc.DeleteTable(r.Context(), dataset, table); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Table " + dataset + "." + table + " deleted",
	})
}
