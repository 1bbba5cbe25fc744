package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"sql-playground/internal/apperr"
	"sql-playground/internal/model"
	"sql-playground/pkg/router"
)

var errNoHistory = apperr.New(apperr.CodeNotFound, "load history is disabled")

// ListLoads retrieves recent table loads
// @Summary List loads
// @Description Newest first; each load records one create-table attempt
// @Tags loads
// @Produce json
// @Param limit query int false "Maximum loads to return (default 50)"
// @Success 200 {object} map[string]interface{} "Loads"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/loads [get]
func (h *Handler) ListLoads(w http.ResponseWriter, r *http.Request) {
	if h.loads == nil {
		h.writeError(w, r, errNoHistory)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	loads, err := h.loads.ListLoads(limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if loads == nil {
		loads = []model.LoadRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "loads": loads})
}

// GetLoad retrieves one load
// @Summary Get load
// @Tags loads
// @Produce json
// @Param id path string true "Load ID"
// @Success 200 {object} map[string]interface{} "Load details"
// @Failure 404 {object} ErrorResponse "Load not found"
// @Router /api/v1/loads/{id} [get]
func (h *Handler) GetLoad(w http.ResponseWriter, r *http.Request) {
	if h.loads == nil {
		h.writeError(w, r, errNoHistory)
		return
	}
	load, err := h.loads.GetLoad(router.Wildcard(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "load": load})
}

// GetLoadErrors retrieves the errors recorded for a load
// @Summary Get load errors
// @Tags loads
// @Produce json
// @Param id path string true "Load ID"
// @Success 200 {object} map[string]interface{} "Load errors"
// @Failure 404 {object} ErrorResponse "Load not found"
// @Router /api/v1/loads/{id}/errors [get]
func (h *Handler) GetLoadErrors(w http.ResponseWriter, r *http.Request) {
	if h.loads == nil {
		h.writeError(w, r, errNoHistory)
		return
	}
	loadID := router.Wildcard(r, 0)

	// 404 for unknown loads rather than an empty list
	if _, err := h.loads.GetLoad(loadID); err != nil {
		h.writeError(w, r, err)
		return
	}
	details, err := h.loads.GetLoadErrors(loadID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if details == nil {
		details = []model.ErrorDetail{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"loadId":  loadID,
		"errors":  details,
		"count":   len(details),
	})
}

// DownloadFile serves an exported file
// @Summary Download file
// @Description Download a file exported for a load (input_data.csv, input_data.json, expected_output.csv)
// @Tags files
// @Produce application/octet-stream
// @Param loadID path string true "Load ID"
// @Param filename path string true "File name"
// @Success 200 {file} file "File download"
// @Failure 404 {object} ErrorResponse "File not found"
// @Router /api/v1/download/{loadID}/{filename} [get]
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if h.outputs == nil {
		h.writeError(w, r, apperr.New(apperr.CodeNotFound, "file exports are disabled"))
		return
	}
	loadID, fileName := router.Wildcard(r, 0), router.Wildcard(r, 1)

	filePath, err := h.outputs.ResolveFile(loadID, fileName)
	if err != nil {
		h.logger.Debug("download rejected", "load_id", loadID, "file", fileName, "error", err)
		h.writeError(w, r, apperr.New(apperr.CodeNotFound, "File not found"))
		return
	}

	// Set appropriate headers for file download
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, filePath)
}
