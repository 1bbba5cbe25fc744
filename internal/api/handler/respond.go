package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"sql-playground/internal/apperr"
	"sql-playground/internal/store"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool             `json:"success"`
	Error   string           `json:"error"`
	Code    apperr.ErrorCode `json:"code"`
	Stage   string           `json:"stage,omitempty"`
	LoadID  string           `json:"loadId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to write response", "error", err)
	}
}

// writeError turns err into an ErrorResponse. Errors that are not domain
// errors are logged and reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Code: apperr.CodeInternal, Error: "internal server error"}
	status := http.StatusInternalServerError

	var de *apperr.DomainError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		resp.Code = apperr.CodeBadRequest
		resp.Error = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		resp.Code = apperr.CodeNotFound
		resp.Error = err.Error()
	case errors.As(err, &de):
		status = apperr.HTTPStatus(de.Code)
		resp.Code = de.Code
		resp.Error = de.Detail()
		resp.Stage = de.Stage()
		if id, ok := de.Context[apperr.CtxLoadID].(string); ok {
			resp.LoadID = id
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return apperr.Wrap(err, apperr.CodeBadRequest, "Invalid JSON payload")
	}
	return nil
}
