package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jask/expensetracker/internal/api/middleware"
	"github.com/jask/expensetracker/internal/logger"
	"github.com/jask/expensetracker/internal/service"
	"github.com/jask/expensetracker/internal/statement"
)

// maxFormatBytes bounds a format descriptor body.
const maxFormatBytes = 64 << 10

// FormatStore lists and registers statement formats.
type FormatStore interface {
	List(ctx context.Context) ([]service.FormatInfo, error)
	Register(ctx context.Context, f statement.Format) error
}

// FormatsHandler handles format endpoints.
type FormatsHandler struct {
	store FormatStore
	log   zerolog.Logger
}

// NewFormatsHandler creates a new formats handler.
func NewFormatsHandler(store FormatStore, log zerolog.Logger) *FormatsHandler {
	return &FormatsHandler{store: store, log: log}
}

// ListFormats handles GET /formats
func (h *FormatsHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	formats, err := h.store.List(r.Context())
	if err != nil {
		reqLog := logger.FromContext(r.Context(), h.log)
		reqLog.Error().Err(err).Msg("Failed to list formats")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list formats")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"formats": formats,
		"count":   len(formats),
	})
}

// RegisterFormat handles POST /formats
func (h *FormatsHandler) RegisterFormat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormatBytes)
	var f statement.Format
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Format definition too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := f.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Register(r.Context(), f); err != nil {
		if errors.Is(err, service.ErrFormatConflict) {
			middleware.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		reqLog := logger.FromContext(r.Context(), h.log)
		reqLog.Error().Err(err).Str("format", f.Name).Msg("Failed to register format")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to register format")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, f)
}
