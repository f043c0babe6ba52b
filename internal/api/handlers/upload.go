package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/expensetracker/internal/api/middleware"
	"github.com/jask/expensetracker/internal/database/repository"
	"github.com/jask/expensetracker/internal/logger"
	"github.com/jask/expensetracker/internal/service"
	"github.com/jask/expensetracker/internal/statement"
)

// statusClientClosedRequest is the non-standard status logged when the uploader disconnects
// before the batch finishes.
const statusClientClosedRequest = 499

// Ingester runs one uploaded statement through the pipeline.
type Ingester interface {
	Ingest(ctx context.Context, req service.Request) (service.Result, error)
}

// UploadHandler handles statement uploads.
type UploadHandler struct {
	ingest   Ingester
	maxBytes int64
	log      zerolog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(ingest Ingester, maxBytes int64, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{ingest: ingest, maxBytes: maxBytes, log: log}
}

type expenseJSON struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	AmountCents int64           `json:"amount_cents"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Notes       string          `json:"notes"`
	Account     string          `json:"account"`
}

type uploadResponse struct {
	Format        string        `json:"format"`
	Account       string        `json:"account"`
	Accepted      []expenseJSON `json:"accepted"`
	AcceptedCount int           `json:"accepted_count"`
	Duplicates    int           `json:"duplicates"`
	RejectedCount int           `json:"rejected_count"`
	Errors        []string      `json:"errors"`
	Archived      string        `json:"archived,omitempty"`
}

type unknownFormatResponse struct {
	Error       string            `json:"error"`
	Closest     string            `json:"closest,omitempty"`
	Missing     []string          `json:"missing,omitempty"`
	Extra       []string          `json:"extra,omitempty"`
	Suggestions map[string]string `json:"suggestions,omitempty"`
}

type rejectedResponse struct {
	Error         string   `json:"error"`
	RejectedCount int      `json:"rejected_count"`
	Errors        []string `json:"errors"`
}

// Upload handles POST /upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, h.log)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	res, err := h.ingest.Ingest(ctx, service.Request{
		Filename: header.Filename,
		Body:     file,
		Account:  r.FormValue("account"),
		Format:   r.FormValue("format"),
	})

	var ufe *statement.UnknownFormatError
	switch {
	case err == nil:
		middleware.WriteJSON(w, http.StatusOK, toUploadResponse(res))
	case errors.As(err, &ufe):
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, unknownFormatResponse{
			Error:       ufe.Error(),
			Closest:     ufe.Closest,
			Missing:     ufe.Missing,
			Extra:       ufe.Extra,
			Suggestions: ufe.Suggestions,
		})
	case errors.Is(err, statement.ErrUnknownFormat):
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, unknownFormatResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAccountRequired),
		errors.Is(err, statement.ErrEmptyStatement),
		errors.Is(err, statement.ErrTooManyRows):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoValidRows):
		middleware.WriteJSON(w, http.StatusBadRequest, rejectedResponse{
			Error:         err.Error(),
			RejectedCount: res.RejectedCount(),
			Errors:        res.Errors(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Int("accepted", len(res.Accepted)).Msg("ingest timed out")
		middleware.WriteError(w, http.StatusGatewayTimeout, "Statement processing timed out")
	case errors.Is(err, context.Canceled):
		log.Warn().Err(err).Int("accepted", len(res.Accepted)).Msg("ingest canceled by client")
		middleware.WriteError(w, statusClientClosedRequest, "Statement processing canceled")
	default:
		log.Error().Err(err).Str("file", header.Filename).Msg("Failed to ingest statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process statement")
	}
}

func toUploadResponse(res service.Result) uploadResponse {
	out := uploadResponse{
		Format:        res.Format,
		Account:       res.Account,
		Accepted:      make([]expenseJSON, 0, len(res.Accepted)),
		AcceptedCount: len(res.Accepted),
		Duplicates:    res.Duplicates,
		RejectedCount: res.RejectedCount(),
		Errors:        res.Errors(),
		Archived:      res.Archived,
	}
	for _, e := range res.Accepted {
		out.Accepted = append(out.Accepted, toExpenseJSON(e))
	}
	return out
}

func toExpenseJSON(e repository.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		Amount:      decimal.New(e.AmountCents, -2),
		AmountCents: e.AmountCents,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Date:        e.Date,
		Description: e.Description,
		Notes:       e.Notes,
		Account:     e.Account,
	}
}
