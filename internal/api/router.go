// Package api exposes the ingestion pipeline over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/expensetracker/internal/api/handlers"
	"github.com/jask/expensetracker/internal/api/middleware"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Ingest         handlers.Ingester
	Formats        handlers.FormatStore
	MaxUploadBytes int64
	Log            zerolog.Logger
}

// NewRouter wires handlers and middleware.
func NewRouter(d Deps) http.Handler {
	uploadHandler := handlers.NewUploadHandler(d.Ingest, d.MaxUploadBytes, d.Log)
	formatsHandler := handlers.NewFormatsHandler(d.Formats, d.Log)

	mux := http.NewServeMux()

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			uploadHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/formats", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			formatsHandler.ListFormats(w, r)
		case http.MethodPost:
			formatsHandler.RegisterFormat(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.RequestID(d.Log)(
		middleware.Recovery(d.Log)(
			middleware.Logger(d.Log)(
				middleware.CORS(mux),
			),
		),
	)
}
