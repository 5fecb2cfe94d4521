// Package api is the HTTP boundary. It decodes raw column maps into tables,
// dispatches to the analysis service, and maps taxonomy codes to status codes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"datalens/app"
	"datalens/engine"
	"datalens/internal"
	"datalens/internal/config"
	apperrors "datalens/internal/errors"
)

// Server serves the analysis API
type Server struct {
	cfg     *config.Config
	service *app.AnalysisService
	log     *internal.Logger
	http    *http.Server
}

// NewServer wires the router and service against the given config
func NewServer(cfg *config.Config, service *app.AnalysisService, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		cfg:     cfg,
		service: service,
		log:     logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))

	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalyze)

	s.http = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// ListenAndServe blocks until the server stops
func (s *Server) ListenAndServe() error {
	s.log.Info("listening on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, req.AnalysisType, apperrors.InvalidInput("request body is not valid JSON"))
		return
	}

	op, err := engine.ParseOperation(req.AnalysisType)
	if err != nil {
		s.writeError(w, req.AnalysisType, apperrors.ValidationError(err.Error()))
		return
	}
	if err := s.checkBounds(req.Data); err != nil {
		s.writeError(w, req.AnalysisType, err)
		return
	}

	t, err := decodeTable(req.Data)
	if err != nil {
		s.writeError(w, req.AnalysisType, apperrors.ValidationError(err.Error()))
		return
	}

	if req.Parameters.SignificanceLevel == 0 {
		req.Parameters.SignificanceLevel = s.cfg.Data.DefaultAlpha
	}

	resp, err := s.service.Run(r.Context(), t, op, req.Parameters)
	if err != nil {
		s.writeError(w, req.AnalysisType, err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Success:      true,
		Data:         resp,
		AnalysisType: req.AnalysisType,
		Timestamp:    time.Now().UTC(),
	})
}

func (s *Server) checkBounds(data map[string][]interface{}) error {
	if len(data) > s.cfg.Data.MaxColumns {
		return apperrors.ValidationError(fmt.Sprintf("request carries %d columns, limit is %d", len(data), s.cfg.Data.MaxColumns))
	}
	for name, values := range data {
		if len(values) > s.cfg.Data.MaxRows {
			return apperrors.ValidationError(fmt.Sprintf("column %q carries %d values, limit is %d", name, len(values), s.cfg.Data.MaxRows))
		}
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, analysisType string, err error) {
	code := apperrors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.log.Error("analyze failed: %v", err)
	} else {
		s.log.Debug("analyze rejected: %v", err)
	}
	writeJSON(w, status, AnalyzeResponse{
		Success:      false,
		Error:        &WireError{Code: code, Message: err.Error()},
		AnalysisType: analysisType,
		Timestamp:    time.Now().UTC(),
	})
}

// statusFor maps taxonomy codes onto HTTP statuses: caller mistakes are 400s,
// everything the engine could not complete is a 500.
func statusFor(code string) int {
	switch code {
	case apperrors.CodeValidationError, apperrors.CodeInsufficientData, apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
