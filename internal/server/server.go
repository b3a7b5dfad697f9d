// Package server exposes the claims prediction service over HTTP. It serves
// the prediction and report-upload endpoints, upload history, health and
// Prometheus metrics, and a WebSocket feed streaming run events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"claimsight/internal/blob"
	"claimsight/internal/cfg"
	"claimsight/internal/common"
	"claimsight/internal/dataset"
	"claimsight/internal/metrics"
	"claimsight/internal/ml"
	"claimsight/internal/pipeline"
	"claimsight/internal/records"
	"claimsight/internal/report"
	"claimsight/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Server wires the pipeline, report renderer, blob store and history store
// behind an HTTP API.
type Server struct {
	settings cfg.Settings
	pipeline *pipeline.Service
	uploader *blob.Uploader
	store    *store.Store
	metrics  *metrics.Metrics
	feed     *Feed

	server    *http.Server
	router    *mux.Router
	isRunning bool
	mu        sync.Mutex
}

// New creates a server with routes registered. The history store may be nil,
// in which case upload history is not persisted.
func New(settings cfg.Settings, svc *pipeline.Service, uploader *blob.Uploader, st *store.Store, m *metrics.Metrics) *Server {
	s := &Server{
		settings: settings,
		pipeline: svc,
		uploader: uploader,
		store:    st,
		metrics:  m,
		feed:     NewFeed(m),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/reports/predict", s.handlePredict).Methods("POST")
	r.HandleFunc("/reports/upload", s.handleUpload).Methods("POST")
	r.HandleFunc("/reports", s.handleHistory).Methods("GET")
	r.HandleFunc("/ws", s.feed.handleWebSocket).Methods("GET")
	s.router = r

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", settings.ListenPort),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler returns the route handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and the feed broadcaster.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("server is already running")
	}

	s.feed.Start()

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting claims API server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Claims API server failed")
		}
	}()

	s.isRunning = true
	return nil
}

// Stop shuts down the feed and the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.feed.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown claims API server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Claims API server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// predictResponse wraps the pipeline result with the upload identity.
type predictResponse struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
	*pipeline.Result
}

// handlePredict runs the prediction pipeline on an uploaded CSV and returns
// the ranked prediction result.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.pipeline.Run(data)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}

	s.feed.Publish("prediction", map[string]any{
		"filename":       filename,
		"total_claims":   result.TotalClaims,
		"pending_claims": result.PendingClaims,
		"accuracy":       result.ModelMetrics.Accuracy,
	})

	writeJSON(w, http.StatusOK, predictResponse{Filename: filename, Success: true, Result: result})
}

// uploadResponse is the JSON body returned by the report upload endpoint.
type uploadResponse struct {
	ID       string             `json:"id"`
	Filename string             `json:"filename"`
	ExcelURL string             `json:"excel_url"`
	PDFURL   string             `json:"pdf_url"`
	Summary  map[string]float64 `json:"summary"`
}

// handleUpload renders Excel and PDF reports from an uploaded CSV, pushes
// both artifacts to the blob store and records the upload in history.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.metrics.UploadsTotal.Inc()

	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.metrics.UploadFailures.Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := records.Parse(data)
	if err != nil {
		s.metrics.UploadFailures.Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.New().String()

	outDir, err := os.MkdirTemp("", "claimsight-report-*")
	if err != nil {
		s.failUpload(w, id, filename, fmt.Errorf("create work dir: %w", err))
		return
	}
	defer os.RemoveAll(outDir)

	artifacts, err := report.Generate(table, outDir)
	if err != nil {
		s.failUpload(w, id, filename, fmt.Errorf("render report: %w", err))
		return
	}

	excelURL, err := s.pushArtifact(id, artifacts.ExcelPath)
	if err != nil {
		s.failUpload(w, id, filename, err)
		return
	}
	pdfURL, err := s.pushArtifact(id, artifacts.PDFPath)
	if err != nil {
		s.failUpload(w, id, filename, err)
		return
	}

	if s.store != nil {
		row := store.Report{
			ID:          id,
			Filename:    filename,
			ArtifactURL: excelURL,
			Status:      common.StatusProcessed,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.store.SaveReport(row); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to record upload history")
		}
	}

	s.feed.Publish("report", map[string]any{
		"id":       id,
		"filename": filename,
	})

	writeJSON(w, http.StatusOK, uploadResponse{
		ID:       id,
		Filename: filename,
		ExcelURL: excelURL,
		PDFURL:   pdfURL,
		Summary:  artifacts.Summary,
	})
}

// pushArtifact uploads one rendered file under a unique object name and
// bumps the artifact counter.
func (s *Server) pushArtifact(id, path string) (string, error) {
	object := fmt.Sprintf("reports/%s_%s", id, filepath.Base(path))
	url, err := s.uploader.Upload(path, object)
	if err != nil {
		return "", err
	}
	s.metrics.ArtifactUploads.Inc()
	return url, nil
}

// failUpload records a failed upload in history and writes the error
// response. Blob configuration errors surface as 503, everything else 500.
func (s *Server) failUpload(w http.ResponseWriter, id, filename string, err error) {
	s.metrics.UploadFailures.Inc()
	log.Error().Err(err).Str("filename", filename).Msg("Report upload failed")

	if s.store != nil {
		row := store.Report{
			ID:        id,
			Filename:  filename,
			Status:    common.StatusFailed,
			CreatedAt: time.Now().UTC(),
		}
		if saveErr := s.store.SaveReport(row); saveErr != nil {
			log.Error().Err(saveErr).Str("id", id).Msg("Failed to record upload failure")
		}
	}

	status := http.StatusInternalServerError
	if errors.Is(err, blob.ErrNotConfigured) {
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, err.Error())
}

// handleHistory lists recorded uploads, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []store.Report{})
		return
	}

	reports, err := s.store.ListReports(100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reports == nil {
		reports = []store.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// readUpload extracts the CSV payload from a multipart form. Only .csv and
// .txt files with a text-like content type are accepted, and the body is
// capped at the configured upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.settings.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing file upload: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".txt" {
		return nil, "", fmt.Errorf("only CSV files are supported, got %q", header.Filename)
	}
	if ct := header.Header.Get("Content-Type"); !acceptableContentType(ct) {
		return nil, "", fmt.Errorf("unsupported content type %q", ct)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}

	return data, header.Filename, nil
}

// acceptableContentType reports whether the multipart part's declared type
// looks like delimited text. Browsers and clients disagree on CSV types, so
// the check is permissive.
func acceptableContentType(ct string) bool {
	if ct == "" {
		return true
	}
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	switch strings.TrimSpace(strings.ToLower(ct)) {
	case "text/csv", "text/plain", "application/csv",
		"application/vnd.ms-excel", "application/octet-stream":
		return true
	}
	return false
}

// errStatus maps pipeline errors to HTTP status codes. Input problems are the
// caller's fault; model failures are ours.
func errStatus(err error) int {
	var schemaErr *records.SchemaError
	var emptyErr *records.EmptyInputError
	var insufficientErr *dataset.InsufficientDataError
	var modelErr *ml.ModelError
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &emptyErr), errors.As(err, &insufficientErr):
		return http.StatusBadRequest
	case errors.As(err, &modelErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
