// Package rest provides the HTTP API for running analyses.
package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/analyzer"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/loader"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/loader/source"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/report"
)

// Server is the REST API server.
type Server struct {
	addr          string
	maxUploadSize int64
	loaderCfg     loader.Config
	analyzerCfg   analyzer.Config
	sourceCfg     source.Config

	jobs   sync.Map // jobID -> *Job
	mux    *http.ServeMux
	server *http.Server
}

// Config configures the server.
type Config struct {
	Addr          string
	MaxUploadSize int64
	Loader        loader.Config
	Analyzer      analyzer.Config
	Source        source.Config
}

// Job tracks one analysis request.
type Job struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"` // pending, running, completed, failed
	InputName string     `json:"input_name"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Result    *analyzer.AnalysisResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	ErrorCode string                   `json:"error_code,omitempty"`

	mu sync.Mutex
}

// NewServer creates a new REST API server.
func NewServer(cfg Config) *Server {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 500 << 20
	}

	s := &Server{
		addr:          cfg.Addr,
		maxUploadSize: cfg.MaxUploadSize,
		loaderCfg:     cfg.Loader,
		analyzerCfg:   cfg.Analyzer,
		sourceCfg:     cfg.Source,
		mux:           http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ready", s.handleReady)

	// API v1
	s.mux.HandleFunc("/v1/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/v1/jobs/", s.handleJobs)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start starts the server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// AnalyzeRequest starts an analysis of an existing location.
type AnalyzeRequest struct {
	Location string `json:"location"`
	Format   string `json:"format,omitempty"`
}

// handleAnalyze accepts either a JSON body naming a location or a
// multipart upload, creates a job and runs the analysis in background.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		s.handleUploadAnalyze(w, r)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}
	if req.Location == "" {
		writeError(w, http.StatusBadRequest, "", "location is required")
		return
	}

	job := s.newJob(req.Location)
	go s.runLocationAnalysis(job, req.Location, req.Format)

	writeJob(w, http.StatusAccepted, job)
}

func (s *Server) handleUploadAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "", "Failed to parse upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "", "No file provided")
		return
	}
	defer file.Close()

	tempPath := filepath.Join(os.TempDir(), "devflow-"+uuid.NewString()+"-"+filepath.Base(header.Filename))
	out, err := os.Create(tempPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "", "Failed to save file")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(tempPath)
		writeError(w, http.StatusInternalServerError, "", "Failed to save file")
		return
	}
	out.Close()

	job := s.newJob(header.Filename)
	format := r.FormValue("format")
	go func() {
		defer os.Remove(tempPath)
		s.runFileAnalysis(job, tempPath, header.Filename, format)
	}()

	writeJob(w, http.StatusAccepted, job)
}

func (s *Server) newJob(inputName string) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    "pending",
		InputName: inputName,
		StartTime: time.Now(),
	}
	s.jobs.Store(job.ID, job)
	return job
}

func (s *Server) runLocationAnalysis(job *Job, location, format string) {
	job.setStatus("running")

	ctx := context.Background()
	inputs, err := source.Resolve(ctx, location, s.sourceCfg)
	if err != nil {
		job.fail(err)
		return
	}

	var events []model.Event
	for _, in := range inputs {
		batch, err := s.loadInput(ctx, in, format)
		if err != nil {
			job.fail(err)
			return
		}
		events = append(events, batch...)
	}

	s.analyze(ctx, job, events)
}

func (s *Server) runFileAnalysis(job *Job, path, displayName, format string) {
	job.setStatus("running")

	ctx := context.Background()
	f, err := os.Open(path)
	if err != nil {
		job.fail(dferrors.FileNotFound(displayName))
		return
	}
	defer f.Close()

	events, err := loader.Load(ctx, f, resolveFormat(displayName, format), s.loaderCfg)
	if err != nil {
		job.fail(err)
		return
	}

	s.analyze(ctx, job, events)
}

func (s *Server) loadInput(ctx context.Context, in source.Input, format string) ([]model.Event, error) {
	r, err := in.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return loader.Load(ctx, r, resolveFormat(in.Name, format), s.loaderCfg)
}

func (s *Server) analyze(ctx context.Context, job *Job, events []model.Event) {
	result, err := analyzer.New(s.analyzerCfg).Analyze(ctx, events)
	if err != nil {
		job.fail(err)
		return
	}

	job.mu.Lock()
	job.Result = result
	job.Status = "completed"
	now := time.Now()
	job.EndTime = &now
	job.mu.Unlock()
}

// resolveFormat prefers an explicit override, falling back to the
// filename extension. Unknown formats fail inside loader.Load.
func resolveFormat(name, override string) loader.Format {
	if override != "" {
		return loader.ParseFormat(override)
	}
	return loader.DetectFormat(name)
}

func (j *Job) setStatus(status string) {
	j.mu.Lock()
	j.Status = status
	j.mu.Unlock()
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	j.Status = "failed"
	j.Error = err.Error()
	j.ErrorCode = string(dferrors.GetCode(err))
	now := time.Now()
	j.EndTime = &now
	j.mu.Unlock()
}

// handleJobs serves /v1/jobs/{id} and /v1/jobs/{id}/report.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	jobID, sub, _ := strings.Cut(rest, "/")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "", "Job ID required")
		return
	}

	v, ok := s.jobs.Load(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "", "Job not found")
		return
	}
	job := v.(*Job)

	switch sub {
	case "":
		writeJob(w, http.StatusOK, job)

	case "report":
		job.mu.Lock()
		result := job.Result
		status := job.Status
		job.mu.Unlock()

		if result == nil {
			writeError(w, http.StatusConflict, "", "Job is "+status+", no report available")
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, report.Markdown(result))

	default:
		writeError(w, http.StatusNotFound, "", "Unknown resource")
	}
}

func writeJob(w http.ResponseWriter, status int, job *Job) {
	job.mu.Lock()
	defer job.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(job)
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Code:    errCode,
		Message: message,
	})
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
