package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/stampo/internal/pipeline"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    *pipeline.Pipeline
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	PipelineConfig pipeline.Config
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ErrorResponse is the JSON error envelope shared by all endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchRequest describes a server-side batch run over files already on disk.
type BatchRequest struct {
	Inputs    []string `json:"inputs"`
	OutputDir string   `json:"output_dir"`
	Recursive bool     `json:"recursive"`
	Include   []string `json:"include,omitempty"`
	Exclude   []string `json:"exclude,omitempty"`
	PDF       bool     `json:"pdf"`
}

// BatchResponse wraps the finished report.
type BatchResponse struct {
	Success bool             `json:"success"`
	Report  *pipeline.Report `json:"report,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewServer creates a new server instance. The transform pipeline is built
// once up front; an unloadable watermark or invalid configuration fails here.
func NewServer(config Config) (*Server, error) {
	pl, err := pipeline.New(config.PipelineConfig)
	if err != nil {
		return nil, err
	}

	return &Server{
		pipeline:    pl,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/transform", s.corsMiddleware(s.transformHandler))
	mux.HandleFunc("/batch", s.corsMiddleware(s.batchHandler))
	mux.HandleFunc("/ws/batch", s.batchWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
