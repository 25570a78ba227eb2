package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/MeKo-Tech/stampo/internal/batch"
)

// batchHandler runs a batch over files already on the server's filesystem.
// The request context drives cancellation: a dropped client stops the run at
// the next item boundary and the partial report is discarded with the
// connection.
func (s *Server) batchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Inputs) == 0 {
		s.writeErrorResponse(w, "No inputs provided", http.StatusBadRequest)
		return
	}
	if req.OutputDir == "" {
		s.writeErrorResponse(w, "No output directory provided", http.StatusBadRequest)
		return
	}

	cfg := &batch.Config{
		OutputDir:       req.OutputDir,
		Recursive:       req.Recursive,
		IncludePatterns: req.Include,
		ExcludePatterns: req.Exclude,
		ExpandPDFs:      req.PDF,
		Pipeline:        s.pipeline.Config(),
		Quiet:           true,
	}

	start := time.Now()
	result, err := batch.ProcessBatch(r.Context(), req.Inputs, cfg)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Batch failed: %v", err), http.StatusInternalServerError)
		return
	}
	transformDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())

	for _, res := range result.Report.Results {
		itemsProcessedTotal.WithLabelValues(res.Kind.String()).Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	response := BatchResponse{Success: true, Report: result.Report}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding batch response: %v\n", err)
	}
}
