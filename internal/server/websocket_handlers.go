package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/stampo/internal/batch"
	"github.com/MeKo-Tech/stampo/internal/pipeline"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketMessage is the envelope for all messages sent to the client.
type WebSocketMessage struct {
	Type     string           `json:"type"` // "progress", "report", "error"
	Progress *ProgressPayload `json:"progress,omitempty"`
	Report   *pipeline.Report `json:"report,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// ProgressPayload mirrors a progress snapshot for the wire.
type ProgressPayload struct {
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Last      pipeline.Result `json:"last"`
}

// batchWebSocketHandler runs a batch and streams progress snapshots to the
// client. The first client message carries the BatchRequest; a disconnect
// cancels the run at the next item boundary.
func (s *Server) batchWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	_, data, err := conn.ReadMessage()
	if err != nil {
		slog.Error("WebSocket read failed", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("received").Inc()

	var req BatchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if len(req.Inputs) == 0 || req.OutputDir == "" {
		s.sendWebSocketError(conn, "inputs and output_dir are required")
		return
	}

	s.runWebSocketBatch(r.Context(), conn, req)
}

// runWebSocketBatch executes the batch while watching the connection for
// disconnects.
func (s *Server) runWebSocketBatch(parent context.Context, conn *websocket.Conn, req BatchRequest) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Batch runs can outlast the server's request timeouts; the connection
	// lives until the report is sent or the client goes away.
	_ = conn.SetWriteDeadline(time.Time{})

	// The client sends nothing further; a read error means it went away and
	// the run should stop claiming new items.
	go func() {
		_ = conn.SetReadDeadline(time.Time{})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
			websocketMessagesTotal.WithLabelValues("received").Inc()
		}
	}()

	// Writes come from whichever worker finished an item; serialize them.
	var writeMu sync.Mutex
	send := func(msg WebSocketMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			cancel()
			return
		}
		websocketMessagesTotal.WithLabelValues("sent").Inc()
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

	cb := pipeline.ProgressFunc(func(p pipeline.Progress) {
		send(WebSocketMessage{
			Type: "progress",
			Progress: &ProgressPayload{
				Completed: p.Completed,
				Total:     p.Total,
				Last:      p.Last,
			},
		})
	})

	result, err := batch.ProcessBatchWithCallback(ctx, req.Inputs, cfg, cb)
	if err != nil {
		s.sendWebSocketError(conn, err.Error())
		return
	}

	send(WebSocketMessage{Type: "report", Report: result.Report})
}

// sendWebSocketError sends an error message to the client.
func (s *Server) sendWebSocketError(conn *websocket.Conn, message string) {
	msg := WebSocketMessage{Type: "error", Error: message}
	if err := conn.WriteJSON(msg); err != nil {
		slog.Error("Failed to send WebSocket error", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
