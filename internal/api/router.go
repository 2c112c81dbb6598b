// Package api exposes the monitors' snapshots over a small read-only HTTP
// surface for the dashboard frontend.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/FabricioMatosSIlva/awswatch-go/internal/logging"
	"github.com/FabricioMatosSIlva/awswatch-go/internal/monitoring"
)

// Router serves snapshot reads. Handlers never block on a poll cycle; they
// only copy the last published snapshot.
type Router struct {
	mux      *http.ServeMux
	queues   *monitoring.QueueMonitor
	workPool *monitoring.WorkPoolMonitor
	started  time.Time
}

// NewRouter wires the read endpoints for both monitors.
func NewRouter(queues *monitoring.QueueMonitor, workPool *monitoring.WorkPoolMonitor) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		queues:   queues,
		workPool: workPool,
		started:  time.Now(),
	}

	r.mux.HandleFunc("/api/health", r.handleHealth)
	r.mux.HandleFunc("/api/queues", r.handleQueues)
	r.mux.HandleFunc("/api/workpool", r.handleWorkPool)
	r.mux.Handle("/metrics", promhttp.Handler())

	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx, requestID := logging.WithRequestID(req.Context(), req.Header.Get("X-Request-ID"))
	w.Header().Set("X-Request-ID", requestID)
	r.mux.ServeHTTP(w, req.WithContext(ctx))
}

// handleHealth reports liveness plus each monitor's loop state.
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, req, map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().Unix(),
		"uptime":          time.Since(r.started).Seconds(),
		"queuesRunning":   r.queues.Running(),
		"workPoolRunning": r.workPool.Running(),
	})
}

// handleQueues returns the last queue snapshot and the surfaced error, if
// any. Staleness is the caller's call, derived from capturedAt.
func (r *Router) handleQueues(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := r.queues.Snapshot()
	writeJSON(w, req, map[string]interface{}{
		"snapshot": snapshot,
		"running":  r.queues.Running(),
		"error":    errString(r.queues.LastError()),
	})
}

// handleWorkPool returns the last work-pool snapshot, already sorted
// soonest-expiring first.
func (r *Router) handleWorkPool(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := r.workPool.Snapshot()
	writeJSON(w, req, map[string]interface{}{
		"snapshot": snapshot,
		"running":  r.workPool.Running(),
		"error":    errString(r.workPool.LastError()),
	})
}

func writeJSON(w http.ResponseWriter, req *http.Request, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().
			Err(err).
			Str("requestID", logging.RequestID(req.Context())).
			Str("path", req.URL.Path).
			Msg("Failed to encode API response")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
