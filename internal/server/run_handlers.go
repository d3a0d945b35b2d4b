package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/saccr-engine/internal/cache"
	"github.com/aristath/saccr-engine/internal/scheduler"
)

// RunHandlers serves the on-demand trigger and last-result endpoints.
type RunHandlers struct {
	job      *scheduler.ValuationJob
	runCache *cache.RunCache
	log      zerolog.Logger
}

// NewRunHandlers builds RunHandlers bound to job and runCache.
func NewRunHandlers(job *scheduler.ValuationJob, runCache *cache.RunCache, log zerolog.Logger) *RunHandlers {
	return &RunHandlers{job: job, runCache: runCache, log: log.With().Str("component", "run_handlers").Logger()}
}

// HandleTrigger runs one valuation pass synchronously and returns a summary
// of it (total CC and netting-set, trade and diagnostic counts). The pipeline is single-threaded and a full run is expected to
// complete in well under the server's 60s request timeout for the portfolio
// sizes this engine targets.
func (h *RunHandlers) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.job.RunWithResult()
	if err != nil {
		h.log.Error().Err(err).Msg("triggered run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		TotalCC     float64 `json:"totalCC"`
		NettingSets int     `json:"nettingSets"`
		Trades      int     `json:"tradesProcessed"`
		Diagnostics int     `json:"diagnostics"`
	}{
		TotalCC:     result.Portfolio.TotalCC,
		NettingSets: len(result.Portfolio.NettingSets),
		Trades:      len(result.Trades),
		Diagnostics: len(result.Diagnostics),
	})
}

// HandleLast serves the most recently completed run's cached snapshot.
func (h *RunHandlers) HandleLast(w http.ResponseWriter, r *http.Request) {
	snap, err := h.runCache.Load()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load run cache")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if snap == nil {
		http.Error(w, "no run has completed yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}
