package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthHandler serves /healthz, reporting process uptime plus host CPU/RAM
// usage, grounded on the teacher's getSystemStats (system_handlers.go).
type HealthHandler struct {
	startupTime time.Time
	log         zerolog.Logger
}

// NewHealthHandler constructs a HealthHandler whose uptime is measured from
// startupTime.
func NewHealthHandler(startupTime time.Time, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{startupTime: startupTime, log: log.With().Str("component", "health_handler").Logger()}
}

type healthResponse struct {
	Status      string  `json:"status"`
	UptimeHours float64 `json:"uptime_hours"`
	CPUPercent  float64 `json:"cpu_percent"`
	RAMPercent  float64 `json:"ram_percent"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.systemStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:      "ok",
		UptimeHours: time.Since(h.startupTime).Hours(),
		CPUPercent:  cpuPercent,
		RAMPercent:  ramPercent,
	})
}

// systemStats mirrors the teacher's 100ms-sample CPU read (fast enough not
// to stall a health check) followed by an instantaneous memory read.
func (h *HealthHandler) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read cpu percent")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read memory stats")
		return firstOrZero(cpuPercent), 0
	}

	return firstOrZero(cpuPercent), memStat.UsedPercent
}

func firstOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[0]
}
