package server

import (
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/database"
	"github.com/aristath/satellite/internal/di"
)

// SystemHandlers serves process and host status
type SystemHandlers struct {
	container *di.Container
	resp      *api.Responder
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(container *di.Container, resp *api.Responder, startedAt time.Time, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		container: container,
		resp:      resp,
		startedAt: startedAt,
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	StartedAt      time.Time       `json:"startedAt"`
	Database       *database.Stats `json:"database,omitempty"`
	Backend        string          `json:"backend"`
	Uptime         string          `json:"uptime"`
	GoVersion      string          `json:"goVersion"`
	Jobs           []string        `json:"jobs"`
	UptimeSeconds  int64           `json:"uptimeSeconds"`
	CPUPercent     float64         `json:"cpuPercent"`
	MemoryPercent  float64         `json:"memoryPercent"`
	DiskFreeBytes  uint64          `json:"diskFreeBytes"`
	Goroutines     int             `json:"goroutines"`
	HeapAllocBytes uint64          `json:"heapAllocBytes"`
	Subscribers    int             `json:"eventSubscribers"`
}

// HandleSystemStatus returns uptime, host load and database statistics
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startedAt)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		StartedAt:      h.startedAt.UTC(),
		Backend:        h.container.Config.StorageBackend,
		Uptime:         uptime.Round(time.Second).String(),
		UptimeSeconds:  int64(uptime.Seconds()),
		GoVersion:      runtime.Version(),
		Jobs:           []string{},
		CPUPercent:     cpuPercent,
		MemoryPercent:  memPercent,
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: memStats.HeapAlloc,
	}

	if h.container.Scheduler != nil {
		response.Jobs = h.container.Scheduler.Jobs()
		sort.Strings(response.Jobs)
	}
	if h.container.EventBus != nil {
		response.Subscribers = h.container.EventBus.SubscriberCount()
	}

	if h.container.DB != nil {
		stats, err := h.container.DB.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to read database stats")
		} else {
			response.Database = stats
		}
	}

	if usage, err := disk.Usage(h.container.Config.DataDir); err == nil {
		response.DiskFreeBytes = usage.Free
	}

	h.resp.JSON(w, r, http.StatusOK, response)
}

// getSystemStats samples CPU over a short window to keep the call fast
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
