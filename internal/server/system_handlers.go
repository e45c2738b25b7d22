package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/database"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/reliability"
)

// SystemHandlers serves health, stats, and backup endpoints.
type SystemHandlers struct {
	trackerDB     *database.DB
	cacheDB       *database.DB
	backupService *reliability.BackupService
	log           zerolog.Logger
}

// NewSystemHandlers creates the system handlers.
func NewSystemHandlers(log zerolog.Logger, trackerDB, cacheDB *database.DB, backupService *reliability.BackupService) *SystemHandlers {
	return &SystemHandlers{
		trackerDB:     trackerDB,
		cacheDB:       cacheDB,
		backupService: backupService,
		log:           log.With().Str("handler", "system").Logger(),
	}
}

// RegisterRoutes registers the system routes.
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/stats", h.HandleStats)
		r.Post("/backup", h.HandleTriggerBackup)
		r.Get("/backups", h.HandleListBackups)
	})
}

// HandleHealth handles GET /api/system/health.
// Checks both databases and reports host CPU/RAM usage.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	databases := map[string]string{}
	for _, db := range []*database.DB{h.trackerDB, h.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.HealthCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			databases[db.Name()] = err.Error()
			status = "degraded"
			continue
		}
		databases[db.Name()] = "ok"
	}

	cpuPercent, ramPercent := h.systemUsage()

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, map[string]interface{}{
		"status":      status,
		"databases":   databases,
		"cpu_percent": cpuPercent,
		"ram_percent": ramPercent,
	})
}

// HandleStats handles GET /api/system/stats.
func (h *SystemHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{}
	for _, db := range []*database.DB{h.trackerDB, h.cacheDB} {
		if db == nil {
			continue
		}
		dbStats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to collect database stats")
			continue
		}
		stats[db.Name()] = dbStats
	}

	cpuPercent, ramPercent := h.systemUsage()
	stats["cpu_percent"] = cpuPercent
	stats["ram_percent"] = ramPercent

	h.writeJSON(w, http.StatusOK, stats)
}

// HandleTriggerBackup handles POST /api/system/backup.
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backupService == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "Backups are not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	h.log.Info().Msg("Manual backup triggered")
	archive, err := h.backupService.CreateAndUploadBackup(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Backup failed",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "completed",
		"archive": archive,
	})
}

// HandleListBackups handles GET /api/system/backups.
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backupService == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "Backups are not configured",
		})
		return
	}

	backups, err := h.backupService.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to list backups",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, backups)
}

// systemUsage samples CPU over a short window and reads current RAM usage.
// The short interval keeps the health endpoint responsive.
func (h *SystemHandlers) systemUsage() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read CPU usage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read memory usage")
		return firstOrZero(cpuPercent), 0
	}

	return firstOrZero(cpuPercent), memStat.UsedPercent
}

func firstOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[0]
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
