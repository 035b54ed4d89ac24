package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/steward/internal/database"
	"github.com/aristath/steward/internal/di"
	"github.com/aristath/steward/internal/version"
)

// SystemHandlers serves the monitoring endpoints: process stats, database
// sizes, disk usage and manual job triggers.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases map[string]*database.DB
	jobs      *di.JobInstances
	startedAt time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, dataDir string, databases map[string]*database.DB, jobs *di.JobInstances) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		jobs:      jobs,
		startedAt: time.Now(),
	}
}

// SystemStatusResponse is the system status payload
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds int     `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	LastChecked   string  `json:"last_checked"`
}

// DBInfo describes one database file
type DBInfo struct {
	Name         string  `json:"name"`
	SizeMB       float64 `json:"size_mb"`
	WALSizeMB    float64 `json:"wal_size_mb"`
	PageCount    int64   `json:"page_count"`
	FreelistPage int64   `json:"freelist_pages"`
}

// DatabaseStatsResponse is the database stats payload
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DiskUsageResponse is the disk usage payload
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	BackupsMB float64 `json:"backups_mb"`
	TotalMB   float64 `json:"total_mb"`
}

// HandleSystemStatus returns process-level health: CPU, RAM, uptime
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	h.writeJSON(w, SystemStatusResponse{
		Status:        "ok",
		Version:       version.Version,
		UptimeSeconds: int(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		LastChecked:   time.Now().Format(time.RFC3339),
	})
}

// HandleJobsStatus lists the registered scheduled jobs
// GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if h.jobs != nil {
		names = h.jobs.Names()
	}
	h.writeJSON(w, map[string]interface{}{"jobs": names})
}

// HandleTriggerJob runs a scheduled job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if h.jobs == nil {
		http.Error(w, "jobs not registered", http.StatusServiceUnavailable)
		return
	}
	if _, ok := h.jobs.Get(name); !ok {
		http.Error(w, "unknown job: "+name, http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")

	if err := h.jobs.RunByName(name); err != nil {
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"job":     name,
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, map[string]string{
		"status": "success",
		"job":    name,
	})
}

// HandleDatabaseStats returns database statistics
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	infos := make([]DBInfo, 0, len(h.databases))
	totalSizeMB := 0.0

	for name, db := range h.databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Failed to read database stats")
			continue
		}
		sizeMB := float64(stats.SizeBytes) / 1024 / 1024
		totalSizeMB += sizeMB
		infos = append(infos, DBInfo{
			Name:         name,
			SizeMB:       sizeMB,
			WALSizeMB:    float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount:    stats.PageCount,
			FreelistPage: stats.FreelistCount,
		})
	}

	// history.db has its own connection; report its file size alongside
	if info, err := os.Stat(filepath.Join(h.dataDir, "history.db")); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		totalSizeMB += sizeMB
		infos = append(infos, DBInfo{Name: "history", SizeMB: sizeMB})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	h.writeJSON(w, DatabaseStatsResponse{
		Databases:   infos,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// HandleDiskUsage returns disk usage statistics
// GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	dataDirSize := h.getDirSize(h.dataDir)
	backupsSize := h.getDirSize(filepath.Join(h.dataDir, "backups"))

	h.writeJSON(w, DiskUsageResponse{
		DataDirMB: dataDirSize,
		BackupsMB: backupsSize,
		TotalMB:   dataDirSize,
	})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sample so the status endpoint does not block the dashboard poll.
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

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
