package status

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pec-ai/auth/internal/config"
	"github.com/pec-ai/auth/internal/platform/web"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

type StatusResponse struct {
	Database      string  `json:"database"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	MemoryUsedPct float64 `json:"memoryUsedPct"`
	DiskUsedPct   float64 `json:"diskUsedPct"`
}

type Handler struct {
	db *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/health", web.Handler(h.handleHealth))
	mux.Handle("GET /api/status", web.Handler(h.handleStatus))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) *web.Error {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status": "ok"}`))
	return nil
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) *web.Error {
	response := StatusResponse{Database: "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		response.Database = "unavailable"
	}

	if uptime, err := host.Uptime(); err == nil {
		response.UptimeSeconds = uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		response.MemoryUsedPct = vm.UsedPercent
	}
	if usage, err := disk.Usage(dataDir()); err == nil {
		response.DiskUsedPct = usage.UsedPercent
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		return &web.Error{Code: http.StatusInternalServerError, Message: "Failed to encode status", Err: err}
	}
	return nil
}

func dataDir() string {
	dir := filepath.Dir(config.Conf.Datasource.URL)
	if dir == "" {
		return "."
	}
	return dir
}
