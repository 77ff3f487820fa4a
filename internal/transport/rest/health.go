package rest

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/frahmantamala/intranet-portal/internal/transport"
	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/disk"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// minFreeBytes is the free space below which the upload volume is reported
// as degraded.
const minFreeBytes = 1 << 30

const migrationVersionQuery = `SELECT version_id FROM schema_migrations WHERE is_applied ORDER BY id DESC LIMIT 1`

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

type HealthHandler struct {
	*transport.BaseHandler
	db        *sqlx.DB
	uploadDir string
}

func NewHealthHandler(base *transport.BaseHandler, db *sqlx.DB, uploadDir string) *HealthHandler {
	return &HealthHandler{BaseHandler: base, db: db, uploadDir: uploadDir}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Health checks the database and the upload volume. Only an unhealthy
// database turns the response into a 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]CheckEntry{
		"postgres": h.checkDatabase(ctx),
	}
	if h.uploadDir != "" {
		components["storage"] = h.checkStorage(ctx)
	}

	overall := HealthHealthy
	for _, c := range components {
		if c.Status == HealthUnhealthy {
			overall = HealthUnhealthy
			break
		}
		if c.Status == HealthDegraded {
			overall = HealthDegraded
		}
	}

	statusCode := http.StatusOK
	if components["postgres"].Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	h.WriteJSON(w, statusCode, HealthResponse{
		Status:     overall,
		CheckedAt:  time.Now().UTC(),
		Components: components,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckEntry {
	start := time.Now()
	entry := CheckEntry{Status: HealthHealthy}

	if h.db == nil {
		entry.Status = HealthUnhealthy
		entry.Message = "database not configured"
	} else if err := h.db.PingContext(ctx); err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	} else {
		var version int64
		err := h.db.GetContext(ctx, &version, migrationVersionQuery)
		switch {
		case err == nil:
			entry.Details = map[string]any{"migration_version": version}
		case errors.Is(err, sql.ErrNoRows):
			entry.Status = HealthDegraded
			entry.Message = "no migrations applied"
		default:
			h.Logger.Warn("health: migration version lookup failed", "error", err)
			entry.Status = HealthDegraded
			entry.Message = "migration version unavailable"
		}
	}

	entry.CheckedAt = time.Now().UTC()
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}

func (h *HealthHandler) checkStorage(ctx context.Context) CheckEntry {
	start := time.Now()
	entry := CheckEntry{Status: HealthHealthy}

	usage, err := disk.UsageWithContext(ctx, h.uploadDir)
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	} else {
		entry.Details = map[string]any{
			"path":         h.uploadDir,
			"free_bytes":   usage.Free,
			"total_bytes":  usage.Total,
			"used_percent": usage.UsedPercent,
		}
		if usage.Free < minFreeBytes {
			entry.Status = HealthDegraded
			entry.Message = "low free space on upload volume"
		}
	}

	entry.CheckedAt = time.Now().UTC()
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}
