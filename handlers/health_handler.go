package handlers

import (
	"net/http"
	"syscall"
	"time"

	"logistiko-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthHandler serves liveness, readiness and detail probes
type HealthHandler struct {
	db          *pgxpool.Pool
	emails      *repository.EmailRepository
	archiveRoot string
	startedAt   time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *pgxpool.Pool, emails *repository.EmailRepository, archiveRoot string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		emails:      emails,
		archiveRoot: archiveRoot,
		startedAt:   time.Now(),
	}
}

// Live handles GET /healthz. Always OK while the process runs.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /readyz. Fails when the database is unreachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Details handles GET /health/details
func (h *HealthHandler) Details(c *gin.Context) {
	details := gin.H{
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}
	healthy := true

	if err := h.db.Ping(c.Request.Context()); err != nil {
		details["database"] = gin.H{"ok": false, "error": err.Error()}
		healthy = false
	} else {
		details["database"] = gin.H{"ok": true}
	}

	if h.archiveRoot != "" {
		var stat syscall.Statfs_t
		if err := syscall.Statfs(h.archiveRoot, &stat); err != nil {
			details["disk"] = gin.H{"ok": false, "error": err.Error()}
			healthy = false
		} else {
			freeBytes := stat.Bavail * uint64(stat.Bsize)
			details["disk"] = gin.H{
				"ok":         true,
				"free_bytes": freeBytes,
			}
		}
	}

	if queued, err := h.emails.CountQueued(c.Request.Context()); err == nil {
		details["queued_emails"] = queued
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	details["status"] = "ok"
	if !healthy {
		details["status"] = "degraded"
	}
	c.JSON(status, details)
}
