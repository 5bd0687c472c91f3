package handlers

import (
	"time"

	"github.com/fenilmodi00/market-snapshot-bot/models"
	"github.com/gofiber/fiber/v2"
)

// StatusReporter exposes the scheduler state for polling
type StatusReporter interface {
	Snapshot() models.SchedulerStatus
}

type HealthHandler struct {
	Status    StatusReporter
	StartTime time.Time
	Version   string
	Now       func() time.Time
}

func NewHealthHandler(status StatusReporter, startTime time.Time, version string) *HealthHandler {
	return &HealthHandler{
		Status:    status,
		StartTime: startTime,
		Version:   version,
		Now:       time.Now,
	}
}

// GetHealth reports liveness, uptime in seconds and the scheduler status
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	now := h.Now()

	scheduler := models.SchedulerStatus{}
	if h.Status != nil {
		scheduler = h.Status.Snapshot()
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": now.UTC().Format(time.RFC3339Nano),
		"uptime":    int64(now.Sub(h.StartTime) / time.Second),
		"version":   h.Version,
		"scheduler": scheduler,
	})
}
