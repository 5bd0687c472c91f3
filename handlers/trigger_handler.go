package handlers

import (
	"context"
	"time"

	"github.com/fenilmodi00/market-snapshot-bot/jobs"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ManualTrigger runs the snapshot job on demand
type ManualTrigger interface {
	TriggerManually(ctx context.Context) (jobs.RunOutcome, error)
}

type TriggerHandler struct {
	Trigger ManualTrigger
}

func NewTriggerHandler(trigger ManualTrigger) *TriggerHandler {
	return &TriggerHandler{Trigger: trigger}
}

// TriggerTask runs the snapshot job synchronously. Pipeline failures are
// absorbed by the job, so a 500 only means the run itself could not execute.
func (h *TriggerHandler) TriggerTask(c *fiber.Ctx) error {
	logrus.Info("Manual trigger requested via API")

	startTime := time.Now()
	outcome, err := h.Trigger.TriggerManually(c.UserContext())
	if err != nil {
		logrus.WithError(err).Error("Manual trigger failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Task trigger failed",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Task triggered successfully",
		"outcome":  outcome,
		"duration": time.Since(startTime).String(),
	})
}
