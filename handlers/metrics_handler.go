package handlers

import (
	"github.com/fenilmodi00/market-snapshot-bot/shared"
	"github.com/gofiber/fiber/v2"
)

type MetricsHandler struct {
	JobMetrics     *shared.ServiceMetrics
	FetchMetrics   *shared.HTTPMetrics
	PublishMetrics *shared.HTTPMetrics
}

func NewMetricsHandler(job *shared.ServiceMetrics, fetch, publish *shared.HTTPMetrics) *MetricsHandler {
	return &MetricsHandler{
		JobMetrics:     job,
		FetchMetrics:   fetch,
		PublishMetrics: publish,
	}
}

// GetMetrics returns run and upstream HTTP metrics
func (h *MetricsHandler) GetMetrics(c *fiber.Ctx) error {
	data := fiber.Map{}
	if h.JobMetrics != nil {
		data["job"] = h.JobMetrics.GetSnapshot()
	}
	if h.FetchMetrics != nil {
		data["fetch_http"] = h.FetchMetrics.GetSnapshot()
	}
	if h.PublishMetrics != nil {
		data["publish_http"] = h.PublishMetrics.GetSnapshot()
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
