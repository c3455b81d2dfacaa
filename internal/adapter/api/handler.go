package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"fliptrack-intel/internal/domain/entity"
	"fliptrack-intel/internal/domain/repository"
)

// AnalysisService is what the HTTP layer needs from the pipeline.
type AnalysisService interface {
	GetOrGenerate(ctx context.Context, forceRefresh bool) (*entity.AnalysisResult, error)
	Latest(ctx context.Context) (*entity.AnalysisResult, error)
}

type InsightHandler struct {
	service AnalysisService
	usage   repository.UsageTracker
	log     *zap.Logger
}

func NewInsightHandler(service AnalysisService, usage repository.UsageTracker, log *zap.Logger) *InsightHandler {
	return &InsightHandler{service: service, usage: usage, log: log}
}

type generateRequest struct {
	ForceRefresh bool `json:"force_refresh"`
}

// Generate runs the analysis pipeline. The body is optional; an empty POST
// means "give me the current analysis, reuse the cache if you can".
func (h *InsightHandler) Generate(c *fiber.Ctx) error {
	var req generateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	result, err := h.service.GetOrGenerate(c.UserContext(), req.ForceRefresh)
	if err != nil {
		// Business errors map to HTTP codes here, nowhere else.
		if errors.Is(err, entity.ErrAnalysisUnavailable) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":  "analysis unavailable: all providers failed",
				"detail": err.Error(),
			})
		}
		if errors.Is(err, entity.ErrDataUnavailable) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "expense data unavailable",
			})
		}
		h.log.Error("analysis request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if result == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "no_data",
			"message": "no expense records to analyze yet",
		})
	}

	c.Set("X-Intel-Cache-Hit", "false")
	if result.Cached {
		c.Set("X-Intel-Cache-Hit", "true")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"cached":  result.Cached,
		"insight": result,
	})
}

// Latest serves the stored analysis without ever invoking a provider.
func (h *InsightHandler) Latest(c *fiber.Ctx) error {
	result, err := h.service.Latest(c.UserContext())
	if err != nil {
		h.log.Error("latest insight lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if result == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "not_found",
			"message": "no analysis generated yet",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"insight": result,
	})
}

// Usage reports today's telemetry counters.
func (h *InsightHandler) Usage(c *fiber.Ctx) error {
	snapshot, err := h.usage.Snapshot(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "usage telemetry unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
		"usage":  snapshot,
	})
}
