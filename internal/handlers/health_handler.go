package handlers

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	startedAt time.Time
	hostname  string
}

// NewHealthHandler creates a HealthHandler measuring uptime from startedAt.
func NewHealthHandler(startedAt time.Time) *HealthHandler {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &HealthHandler{startedAt: startedAt, hostname: hostname}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string  `json:"status"`
	Uptime   float64 `json:"uptime"`
	Hostname string  `json:"hostname"`
}

// RegisterRoutes mounts GET /health on router.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth reports status, process uptime in seconds and hostname.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:   "ok",
		Uptime:   time.Since(h.startedAt).Seconds(),
		Hostname: h.hostname,
	})
}
