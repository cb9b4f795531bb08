package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// RouteOptions carries the optional pieces of the HTTP surface.
type RouteOptions struct {
	// AuthSecret enables bearer-token verification on /api when set.
	AuthSecret string
	// Gatherer is exposed on /metrics when set.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, health Pinger, docSvc service.DocumentService, opts RouteOptions) {
	app.Get("/health", HealthCheck(health))
	app.Get("/healthz", LivenessProbe())

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", middleware.Auth(opts.AuthSecret))

	api.Get("/documentTags", DocumentTags(docSvc))
	api.Post("/searchDocuments", SearchDocuments(docSvc))
	api.Post("/saveDocumentEntry", UploadDocument(docSvc))

	api.Get("/documents", ListDocuments(docSvc))
	api.Get("/documents/:id", GetDocument(docSvc))
	api.Get("/documents/:id/download", DownloadDocument(docSvc))
	api.Get("/documents/:id/preview", PreviewDocument(docSvc))

	api.Get("/heads", ListHeads(docSvc))
	api.Get("/heads/:major/minor", ListMinorHeads(docSvc))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Checks that the corpus backend is reachable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(p Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := p.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
