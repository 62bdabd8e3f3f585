package http

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/config"
	"github.com/parkwhere/internal/delivery/http/handler"
	"github.com/parkwhere/internal/delivery/http/middleware"
	"github.com/parkwhere/internal/metrics"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/utils"
)

// Handlers - everything the router dispatches to
type Handlers struct {
	Parking  *handler.ParkingHandler
	Location *handler.LocationHandler
	Import   *handler.ImportHandler
	Refresh  *handler.RefreshHandler
	Health   *handler.HealthHandler
}

// Server - HTTP server built on Fiber
type Server struct {
	app      *fiber.App
	config   *config.Config
	logger   *zap.Logger
	handlers Handlers
}

func NewServer(cfg *config.Config, logger *zap.Logger, handlers Handlers) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "ParkWhere",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    32 * 1024 * 1024,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:      app,
		config:   cfg,
		logger:   logger,
		handlers: handlers,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	api.Get("/health", s.handlers.Health.Health)
	api.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api.Post("/location", s.handlers.Location.ReportLocation)
	api.Get("/location", s.handlers.Location.GetLocation)

	parking := api.Group("/parking")
	parking.Get("/nearby", s.handlers.Parking.Nearby)
	parking.Get("/scan", s.handlers.Parking.Scan)
	parking.Get("/:id", s.handlers.Parking.GetSpot)
	parking.Put("/:id", s.handlers.Parking.PutSpot)
	parking.Delete("/:id", s.handlers.Parking.DeleteSpot)
	parking.Patch("/:id/availability", s.handlers.Parking.PatchAvailability)

	api.Post("/import", s.handlers.Import.Import)
	api.Get("/import/:id", s.handlers.Import.GetImport)

	api.Get("/refresh", s.handlers.Refresh.GetStatus)
	api.Post("/refresh", s.handlers.Refresh.Refresh)
	api.Get("/stats", s.handlers.Refresh.GetStatistics)
}

// App exposes the fiber app for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown of the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler renders errors that escaped the handlers, including
// fiber's own 404 and 405, in the API error format.
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			return c.Status(fe.Code).JSON(utils.ErrorResponse{
				Error: errors.New(statusCode(fe.Code), fe.Message, fe.Code),
			})
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}

// statusCode turns an HTTP status into an error code, 404 becomes NOT_FOUND.
func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(fiberutils.StatusMessage(status), " ", "_"))
}
