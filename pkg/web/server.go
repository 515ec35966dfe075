// Package web exposes the perception subsystem's state over HTTP.
package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/walkielabs/go-walkie/pkg/detector"
	"github.com/walkielabs/go-walkie/pkg/vecstore"
)

// SnapshotSource is what the server needs from the background detector.
type SnapshotSource interface {
	VisibleObjects() detector.Snapshot
	Running() bool
}

// Server serves the visible-objects snapshot and subsystem status.
type Server struct {
	app      *fiber.App
	port     string
	detector SnapshotSource
	store    vecstore.Store
	started  time.Time
}

// NewServer wires the HTTP routes.
func NewServer(port string, det SnapshotSource, store vecstore.Store) *Server {
	s := &Server{
		port:     port,
		detector: det,
		store:    store,
		started:  time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Walkie Perception",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/objects", s.handleObjects)
	api.Get("/status", s.handleStatus)

	app.Get("/health", s.handleHealth)

	s.app = app
	return s
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleObjects(c *fiber.Ctx) error {
	return c.JSON(s.detector.VisibleObjects())
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	count, err := s.store.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"detector_running": s.detector.Running(),
		"object_count":     count,
		"uptime_seconds":   int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
