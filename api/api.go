// Package api exposes the tally engine over HTTP: one POST endpoint per
// operation plus health and version probes. Operations run synchronously
// on the request; the JSON response is the engine's (success, message)
// result.
package api

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"tally/pkg/aggregate"
	"tally/pkg/filter"
	"tally/pkg/merge"
	"tally/version"
)

// ServerOptions configures the API server.
type ServerOptions struct {
	Port    string
	Prefork bool
}

// Server holds the Fiber app instance
type Server struct {
	app  *fiber.App
	port string
}

// NewServer initializes a new Fiber instance with best practices
func NewServer(opts ServerOptions) *Server {
	app := fiber.New(fiber.Config{
		IdleTimeout:  10 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // operations run synchronously and may be slow
		Prefork:      opts.Prefork,
	})

	// Middleware
	app.Use(recover.New())     // Auto-recovers from panics
	app.Use(fiberlogger.New()) // Logs all requests

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Tally API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Post("/merge", handleMerge)
	app.Post("/summarize", handleSummarize)
	app.Post("/filter", handleFilter)

	return &Server{app: app, port: opts.Port}
}

// GetApp exposes the underlying Fiber app, mainly for tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start runs the Fiber server and handles graceful shutdown
func (s *Server) Start() error {
	port := s.port
	if port == "" {
		port = "5555"
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	go func() {
		log.Printf("Tally API is running on port %s\n", port)
		if err := s.app.Listen(":" + port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-quit
	log.Println("Received shutdown signal, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		log.Fatalf("Error shutting down: %v", err)
	}

	log.Println("Server shutdown successfully")
	return nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// --- Operation handlers ---

type mergeRequest struct {
	Paths     []string `json:"paths"`
	Output    string   `json:"output"`
	Encoding  string   `json:"encoding"`
	Delimiter string   `json:"delimiter"`
	Chunked   bool     `json:"chunked"`
	ChunkSize int      `json:"chunk_size"`
}

func handleMerge(c *fiber.Ctx) error {
	var req mergeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	res := merge.Merge(req.Paths, req.Output, merge.Options{
		Encoding:  req.Encoding,
		Delimiter: req.Delimiter,
		Chunked:   req.Chunked,
		ChunkSize: req.ChunkSize,
	}, nil)
	return c.JSON(res)
}

type summarizeRequest struct {
	Path        string   `json:"path"`
	Output      string   `json:"output"`
	GroupColumn string   `json:"group_column"`
	SumColumns  []string `json:"sum_columns"`
	Encoding    string   `json:"encoding"`
	Delimiter   string   `json:"delimiter"`
	Chunked     bool     `json:"chunked"`
	ChunkSize   int      `json:"chunk_size"`
	Descending  bool     `json:"descending"`
}

func handleSummarize(c *fiber.Ctx) error {
	var req summarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	res := aggregate.Summarize(req.Path, aggregate.Options{
		GroupColumn: req.GroupColumn,
		SumColumns:  req.SumColumns,
		Encoding:    req.Encoding,
		Delimiter:   req.Delimiter,
		Chunked:     req.Chunked,
		ChunkSize:   req.ChunkSize,
		Descending:  req.Descending,
		OutputPath:  req.Output,
	}, nil)
	return c.JSON(res)
}

type filterRequest struct {
	DataPath     string `json:"data_path"`
	FilterPath   string `json:"filter_path"`
	Output       string `json:"output"`
	FilterColumn string `json:"filter_column"`
	Encoding     string `json:"encoding"`
	Delimiter    string `json:"delimiter"`
	Chunked      bool   `json:"chunked"`
}

func handleFilter(c *fiber.Ctx) error {
	var req filterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	res := filter.Filter(req.DataPath, req.FilterPath, filter.Options{
		FilterColumn: req.FilterColumn,
		Encoding:     req.Encoding,
		Delimiter:    req.Delimiter,
		Chunked:      req.Chunked,
		OutputPath:   req.Output,
	}, nil)
	return c.JSON(res)
}
