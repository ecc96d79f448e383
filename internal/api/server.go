// Package api exposes the inference service over HTTP.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/inference"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Predictor answers prediction and health requests. *inference.Service
// satisfies it.
type Predictor interface {
	Predict(ctx context.Context, req inference.Request) (*inference.Response, error)
	Health() inference.Health
}

// Options configure the HTTP server.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

// Server is the HTTP front end.
type Server struct {
	app     *fiber.App
	svc     Predictor
	metrics *Metrics
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Error codes.
const (
	CodeBadRequest     = "bad_request"
	CodeInvalidInput   = "invalid_input"
	CodeModelNotLoaded = "model_not_loaded"
	CodeModelNotFitted = "model_not_fitted"
	CodeInternal       = "internal_error"
)

// NewServer wires routes and middleware around svc.
func NewServer(svc Predictor, opts Options) *Server {
	if opts.BodyLimit == 0 {
		opts.BodyLimit = 64 * 1024
	}

	s := &Server{
		svc: svc,
		metrics: NewMetrics(func() bool {
			return svc.Health().ModelLoaded
		}),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "pfm-classifier",
		DisableStartupMessage: true,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		BodyLimit:             opts.BodyLimit,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestID())
	s.app.Use(requestLogger())

	s.app.Get("/healthz", s.health)
	s.app.Post("/predict", s.predict)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	slog.Info("Starting HTTP server", "addr", addr)
	return s.app.Listen(addr)
}

// ListenTLS serves HTTPS on addr with cert until Shutdown is called.
func (s *Server) ListenTLS(addr string, cert tls.Certificate) error {
	slog.Info("Starting HTTPS server", "addr", addr)
	return s.app.ListenTLSWithCertificate(addr, cert)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	body := ErrorResponse{Code: CodeInternal, Error: err.Error()}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		body.Code = CodeBadRequest
		if code == fiber.StatusNotFound {
			body.Code = "not_found"
		}
	}
	return c.Status(code).JSON(body)
}
