package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/academy/pkg/logx"
)

func main() {
	// 1. Logger
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		logx.SetLevel(logx.LevelDebug)
	case "warn":
		logx.SetLevel(logx.LevelWarn)
	case "error":
		logx.SetLevel(logx.LevelError)
	default:
		logx.SetLevel(logx.LevelInfo)
	}

	logx.Info("starting Academy API server")

	// 2. Dependency container
	container := NewContainer()
	defer container.Cleanup()

	// 3. Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "Academy API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(container.Config.Server.Debug),
		BodyLimit:             10 * 1024 * 1024, // avatar uploads
		IdleTimeout:           120 * time.Second,
	})

	// 4. Global middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		AllowCredentials: container.Config.Server.CORSOrigins != "*",
		ExposeHeaders:    "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// Credential endpoints are rate limited per client IP.
	loginLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	})
	app.Use("/api/auth/login", loginLimiter)
	app.Use("/api/auth/register", loginLimiter)

	// 5. Health check
	app.Get("/health", healthCheckHandler(container))

	// Locally stored avatars are served straight off disk.
	if local, ok := container.Storage.(*fsxlocal.LocalStorage); ok {
		app.Static(uploadsURLPrefix, local.BaseDir())
	}

	// 6. Routes
	authenticate := container.IAM.AuthMiddleware.Authenticate()

	container.IAM.AuthHandlers.RegisterRoutes(app, authenticate)
	container.IAM.UserHandlers.RegisterRoutes(app, authenticate)
	container.CourseHandlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	container.AdminHandlers.RegisterRoutes(app, authenticate)
	logx.Info("routes registered")

	// 7. 404 fallthrough
	app.Use(notFoundHandler)

	// 8. Background services + server with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.StartBackgroundServices(ctx)

	startServer(app, container.Config.Server.Port, cancel)
}

// healthCheckHandler reports liveness of the process and its backing stores.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "academy-api",
		}

		if err := container.DB.Ping(); err != nil {
			health["db"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if err := container.Redis.Ping(c.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success":    false,
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	})
}

// globalErrorHandler converts internal errors to standard HTTP responses.
func globalErrorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"request_id": c.Get("X-Request-ID"),
		}).Errorf("request error: %v", err)

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"success":    false,
				"error":      fiberErr.Message,
				"code":       "FIBER_ERROR",
				"request_id": c.Get("X-Request-ID"),
			})
		}

		var appErr *errx.Error
		if errors.As(err, &appErr) {
			response := fiber.Map{
				"success":    false,
				"error":      appErr.Message,
				"code":       appErr.Code,
				"type":       string(appErr.Type),
				"request_id": c.Get("X-Request-ID"),
			}
			if len(appErr.Details) > 0 {
				response["details"] = appErr.Details
			}
			if debug && appErr.Err != nil {
				response["underlying_error"] = appErr.Err.Error()
			}
			return c.Status(appErr.HTTPStatus).JSON(response)
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":    false,
			"error":      "Internal Server Error",
			"code":       "INTERNAL_ERROR",
			"request_id": c.Get("X-Request-ID"),
		})
	}
}

// startServer blocks until a termination signal arrives, then drains the
// server and background services.
func startServer(app *fiber.App, port string, cancel context.CancelFunc) {
	errCh := make(chan error, 1)
	go func() {
		logx.WithFields(logx.Fields{"port": port}).Info("listening")
		errCh <- app.Listen(":" + port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logx.Fatalf("server failed: %v", err)
		}
	case sig := <-quit:
		logx.WithFields(logx.Fields{"signal": sig.String()}).Info("shutting down")
		cancel()
		if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
			logx.Errorf("forced shutdown: %v", err)
		}
	}

	logx.Info("server stopped")
}
