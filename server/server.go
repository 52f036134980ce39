package server

import (
	"errors"

	"zebis-scraper/models"
	"zebis-scraper/scraper"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	searchPath       = "/search"
	legacySearchPath = "/suche"
)

// New builds the Fiber application and sets up the routes
func New(service *scraper.Service, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "zebis-scraper",
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(requestLogger(log))
	app.Use(allowCrossOrigin)

	h := &Handler{service: service}

	app.Get("/", h.Root)
	app.Get("/health", h.Health)

	app.Get(searchPath, h.Search(englishParams))
	app.Options(searchPath, h.Preflight)

	app.Get(legacySearchPath, h.Search(germanParams))
	app.Options(legacySearchPath, h.Preflight)

	return app
}

// errorHandler renders every unhandled error as an ErrorResponse
func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		return c.Status(code).JSON(models.ErrorResponse{Error: err.Error()})
	}
}
