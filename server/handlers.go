package server

import (
	"errors"
	"fmt"
	"strings"

	"zebis-scraper/models"
	"zebis-scraper/query"
	"zebis-scraper/scraper"

	"github.com/gofiber/fiber/v2"
)

// paramNames maps the query parameters of a route onto the search fields
type paramNames struct {
	topic   string
	grade   string
	subject string
}

var (
	englishParams = paramNames{topic: "topic", grade: "grade", subject: "subject"}
	germanParams  = paramNames{topic: "thema", grade: "klasse", subject: "fach"}
)

func (n paramNames) name(f query.Field) string {
	switch f {
	case query.FieldTopic:
		return n.topic
	case query.FieldGrade:
		return n.grade
	case query.FieldSubject:
		return n.subject
	}
	return string(f)
}

// Handler serves the HTTP routes
type Handler struct {
	service *scraper.Service
}

// Root reports that the service is up and how to call it
func (h *Handler) Root(c *fiber.Ctx) error {
	catalog := h.service.Catalog()
	return c.SendString(fmt.Sprintf(
		"zebis scraper API is running · endpoint: %s?topic=...&grade=%s&subject=%s",
		searchPath,
		strings.Join(catalog.GradeSlugs(), "|"),
		strings.Join(catalog.SubjectSlugs(), "|"),
	))
}

// Health is used by liveness probes
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

// Preflight answers cross-origin OPTIONS requests
func (h *Handler) Preflight(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Search runs a search using the given parameter names
func (h *Handler) Search(names paramNames) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp, err := h.service.Search(
			c.UserContext(),
			c.Query(names.topic),
			c.Query(names.grade),
			c.Query(names.subject),
		)
		if err != nil {
			return writeSearchError(c, names, err)
		}
		return c.JSON(resp)
	}
}

// writeSearchError maps service errors onto 400 and 502 responses.
// Upstream failures are always 502, whatever status the site answered with.
func writeSearchError(c *fiber.Ctx, names paramNames, err error) error {
	var verr *query.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(validationResponse(names, verr))
	}

	var upstreamErr *scraper.UpstreamError
	if errors.As(err, &upstreamErr) {
		resp := models.ErrorResponse{URL: upstreamErr.URL}
		if upstreamErr.StatusCode != 0 {
			resp.Error = "upstream returned an error status"
			resp.Status = upstreamErr.StatusCode
		} else {
			resp.Error = "network error while fetching results"
			resp.Details = upstreamErr.Err.Error()
		}
		return c.Status(fiber.StatusBadGateway).JSON(resp)
	}

	return err
}

func validationResponse(names paramNames, verr *query.ValidationError) models.ErrorResponse {
	if len(verr.Missing) > 0 {
		missing := make([]string, len(verr.Missing))
		for i, f := range verr.Missing {
			missing[i] = names.name(f)
		}
		return models.ErrorResponse{
			Error: fmt.Sprintf("missing required parameter(s): %s", strings.Join(missing, ", ")),
		}
	}

	return models.ErrorResponse{
		Error: fmt.Sprintf("invalid %s %q, allowed: %s",
			names.name(verr.Invalid), verr.Value, strings.Join(verr.Allowed, ", ")),
		Allowed: verr.Allowed,
	}
}
