package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/models"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
	"github.com/chynybekuuludastan/sitecloner/internal/service/pipeline"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
)

// DefaultGenerateTimeout bounds one generation request end to end
const DefaultGenerateTimeout = 5 * time.Minute

// Generator runs the generation pipeline
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest, debug bool) (*pipeline.Output, error)
}

// GenerateHandler handles site content generation requests
type GenerateHandler struct {
	Pipeline Generator
	Timeout  time.Duration
	Logger   logging.Logger
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(p Generator, timeout time.Duration, logger logging.Logger) *GenerateHandler {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GenerateHandler{Pipeline: p, Timeout: timeout, Logger: logger}
}

// Generate handles POST /api/analyze and POST /api/generate
//
//	@Summary		Generate site content
//	@Description	Scrapes url (or seeds from companyName), fills the template with an LLM and validates the result
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.GenerationRequest	true	"Generation request"
//	@Param			debug	query		bool						false	"Include diagnostics"
//	@Success		200		{object}	pipeline.Output
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/analyze [post]
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	var req models.GenerationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":    "Invalid request body",
				"details":  err.Error(),
				"category": pipeline.CategoryInput,
			})
		}
	}
	debug := isDebug(c)

	// The pipeline keeps running if the client goes away
	ctx, cancel := context.WithTimeout(context.Background(), h.Timeout)
	defer cancel()

	out, err := h.Pipeline.Generate(ctx, req, debug)
	if err != nil {
		status, body := generateError(err, debug)
		if status >= fiber.StatusInternalServerError {
			h.Logger.Error("Generation failed", "error", err, "category", body["category"])
		}
		return c.Status(status).JSON(body)
	}

	return c.JSON(out)
}

// generateError maps a pipeline error onto the response status and body
func generateError(err error, debug bool) (int, fiber.Map) {
	category := pipeline.Categorize(err)

	var (
		inputErr      *pipeline.InputError
		genErr        *llm.GenerationError
		validationErr *pipeline.ValidationFailure
	)
	switch {
	case errors.As(err, &inputErr):
		return fiber.StatusBadRequest, fiber.Map{
			"error":    inputErr.Message,
			"category": category,
		}

	case errors.As(err, &genErr):
		body := fiber.Map{
			"error":    "Model returned invalid JSON",
			"category": category,
		}
		if debug {
			if genErr.ParseErr != nil {
				body["jsonError"] = genErr.ParseErr.Error()
			}
			body["savedTo"] = genErr.SavedTo
			body["output_text"] = genErr.RawText
			raw := fiber.Map{}
			if resp := genErr.Response; resp != nil {
				raw["id"] = resp.ID
				raw["model"] = resp.Model
				raw["status"] = resp.Status
				raw["output"] = resp.Output
			}
			body["raw"] = raw
		}
		return fiber.StatusInternalServerError, body

	case errors.As(err, &validationErr):
		body := fiber.Map{
			"error":    "Validation failed",
			"category": category,
		}
		if debug {
			issues := validationErr.Result.Errors
			if issues == nil {
				issues = []schema.ErrorDetail{}
			}
			keys := validationErr.Keys
			if keys == nil {
				keys = []string{}
			}
			body["issues"] = issues
			body["receivedKeys"] = keys
			body["usedStructured"] = validationErr.UsedStructured
			body["output_text"] = validationErr.OutputText
		}
		return fiber.StatusUnprocessableEntity, body

	default:
		return fiber.StatusInternalServerError, fiber.Map{
			"error":    "Analyze failed",
			"details":  err.Error(),
			"category": category,
		}
	}
}

func isDebug(c *fiber.Ctx) bool {
	switch c.Query("debug") {
	case "true", "1":
		return true
	}
	return false
}
