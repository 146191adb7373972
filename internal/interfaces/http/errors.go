package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-core/internal/application/dto"
	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// writeError traduce los errores de dominio a respuestas HTTP.
// res aporta las advertencias que acompañan a un error de validación.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error, res validation.Result) error {
	var (
		verr  *domain.ValidationError
		perr  *domain.ProcessingError
		nferr *domain.NotFoundError
	)
	switch {
	case errors.As(err, &perr):
		log.Error().Err(err).Str("path", c.Path()).Msg("falló la confirmación")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code:    "PROCESSING",
			Message: "los datos capturados se conservaron, pero la confirmación falló; reintente",
		})
	case errors.As(err, &verr):
		status := fiber.StatusUnprocessableEntity
		code := "VALIDATION"
		if errors.Is(err, domain.ErrInsufficientStock) {
			status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
		}
		return c.Status(status).JSON(dto.ErrorResponse{
			Code:     code,
			Message:  "la validación falló",
			Issues:   dto.FromIssues(verr.Issues),
			Warnings: dto.FromWarnings(res),
		})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.As(err, &nferr), errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrNegativeStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "el documento cambió; reintente"})
	case errors.Is(err, domain.ErrUnsupportedFormat), errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
	case errors.Is(err, domain.ErrBusinessRule):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "BUSINESS_RULE", Message: err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

// badBody respuesta para cuerpos que no se pueden decodificar.
func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// invalidRequest respuesta para fallos de las etiquetas validate del DTO.
func invalidRequest(c *fiber.Ctx, issues []dto.IssueDTO) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "la validación falló", Issues: issues})
}

// parseBody decodifica y valida el body; escribe la respuesta de error y devuelve false si falla.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, badBody(c)
	}
	if issues := dto.Validate(out); len(issues) > 0 {
		return false, invalidRequest(c, issues)
	}
	return true, nil
}

func badQuery(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de consulta inválidos"})
}
