package dto

import (
	"errors"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// IssueCode código estable de un FieldError según su categoría.
func IssueCode(e *domain.FieldError) string {
	switch {
	case errors.Is(e, domain.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(e, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(e, domain.ErrBusinessRule):
		return "BUSINESS_RULE"
	default:
		return "INVALID_INPUT"
	}
}

// FromIssues mapea los errores de una validación.
func FromIssues(errs []*domain.FieldError) []IssueDTO {
	out := make([]IssueDTO, 0, len(errs))
	for _, e := range errs {
		out = append(out, IssueDTO{Field: e.Field, Line: e.Line, Code: IssueCode(e), Message: e.Message})
	}
	return out
}

// FromWarnings mapea las advertencias; nil si no hay.
func FromWarnings(res validation.Result) []WarningDTO {
	if len(res.Warnings) == 0 {
		return nil
	}
	out := make([]WarningDTO, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		out = append(out, WarningDTO{Field: w.Field, Line: w.Line, Message: w.Message})
	}
	return out
}
