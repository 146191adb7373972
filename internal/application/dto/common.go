package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=500"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Issues   []IssueDTO   `json:"issues,omitempty"`
	Warnings []WarningDTO `json:"warnings,omitempty"`
}

// IssueDTO error puntual de validación. Line 1-based; 0 = cabecera.
type IssueDTO struct {
	Field   string `json:"field"`
	Line    int    `json:"line,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WarningDTO advertencia no bloqueante.
type WarningDTO struct {
	Field   string `json:"field"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate aplica las etiquetas validate del request; devuelve nil si es válido.
func Validate(req any) []IssueDTO {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []IssueDTO{{Code: "INVALID_INPUT", Message: err.Error()}}
	}
	issues := make([]IssueDTO, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, IssueDTO{
			Field:   fieldPath(fe.Namespace()),
			Code:    "INVALID_INPUT",
			Message: tagMessage(fe),
		})
	}
	return issues
}

// fieldPath quita el nombre del struct raíz: "CreateTransferRequest.Lines[0].ProductID" → "Lines[0].ProductID".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "min":
		return "mínimo " + fe.Param()
	case "max":
		return "máximo " + fe.Param()
	case "nefield":
		return "debe ser distinto de " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	default:
		return "no cumple la regla " + fe.Tag()
	}
}
