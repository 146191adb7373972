package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
// Las categorías sirven como base para errors.Is; los tipos de abajo agregan contexto.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrBusinessRule      = errors.New("regla de negocio violada")
	ErrInvalidState      = errors.New("transición de estado inválida")
	ErrProcessing        = errors.New("error al procesar la confirmación")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNegativeStock     = errors.New("la operación dejaría stock negativo")
	ErrUnsupportedFormat = errors.New("formato no soportado")
)

// FieldError describe un problema puntual de validación. Line es 1-based; 0 indica cabecera del documento.
// Kind es ErrInvalidInput o ErrBusinessRule (o un sentinel más específico como ErrInsufficientStock).
type FieldError struct {
	Field   string
	Line    int
	Kind    error
	Message string
}

func (e *FieldError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("línea %d: %s: %s", e.Line, e.Field, e.Message)
	}
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error { return e.Kind }

// ValidationError agrupa los errores de una validación estricta. Nunca se aplica parcialmente.
type ValidationError struct {
	Issues []*FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Error())
	}
	return "validación fallida: " + strings.Join(msgs, "; ")
}

// Unwrap permite errors.Is(err, ErrInvalidInput) / errors.Is(err, ErrBusinessRule) sobre cualquier issue.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Issues))
	for _, issue := range e.Issues {
		errs = append(errs, issue)
	}
	return errs
}

// StateTransitionError operación sobre un documento en un estado que no la admite.
type StateTransitionError struct {
	Document string
	ID       string
	Status   string
	Op       string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s %s: no se puede %s en estado %q", e.Document, e.ID, e.Op, e.Status)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidState }

// ProcessingError fallo durante la fase de confirmación, después de que la validación pasó.
// El documento se revierte a su estado previo; los datos capturados se conservan.
type ProcessingError struct {
	Op         string
	DocumentID string
	Err        error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s %s: los datos se conservaron pero la confirmación falló: %v", e.Op, e.DocumentID, e.Err)
}

func (e *ProcessingError) Unwrap() []error { return []error{ErrProcessing, e.Err} }

// NotFoundError entidad o documento inexistente.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound atajo para construir un NotFoundError.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}
