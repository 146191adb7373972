// Package validation contiene el motor de reglas compartido por recepciones, traslados e inventarios.
// No guarda estado: toda la información externa (stock disponible, costos actuales) llega como argumento.
package validation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain"
)

// Level nivel de exigencia de la validación.
type Level int

const (
	// Strict confirmación final: todas las reglas, lista de líneas no vacía.
	Strict Level = iota
	// Draft solo campos de identidad; las líneas cargadas se validan una a una; se acepta lista vacía.
	Draft
	// AutoSave siempre válido; solo persiste la edición en curso.
	AutoSave
)

func (l Level) String() string {
	switch l {
	case Strict:
		return "strict"
	case Draft:
		return "draft"
	case AutoSave:
		return "autosave"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Warning aviso no bloqueante.
type Warning struct {
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// Result errores bloqueantes y advertencias de una validación.
type Result struct {
	Errors   []*domain.FieldError
	Warnings []Warning
}

// IsValid true si no hay errores (los warnings no bloquean).
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Err devuelve un *domain.ValidationError con todos los errores, o nil si es válido.
func (r *Result) Err() error {
	if r.IsValid() {
		return nil
	}
	return &domain.ValidationError{Issues: r.Errors}
}

// Merge agrega los errores y avisos de otro resultado.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

func (r *Result) input(field string, line int, format string, args ...any) {
	r.Errors = append(r.Errors, &domain.FieldError{Field: field, Line: line, Kind: domain.ErrInvalidInput, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) rule(field string, line int, format string, args ...any) {
	r.Errors = append(r.Errors, &domain.FieldError{Field: field, Line: line, Kind: domain.ErrBusinessRule, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) shortage(field string, line int, format string, args ...any) {
	r.Errors = append(r.Errors, &domain.FieldError{Field: field, Line: line, Kind: domain.ErrInsufficientStock, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) warn(field string, line int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Field: field, Line: line, Message: fmt.Sprintf(format, args...)})
}

// Rules umbrales configurables de los avisos.
type Rules struct {
	// LargeLineCount a partir de cuántas líneas se avisa de un documento inusualmente grande.
	LargeLineCount int
	// VarianceWarningRatio |diferencia| / cantidad esperada por encima del cual se avisa (0.10 = 10%).
	VarianceWarningRatio decimal.Decimal
	// CostDeviationRatio desviación del costo unitario respecto al CUMP actual que genera aviso.
	CostDeviationRatio decimal.Decimal
}

// DefaultRules valores por defecto.
func DefaultRules() Rules {
	return Rules{
		LargeLineCount:       50,
		VarianceWarningRatio: decimal.NewFromFloat(0.10),
		CostDeviationRatio:   decimal.NewFromFloat(0.50),
	}
}

// Engine conjunto de reglas. Solo guarda configuración y el reloj.
type Engine struct {
	rules Rules
	now   func() time.Time
}

// NewEngine construye el motor; now puede ser nil (usa time.Now).
func NewEngine(rules Rules, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	if rules.LargeLineCount <= 0 {
		rules.LargeLineCount = DefaultRules().LargeLineCount
	}
	return &Engine{rules: rules, now: now}
}

// Rules devuelve la configuración activa.
func (e *Engine) Rules() Rules { return e.rules }

// inFuture compara por día calendario: hoy siempre es válido.
func (e *Engine) inFuture(t time.Time) bool {
	now := e.now()
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	return t.After(endOfToday)
}

// exceedsRatio |variance| > ratio * |base|. Con base cero cualquier diferencia no nula excede.
func exceedsRatio(variance, base, ratio decimal.Decimal) bool {
	if ratio.IsZero() {
		return false
	}
	if base.IsZero() {
		return !variance.IsZero()
	}
	return variance.Abs().GreaterThan(base.Abs().Mul(ratio))
}
