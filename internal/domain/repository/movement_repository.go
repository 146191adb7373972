package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// MovementFilter filtros del libro de movimientos. Los slices vacíos no filtran.
type MovementFilter struct {
	From          *time.Time
	To            *time.Time
	StoreIDs      []string
	ProductIDs    []string
	Types         []entity.MovementType
	UserIDs       []string
	ReferenceType string
	ReferenceID   string
	Search        string // subcadena sin distinguir mayúsculas sobre producto, referencia y comentario
	Limit         int
	Offset        int
}

// Matches evalúa el filtro en memoria (sin paginación).
func (f MovementFilter) Matches(m *entity.MovementRecord) bool {
	if f.From != nil && m.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && m.Date.After(*f.To) {
		return false
	}
	if len(f.StoreIDs) > 0 && !contains(f.StoreIDs, m.StoreID) {
		return false
	}
	if len(f.ProductIDs) > 0 && !contains(f.ProductIDs, m.ProductID) {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == m.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.UserIDs) > 0 && !contains(f.UserIDs, m.CreatedBy) {
		return false
	}
	if f.ReferenceType != "" && f.ReferenceType != m.ReferenceType {
		return false
	}
	if f.ReferenceID != "" && f.ReferenceID != m.ReferenceID {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(m.ProductID), q) &&
			!strings.Contains(strings.ToLower(m.ReferenceID), q) &&
			!strings.Contains(strings.ToLower(m.Comment), q) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// MovementRepository libro append-only: no hay Update ni Delete.
type MovementRepository interface {
	Append(ctx context.Context, movements ...*entity.MovementRecord) error
	// Query devuelve los movimientos ordenados del más reciente al más antiguo.
	Query(ctx context.Context, filter MovementFilter) ([]*entity.MovementRecord, error)
}
