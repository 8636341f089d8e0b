// Package store persists kitchens, ingredients, recipes, recipe lines and
// cook-mode steps. Every method takes the kitchen id explicitly and scopes all
// reads and writes to it.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist in the caller's kitchen.
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps validation failures.
	ErrInvalid = errors.New("invalid input")
)

// Store is the persistence service used by the HTTP handlers and the importer.
type Store struct {
	db *gorm.DB
}

// New wraps a gorm handle. A nil handle yields a store whose methods return gorm.ErrInvalidDB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context, kitchenID string) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	if strings.TrimSpace(kitchenID) == "" {
		return nil, invalid("kitchen is required")
	}
	return s.db.WithContext(ctx), nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func notFound(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkNonNegative(field string, v *float64) error {
	if v == nil {
		return nil
	}
	if !finite(*v) || *v < 0 {
		return invalid("%s must be a number greater than or equal to zero", field)
	}
	return nil
}

func likePattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(strings.ToLower(strings.TrimSpace(query)))
	return "%" + escaped + "%"
}

// scoped limits a query to one kitchen.
func scoped(tx *gorm.DB, kitchenID string) *gorm.DB {
	return tx.Where("kitchen_id = ?", kitchenID)
}
