package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"calibration-backend/internal/model"
)

// ErrNotFound is returned when a referenced session, step or filament does
// not exist. Use errors.Is to detect it under wrapping.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	CreateSession(ctx context.Context, params SessionParams) (*model.CalibrationSession, error)
	GetSession(ctx context.Context, sessionID int) (*model.CalibrationSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.CalibrationSession, int64, error)
	UpdateSession(ctx context.Context, sessionID int, patch map[string]any) (*model.CalibrationSession, error)
	DeleteSession(ctx context.Context, sessionID int) error

	CreateStep(ctx context.Context, sessionID int, params StepParams) (*model.CalibrationStepResult, error)
	GetStep(ctx context.Context, stepID int) (*model.CalibrationStepResult, error)
	UpdateStep(ctx context.Context, stepID int, patch map[string]any) (*model.CalibrationStepResult, error)
	DeleteStep(ctx context.Context, stepID int) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for callers that need raw access
// (subscription handlers, notification workers).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// utcSecond normalizes a timestamp to UTC with second precision. All stored
// timestamps go through this; the persisted schema carries neither
// sub-second digits nor an offset.
func utcSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// normalizePatch converts any timestamp values in a column patch to UTC
// second precision. Non-time values pass through untouched.
func normalizePatch(patch map[string]any) map[string]any {
	for k, v := range patch {
		switch t := v.(type) {
		case time.Time:
			patch[k] = utcSecond(t)
		case *time.Time:
			if t != nil {
				patch[k] = utcSecond(*t)
			}
		}
	}
	return patch
}
