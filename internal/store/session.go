package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"calibration-backend/internal/model"
)

// CreateSession persists a new calibration session attached to a filament.
// The filament existence check and the insert run in one transaction.
func (s *gormStore) CreateSession(ctx context.Context, params SessionParams) (*model.CalibrationSession, error) {
	status := params.Status
	if status == "" {
		status = StatusPlanned
	}

	item := model.CalibrationSession{
		Registered:     utcSecond(time.Now()),
		FilamentID:     params.FilamentID,
		Status:         status,
		PrinterName:    params.PrinterName,
		NozzleDiameter: params.NozzleDiameter,
		Notes:          params.Notes,
	}
	if params.StartedAt != nil {
		t := utcSecond(*params.StartedAt)
		item.StartedAt = &t
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var filament model.Filament
		if err := tx.First(&filament, params.FilamentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no filament with ID %d: %w", params.FilamentID, ErrNotFound)
			}
			return err
		}
		return tx.Omit("Filament", "Steps").Create(&item).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetSession(ctx, item.ID)
}

// GetSession loads a session by ID with its step results in recording order.
func (s *gormStore) GetSession(ctx context.Context, sessionID int) (*model.CalibrationSession, error) {
	return getSession(s.db.WithContext(ctx), sessionID)
}

func getSession(db *gorm.DB, sessionID int) (*model.CalibrationSession, error) {
	var item model.CalibrationSession
	err := db.
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&item, sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no calibration session with ID %d: %w", sessionID, ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// ListSessions returns sessions newest first, optionally filtered by
// filament, along with the total match count before pagination.
func (s *gormStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.CalibrationSession, int64, error) {
	countQuery := s.db.WithContext(ctx).Model(&model.CalibrationSession{})
	query := s.db.WithContext(ctx).Model(&model.CalibrationSession{})
	if filter.FilamentID != nil {
		countQuery = countQuery.Where("filament_id = ?", *filter.FilamentID)
		query = query.Where("filament_id = ?", *filter.FilamentID)
	}

	var totalCount int64
	if err := countQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("registered DESC, id DESC")
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit != nil {
		query = query.Limit(*filter.Limit)
	}

	var items []model.CalibrationSession
	err := query.
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, totalCount, nil
}

// UpdateSession applies a column patch to a session. Only the supplied
// columns change; nil values clear nullable columns. Returns the reloaded
// session.
func (s *gormStore) UpdateSession(ctx context.Context, sessionID int, patch map[string]any) (*model.CalibrationSession, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := getSession(tx, sessionID)
		if err != nil {
			return err
		}
		if len(patch) == 0 {
			return nil
		}
		return tx.Model(item).Updates(normalizePatch(patch)).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, sessionID)
}

// DeleteSession removes a session. The FK constraint cascades removal of
// all owned step results.
func (s *gormStore) DeleteSession(ctx context.Context, sessionID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := getSession(tx, sessionID)
		if err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}
