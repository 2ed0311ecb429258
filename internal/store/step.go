package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"calibration-backend/internal/model"
)

// CreateStep adds a step result to an existing session. The parent
// existence check and the insert run in one transaction.
func (s *gormStore) CreateStep(ctx context.Context, sessionID int, params StepParams) (*model.CalibrationStepResult, error) {
	item := model.CalibrationStepResult{
		SessionID:      sessionID,
		StepType:       params.StepType,
		Inputs:         params.Inputs,
		Outputs:        params.Outputs,
		SelectedValues: params.SelectedValues,
		Notes:          params.Notes,
		Confidence:     params.Confidence,
	}
	if params.RecordedAt != nil {
		item.RecordedAt = utcSecond(*params.RecordedAt)
	} else {
		item.RecordedAt = utcSecond(time.Now())
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session model.CalibrationSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no calibration session with ID %d: %w", sessionID, ErrNotFound)
			}
			return err
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetStep loads a step result by ID.
func (s *gormStore) GetStep(ctx context.Context, stepID int) (*model.CalibrationStepResult, error) {
	return getStep(s.db.WithContext(ctx), stepID)
}

func getStep(db *gorm.DB, stepID int) (*model.CalibrationStepResult, error) {
	var item model.CalibrationStepResult
	if err := db.First(&item, stepID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no calibration step result with ID %d: %w", stepID, ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// UpdateStep applies a column patch to a step result. Only the supplied
// columns change; nil values clear nullable columns.
func (s *gormStore) UpdateStep(ctx context.Context, stepID int, patch map[string]any) (*model.CalibrationStepResult, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := getStep(tx, stepID)
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
	return s.GetStep(ctx, stepID)
}

// DeleteStep removes a step result.
func (s *gormStore) DeleteStep(ctx context.Context, stepID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := getStep(tx, stepID)
		if err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}
