package repository

import (
	"time"

	"rtgrab/internal/logger"
	"rtgrab/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HistoryRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

func (r *HistoryRepository) Save(operation, target string, opErr error) (model.Action, error) {
	action := model.Action{
		OperationID: uuid.NewString(),
		Operation:   operation,
		Target:      target,
		Status:      model.StatusSuccess,
		PerformedAt: r.now(),
	}
	if opErr != nil {
		action.Status = model.StatusFailed
		action.ErrMsg = opErr.Error()
	}

	return action, r.db.Create(&action).Error
}

// Record satisfies rtorrent.Recorder. Storage failures are logged, never
// surfaced to the operation being recorded.
func (r *HistoryRepository) Record(operation, target string, opErr error) {
	if _, err := r.Save(operation, target, opErr); err != nil {
		logger.Log.Warn("failed to save history",
			zap.String("op", operation),
			zap.Error(err))
	}
}

type Stats struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := r.db.Model(&model.Action{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := r.db.Model(&model.Action{}).
		Where("status = ?", model.StatusSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success
	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.Action, error) {
	var actions []model.Action
	result := r.db.
		Order("performed_at desc, id desc").
		Limit(limit).
		Find(&actions)

	return actions, result.Error
}

func (r *HistoryRepository) GetFailed(limit int) ([]model.Action, error) {
	var actions []model.Action
	result := r.db.
		Where("status = ?", model.StatusFailed).
		Order("performed_at desc, id desc").
		Limit(limit).
		Find(&actions)

	return actions, result.Error
}
