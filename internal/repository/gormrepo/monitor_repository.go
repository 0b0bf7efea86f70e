package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/pkg/apperrors"

	"gorm.io/gorm"
)

// MonitorRepository хранит журналы статусов и поз; записи только добавляются
type MonitorRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMonitorRepository создает новый экземпляр MonitorRepository
func NewMonitorRepository(db *gorm.DB) *MonitorRepository {
	return &MonitorRepository{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// AppendStatus добавляет запись статуса; время записи назначается здесь
func (r *MonitorRepository) AppendStatus(ctx context.Context, userNum uint, code models.StatusCode) (*models.StatusRecord, error) {
	if !code.Valid() {
		return nil, fmt.Errorf("%w: status code %d", apperrors.ErrValidation, code)
	}

	record := &models.StatusRecord{
		UserUniqueNum: userNum,
		Status:        code,
		CreatedAt:     r.now(),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, appendError(err, userNum)
	}
	return record, nil
}

// LatestStatuses возвращает последние записи статуса, от новых к старым
func (r *MonitorRepository) LatestStatuses(ctx context.Context, userNum uint, limit int) ([]models.StatusRecord, error) {
	records := make([]models.StatusRecord, 0, models.ClampHistoryLimit(limit))
	err := r.latest(ctx, userNum, limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// AppendPosture добавляет запись позы
func (r *MonitorRepository) AppendPosture(ctx context.Context, userNum uint, code models.PostureCode) (*models.PostureRecord, error) {
	if !code.Valid() {
		return nil, fmt.Errorf("%w: posture code %d", apperrors.ErrValidation, code)
	}

	record := &models.PostureRecord{
		UserUniqueNum: userNum,
		Posture:       code,
		CreatedAt:     r.now(),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, appendError(err, userNum)
	}
	return record, nil
}

// LatestPostures возвращает последние записи позы, от новых к старым
func (r *MonitorRepository) LatestPostures(ctx context.Context, userNum uint, limit int) ([]models.PostureRecord, error) {
	records := make([]models.PostureRecord, 0, models.ClampHistoryLimit(limit))
	err := r.latest(ctx, userNum, limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// latest строит общий запрос выборки; id разрешает совпадения по времени
func (r *MonitorRepository) latest(ctx context.Context, userNum uint, limit int) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_unique_num = ?", userNum).
		Order("created_at DESC").
		Order("id DESC").
		Limit(models.ClampHistoryLimit(limit))
}

// appendError сводит нарушение внешнего ключа к отсутствию пользователя
func appendError(err error, userNum uint) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: user %d", apperrors.ErrNotFound, userNum)
	}
	return err
}
