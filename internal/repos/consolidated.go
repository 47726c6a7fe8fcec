package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

type ConsolidatedRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.ConsolidatedRecord) (*types.ConsolidatedRecord, error)
	GetByID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.ConsolidatedRecord, error)
	GetByINNAndYear(ctx context.Context, tx *gorm.DB, inn string, year int) (*types.ConsolidatedRecord, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.ConsolidatedRecord, error)
	ApplyPatch(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, columns map[string]interface{}) error
	Confirm(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, status types.ConfirmationStatus, confirmer string, at time.Time) error
	Delete(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (bool, error)
}

type consolidatedRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConsolidatedRepo(db *gorm.DB, baseLog *logger.Logger) ConsolidatedRepo {
	return &consolidatedRepo{db: db, log: baseLog.With("repo", "ConsolidatedRepo")}
}

// Create rejects a duplicate (inn, year) pair with ErrConflict. The
// pre-check gives a clean error on the common path; the unique index catches
// the concurrent-committer race, so the commit-time violation is translated
// to the same error.
func (cr *consolidatedRepo) Create(ctx context.Context, tx *gorm.DB, record *types.ConsolidatedRecord) (*types.ConsolidatedRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ConsolidatedRecord{}).
		Where("inn = ? AND year = ?", record.INN, record.Year).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: record for inn=%s year=%d", apperr.ErrConflict, record.INN, record.Year)
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: record for inn=%s year=%d", apperr.ErrConflict, record.INN, record.Year)
		}
		return nil, err
	}
	return record, nil
}

func (cr *consolidatedRepo) GetByID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.ConsolidatedRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.ConsolidatedRecord
	err := transaction.WithContext(ctx).
		Where("id = ?", recordID).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: consolidated record %s", apperr.ErrNotFound, recordID)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *consolidatedRepo) GetByINNAndYear(ctx context.Context, tx *gorm.DB, inn string, year int) (*types.ConsolidatedRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.ConsolidatedRecord
	err := transaction.WithContext(ctx).
		Where("inn = ? AND year = ?", inn, year).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: consolidated record inn=%s year=%d", apperr.ErrNotFound, inn, year)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *consolidatedRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.ConsolidatedRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.ConsolidatedRecord
	if err := transaction.WithContext(ctx).
		Order("created_at, id").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *consolidatedRepo) ApplyPatch(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, columns map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(columns) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.ConsolidatedRecord{}).
		Where("id = ?", recordID).
		Updates(columns).Error
}

func (cr *consolidatedRepo) Confirm(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, status types.ConfirmationStatus, confirmer string, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ConsolidatedRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"confirmation_status":  status,
			"confirmed_at":         at,
			"confirmer_identifier": confirmer,
		}).Error
}

// Delete reports found=false for a missing record instead of failing.
func (cr *consolidatedRepo) Delete(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	result := transaction.WithContext(ctx).
		Where("id = ?", recordID).
		Delete(&types.ConsolidatedRecord{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
