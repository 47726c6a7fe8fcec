package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

type CompanyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, companies []*types.Company) ([]*types.Company, error)
	LinkOwner(ctx context.Context, tx *gorm.DB, userID, companyID uuid.UUID) error
	UnlinkOwner(ctx context.Context, tx *gorm.DB, userID, companyID uuid.UUID) error
	GetOwned(ctx context.Context, tx *gorm.DB, companyID, userID uuid.UUID) (*types.Company, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.Company, error)
	CountByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	ApplyPatch(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, columns map[string]interface{}) error
	ReplaceJSONData(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, data datatypes.JSON) error
	Confirm(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, status types.ConfirmationStatus, confirmer string, at time.Time) error
	Delete(ctx context.Context, tx *gorm.DB, companyID uuid.UUID) error
}

type companyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompanyRepo(db *gorm.DB, baseLog *logger.Logger) CompanyRepo {
	return &companyRepo{db: db, log: baseLog.With("repo", "CompanyRepo")}
}

func (cr *companyRepo) Create(ctx context.Context, tx *gorm.DB, companies []*types.Company) ([]*types.Company, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(companies) == 0 {
		return []*types.Company{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// LinkOwner is idempotent per (user, company): re-linking an existing pair
// is a no-op, not an error.
func (cr *companyRepo) LinkOwner(ctx context.Context, tx *gorm.DB, userID, companyID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	link := types.UserCompanyLink{UserID: userID, CompanyID: companyID}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

func (cr *companyRepo) UnlinkOwner(ctx context.Context, tx *gorm.DB, userID, companyID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Delete(&types.UserCompanyLink{}).Error
}

// GetOwned resolves a company through the caller's ownership link. A
// company owned by someone else is indistinguishable from a missing one.
func (cr *companyRepo) GetOwned(ctx context.Context, tx *gorm.DB, companyID, userID uuid.UUID) (*types.Company, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.Company
	err := transaction.WithContext(ctx).
		Joins("JOIN user_company_link ucl ON ucl.company_id = company.id").
		Where("company.id = ? AND ucl.user_id = ?", companyID, userID).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: company %s", apperr.ErrNotFound, companyID)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *companyRepo) ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.Company, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Company
	if err := transaction.WithContext(ctx).
		Joins("JOIN user_company_link ucl ON ucl.company_id = company.id").
		Where("ucl.user_id = ?", userID).
		Order("company.created_at, company.id").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *companyRepo) CountByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Company{}).
		Joins("JOIN user_company_link ucl ON ucl.company_id = company.id").
		Where("ucl.user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (cr *companyRepo) ApplyPatch(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, columns map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(columns) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Company{}).
		Where("id = ?", companyID).
		Updates(columns).Error
}

func (cr *companyRepo) ReplaceJSONData(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, data datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Company{}).
		Where("id = ?", companyID).
		Update("json_data", data).Error
}

// Confirm sets the confirmation state unconditionally: there is no
// prior-state check, any state is reachable from any state.
func (cr *companyRepo) Confirm(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, status types.ConfirmationStatus, confirmer string, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Company{}).
		Where("id = ?", companyID).
		Updates(map[string]interface{}{
			"confirmation_status":  status,
			"confirmed_at":         at,
			"confirmer_identifier": confirmer,
		}).Error
}

// Delete removes the company and cascades its ownership links.
func (cr *companyRepo) Delete(ctx context.Context, tx *gorm.DB, companyID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).
		Where("company_id = ?", companyID).
		Delete(&types.UserCompanyLink{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", companyID).
		Delete(&types.Company{}).Error
}
