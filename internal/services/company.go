package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/repos"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/requestdata"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

// CompanyService exposes the per-user company store. Every operation
// resolves the caller from the request context and goes through the
// ownership link: companies introduced by other users are invisible.
type CompanyService interface {
	List(ctx context.Context, limit, offset int) ([]*types.Company, int64, error)
	Get(ctx context.Context, companyID uuid.UUID) (*types.Company, error)
	Update(ctx context.Context, companyID uuid.UUID, patch types.CompanyPatch) (*types.Company, error)
	UpdateKeyMetrics(ctx context.Context, companyID uuid.UUID, patch types.CompanyKeyMetricsPatch) (*types.Company, error)
	GetJSONData(ctx context.Context, companyID uuid.UUID) (datatypes.JSON, error)
	ReplaceJSONData(ctx context.Context, companyID uuid.UUID, data datatypes.JSON) (*types.Company, error)
	Confirm(ctx context.Context, companyID uuid.UUID, kind types.ConfirmerKind, confirmer string) (*types.Company, error)
	Delete(ctx context.Context, companyID uuid.UUID) error
}

type companyService struct {
	db          *gorm.DB
	log         *logger.Logger
	companyRepo repos.CompanyRepo
}

func NewCompanyService(db *gorm.DB, log *logger.Logger, companyRepo repos.CompanyRepo) CompanyService {
	return &companyService{
		db:          db,
		log:         log.With("service", "CompanyService"),
		companyRepo: companyRepo,
	}
}

func (cs *companyService) List(ctx context.Context, limit, offset int) ([]*types.Company, int64, error) {
	rd, err := callerIdentity(ctx)
	if err != nil {
		return nil, 0, err
	}
	companies, err := cs.companyRepo.ListByOwner(ctx, nil, rd.UserID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	total, err := cs.companyRepo.CountByOwner(ctx, nil, rd.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return companies, total, nil
}

func (cs *companyService) Get(ctx context.Context, companyID uuid.UUID) (*types.Company, error) {
	rd, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return cs.companyRepo.GetOwned(ctx, nil, companyID, rd.UserID)
}

func (cs *companyService) Update(ctx context.Context, companyID uuid.UUID, patch types.CompanyPatch) (*types.Company, error) {
	return cs.patch(ctx, companyID, patch.Columns())
}

func (cs *companyService) UpdateKeyMetrics(ctx context.Context, companyID uuid.UUID, patch types.CompanyKeyMetricsPatch) (*types.Company, error) {
	return cs.patch(ctx, companyID, patch.Columns())
}

func (cs *companyService) patch(ctx context.Context, companyID uuid.UUID, columns map[string]interface{}) (*types.Company, error) {
	rd, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := cs.companyRepo.GetOwned(ctx, nil, companyID, rd.UserID); err != nil {
		return nil, err
	}
	if err := cs.companyRepo.ApplyPatch(ctx, nil, companyID, columns); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return cs.companyRepo.GetOwned(ctx, nil, companyID, rd.UserID)
}

func (cs *companyService) GetJSONData(ctx context.Context, companyID uuid.UUID) (datatypes.JSON, error) {
	company, err := cs.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return company.JSONData, nil
}

func (cs *companyService) ReplaceJSONData(ctx context.Context, companyID uuid.UUID, data datatypes.JSON) (*types.Company, error) {
	rd, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := cs.companyRepo.GetOwned(ctx, nil, companyID, rd.UserID); err != nil {
		return nil, err
	}
	if err := cs.companyRepo.ReplaceJSONData(ctx, nil, companyID, data); err != nil {
		return nil, fmt.Errorf("failed to replace json data: %w", err)
	}
	return cs.companyRepo.GetOwned(ctx, nil, companyID, rd.UserID)
}

func (cs *companyService) Confirm(ctx context.Context, companyID uuid.UUID, kind types.ConfirmerKind, confirmer string) (*types.Company, error) {
	rd, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := cs.companyRepo.GetOwned(ctx, nil, companyID, rd.UserID); err != nil {
		return nil, err
	}
	if confirmer == "" {
		confirmer = rd.Username
	}
	if err := cs.companyRepo.Confirm(ctx, nil, companyID, kind.Status(), confirmer, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to confirm company: %w", err)
	}
	return cs.companyRepo.GetOwned(ctx, nil, companyID, rd.UserID)
}

func (cs *companyService) Delete(ctx context.Context, companyID uuid.UUID) error {
	rd, err := callerIdentity(ctx)
	if err != nil {
		return err
	}
	if _, err := cs.companyRepo.GetOwned(ctx, nil, companyID, rd.UserID); err != nil {
		return err
	}
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return cs.companyRepo.Delete(ctx, tx, companyID)
	})
}

func callerIdentity(ctx context.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: no caller identity in context", apperr.ErrUnauthorized)
	}
	return rd, nil
}
