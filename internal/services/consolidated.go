package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/repos"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

// ConsolidatedService manages the (inn, year) time-series snapshots.
type ConsolidatedService interface {
	Create(ctx context.Context, record *types.ConsolidatedRecord) (*types.ConsolidatedRecord, error)
	List(ctx context.Context, limit, offset int) ([]*types.ConsolidatedRecord, error)
	Get(ctx context.Context, recordID uuid.UUID) (*types.ConsolidatedRecord, error)
	Update(ctx context.Context, recordID uuid.UUID, patch types.ConsolidatedRecordPatch) (*types.ConsolidatedRecord, error)
	Confirm(ctx context.Context, recordID uuid.UUID, kind types.ConfirmerKind, confirmer string) (*types.ConsolidatedRecord, error)
	Delete(ctx context.Context, recordID uuid.UUID) (bool, error)
}

type consolidatedService struct {
	db               *gorm.DB
	log              *logger.Logger
	consolidatedRepo repos.ConsolidatedRepo
}

func NewConsolidatedService(db *gorm.DB, log *logger.Logger, consolidatedRepo repos.ConsolidatedRepo) ConsolidatedService {
	return &consolidatedService{
		db:               db,
		log:              log.With("service", "ConsolidatedService"),
		consolidatedRepo: consolidatedRepo,
	}
}

func (cs *consolidatedService) Create(ctx context.Context, record *types.ConsolidatedRecord) (*types.ConsolidatedRecord, error) {
	if _, err := callerIdentity(ctx); err != nil {
		return nil, err
	}
	if record.INN == "" {
		return nil, fmt.Errorf("%w: inn is required", apperr.ErrValidation)
	}
	if record.Year == 0 {
		return nil, fmt.Errorf("%w: year is required", apperr.ErrValidation)
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.ConfirmationStatus == "" {
		record.ConfirmationStatus = types.ConfirmationUnconfirmed
	}
	created, err := cs.consolidatedRepo.Create(ctx, nil, record)
	if err != nil {
		return nil, err
	}
	cs.log.Info("Consolidated record created", "inn", record.INN, "year", record.Year)
	return created, nil
}

func (cs *consolidatedService) List(ctx context.Context, limit, offset int) ([]*types.ConsolidatedRecord, error) {
	if _, err := callerIdentity(ctx); err != nil {
		return nil, err
	}
	return cs.consolidatedRepo.List(ctx, nil, limit, offset)
}

func (cs *consolidatedService) Get(ctx context.Context, recordID uuid.UUID) (*types.ConsolidatedRecord, error) {
	if _, err := callerIdentity(ctx); err != nil {
		return nil, err
	}
	return cs.consolidatedRepo.GetByID(ctx, nil, recordID)
}

func (cs *consolidatedService) Update(ctx context.Context, recordID uuid.UUID, patch types.ConsolidatedRecordPatch) (*types.ConsolidatedRecord, error) {
	if _, err := callerIdentity(ctx); err != nil {
		return nil, err
	}
	if _, err := cs.consolidatedRepo.GetByID(ctx, nil, recordID); err != nil {
		return nil, err
	}
	if err := cs.consolidatedRepo.ApplyPatch(ctx, nil, recordID, patch.Columns()); err != nil {
		return nil, fmt.Errorf("failed to update consolidated record: %w", err)
	}
	return cs.consolidatedRepo.GetByID(ctx, nil, recordID)
}

func (cs *consolidatedService) Confirm(ctx context.Context, recordID uuid.UUID, kind types.ConfirmerKind, confirmer string) (*types.ConsolidatedRecord, error) {
	rd, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := cs.consolidatedRepo.GetByID(ctx, nil, recordID); err != nil {
		return nil, err
	}
	if confirmer == "" {
		confirmer = rd.Username
	}
	if err := cs.consolidatedRepo.Confirm(ctx, nil, recordID, kind.Status(), confirmer, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to confirm consolidated record: %w", err)
	}
	return cs.consolidatedRepo.GetByID(ctx, nil, recordID)
}

func (cs *consolidatedService) Delete(ctx context.Context, recordID uuid.UUID) (bool, error) {
	if _, err := callerIdentity(ctx); err != nil {
		return false, err
	}
	return cs.consolidatedRepo.Delete(ctx, nil, recordID)
}
