package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

func newConsolidatedRecord(inn string, year int) *types.ConsolidatedRecord {
	return &types.ConsolidatedRecord{
		ID:                 uuid.New(),
		INN:                inn,
		Year:               year,
		Name:               "АО Завод",
		ConfirmationStatus: types.ConfirmationUnconfirmed,
	}
}

func TestConsolidatedRepoCreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewConsolidatedRepo(db, logger.NewNop())

	revenue := 1500.5
	record := newConsolidatedRecord("7700000000", 2023)
	record.RevenueThousRub = &revenue
	if _, err := repo.Create(ctx, nil, record); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, record.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.INN != "7700000000" || got.Year != 2023 {
		t.Fatalf("identity: want=(7700000000,2023) got=(%s,%d)", got.INN, got.Year)
	}
	if got.RevenueThousRub == nil || *got.RevenueThousRub != 1500.5 {
		t.Fatalf("revenue: want=1500.5 got=%v", got.RevenueThousRub)
	}

	byKey, err := repo.GetByINNAndYear(ctx, nil, "7700000000", 2023)
	if err != nil {
		t.Fatalf("get by inn+year: %v", err)
	}
	if byKey.ID != record.ID {
		t.Fatalf("get by inn+year: want id=%s got=%s", record.ID, byKey.ID)
	}
}

func TestConsolidatedRepoCreateRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewConsolidatedRepo(db, logger.NewNop())

	if _, err := repo.Create(ctx, nil, newConsolidatedRecord("7700000000", 2023)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := repo.Create(ctx, nil, newConsolidatedRecord("7700000000", 2023)); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate (inn, year): want=ErrConflict got=%v", err)
	}

	// Same inn for another year, and another inn for the same year, are fine.
	if _, err := repo.Create(ctx, nil, newConsolidatedRecord("7700000000", 2024)); err != nil {
		t.Fatalf("same inn other year: %v", err)
	}
	if _, err := repo.Create(ctx, nil, newConsolidatedRecord("7800000000", 2023)); err != nil {
		t.Fatalf("other inn same year: %v", err)
	}
}

func TestConsolidatedRepoUniqueIndexCatchesRace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	// Bypass the repo pre-check to hit the index itself, the way a second
	// concurrent committer would.
	if err := db.WithContext(ctx).Create(newConsolidatedRecord("7700000000", 2023)).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := db.WithContext(ctx).Create(newConsolidatedRecord("7700000000", 2023)).Error
	if err == nil {
		t.Fatalf("duplicate insert: want unique violation got=nil")
	}
	if !isUniqueViolation(err) {
		t.Fatalf("duplicate insert: want unique violation got=%v", err)
	}
}

func TestConsolidatedRepoGetNotFound(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewConsolidatedRepo(db, logger.NewNop())

	if _, err := repo.GetByID(ctx, nil, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing id: want=ErrNotFound got=%v", err)
	}
	if _, err := repo.GetByINNAndYear(ctx, nil, "1", 1999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing key: want=ErrNotFound got=%v", err)
	}
}

func TestConsolidatedRepoListPagination(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewConsolidatedRepo(db, logger.NewNop())

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		record := newConsolidatedRecord("7700000000", 2020+i)
		record.CreatedAt = base.Add(time.Duration(i) * time.Second)
		record.UpdatedAt = record.CreatedAt
		if _, err := repo.Create(ctx, nil, record); err != nil {
			t.Fatalf("create year %d: %v", 2020+i, err)
		}
	}

	page, err := repo.List(ctx, nil, 2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size: want=2 got=%d", len(page))
	}
	if page[0].Year != 2021 || page[1].Year != 2022 {
		t.Fatalf("page order: want=2021,2022 got=%d,%d", page[0].Year, page[1].Year)
	}
}

func TestConsolidatedRepoApplyPatchPartial(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewConsolidatedRepo(db, logger.NewNop())

	revenue, profit := 1000.0, 50.0
	record := newConsolidatedRecord("7700000000", 2023)
	record.RevenueThousRub = &revenue
	record.NetProfitThousRub = &profit
	if _, err := repo.Create(ctx, nil, record); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := repo.ApplyPatch(ctx, nil, record.ID, map[string]interface{}{
		"net_profit_thous_rub": nil,
		"has_exports":          true,
	})
	if err != nil {
		t.Fatalf("apply patch: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, record.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.RevenueThousRub == nil || *got.RevenueThousRub != 1000.0 {
		t.Fatalf("untouched revenue: want=1000 got=%v", got.RevenueThousRub)
	}
	if got.NetProfitThousRub != nil {
		t.Fatalf("nulled profit: want=nil got=%v", *got.NetProfitThousRub)
	}
	if got.HasExports == nil || !*got.HasExports {
		t.Fatalf("has_exports: want=true got=%v", got.HasExports)
	}
}

func TestConsolidatedRepoConfirm(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewConsolidatedRepo(db, logger.NewNop())

	record := newConsolidatedRecord("7700000000", 2023)
	if _, err := repo.Create(ctx, nil, record); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now()
	if err := repo.Confirm(ctx, nil, record.ID, types.ConfirmationSystemConfirmed, "pipeline", now); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, record.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ConfirmationStatus != types.ConfirmationSystemConfirmed {
		t.Fatalf("status: want=%q got=%q", types.ConfirmationSystemConfirmed, got.ConfirmationStatus)
	}
	if got.ConfirmedAt == nil {
		t.Fatalf("confirmed_at: want set got=nil")
	}
}

func TestConsolidatedRepoDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewConsolidatedRepo(db, logger.NewNop())

	record := newConsolidatedRecord("7700000000", 2023)
	if _, err := repo.Create(ctx, nil, record); err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := repo.Delete(ctx, nil, record.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !found {
		t.Fatalf("delete existing: want found=true got=false")
	}

	found, err = repo.Delete(ctx, nil, record.ID)
	if err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if found {
		t.Fatalf("delete missing: want found=false got=true")
	}

	// The key is free again after deletion.
	if _, err := repo.Create(ctx, nil, newConsolidatedRecord("7700000000", 2023)); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
}
