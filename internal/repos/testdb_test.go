package repos

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

// newTestDB opens a fresh in-memory database per test with the full schema
// migrated, so unique indexes and joins behave like the real store. The DSN
// carries a unique name with a shared cache: every pooled connection must
// see the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Company{},
		&types.UserCompanyLink{},
		&types.ConsolidatedRecord{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, username string) *types.User {
	t.Helper()
	user := &types.User{ID: uuid.New(), Username: username, Password: "x"}
	if err := db.WithContext(context.Background()).Create(user).Error; err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return user
}
