package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/repos"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

// newTestDB mirrors the production store on in-memory sqlite. The unique
// DSN name plus shared cache keeps every pooled connection on one database.
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
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return user
}

const uploadHeader = "ИНН;Наименование организации;Полное наименование организации;Статус СПАРК;Основная отрасль;Размер предприятия (итог);Тип организации;Данные о мерах поддержки;Наличие особого статуса;Выручка тыс. руб."

func uploadRow(inn, name, support string) string {
	return fmt.Sprintf("%s;%s;ПАО %s;Действующая;Машиностроение;Среднее;Коммерческая;%s;;100,5", inn, name, name, support)
}

func newIngestService(db *gorm.DB, maxSize int64) IngestService {
	log := logger.NewNop()
	return NewIngestService(db, log, repos.NewCompanyRepo(db, log), "", maxSize)
}

func TestIngestPersistsRowsAndLinks(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := newTestUser(t, db, "uploader")
	svc := newIngestService(db, 1<<20)

	payload := strings.Join([]string{
		uploadHeader,
		uploadRow("7700000001", "Завод-1", "Получены"),
		uploadRow("7700000002", "Завод-2", "Не получены"),
		uploadRow("7700000003", "Завод-3", "Получены"),
	}, "\n")

	summary, err := svc.Ingest(ctx, owner.ID, "отчет 2024.csv", []byte(payload))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.TotalRows != 3 || summary.Persisted != 3 {
		t.Fatalf("summary: want total=3 persisted=3 got total=%d persisted=%d", summary.TotalRows, summary.Persisted)
	}
	if len(summary.RowFailures) != 0 {
		t.Fatalf("failures: want=0 got=%v", summary.RowFailures)
	}
	if summary.FileName != "_2024.csv" {
		t.Fatalf("sanitized name: want=%q got=%q", "_2024.csv", summary.FileName)
	}
	if !strings.HasSuffix(summary.StoredName, "_"+summary.FileName) {
		t.Fatalf("stored name: want suffix _%s got=%q", summary.FileName, summary.StoredName)
	}

	var companies, links int64
	if err := db.Model(&types.Company{}).Count(&companies).Error; err != nil {
		t.Fatalf("count companies: %v", err)
	}
	if err := db.Model(&types.UserCompanyLink{}).Where("user_id = ?", owner.ID).Count(&links).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}
	if companies != 3 || links != 3 {
		t.Fatalf("persisted rows: want 3 companies and 3 links got=%d,%d", companies, links)
	}

	var first types.Company
	if err := db.First(&first, "inn = ?", 7700000001).Error; err != nil {
		t.Fatalf("load first company: %v", err)
	}
	if first.SupportMeasures == nil || !*first.SupportMeasures {
		t.Fatalf("support measures: want=true got=%v", first.SupportMeasures)
	}
	if first.ConfirmationStatus != types.ConfirmationUnconfirmed {
		t.Fatalf("status: want=%q got=%q", types.ConfirmationUnconfirmed, first.ConfirmationStatus)
	}
	if len(first.JSONData) == 0 {
		t.Fatalf("json_data: want full row snapshot got empty")
	}

	var second types.Company
	if err := db.First(&second, "inn = ?", 7700000002).Error; err != nil {
		t.Fatalf("load second company: %v", err)
	}
	if second.SupportMeasures == nil || *second.SupportMeasures {
		t.Fatalf("non-sentinel support cell: want=false got=%v", second.SupportMeasures)
	}
}

func TestIngestToleratesBadRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := newTestUser(t, db, "uploader")
	svc := newIngestService(db, 1<<20)

	rows := []string{uploadHeader}
	for i := 1; i <= 10; i++ {
		inn := fmt.Sprintf("77000000%02d", i)
		if i == 5 {
			inn = "не указан"
		}
		rows = append(rows, uploadRow(inn, fmt.Sprintf("Завод-%d", i), "Получены"))
	}

	summary, err := svc.Ingest(ctx, owner.ID, "batch.csv", []byte(strings.Join(rows, "\n")))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.TotalRows != 10 || summary.Persisted != 9 {
		t.Fatalf("summary: want total=10 persisted=9 got total=%d persisted=%d", summary.TotalRows, summary.Persisted)
	}
	if len(summary.RowFailures) != 1 {
		t.Fatalf("failures: want=1 got=%v", summary.RowFailures)
	}
	if summary.RowFailures[0].Row != 5 {
		t.Fatalf("failed row number: want=5 got=%d", summary.RowFailures[0].Row)
	}

	// The nine good rows are durable despite the bad neighbour.
	var companies int64
	if err := db.Model(&types.Company{}).Count(&companies).Error; err != nil {
		t.Fatalf("count companies: %v", err)
	}
	if companies != 9 {
		t.Fatalf("companies: want=9 got=%d", companies)
	}

	owned, err := repos.NewCompanyRepo(db, logger.NewNop()).ListByOwner(ctx, nil, owner.ID, 20, 0)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(owned) != 9 {
		t.Fatalf("owned companies: want=9 got=%d", len(owned))
	}
}

func TestIngestPreviewTruncatedToFive(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := newTestUser(t, db, "uploader")
	svc := newIngestService(db, 1<<20)

	rows := []string{uploadHeader}
	for i := 1; i <= 7; i++ {
		rows = append(rows, uploadRow(fmt.Sprintf("77000000%02d", i), fmt.Sprintf("Завод-%d", i), "Получены"))
	}

	summary, err := svc.Ingest(ctx, owner.ID, "batch.csv", []byte(strings.Join(rows, "\n")))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.Persisted != 7 {
		t.Fatalf("persisted: want=7 got=%d", summary.Persisted)
	}
	if len(summary.Companies) != 5 {
		t.Fatalf("preview: want=5 got=%d", len(summary.Companies))
	}
	if summary.Companies[0].Name != "Завод-1" {
		t.Fatalf("preview order: want first=Завод-1 got=%s", summary.Companies[0].Name)
	}
}

func TestIngestNoINNDedup(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := newTestUser(t, db, "uploader")
	svc := newIngestService(db, 1<<20)

	payload := []byte(strings.Join([]string{uploadHeader, uploadRow("7700000001", "Завод", "Получены")}, "\n"))
	for i := 0; i < 2; i++ {
		if _, err := svc.Ingest(ctx, owner.ID, "batch.csv", payload); err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
	}

	var companies int64
	if err := db.Model(&types.Company{}).Where("inn = ?", 7700000001).Count(&companies).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if companies != 2 {
		t.Fatalf("re-ingested inn: want=2 rows got=%d", companies)
	}
}

func TestIngestSizeCeiling(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := newTestUser(t, db, "uploader")
	svc := newIngestService(db, 64)

	payload := []byte(strings.Join([]string{uploadHeader, uploadRow("7700000001", "Завод", "Получены")}, "\n"))
	if _, err := svc.Ingest(ctx, owner.ID, "big.csv", payload); !errors.Is(err, apperr.ErrSizeLimit) {
		t.Fatalf("oversized payload: want=ErrSizeLimit got=%v", err)
	}

	var companies int64
	if err := db.Model(&types.Company{}).Count(&companies).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if companies != 0 {
		t.Fatalf("after rejection: want=0 rows got=%d", companies)
	}
}

func TestIngestRejectsInvalidPayload(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := newTestUser(t, db, "uploader")
	svc := newIngestService(db, 1<<20)

	if _, err := svc.Ingest(ctx, owner.ID, "bad.csv", []byte{0xff, 0xfe}); !errors.Is(err, apperr.ErrParse) {
		t.Fatalf("invalid encoding: want=ErrParse got=%v", err)
	}
	if _, err := svc.Ingest(ctx, owner.ID, "empty.csv", nil); !errors.Is(err, apperr.ErrParse) {
		t.Fatalf("empty payload: want=ErrParse got=%v", err)
	}
}

func TestIngestRequiresOwner(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := newIngestService(db, 1<<20)

	if _, err := svc.Ingest(ctx, uuid.Nil, "x.csv", []byte("a\n1\n")); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("missing owner: want=ErrUnauthorized got=%v", err)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"cyrillic stripped", "годовой отчет 2024.csv", "__2024.csv"},
		{"already safe", "report.csv", "report.csv"},
		{"extension forced", "report.txt", "report.txt.csv"},
		{"hidden file", ".env", "file.csv"},
		{"empty", "", "file.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.in); got != tt.want {
				t.Fatalf("SanitizeFileName(%q): want=%q got=%q", tt.in, tt.want, got)
			}
		})
	}
}

func TestReadLimited(t *testing.T) {
	payload, err := ReadLimited(strings.NewReader("abcde"), 10)
	if err != nil {
		t.Fatalf("under limit: %v", err)
	}
	if string(payload) != "abcde" {
		t.Fatalf("under limit: want=%q got=%q", "abcde", payload)
	}

	if _, err := ReadLimited(strings.NewReader("abcdef"), 5); !errors.Is(err, apperr.ErrSizeLimit) {
		t.Fatalf("over limit: want=ErrSizeLimit got=%v", err)
	}
}
