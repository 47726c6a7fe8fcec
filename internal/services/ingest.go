package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/csvreader"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/repos"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

// savedPreviewLimit truncates the per-upload summary listing. Display only:
// every persisted row is durable regardless.
const savedPreviewLimit = 5

// SavedCompany is one persisted row in the summary preview.
type SavedCompany struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	INN  int64     `json:"inn"`
}

// RowFailure records one data row that could not be persisted. Row numbers
// are 1-based over data rows, header excluded.
type RowFailure struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// IngestionSummary is always produced unless the whole payload was
// rejected (size ceiling or unparseable payload).
type IngestionSummary struct {
	FileName    string         `json:"file_name"`
	StoredName  string         `json:"stored_name"`
	SizeBytes   int64          `json:"size_bytes"`
	TotalRows   int            `json:"total_rows"`
	Persisted   int            `json:"companies_saved"`
	Companies   []SavedCompany `json:"companies"`
	RowFailures []RowFailure   `json:"row_failures"`
}

// IngestService is the ingestion coordinator: one uploaded file in, one
// summary out. Parsing is all-or-nothing; persistence is row by row, each
// row in its own transaction, so one bad row never rolls back its
// neighbours.
type IngestService interface {
	Ingest(ctx context.Context, ownerID uuid.UUID, fileName string, payload []byte) (*IngestionSummary, error)
}

type ingestService struct {
	db           *gorm.DB
	log          *logger.Logger
	companyRepo  repos.CompanyRepo
	uploadDir    string
	maxSizeBytes int64
}

func NewIngestService(
	db *gorm.DB,
	log *logger.Logger,
	companyRepo repos.CompanyRepo,
	uploadDir string,
	maxSizeBytes int64,
) IngestService {
	return &ingestService{
		db:           db,
		log:          log.With("service", "IngestService"),
		companyRepo:  companyRepo,
		uploadDir:    uploadDir,
		maxSizeBytes: maxSizeBytes,
	}
}

func (is *ingestService) Ingest(ctx context.Context, ownerID uuid.UUID, fileName string, payload []byte) (*IngestionSummary, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: ingestion requires an owner", apperr.ErrUnauthorized)
	}
	if int64(len(payload)) > is.maxSizeBytes {
		return nil, fmt.Errorf("%w: %d bytes over the %d byte ceiling", apperr.ErrSizeLimit, len(payload), is.maxSizeBytes)
	}

	safeName := SanitizeFileName(fileName)
	storedName := fmt.Sprintf("%s_%s", strings.ReplaceAll(uuid.New().String(), "-", ""), safeName)
	if is.uploadDir != "" {
		if err := is.storePayload(storedName, payload); err != nil {
			return nil, err
		}
	}

	// Parse the whole payload before the first write: a parse failure
	// must leave nothing behind.
	delimiter := csvreader.DetectDelimiter(payload)
	reader, err := csvreader.NewReader(payload, delimiter)
	if err != nil {
		return nil, err
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	summary := &IngestionSummary{
		FileName:    safeName,
		StoredName:  storedName,
		SizeBytes:   int64(len(payload)),
		TotalRows:   len(records),
		Companies:   []SavedCompany{},
		RowFailures: []RowFailure{},
	}

	for i, record := range records {
		rowNum := i + 1
		company, rowErr := is.persistRow(ctx, ownerID, record)
		if rowErr != nil {
			is.log.Warn("Row failed to persist", "row", rowNum, "error", rowErr)
			summary.RowFailures = append(summary.RowFailures, RowFailure{Row: rowNum, Reason: rowErr.Error()})
			continue
		}
		summary.Persisted++
		if len(summary.Companies) < savedPreviewLimit {
			summary.Companies = append(summary.Companies, SavedCompany{
				ID:   company.ID,
				Name: company.Name,
				INN:  company.INN,
			})
		}
	}

	is.log.Info("Ingestion finished",
		"file", safeName,
		"rows", summary.TotalRows,
		"persisted", summary.Persisted,
		"failures", len(summary.RowFailures),
	)
	return summary, nil
}

// persistRow writes one Company row and its ownership link in a single
// transaction, so a failure can never leave an orphan company without an
// owner.
func (is *ingestService) persistRow(ctx context.Context, ownerID uuid.UUID, record csvreader.RawRecord) (*types.Company, error) {
	kf := csvreader.ExtractKeyFields(record)
	inn, ok := kf.INNInt64()
	if !ok {
		return nil, fmt.Errorf("%w: tax identifier %q is not numeric", apperr.ErrValidation, kf.INN)
	}
	jsonData, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: row is not serializable: %v", apperr.ErrValidation, err)
	}

	supportMeasures := kf.SupportMeasures
	company := &types.Company{
		ID:                 uuid.New(),
		INN:                inn,
		Name:               kf.Name,
		FullName:           kf.FullName,
		SparkStatus:        kf.SparkStatus,
		MainIndustry:       kf.MainIndustry,
		CompanySizeFinal:   kf.CompanySizeFinal,
		OrganizationType:   kf.OrganizationType,
		SupportMeasures:    &supportMeasures,
		SpecialStatus:      kf.SpecialStatus,
		ConfirmationStatus: types.ConfirmationUnconfirmed,
		JSONData:           jsonData,
	}

	err = is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := is.companyRepo.Create(ctx, tx, []*types.Company{company}); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		if err := is.companyRepo.LinkOwner(ctx, tx, ownerID, company.ID); err != nil {
			return fmt.Errorf("failed to link owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (is *ingestService) storePayload(storedName string, payload []byte) error {
	if err := os.MkdirAll(is.uploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}
	path := filepath.Join(is.uploadDir, storedName)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to store upload: %w", err)
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFileName keeps only safe characters and forces a .csv extension.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeFileChars.ReplaceAllString(name, "")
	if name == "" || strings.HasPrefix(name, ".") {
		name = "file.csv"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}

// ReadLimited drains an upload stream but stops past the ceiling, so an
// oversized body is rejected without buffering all of it.
func ReadLimited(r io.Reader, maxSizeBytes int64) ([]byte, error) {
	payload, err := io.ReadAll(io.LimitReader(r, maxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}
	if int64(len(payload)) > maxSizeBytes {
		return nil, fmt.Errorf("%w: payload over the %d byte ceiling", apperr.ErrSizeLimit, maxSizeBytes)
	}
	return payload, nil
}
