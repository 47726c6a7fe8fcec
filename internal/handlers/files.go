package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/requestdata"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/services"
)

var csvContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // browsers often send this one
}

type FileHandler struct {
	log           *logger.Logger
	ingestService services.IngestService
	maxSizeBytes  int64
}

func NewFileHandler(log *logger.Logger, ingestService services.IngestService, maxSizeBytes int64) *FileHandler {
	return &FileHandler{
		log:           log.With("handler", "FileHandler"),
		ingestService: ingestService,
		maxSizeBytes:  maxSizeBytes,
	}
}

// POST /api/files/upload — multipart upload of one CSV payload, ingested
// synchronously within this request.
func (fh *FileHandler) Upload(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, fmt.Errorf("%w: no caller identity", apperr.ErrUnauthorized))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, fmt.Errorf("%w: missing multipart field %q", apperr.ErrValidation, "file"))
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !csvContentTypes[contentType] && !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		c.JSON(http.StatusUnsupportedMediaType, ErrorEnvelope{Error: APIError{
			Message: "only CSV files are allowed",
			Code:    "unsupported_media_type",
		}})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, fmt.Errorf("%w: %v", apperr.ErrParse, err))
		return
	}
	defer file.Close()

	payload, err := services.ReadLimited(file, fh.maxSizeBytes)
	if err != nil {
		RespondError(c, err)
		return
	}

	fh.log.Info("Uploading file", "file", fileHeader.Filename, "user", rd.Username, "size", len(payload))
	summary, err := fh.ingestService.Ingest(c.Request.Context(), rd.UserID, fileHeader.Filename, payload)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, summary)
}
