package handlers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/services"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

type CompanyHandler struct {
	log            *logger.Logger
	companyService services.CompanyService
}

func NewCompanyHandler(log *logger.Logger, companyService services.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		log:            log.With("handler", "CompanyHandler"),
		companyService: companyService,
	}
}

// GET /api/companies?limit=&offset=
func (ch *CompanyHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	companies, total, err := ch.companyService.List(c.Request.Context(), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"companies": companies,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// GET /api/companies/:id
func (ch *CompanyHandler) Get(c *gin.Context) {
	companyID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	company, err := ch.companyService.Get(c.Request.Context(), companyID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, company)
}

// PATCH /api/companies/:id
func (ch *CompanyHandler) Update(c *gin.Context) {
	companyID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	var patch types.CompanyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, fmt.Errorf("%w: invalid request body", apperr.ErrValidation))
		return
	}
	company, err := ch.companyService.Update(c.Request.Context(), companyID, patch)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, company)
}

// PATCH /api/companies/:id/key-metrics
func (ch *CompanyHandler) UpdateKeyMetrics(c *gin.Context) {
	companyID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	var patch types.CompanyKeyMetricsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, fmt.Errorf("%w: invalid request body", apperr.ErrValidation))
		return
	}
	company, err := ch.companyService.UpdateKeyMetrics(c.Request.Context(), companyID, patch)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, company)
}

// GET /api/companies/:id/json-data
func (ch *CompanyHandler) GetJSONData(c *gin.Context) {
	companyID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	data, err := ch.companyService.GetJSONData(c.Request.Context(), companyID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"company_id": companyID, "json_data": data})
}

// PUT /api/companies/:id/json-data
func (ch *CompanyHandler) ReplaceJSONData(c *gin.Context) {
	companyID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	var req struct {
		JSONData datatypes.JSON `json:"json_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, fmt.Errorf("%w: invalid request body", apperr.ErrValidation))
		return
	}
	company, err := ch.companyService.ReplaceJSONData(c.Request.Context(), companyID, req.JSONData)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"company_id": company.ID, "json_data": company.JSONData, "updated_at": company.UpdatedAt})
}

// POST /api/companies/:id/confirm
func (ch *CompanyHandler) Confirm(c *gin.Context) {
	companyID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	var req struct {
		Kind                types.ConfirmerKind `json:"kind"`
		ConfirmerIdentifier string              `json:"confirmer_identifier"`
	}
	// An empty body means "confirm as the caller".
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		RespondError(c, fmt.Errorf("%w: invalid request body", apperr.ErrValidation))
		return
	}
	if req.Kind == "" {
		req.Kind = types.ConfirmerUser
	}
	company, err := ch.companyService.Confirm(c.Request.Context(), companyID, req.Kind, req.ConfirmerIdentifier)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, company)
}

// DELETE /api/companies/:id
func (ch *CompanyHandler) Delete(c *gin.Context) {
	companyID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := ch.companyService.Delete(c.Request.Context(), companyID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "company deleted"})
}

func pathID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", apperr.ErrValidation, c.Param("id"))
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
