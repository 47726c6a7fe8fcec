package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/services"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

type DataHandler struct {
	log                 *logger.Logger
	consolidatedService services.ConsolidatedService
}

func NewDataHandler(log *logger.Logger, consolidatedService services.ConsolidatedService) *DataHandler {
	return &DataHandler{
		log:                 log.With("handler", "DataHandler"),
		consolidatedService: consolidatedService,
	}
}

// POST /api/data
func (dh *DataHandler) Create(c *gin.Context) {
	var record types.ConsolidatedRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		RespondError(c, fmt.Errorf("%w: invalid request body", apperr.ErrValidation))
		return
	}
	created, err := dh.consolidatedService.Create(c.Request.Context(), &record)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GET /api/data?limit=&offset=
func (dh *DataHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)
	records, err := dh.consolidatedService.List(c.Request.Context(), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, records)
}

// GET /api/data/:id
func (dh *DataHandler) Get(c *gin.Context) {
	recordID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	record, err := dh.consolidatedService.Get(c.Request.Context(), recordID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, record)
}

// PATCH /api/data/:id
func (dh *DataHandler) Update(c *gin.Context) {
	recordID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	var patch types.ConsolidatedRecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, fmt.Errorf("%w: invalid request body", apperr.ErrValidation))
		return
	}
	record, err := dh.consolidatedService.Update(c.Request.Context(), recordID, patch)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, record)
}

// POST /api/data/:id/confirm
func (dh *DataHandler) Confirm(c *gin.Context) {
	recordID, err := pathID(c)
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
	record, err := dh.consolidatedService.Confirm(c.Request.Context(), recordID, req.Kind, req.ConfirmerIdentifier)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, record)
}

// DELETE /api/data/:id
func (dh *DataHandler) Delete(c *gin.Context) {
	recordID, err := pathID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	found, err := dh.consolidatedService.Delete(c.Request.Context(), recordID)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !found {
		RespondError(c, fmt.Errorf("%w: consolidated record %s", apperr.ErrNotFound, recordID))
		return
	}
	c.Status(http.StatusNoContent)
}
