package handler

import (
	"net/http"

	"shelfwise/internal/apierror"
	"shelfwise/internal/dto"
	"shelfwise/internal/middleware"
	"shelfwise/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// Stage godoc
// @Summary Stage a quantity change for confirmation
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body dto.StageAdjustmentRequest true "Target quantity"
// @Success 201 {object} dto.PendingAdjustmentResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/products/{id}/stock/stage [post]
func (h *StockHandler) Stage(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.StageAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Stage(c.Request.Context(), middleware.BusinessID(c), productID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StockHandler) GetPending(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.BusinessID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) CancelPending(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), middleware.BusinessID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ConfirmPending godoc
// @Summary Commit a pending adjustment to the ledger
// @Description A failed commit leaves the adjustment pending with last_error set;
// @Description the response carries it so the client can retry.
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pending adjustment ID"
// @Param body body dto.ConfirmAdjustmentRequest false "Money side of the change"
// @Success 200 {object} dto.PendingAdjustmentResponse
// @Failure 409 {object} apierror.CommitError
// @Router /v1/stock/pending/{id}/confirm [post]
func (h *StockHandler) ConfirmPending(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ConfirmAdjustmentRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	businessID := middleware.BusinessID(c)
	resp, err := h.svc.Confirm(c.Request.Context(), businessID, id, req)
	if err == nil {
		c.JSON(http.StatusOK, resp)
		return
	}
	if resp == nil {
		writeServiceError(c, err)
		return
	}

	status, known := errorStatus(err)
	if !known {
		log.Error().Err(err).
			Str("business_id", businessID.String()).
			Str("adjustment_id", id.String()).
			Msg("stock: commit failed")
	}
	detail := "Adjustment could not be committed"
	if known {
		detail = err.Error()
	}
	c.JSON(status, apierror.NewCommit(detail, resp))
}

// ListActions godoc
// @Summary Ledger entries of a product, newest first
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param type query string false "add or remove"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 100, max 500)"
// @Success 200 {object} dto.ActionListResponse
// @Router /v1/products/{id}/actions [get]
func (h *StockHandler) ListActions(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var q dto.ActionListQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListActions(c.Request.Context(), middleware.BusinessID(c), productID, q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
