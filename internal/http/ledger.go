package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/service"
)

type recordPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	OccurredOn      string          `json:"occurred_on" binding:"required"`
	ReferenceNumber *string         `json:"reference_number"`
	Receipt         *string         `json:"receipt"`
	Description     string          `json:"description"`
}

func (h *Handler) recordPayment(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	occurredOn, err := parseDate(req.OccurredOn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid occurred_on"})
		return
	}

	entry, err := h.contracts.RecordPayment(c.Request.Context(), service.RecordPaymentInput{
		ContractID:      id,
		Principal:       principal,
		Amount:          req.Amount,
		OccurredOn:      occurredOn,
		ReferenceNumber: req.ReferenceNumber,
		Receipt:         req.Receipt,
		Description:     req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": toPaymentResponse(*entry)})
}

func (h *Handler) listPayments(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	entries, err := h.contracts.ListPayments(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]paymentResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toPaymentResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

type recordProgressRequest struct {
	Status     string  `json:"status" binding:"required"`
	ObservedOn string  `json:"observed_on" binding:"required"`
	Notes      string  `json:"notes"`
	Image      *string `json:"image"`
}

func (h *Handler) recordProgress(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	var req recordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := model.ParseProgressStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	observedOn, err := parseDate(req.ObservedOn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid observed_on"})
		return
	}

	entry, err := h.contracts.RecordProgress(c.Request.Context(), service.RecordProgressInput{
		ContractID: id,
		Principal:  principal,
		Status:     status,
		ObservedOn: observedOn,
		Notes:      req.Notes,
		Image:      req.Image,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": toProgressResponse(*entry)})
}

func (h *Handler) listProgress(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	entries, err := h.contracts.ListProgress(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]progressResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toProgressResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Handler) highestProgress(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	milestone, found, err := h.contracts.HighestProgress(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"status":  milestone.Status,
		"percent": milestone.Percent,
		"entry":   toProgressResponse(milestone.Entry),
	}})
}

func (h *Handler) latestProgress(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	entry, err := h.contracts.LatestProgress(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toProgressResponse(*entry)})
}
