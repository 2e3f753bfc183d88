package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/service"
)

type proposeContractRequest struct {
	GrowerID        string          `json:"grower_id" binding:"required"`
	CropID          *string         `json:"crop_id"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        decimal.Decimal `json:"quantity"`
	Terms           []string        `json:"terms"`
	DeliveryAddress string          `json:"delivery_address" binding:"required"`
	DeliveryDate    string          `json:"delivery_date" binding:"required"`
}

func (h *Handler) proposeContract(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}

	var req proposeContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	growerID, err := uuid.Parse(strings.TrimSpace(req.GrowerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grower_id"})
		return
	}
	cropID, err := parseOptionalUUID(req.CropID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crop_id"})
		return
	}
	deliveryDate, err := parseDate(req.DeliveryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery_date"})
		return
	}

	contract, err := h.contracts.Propose(c.Request.Context(), service.ProposeInput{
		Principal:       principal,
		GrowerID:        growerID,
		CropID:          cropID,
		UnitPrice:       req.UnitPrice,
		Quantity:        req.Quantity,
		Terms:           req.Terms,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    deliveryDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": toContractResponse(*contract)})
}

func (h *Handler) listContracts(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}

	var status *model.ContractStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		parsed, err := parseContractStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = &parsed
	}

	contracts, err := h.contracts.List(c.Request.Context(), principal, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]contractResponse, 0, len(contracts))
	for _, contract := range contracts {
		out = append(out, toContractResponse(contract))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toContractResponse(*contract)})
}

type appendTermsRequest struct {
	Terms []string `json:"terms" binding:"required"`
}

func (h *Handler) appendTerms(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	var req appendTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.AppendTerms(c.Request.Context(), id, principal, req.Terms)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toContractResponse(*contract)})
}

// verifyContract takes a multipart form: the biometric sample as file
// field "biometric" and the payout artifact handle as "payout_artifact".
func (h *Handler) verifyContract(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	var sample []byte
	if header, err := c.FormFile("biometric"); err == nil {
		if h.maxUpload > 0 && header.Size > h.maxUpload {
			c.JSON(http.StatusBadRequest, gin.H{"error": "biometric sample too large"})
			return
		}
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable biometric sample"})
			return
		}
		sample, err = io.ReadAll(file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable biometric sample"})
			return
		}
	}

	event, err := h.contracts.Verify(c.Request.Context(), service.VerifyInput{
		ContractID:      id,
		Principal:       principal,
		BiometricSample: sample,
		PayoutArtifact:  strings.TrimSpace(c.PostForm("payout_artifact")),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toVerificationResponse(*event)})
}

func (h *Handler) listVerifications(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	events, err := h.documents.Verifications(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]verificationResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toVerificationResponse(event))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Handler) withdrawContract(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	contract, err := h.contracts.Withdraw(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toContractResponse(*contract)})
}

type cancelContractRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) cancelContract(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	var req cancelContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.CancelForCause(c.Request.Context(), id, principal, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toContractResponse(*contract)})
}

func (h *Handler) settleContract(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	contract, err := h.contracts.Settle(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toContractResponse(*contract)})
}

func (h *Handler) contractSummary(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	summary, err := h.contracts.Summary(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (h *Handler) contractAgreement(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}
	id, ok := contractID(c)
	if !ok {
		return
	}

	doc, err := h.documents.Agreement(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendDocument(c, doc)
}

func (h *Handler) exportSettlement(c *gin.Context) {
	principal, ok := principal(c)
	if !ok {
		return
	}

	var status *model.ContractStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		parsed, err := parseContractStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = &parsed
	}

	doc, err := h.documents.Export(c.Request.Context(), principal, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendDocument(c, doc)
}

func parseContractStatus(raw string) (model.ContractStatus, error) {
	status := model.ContractStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case model.ContractStatusProposed, model.ContractStatusActive, model.ContractStatusFulfilled, model.ContractStatusCancelled:
		return status, nil
	}
	return "", service.ErrInvalidInput
}
