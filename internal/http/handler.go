package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/greenpact-settlement/internal/http/middleware"
	"github.com/nurpe/greenpact-settlement/internal/model"
	"github.com/nurpe/greenpact-settlement/internal/service"
	"github.com/nurpe/greenpact-settlement/internal/settlement"
)

type Handler struct {
	contracts *service.ContractService
	documents *service.DocumentService
	log       zerolog.Logger
	maxUpload int64
}

func NewHandler(contracts *service.ContractService, documents *service.DocumentService, maxUpload int64, log zerolog.Logger) *Handler {
	return &Handler{contracts: contracts, documents: documents, maxUpload: maxUpload, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/contracts", h.proposeContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/contracts/:id", h.getContract)
	protected.POST("/contracts/:id/terms", h.appendTerms)
	protected.POST("/contracts/:id/verify", h.verifyContract)
	protected.GET("/contracts/:id/verifications", h.listVerifications)
	protected.POST("/contracts/:id/withdraw", h.withdrawContract)
	protected.POST("/contracts/:id/cancel", h.cancelContract)
	protected.POST("/contracts/:id/settle", h.settleContract)
	protected.GET("/contracts/:id/summary", h.contractSummary)
	protected.GET("/contracts/:id/agreement.pdf", h.contractAgreement)

	protected.POST("/contracts/:id/payments", h.recordPayment)
	protected.GET("/contracts/:id/payments", h.listPayments)
	protected.POST("/contracts/:id/progress", h.recordProgress)
	protected.GET("/contracts/:id/progress", h.listProgress)
	protected.GET("/contracts/:id/progress/highest", h.highestProgress)
	protected.GET("/contracts/:id/progress/latest", h.latestProgress)

	protected.POST("/files", h.uploadFile)
	protected.GET("/files/:handle", h.downloadFile)

	protected.GET("/admin/export", h.exportSettlement)
}

// principal aborts with 401 when the auth middleware did not run.
func principal(c *gin.Context) (model.Principal, bool) {
	p, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
	}
	return p, ok
}

func contractID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return uuid.Nil, false
	}
	return id, true
}

func sendDocument(c *gin.Context, doc *service.Document) {
	c.Header("Content-Disposition", "attachment; filename=\""+doc.FileName+"\"")
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var (
		balanceErr      *settlement.BalanceError
		verificationErr *settlement.VerificationError
		transitionErr   *settlement.TransitionError
	)
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, settlement.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &balanceErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             err.Error(),
			"remaining_balance": balanceErr.Remaining,
		})
	case errors.As(err, &verificationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":        err.Error(),
			"failed_check": verificationErr.Failed,
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": transitionErr.From})
	case errors.Is(err, settlement.ErrContractClosed), errors.Is(err, settlement.ErrAlreadyActivated):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}
