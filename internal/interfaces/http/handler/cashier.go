package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/clinic/backend/internal/application/cashier"
	"github.com/clinic/backend/internal/domain/billing"
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/clinic/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// CashierHandler handles the cashier payment endpoints: pending debts,
// tender preview and commit, and the payment lifecycle actions.
type CashierHandler struct {
	BaseHandler
	tenders  *cashier.TenderService
	payments *cashier.PaymentService
	stats    *cashier.StatsService
	logger   *zap.Logger
}

// NewCashierHandler creates a new CashierHandler
func NewCashierHandler(tenders *cashier.TenderService, payments *cashier.PaymentService, stats *cashier.StatsService, logger *zap.Logger) *CashierHandler {
	return &CashierHandler{
		tenders:  tenders,
		payments: payments,
		stats:    stats,
		logger:   logger,
	}
}

// TenderResponse is the wire form of a tender commit outcome. Error carries
// the ledger failure message when the commit stopped partway.
type TenderResponse struct {
	AttemptID   uuid.UUID                `json:"attempt_id"`
	Committed   []billing.Payment        `json:"committed"`
	Failed      *billing.AllocationEntry `json:"failed,omitempty"`
	FailedIndex *int                     `json:"failed_index,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

func newTenderResponse(result *cashier.CommitResult) TenderResponse {
	resp := TenderResponse{
		AttemptID: result.AttemptID,
		Committed: result.Committed,
		Failed:    result.Failed,
	}
	if result.Failed != nil {
		idx := result.FailedIndex
		resp.FailedIndex = &idx
		if result.Cause != nil {
			resp.Error = result.Cause.Error()
		}
	}
	return resp
}

// GetPending lists patients with outstanding debt
func (h *CashierHandler) GetPending(c *gin.Context) {
	req := dto.PendingListRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	q := billing.PendingQuery{
		DateFrom: parseDate(req.DateFrom),
		DateTo:   parseDate(req.DateTo),
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	page, err := h.tenders.PendingDebts(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// PreviewTender shows how a tendered amount would split across the
// patient's visits without committing anything
func (h *CashierHandler) PreviewTender(c *gin.Context) {
	req, ok := h.bindTender(c)
	if !ok {
		return
	}

	preview, err := h.tenders.Preview(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, preview)
}

// Tender commits a tendered amount against the patient's visits. A fully
// committed tender returns 201; a partially committed one returns 207 with
// both the committed payments and the entry that failed.
func (h *CashierHandler) Tender(c *gin.Context) {
	req, ok := h.bindTender(c)
	if !ok {
		return
	}

	result, err := h.tenders.Tender(c.Request.Context(), req)
	if result == nil {
		h.HandleError(c, err)
		return
	}

	if result.Failed != nil {
		requestID := getRequestID(c)
		resp := dto.NewErrorResponseWithRequestID(
			dto.ErrCodePartialCommit,
			"Tender was only partially committed",
			requestID,
		)
		resp.Data = newTenderResponse(result)
		c.JSON(http.StatusMultiStatus, resp)
		return
	}

	h.Created(c, newTenderResponse(result))
}

// GetPayments lists a page of payments together with the grouped view
func (h *CashierHandler) GetPayments(c *gin.Context) {
	req := dto.PaymentListRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	q := billing.PaymentQuery{
		DateFrom: parseDate(req.DateFrom),
		DateTo:   parseDate(req.DateTo),
		Search:   req.Search,
		Status:   billing.PaymentStatus(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	page, groups, err := h.payments.History(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	data := gin.H{
		"payments": page.Items,
		"groups":   groups,
	}
	h.SuccessWithMeta(c, data, page.Total, page.Page, page.PageSize)
}

// ConfirmPayment marks a pending payment as paid
func (h *CashierHandler) ConfirmPayment(c *gin.Context) {
	paymentID, ok := h.bindPaymentID(c)
	if !ok {
		return
	}

	payment, err := h.payments.Confirm(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// CancelPayment voids a payment. Cancellation is terminal.
func (h *CashierHandler) CancelPayment(c *gin.Context) {
	paymentID, ok := h.bindPaymentID(c)
	if !ok {
		return
	}

	// the reason body is optional, an empty request cancels without one
	var req dto.CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindingError(c, err)
		return
	}

	payment, err := h.payments.Cancel(c.Request.Context(), paymentID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// RefundPayment refunds part or all of a paid payment
func (h *CashierHandler) RefundPayment(c *gin.Context) {
	paymentID, ok := h.bindPaymentID(c)
	if !ok {
		return
	}

	var req dto.RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.payments.Refund(c.Request.Context(), paymentID, cashier.RefundRequest{
		Amount: valueobject.NewMoneyIDR(req.Amount),
		Reason: req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetReceipt streams the rendered receipt document for a payment
func (h *CashierHandler) GetReceipt(c *gin.Context) {
	paymentID, ok := h.bindPaymentID(c)
	if !ok {
		return
	}

	receipt, err := h.stats.Receipt(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("X-Receipt-Number", receipt.Number)
	c.Data(http.StatusOK, receipt.ContentType, receipt.Content)
}

// bindTender binds and converts the shared tender request body
func (h *CashierHandler) bindTender(c *gin.Context) (cashier.TenderRequest, bool) {
	var req dto.TenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return cashier.TenderRequest{}, false
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "patient_id is not a valid UUID")
		return cashier.TenderRequest{}, false
	}

	return cashier.TenderRequest{
		PatientID: patientID,
		Tendered:  valueobject.NewMoneyIDR(req.Amount),
		Method:    billing.PaymentMethod(req.Method),
		Note:      req.Note,
	}, true
}

// bindPaymentID binds the :id path parameter
func (h *CashierHandler) bindPaymentID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Payment id must be a valid UUID")
		return uuid.Nil, false
	}
	paymentID, err := uuid.Parse(req.ID)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Payment id must be a valid UUID")
		return uuid.Nil, false
	}
	return paymentID, true
}

// parseDate parses an optional yyyy-mm-dd query value. Binding has already
// validated the format, so parse failures collapse to nil.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// RegisterRoutes registers all cashier routes
func (h *CashierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cashierGroup := rg.Group("/cashier")
	{
		cashierGroup.GET("/pending", h.GetPending)
		cashierGroup.POST("/tenders/preview", h.PreviewTender)
		cashierGroup.POST("/tenders", h.Tender)
		cashierGroup.GET("/payments", h.GetPayments)
		cashierGroup.POST("/payments/:id/confirm", h.ConfirmPayment)
		cashierGroup.POST("/payments/:id/cancel", h.CancelPayment)
		cashierGroup.POST("/payments/:id/refund", h.RefundPayment)
		cashierGroup.GET("/payments/:id/receipt", h.GetReceipt)
	}
}
