// Package ledger implements the HTTP client for the remote payment ledger.
// The ledger backend owns all payment records; this client only relays
// operations and maps wire errors onto domain errors.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinic/backend/internal/domain/billing"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/clinic/backend/internal/infrastructure/config"
)

const (
	pendingPaymentsPath = "/api/payments/pending"
	paymentsPath        = "/api/payments"
	confirmPaymentPath  = "/api/payments/%s/confirm"
	cancelPaymentPath   = "/api/payments/%s/cancel"
	refundPaymentPath   = "/api/payments/%s/refund"
	receiptPath         = "/api/payments/%s/receipt"
	statsPath           = "/api/payments/stats"
	hourlyStatsPath     = "/api/payments/stats/hourly"

	apiKeyHeader = "X-API-Key"
	dateLayout   = "2006-01-02"
)

// ErrUnavailable indicates the ledger backend could not be reached
var ErrUnavailable = errors.New("ledger unavailable")

// Client is the HTTP client for the remote payment ledger. It implements
// billing.Ledger.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ billing.Ledger = (*Client)(nil)

// NewClient creates a new ledger client from configuration
func NewClient(cfg config.LedgerConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GetPendingPayments lists patients with outstanding debt
func (c *Client) GetPendingPayments(ctx context.Context, q billing.PendingQuery) (*billing.Page[billing.PendingDebtAggregate], error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	addDateRange(query, q.DateFrom, q.DateTo)
	addPaging(query, q.Page, q.PageSize)

	var page billing.Page[billing.PendingDebtAggregate]
	if err := c.get(ctx, pendingPaymentsPath, query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPayments lists payment records
func (c *Client) GetPayments(ctx context.Context, q billing.PaymentQuery) (*billing.Page[billing.Payment], error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.Status != "" {
		query.Set("status", q.Status.String())
	}
	addDateRange(query, q.DateFrom, q.DateTo)
	addPaging(query, q.Page, q.PageSize)

	var page billing.Page[billing.Payment]
	if err := c.get(ctx, paymentsPath, query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreatePayment creates one payment record against a visit
func (c *Client) CreatePayment(ctx context.Context, in billing.CreatePaymentInput) (*billing.Payment, error) {
	var payment billing.Payment
	if err := c.post(ctx, paymentsPath, in, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ConfirmPayment transitions a payment toward paid
func (c *Client) ConfirmPayment(ctx context.Context, paymentID uuid.UUID) (*billing.Payment, error) {
	var payment billing.Payment
	path := fmt.Sprintf(confirmPaymentPath, paymentID)
	if err := c.post(ctx, path, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CancelPayment voids a payment with an optional reason
func (c *Client) CancelPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*billing.Payment, error) {
	var payment billing.Payment
	path := fmt.Sprintf(cancelPaymentPath, paymentID)
	body := cancelRequest{Reason: reason}
	if err := c.post(ctx, path, body, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// RefundPayment applies a partial or full refund
func (c *Client) RefundPayment(ctx context.Context, paymentID uuid.UUID, amount valueobject.Money, reason string) (*billing.RefundResult, error) {
	var result billing.RefundResult
	path := fmt.Sprintf(refundPaymentPath, paymentID)
	body := refundRequest{Amount: amount, Reason: reason}
	if err := c.post(ctx, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetReceipt fetches the printable receipt the ledger rendered for a payment
func (c *Client) GetReceipt(ctx context.Context, paymentID uuid.UUID) (*billing.Receipt, error) {
	var receipt billing.Receipt
	path := fmt.Sprintf(receiptPath, paymentID)
	if err := c.get(ctx, path, nil, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// GetStats fetches pre-aggregated payment totals for a date range
func (c *Client) GetStats(ctx context.Context, dateFrom, dateTo *time.Time) (*billing.Stats, error) {
	query := url.Values{}
	addDateRange(query, dateFrom, dateTo)

	var stats billing.Stats
	if err := c.get(ctx, statsPath, query, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetHourlyStats fetches per-hour payment volume for a target date
func (c *Client) GetHourlyStats(ctx context.Context, targetDate time.Time) ([]billing.HourlyStat, error) {
	query := url.Values{}
	query.Set("date", targetDate.Format(dateLayout))

	var stats []billing.HourlyStat
	if err := c.get(ctx, hourlyStatsPath, query, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, nil, body, out)
}

// doRequest issues one request against the ledger and decodes the response
// envelope into out. Backend-reported errors come back as domain errors so
// the application layer can relay their codes untouched.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ledger: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("ledger: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ledger: failed to read response: %w", err)
	}

	var envelope responseEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		if resp.StatusCode >= 400 {
			return shared.NewDomainError("LEDGER_ERROR", fmt.Sprintf("Ledger returned HTTP %d", resp.StatusCode))
		}
		return fmt.Errorf("ledger: failed to parse response: %w", err)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		if envelope.Error != nil && envelope.Error.Code != "" {
			return shared.NewDomainError(envelope.Error.Code, envelope.Error.Message)
		}
		return shared.NewDomainError("LEDGER_ERROR", fmt.Sprintf("Ledger returned HTTP %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("ledger: failed to parse response data: %w", err)
	}
	return nil
}

func addDateRange(query url.Values, dateFrom, dateTo *time.Time) {
	if dateFrom != nil {
		query.Set("date_from", dateFrom.Format(dateLayout))
	}
	if dateTo != nil {
		query.Set("date_to", dateTo.Format(dateLayout))
	}
}

func addPaging(query url.Values, page, pageSize int) {
	if page > 0 {
		query.Set("page", fmt.Sprintf("%d", page))
	}
	if pageSize > 0 {
		query.Set("page_size", fmt.Sprintf("%d", pageSize))
	}
}
