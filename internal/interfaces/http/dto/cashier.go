package dto

// LoginRequest carries cashier login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued session token
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

// TenderRequest is one cashier tender (or preview) against a patient's
// outstanding debt. Amount is in integer minor units of the clinic currency.
type TenderRequest struct {
	PatientID string `json:"patient_id" binding:"required,uuid"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Method    string `json:"method" binding:"required,oneof=cash card"`
	Note      string `json:"note" binding:"omitempty,max=500"`
}

// CancelPaymentRequest carries the cancellation reason
type CancelPaymentRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// RefundPaymentRequest carries the refund amount and mandatory reason.
// The reason length floor matches the domain guard so obviously bad input
// fails at binding instead of a round trip into the service. The refundable
// ceiling is enforced by the remote ledger; an over-ceiling amount comes
// back as ERR_EXCEEDS_REFUNDABLE rather than failing at binding.
type RefundPaymentRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// PendingListRequest filters the pending-debt listing
type PendingListRequest struct {
	ListRequest
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
}

// PaymentListRequest filters the payment history listing
type PaymentListRequest struct {
	ListRequest
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Status   string `form:"status" binding:"omitempty,oneof=pending paid partial cancelled refunded"`
}

// StatsRequest selects the date range for aggregate stats
type StatsRequest struct {
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
}

// HourlyStatsRequest selects the day for the hourly breakdown
type HourlyStatsRequest struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}
