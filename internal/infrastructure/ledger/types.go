package ledger

import (
	"encoding/json"

	"github.com/clinic/backend/internal/domain/shared/valueobject"
)

// responseEnvelope is the wire format every ledger endpoint responds with
type responseEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorBody      `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type refundRequest struct {
	Amount valueobject.Money `json:"amount"`
	Reason string            `json:"reason"`
}
