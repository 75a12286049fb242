package domain

import (
	"time"
)

// Payment is an append-only audit entry written once per confirmed order.
type Payment struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	LicenseKey string    `json:"licenseKey"`
	Amount     int       `json:"amount"`
	Method     string    `json:"method"`
	OccurredAt time.Time `json:"time"`
	Payer      string    `json:"payer"`
}

// PaymentEvidence is what the payer side reports when confirming. Empty
// fields fall back to the order's own values.
type PaymentEvidence struct {
	TransactionID string
	Payer         string
	Amount        int
}
