package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

type PaymentDetails struct {
	TransactionID string     `json:"transactionId,omitempty"`
	Payer         string     `json:"payer,omitempty"`
	Amount        int        `json:"amount"`
	PaidAt        *time.Time `json:"paidTime,omitempty"`
}

type Order struct {
	ID             string            `json:"id"`
	TierCode       TierCode          `json:"type"`
	Status         OrderStatus       `json:"status"`
	BuyerEmail     string            `json:"email"`
	Price          int               `json:"price"`
	PaymentMethod  string            `json:"paymentMethod"`
	CreatedAt      time.Time         `json:"created"`
	PaidAt         *time.Time        `json:"paidAt"`
	LicenseKey     string            `json:"licenseKey,omitempty"`
	Extra          map[string]string `json:"customInfo,omitempty"`
	PaymentDetails PaymentDetails    `json:"paymentDetails"`
}

// CanPay is the rule deciding whether a payment may be applied.
// Paid and cancelled orders are both terminal.
func (o *Order) CanPay() error {
	switch o.Status {
	case OrderPaid:
		return ErrAlreadyPaid
	case OrderCancelled:
		return ErrOrderCancelled
	}
	return nil
}

// MarkPaid moves a pending order to PAID and links the issued license.
func (o *Order) MarkPaid(licenseKey string, details PaymentDetails, at time.Time) error {
	if err := o.CanPay(); err != nil {
		return err
	}
	paidAt := at
	o.Status = OrderPaid
	o.PaidAt = &paidAt
	o.LicenseKey = licenseKey
	o.PaymentDetails = details
	return nil
}

// Cancel is a no-op on an order that is already cancelled.
func (o *Order) Cancel() error {
	if o.Status == OrderPaid {
		return ErrAlreadyPaid
	}
	o.Status = OrderCancelled
	return nil
}

// Clone returns a copy that shares no maps or pointers with o.
func (o Order) Clone() Order {
	if o.PaidAt != nil {
		t := *o.PaidAt
		o.PaidAt = &t
	}
	if o.PaymentDetails.PaidAt != nil {
		t := *o.PaymentDetails.PaidAt
		o.PaymentDetails.PaidAt = &t
	}
	if o.Extra != nil {
		extra := make(map[string]string, len(o.Extra))
		for k, v := range o.Extra {
			extra[k] = v
		}
		o.Extra = extra
	}
	return o
}
