package model

import "time"

// PaymentType is how the customer settles the bill.
type PaymentType string

const (
	PaymentTransfer PaymentType = "transfer"
	PaymentOther    PaymentType = "other"
)

// Valid reports whether t is a known payment type.
func (t PaymentType) Valid() bool { return t == PaymentTransfer || t == PaymentOther }

// PaymentStatus tracks review of a payment. It is terminal once successful.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentRefused    PaymentStatus = "refused"
	PaymentSuccessful PaymentStatus = "successful"
)

// Payment is the single financial record of a task. Amount is maintained by
// the technician and is never recomputed from the detail lines.
type Payment struct {
	ID        uint64        `json:"id"`         // payments.id
	TaskID    uint64        `json:"task_id"`    // payments.task_id (unique)
	Type      PaymentType   `json:"type"`       // payments.type
	Amount    float64       `json:"amount"`     // payments.amount
	SlipImage *string       `json:"slip_image"` // payments.slip_image (nullable)
	Status    PaymentStatus `json:"status"`     // payments.status
	CreatedAt time.Time     `json:"created_at"` // payments.created_at
	UpdatedAt time.Time     `json:"updated_at"` // payments.updated_at
}

// Confirmed reports whether the payment reached its terminal state.
func (p *Payment) Confirmed() bool { return p.Status == PaymentSuccessful }

// PaymentDetail is one itemized line of a payment.
type PaymentDetail struct {
	ID        uint64    `json:"id"`
	PaymentID uint64    `json:"payment_id"`
	Detail    string    `json:"detail"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
