package models

import "time"

// RefundStatus tracks a refund request through review and payout.
type RefundStatus string

const (
	RefundPending   RefundStatus = "PENDING"
	RefundApproved  RefundStatus = "APPROVED"
	RefundRejected  RefundStatus = "REJECTED"
	RefundCompleted RefundStatus = "COMPLETED"
	RefundFailed    RefundStatus = "FAILED"
)

// RefundRequest is a parent's request to return a card payment.
type RefundRequest struct {
	ID               string       `db:"id" json:"id"`
	UserID           string       `db:"user_id" json:"user_id"`
	SubscriptionID   *string      `db:"subscription_id" json:"subscription_id,omitempty"`
	OrderID          string       `db:"order_id" json:"order_id"`
	Amount           float64      `db:"amount" json:"amount"`
	CardLast4        *string      `db:"card_last4" json:"card_last4,omitempty"`
	Reason           string       `db:"reason" json:"reason"`
	Status           RefundStatus `db:"status" json:"status"`
	AdminNote        *string      `db:"admin_note" json:"admin_note,omitempty"`
	ProcessedBy      *string      `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt      *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProviderRefundID *string      `db:"provider_refund_id" json:"provider_refund_id,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}

// RefundFilter narrows the admin refund queue.
type RefundFilter struct {
	Status   *RefundStatus
	UserID   string
	Page     int
	PageSize int
}

// RefundStatistics summarises the refund queue.
type RefundStatistics struct {
	Pending       int     `db:"pending" json:"pending"`
	Approved      int     `db:"approved" json:"approved"`
	Rejected      int     `db:"rejected" json:"rejected"`
	Completed     int     `db:"completed" json:"completed"`
	Failed        int     `db:"failed" json:"failed"`
	TotalRefunded float64 `db:"total_refunded" json:"total_refunded"`
}
