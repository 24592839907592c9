package domain

import "time"

// SubscriptionCreatedEvent is emitted when a subscription request is created
type SubscriptionCreatedEvent struct {
	SubscriptionID string
	CustomerID     string
	DurationDays   int64
	TotalPayable   float64
	CreatedAt      time.Time
}

// SubscriptionApprovedEvent is emitted when a request is approved
type SubscriptionApprovedEvent struct {
	SubscriptionID string
	CustomerID     string
	ApprovedBy     string
	ApprovedAt     time.Time
}

// SubscriptionRejectedEvent is emitted when a request is rejected
type SubscriptionRejectedEvent struct {
	SubscriptionID string
	CustomerID     string
	RejectedBy     string
	RejectedAt     time.Time
}

// SubscriptionCancelledEvent is emitted when a subscription is cancelled
type SubscriptionCancelledEvent struct {
	SubscriptionID string
	CustomerID     string
	RefundAmount   float64
	RefundSource   RefundSource
	CancelledAt    time.Time
}
