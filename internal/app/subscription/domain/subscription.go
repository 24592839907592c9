package domain

import (
	"time"
)

// Status represents the review state of a subscription request
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalizes an inbound status string. Unknown values coerce to
// pending rather than failing; the admin portal has always relied on this.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return Status(s)
	}
	return StatusPending
}

// validTransitions defines the allowed status transitions.
var validTransitions = map[Status]map[Status]bool{
	StatusPending:  {StatusApproved: true, StatusRejected: true, StatusCancelled: true},
	StatusApproved: {StatusCancelled: true},
}

// CanTransition reports whether a subscription may move from one status to another.
func CanTransition(from, to Status) bool {
	return validTransitions[from][to]
}

// Selection is one meal type the customer subscribed to, with its chosen package.
type Selection struct {
	MealType    string  `json:"mealType"`
	PackageID   string  `json:"packageId"`
	PackageName string  `json:"packageName,omitempty"`
	PerDayPrice float64 `json:"perDayPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

// Summary holds the checkout totals the customer actually paid.
type Summary struct {
	Subtotal        float64 `json:"subtotal"`
	DiscountPercent float64 `json:"discountPercent,omitempty"`
	DiscountAmount  float64 `json:"discountAmount,omitempty"`
	CouponCode      string  `json:"couponCode,omitempty"`
	CouponAmount    float64 `json:"couponAmount,omitempty"`
	TotalPayable    float64 `json:"totalPayable"`
	Currency        string  `json:"currency,omitempty"`
}

// SubscriptionRequest is the aggregate root for a customer's purchased meal plan
type SubscriptionRequest struct {
	id             string
	customerID     string
	categoryID     string
	dietPreference string
	durationDays   int64
	startDate      time.Time
	endDate        time.Time
	selections     []Selection
	summary        Summary
	status         Status
	pausedMeals    []PausedMeal
	refundInfo     *RefundInfo
	adminNote      string
	reviewedBy     string
	cancelledAt    *time.Time
	createdAt      time.Time
	processedAt    *time.Time
}

// NewSubscriptionRequest creates a new subscription request aggregate.
// Requests always start out pending; approval is a separate staff action.
func NewSubscriptionRequest(id, customerID, categoryID, dietPreference string, durationDays int64, startDate time.Time, selections []Selection, summary Summary, clock Clock) (*SubscriptionRequest, *SubscriptionCreatedEvent, error) {
	if customerID == "" {
		return nil, nil, ErrInvalidCustomerID
	}
	if durationDays <= 0 {
		return nil, nil, ErrInvalidDuration
	}
	if len(selections) == 0 {
		return nil, nil, ErrNoSelections
	}
	if summary.Currency == "" {
		summary.Currency = DefaultCurrency
	}

	start := startOfDay(startDate)
	now := clock.Now()

	sub := &SubscriptionRequest{
		id:             id,
		customerID:     customerID,
		categoryID:     categoryID,
		dietPreference: dietPreference,
		durationDays:   durationDays,
		startDate:      start,
		endDate:        start.AddDate(0, 0, int(durationDays-1)),
		selections:     selections,
		summary:        summary,
		status:         StatusPending,
		createdAt:      now,
	}

	event := &SubscriptionCreatedEvent{
		SubscriptionID: id,
		CustomerID:     customerID,
		DurationDays:   durationDays,
		TotalPayable:   summary.TotalPayable,
		CreatedAt:      now,
	}

	return sub, event, nil
}

// Approve moves a pending request to approved.
func (s *SubscriptionRequest) Approve(reviewedBy, note string, clock Clock) (*SubscriptionApprovedEvent, error) {
	if !CanTransition(s.status, StatusApproved) {
		return nil, ErrInvalidTransition
	}
	now := clock.Now()
	s.status = StatusApproved
	s.reviewedBy = reviewedBy
	s.adminNote = note
	s.processedAt = &now

	return &SubscriptionApprovedEvent{
		SubscriptionID: s.id,
		CustomerID:     s.customerID,
		ApprovedBy:     reviewedBy,
		ApprovedAt:     now,
	}, nil
}

// Reject moves a pending request to rejected.
func (s *SubscriptionRequest) Reject(reviewedBy, note string, clock Clock) (*SubscriptionRejectedEvent, error) {
	if !CanTransition(s.status, StatusRejected) {
		return nil, ErrInvalidTransition
	}
	now := clock.Now()
	s.status = StatusRejected
	s.reviewedBy = reviewedBy
	s.adminNote = note
	s.processedAt = &now

	return &SubscriptionRejectedEvent{
		SubscriptionID: s.id,
		CustomerID:     s.customerID,
		RejectedBy:     reviewedBy,
		RejectedAt:     now,
	}, nil
}

// Cancel moves a pending or approved request to cancelled and records the
// computed refund. RefundInfo is written exactly once; a cancelled request
// never changes again.
func (s *SubscriptionRequest) Cancel(info RefundInfo, reviewedBy, note string, clock Clock) (*SubscriptionCancelledEvent, error) {
	if s.status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if !CanTransition(s.status, StatusCancelled) {
		return nil, ErrInvalidTransition
	}
	now := clock.Now()
	s.status = StatusCancelled
	s.refundInfo = &info
	s.reviewedBy = reviewedBy
	s.adminNote = note
	s.cancelledAt = &now
	s.processedAt = &now

	return &SubscriptionCancelledEvent{
		SubscriptionID: s.id,
		CustomerID:     s.customerID,
		RefundAmount:   info.Amount,
		RefundSource:   info.Source,
		CancelledAt:    now,
	}, nil
}

// UpdateFields is a partial update of the mutable subscription fields.
// Nil pointers mean "leave unchanged". Status, dates and refund info are
// deliberately not part of it.
type UpdateFields struct {
	DietPreference *string
	AdminNote      *string
	PausedMeals    *[]PausedMeal
}

// ApplyUpdate applies a partial update to the aggregate. Cancelled and
// rejected requests are closed and cannot be updated in place.
func (s *SubscriptionRequest) ApplyUpdate(fields UpdateFields) error {
	if s.status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if s.status == StatusRejected {
		return ErrInvalidTransition
	}
	if fields.DietPreference != nil {
		s.dietPreference = *fields.DietPreference
	}
	if fields.AdminNote != nil {
		s.adminNote = *fields.AdminNote
	}
	if fields.PausedMeals != nil {
		s.pausedMeals = DedupePausedMeals(*fields.PausedMeals)
	}
	return nil
}

// ReconstructFromPersistence recreates a subscription request from the store.
// Paused meals are deduplicated on the way in so the aggregate invariant
// holds regardless of what the store row contains.
func ReconstructFromPersistence(id, customerID, categoryID, dietPreference string, durationDays int64, startDate, endDate time.Time, selections []Selection, summary Summary, status Status, pausedMeals []PausedMeal, refundInfo *RefundInfo, adminNote, reviewedBy string, cancelledAt *time.Time, createdAt time.Time, processedAt *time.Time) *SubscriptionRequest {
	if summary.Currency == "" {
		summary.Currency = DefaultCurrency
	}
	return &SubscriptionRequest{
		id:             id,
		customerID:     customerID,
		categoryID:     categoryID,
		dietPreference: dietPreference,
		durationDays:   durationDays,
		startDate:      startDate,
		endDate:        endDate,
		selections:     selections,
		summary:        summary,
		status:         status,
		pausedMeals:    DedupePausedMeals(pausedMeals),
		refundInfo:     refundInfo,
		adminNote:      adminNote,
		reviewedBy:     reviewedBy,
		cancelledAt:    cancelledAt,
		createdAt:      createdAt,
		processedAt:    processedAt,
	}
}

// Getters (no setters!)
func (s *SubscriptionRequest) ID() string {
	return s.id
}

func (s *SubscriptionRequest) CustomerID() string {
	return s.customerID
}

func (s *SubscriptionRequest) CategoryID() string {
	return s.categoryID
}

func (s *SubscriptionRequest) DietPreference() string {
	return s.dietPreference
}

func (s *SubscriptionRequest) DurationDays() int64 {
	return s.durationDays
}

func (s *SubscriptionRequest) StartDate() time.Time {
	return s.startDate
}

func (s *SubscriptionRequest) EndDate() time.Time {
	return s.endDate
}

func (s *SubscriptionRequest) Selections() []Selection {
	return s.selections
}

func (s *SubscriptionRequest) Summary() Summary {
	return s.summary
}

func (s *SubscriptionRequest) Status() Status {
	return s.status
}

func (s *SubscriptionRequest) PausedMeals() []PausedMeal {
	return s.pausedMeals
}

func (s *SubscriptionRequest) RefundInfo() *RefundInfo {
	return s.refundInfo
}

func (s *SubscriptionRequest) AdminNote() string {
	return s.adminNote
}

func (s *SubscriptionRequest) ReviewedBy() string {
	return s.reviewedBy
}

func (s *SubscriptionRequest) CancelledAt() *time.Time {
	return s.cancelledAt
}

func (s *SubscriptionRequest) CreatedAt() time.Time {
	return s.createdAt
}

func (s *SubscriptionRequest) ProcessedAt() *time.Time {
	return s.processedAt
}

// SelectedPackageIDs returns the package ids across all selections.
func (s *SubscriptionRequest) SelectedPackageIDs() []string {
	ids := make([]string, 0, len(s.selections))
	for _, sel := range s.selections {
		ids = append(ids, sel.PackageID)
	}
	return ids
}

// startOfDay normalizes a timestamp to midnight UTC of its calendar day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
