package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
	"github.com/mealtrail/subscription-service/internal/app/subscription/usecases/create_subscription"
	"github.com/mealtrail/subscription-service/internal/app/subscription/usecases/preview_cancellation"
	"github.com/mealtrail/subscription-service/internal/app/subscription/usecases/update_status"
	"github.com/mealtrail/subscription-service/internal/app/subscription/usecases/update_subscription"
)

const dateLayout = "2006-01-02"

// SubscriptionHandler exposes the subscription use cases as JSON endpoints
type SubscriptionHandler struct {
	create  *create_subscription.Interactor
	status  *update_status.Interactor
	preview *preview_cancellation.Interactor
	update  *update_subscription.Interactor
	repo    contracts.SubscriptionRepository
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(create *create_subscription.Interactor, status *update_status.Interactor, preview *preview_cancellation.Interactor, update *update_subscription.Interactor, repo contracts.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{
		create:  create,
		status:  status,
		preview: preview,
		update:  update,
		repo:    repo,
	}
}

type pausedMealDTO struct {
	Date     string `json:"date"`
	MealType string `json:"mealType"`
}

type createSubscriptionRequest struct {
	CustomerID     string             `json:"customerId"`
	CategoryID     string             `json:"categoryId"`
	DietPreference string             `json:"dietPreference"`
	DurationDays   int64              `json:"durationDays"`
	StartDate      string             `json:"startDate"`
	Selections     []domain.Selection `json:"selections"`
	Summary        domain.Summary     `json:"summary"`
}

type updateStatusRequest struct {
	Status     string `json:"status"`
	Note       string `json:"note"`
	ReviewedBy string `json:"reviewedBy"`
}

type updateSubscriptionRequest struct {
	DietPreference *string          `json:"dietPreference"`
	AdminNote      *string          `json:"adminNote"`
	PausedMeals    *[]pausedMealDTO `json:"pausedMeals"`
}

type subscriptionResponse struct {
	ID             string             `json:"id"`
	CustomerID     string             `json:"customerId"`
	CategoryID     string             `json:"categoryId,omitempty"`
	DietPreference string             `json:"dietPreference,omitempty"`
	DurationDays   int64              `json:"durationDays"`
	StartDate      string             `json:"startDate"`
	EndDate        string             `json:"endDate"`
	Selections     []domain.Selection `json:"selections"`
	Summary        domain.Summary     `json:"summary"`
	Status         string             `json:"status"`
	PausedMeals    []pausedMealDTO    `json:"pausedMeals,omitempty"`
	RefundInfo     *domain.RefundInfo `json:"refundInfo,omitempty"`
	AdminNote      string             `json:"adminNote,omitempty"`
	ReviewedBy     string             `json:"reviewedBy,omitempty"`
	CancelledAt    *time.Time         `json:"cancelledAt,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// Create handles POST /api/subscriptions
func (h *SubscriptionHandler) Create(c echo.Context) error {
	var req createSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "startDate must be YYYY-MM-DD")
	}

	sub, _, err := h.create.Execute(c.Request().Context(), create_subscription.Request{
		CustomerID:     req.CustomerID,
		CategoryID:     req.CategoryID,
		DietPreference: req.DietPreference,
		DurationDays:   req.DurationDays,
		StartDate:      startDate,
		Selections:     req.Selections,
		Summary:        req.Summary,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, toResponse(sub))
}

// Get handles GET /api/subscriptions/:id
func (h *SubscriptionHandler) Get(c echo.Context) error {
	sub, err := h.repo.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toResponse(sub))
}

// UpdateStatus handles PATCH /api/subscriptions/:id/status. A "cancelled"
// status runs the cancellation saga.
func (h *SubscriptionHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	reviewedBy := req.ReviewedBy
	if reviewedBy == "" {
		reviewedBy, _ = c.Get("userUID").(string)
	}

	sub, err := h.status.Execute(c.Request().Context(), update_status.Request{
		SubscriptionID: c.Param("id"),
		Status:         req.Status,
		Note:           req.Note,
		ReviewedBy:     reviewedBy,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, toResponse(sub))
}

// PreviewCancellation handles GET /api/subscriptions/:id/refund-preview
func (h *SubscriptionHandler) PreviewCancellation(c echo.Context) error {
	var asOf *time.Time
	if v := c.QueryParam("asOf"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "asOf must be YYYY-MM-DD")
		}
		asOf = &t
	}

	info, err := h.preview.Execute(c.Request().Context(), c.Param("id"), asOf)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, info)
}

// Update handles PATCH /api/subscriptions/:id. A pausedMeals field triggers
// the paused-meal reconciliation saga.
func (h *SubscriptionHandler) Update(c echo.Context) error {
	var req updateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	fields := domain.UpdateFields{
		DietPreference: req.DietPreference,
		AdminNote:      req.AdminNote,
	}
	if req.PausedMeals != nil {
		meals := make([]domain.PausedMeal, 0, len(*req.PausedMeals))
		for _, m := range *req.PausedMeals {
			date, err := time.Parse(dateLayout, m.Date)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "pausedMeals dates must be YYYY-MM-DD")
			}
			meals = append(meals, domain.PausedMeal{Date: date, MealType: m.MealType})
		}
		fields.PausedMeals = &meals
	}

	sub, err := h.update.Execute(c.Request().Context(), update_subscription.Request{
		SubscriptionID: c.Param("id"),
		Fields:         fields,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, toResponse(sub))
}

func toResponse(sub *domain.SubscriptionRequest) subscriptionResponse {
	paused := make([]pausedMealDTO, 0, len(sub.PausedMeals()))
	for _, m := range sub.PausedMeals() {
		paused = append(paused, pausedMealDTO{
			Date:     m.Date.UTC().Format(dateLayout),
			MealType: m.MealType,
		})
	}

	return subscriptionResponse{
		ID:             sub.ID(),
		CustomerID:     sub.CustomerID(),
		CategoryID:     sub.CategoryID(),
		DietPreference: sub.DietPreference(),
		DurationDays:   sub.DurationDays(),
		StartDate:      sub.StartDate().Format(dateLayout),
		EndDate:        sub.EndDate().Format(dateLayout),
		Selections:     sub.Selections(),
		Summary:        sub.Summary(),
		Status:         string(sub.Status()),
		PausedMeals:    paused,
		RefundInfo:     sub.RefundInfo(),
		AdminNote:      sub.AdminNote(),
		ReviewedBy:     sub.ReviewedBy(),
		CancelledAt:    sub.CancelledAt(),
		CreatedAt:      sub.CreatedAt(),
	}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrStatusConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCustomerID),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrNoSelections):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
