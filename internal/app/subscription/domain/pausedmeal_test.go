package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mealPlanSubscription(durationDays int64, summary Summary, selections int) *SubscriptionRequest {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sels := make([]Selection, selections)
	for i := range sels {
		sels[i] = Selection{MealType: []string{"breakfast", "lunch", "dinner"}[i%3], PackageID: "pkg-basic"}
	}
	return ReconstructFromPersistence("sub-1", "cust-1", "cat-veg", "", durationDays, start,
		start.AddDate(0, 0, int(durationDays-1)), sels, summary, StatusApproved, nil, nil, "", "", nil, start, nil)
}

func pm(day int, mealType string) PausedMeal {
	return PausedMeal{Date: time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC), MealType: mealType}
}

func TestPerMealValue(t *testing.T) {
	// 2 daily selections over 10 days, 1000 effectively paid: 1000/20 = 50.
	sub := mealPlanSubscription(10, Summary{Subtotal: 1000, TotalPayable: 1000}, 2)
	assert.Equal(t, 50.0, PerMealValue(sub))
}

func TestPerMealValue_DiscountsReduceEffectivePaid(t *testing.T) {
	sub := mealPlanSubscription(10, Summary{Subtotal: 1200, CouponAmount: 100, DiscountAmount: 100, TotalPayable: 1000}, 2)
	assert.Equal(t, 50.0, PerMealValue(sub))
}

func TestPerMealValue_NeverNegative(t *testing.T) {
	sub := mealPlanSubscription(10, Summary{Subtotal: 100, CouponAmount: 200}, 2)
	assert.Equal(t, 0.0, PerMealValue(sub))
}

func TestPerMealValue_ZeroSlotsGuard(t *testing.T) {
	sub := mealPlanSubscription(10, Summary{Subtotal: 1000}, 0)
	assert.Equal(t, 0.0, PerMealValue(sub))
}

func TestReconcilePausedMeals_PausingCreditsWallet(t *testing.T) {
	sub := mealPlanSubscription(10, Summary{Subtotal: 1000, TotalPayable: 1000}, 2)

	incoming := []PausedMeal{pm(5, "lunch"), pm(6, "lunch"), pm(6, "dinner")}
	delta := ReconcilePausedMeals(nil, incoming, sub)

	assert.Equal(t, 150.0, delta)
}

func TestReconcilePausedMeals_UnpausingDebitsWallet(t *testing.T) {
	sub := mealPlanSubscription(10, Summary{Subtotal: 1000, TotalPayable: 1000}, 2)

	existing := []PausedMeal{pm(5, "lunch"), pm(6, "lunch")}
	delta := ReconcilePausedMeals(existing, nil, sub)

	assert.Equal(t, -100.0, delta)
}

func TestReconcilePausedMeals_PauseThenUnpauseNetsToZero(t *testing.T) {
	sub := mealPlanSubscription(10, Summary{Subtotal: 1000, TotalPayable: 1000}, 2)

	existing := []PausedMeal{pm(5, "lunch")}
	incoming := []PausedMeal{pm(6, "dinner")}
	// One added, one removed: net zero, no wallet call should follow.
	assert.Equal(t, 0.0, ReconcilePausedMeals(existing, incoming, sub))

	// Identical sets net to zero too.
	assert.Equal(t, 0.0, ReconcilePausedMeals(existing, existing, sub))
}

func TestReconcilePausedMeals_ComparedByValueNotClockTime(t *testing.T) {
	sub := mealPlanSubscription(10, Summary{Subtotal: 1000, TotalPayable: 1000}, 2)

	existing := []PausedMeal{{Date: time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), MealType: "lunch"}}
	incoming := []PausedMeal{{Date: time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC), MealType: "lunch"}}

	assert.Equal(t, 0.0, ReconcilePausedMeals(existing, incoming, sub))
}

func TestDedupePausedMeals(t *testing.T) {
	meals := []PausedMeal{pm(5, "lunch"), pm(5, "dinner"), pm(5, "lunch")}
	deduped := DedupePausedMeals(meals)

	assert.Len(t, deduped, 2)
	assert.Equal(t, "lunch", deduped[0].MealType)
	assert.Equal(t, "dinner", deduped[1].MealType)
}
