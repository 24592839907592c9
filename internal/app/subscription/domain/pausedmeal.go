package domain

import (
	"time"
)

// PausedMeal is a (calendar day, meal type) the customer has opted out of
// within an otherwise active subscription. Compared by value, not identity.
type PausedMeal struct {
	Date     time.Time `json:"date"`
	MealType string    `json:"mealType"`
}

// Key returns the value identity of a paused meal: its calendar day and
// meal type, independent of the timestamp's clock time or zone.
func (p PausedMeal) Key() string {
	return p.Date.UTC().Format("2006-01-02") + "|" + p.MealType
}

// DedupePausedMeals drops duplicate (date, mealType) pairs, keeping first
// occurrences in order.
func DedupePausedMeals(meals []PausedMeal) []PausedMeal {
	if len(meals) == 0 {
		return meals
	}
	seen := make(map[string]bool, len(meals))
	out := make([]PausedMeal, 0, len(meals))
	for _, m := range meals {
		k := m.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}

// PerMealValue is the prorated coin value of a single meal slot: the amount
// the customer effectively paid divided across every meal slot of the plan.
// Returns 0 for a plan with no slots.
func PerMealValue(sub *SubscriptionRequest) float64 {
	paid := sub.Summary().Subtotal - sub.Summary().CouponAmount - sub.Summary().DiscountAmount
	if paid < 0 {
		paid = 0
	}
	slots := sub.DurationDays() * int64(len(sub.Selections()))
	if slots == 0 {
		return 0
	}
	return Round2(paid / float64(slots))
}

// ReconcilePausedMeals diffs the paused-meal set before and after an update
// and returns the signed coin delta owed to the customer's wallet. Newly
// paused meals credit their prorated value back immediately; un-paused meals
// debit it again. A zero delta means no wallet call should be made at all.
func ReconcilePausedMeals(existing, incoming []PausedMeal, sub *SubscriptionRequest) float64 {
	existingKeys := make(map[string]bool, len(existing))
	for _, m := range existing {
		existingKeys[m.Key()] = true
	}
	incomingKeys := make(map[string]bool, len(incoming))
	for _, m := range incoming {
		incomingKeys[m.Key()] = true
	}

	added := 0
	for k := range incomingKeys {
		if !existingKeys[k] {
			added++
		}
	}
	removed := 0
	for k := range existingKeys {
		if !incomingKeys[k] {
			removed++
		}
	}

	net := added - removed
	if net == 0 {
		return 0
	}
	return Round2(float64(net) * PerMealValue(sub))
}
