package domain

import (
	"math"
	"sort"
	"time"
)

// DefaultCurrency is assumed when a stored summary carries no currency.
const DefaultCurrency = "INR"

// RefundSource identifies where a refund is paid out.
type RefundSource string

// RefundSourceCoins is the only source the wallet path implements today.
// The schema allows others, but only coin refunds move money.
const RefundSourceCoins RefundSource = "coins"

// RefundTier is a (startDay, endDay] range within a policy carrying the
// refund percentage for cancellations whose consumed days fall inside it.
// A nil EndDay means the tier is open-ended.
type RefundTier struct {
	StartDay      int64        `json:"startDay"`
	EndDay        *int64       `json:"endDay,omitempty"`
	RefundPercent float64      `json:"refundPercent"`
	RefundSource  RefundSource `json:"refundSource,omitempty"`
	Label         string       `json:"label,omitempty"`
	Notes         string       `json:"notes,omitempty"`
}

// RefundPolicy is an admin-configured rule describing refund behavior for
// subscriptions matching its scope. SubscriptionLengthDays == 0 means the
// policy applies to any length. Empty allowlists mean no restriction.
type RefundPolicy struct {
	ID                     string       `json:"id"`
	Name                   string       `json:"name,omitempty"`
	SubscriptionLengthDays int64        `json:"subscriptionLengthDays"`
	CategoryIDs            []string     `json:"categoryIds,omitempty"`
	ProductIDs             []string     `json:"productIds,omitempty"`
	Active                 bool         `json:"active"`
	Tiers                  []RefundTier `json:"tiers"`
}

// RefundInfo is the immutable record of the refund computed on cancellation.
type RefundInfo struct {
	Amount          float64      `json:"amount"`
	Currency        string       `json:"currency"`
	PercentApplied  float64      `json:"percentApplied"`
	Source          RefundSource `json:"source"`
	RemainingAmount float64      `json:"remainingAmount"`
	RemainingDays   int64        `json:"remainingDays"`
	TierLabel       string       `json:"tierLabel,omitempty"`
	ProcessedAt     time.Time    `json:"processedAt"`
	ProcessedBy     string       `json:"processedBy,omitempty"`
}

// ResolveRefundPolicy finds the best-matching active policy for a
// subscription. A policy is a candidate when its length matches exactly (or
// is the 0 wildcard), its category allowlist is empty or contains the
// subscription's category, and its product allowlist is empty or intersects
// the selected package ids. Among candidates the highest specificity wins:
// exact length +4 (wildcard +1), category allowlist +1, product allowlist +1;
// ties keep the first encountered. Returns nil when nothing matches — callers
// must treat that as a 0% refund, never as an error.
func ResolveRefundPolicy(policies []RefundPolicy, sub *SubscriptionRequest) *RefundPolicy {
	var best *RefundPolicy
	bestScore := -1

	for i := range policies {
		p := &policies[i]
		if !p.Active {
			continue
		}

		score := 0
		switch p.SubscriptionLengthDays {
		case sub.DurationDays():
			score += 4
		case 0:
			score += 1
		default:
			continue
		}

		if len(p.CategoryIDs) > 0 {
			if !containsString(p.CategoryIDs, sub.CategoryID()) {
				continue
			}
			score++
		}

		if len(p.ProductIDs) > 0 {
			if !intersects(p.ProductIDs, sub.SelectedPackageIDs()) {
				continue
			}
			score++
		}

		if score > bestScore {
			best = p
			bestScore = score
		}
	}

	return best
}

// SelectRefundTier picks the tier whose day range contains elapsedDays.
// Admin-entered tiers can have gaps near the boundaries, so when no tier
// contains the value it falls back to the last tier starting at or before
// elapsedDays, and failing that to the tier with the largest startDay. A
// policy with at least one tier always yields a tier.
func SelectRefundTier(policy *RefundPolicy, elapsedDays int64) *RefundTier {
	if policy == nil || len(policy.Tiers) == 0 {
		return nil
	}

	tiers := make([]RefundTier, len(policy.Tiers))
	copy(tiers, policy.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].StartDay < tiers[j].StartDay
	})

	for i := range tiers {
		end := int64(math.MaxInt64)
		if tiers[i].EndDay != nil {
			end = *tiers[i].EndDay
		}
		if elapsedDays >= tiers[i].StartDay && elapsedDays <= end {
			return &tiers[i]
		}
	}

	var fallback *RefundTier
	for i := range tiers {
		if tiers[i].StartDay <= elapsedDays {
			fallback = &tiers[i]
		}
	}
	if fallback == nil {
		// elapsedDays sits before every tier; the last sorted tier has the
		// largest startDay.
		fallback = &tiers[len(tiers)-1]
	}
	return fallback
}

// ConsumedDays returns the whole calendar days consumed at the cancellation
// instant, inclusive of the cancellation day itself, capped at the
// subscription duration. Cancelling before the start date consumes nothing.
func ConsumedDays(sub *SubscriptionRequest, at time.Time) int64 {
	startDay := startOfDay(sub.StartDate())
	cancelDay := startOfDay(at)
	if cancelDay.Before(startDay) {
		return 0
	}
	consumed := int64(cancelDay.Sub(startDay)/(24*time.Hour)) + 1
	if consumed > sub.DurationDays() {
		return sub.DurationDays()
	}
	return consumed
}

// ComputeRefund computes the refund owed when a subscription is cancelled at
// the given instant. Straight-line per-day proration of the total actually
// paid (post-discount), then the resolved tier percentage is applied. All
// currency values are rounded half-up to 2 decimals at each step.
func ComputeRefund(sub *SubscriptionRequest, policies []RefundPolicy, at time.Time, processedBy string) RefundInfo {
	info := RefundInfo{
		Currency:    sub.Summary().Currency,
		Source:      RefundSourceCoins,
		ProcessedAt: at,
		ProcessedBy: processedBy,
	}
	if sub.DurationDays() <= 0 {
		return info
	}

	consumed := ConsumedDays(sub, at)
	remaining := sub.DurationDays() - consumed
	if remaining < 0 {
		remaining = 0
	}
	info.RemainingDays = remaining

	perDay := Round2(sub.Summary().TotalPayable / float64(sub.DurationDays()))
	info.RemainingAmount = Round2(perDay * float64(remaining))

	policy := ResolveRefundPolicy(policies, sub)
	tier := SelectRefundTier(policy, consumed)
	if tier != nil {
		info.PercentApplied = clampPercent(tier.RefundPercent)
		info.TierLabel = tier.Label
		if tier.RefundSource != "" {
			info.Source = tier.RefundSource
		}
	}

	info.Amount = Round2(info.RemainingAmount * info.PercentApplied / 100)
	return info
}

// Round2 rounds a currency value half-up to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if containsString(b, v) {
			return true
		}
	}
	return false
}
