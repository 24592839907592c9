package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(n int64) *int64 {
	return &n
}

func testSubscription(durationDays int64, totalPayable float64, start time.Time) *SubscriptionRequest {
	return ReconstructFromPersistence(
		"sub-123",
		"cust-456",
		"cat-veg",
		"vegetarian",
		durationDays,
		start,
		start.AddDate(0, 0, int(durationDays-1)),
		[]Selection{
			{MealType: "lunch", PackageID: "pkg-basic", PerDayPrice: totalPayable / float64(durationDays)},
		},
		Summary{Subtotal: totalPayable, TotalPayable: totalPayable},
		StatusApproved,
		nil,
		nil,
		"", "",
		nil,
		start,
		nil,
	)
}

func halfRefundPolicy(lengthDays int64) RefundPolicy {
	return RefundPolicy{
		ID:                     "policy-half",
		SubscriptionLengthDays: lengthDays,
		Active:                 true,
		Tiers: []RefundTier{
			{StartDay: 0, EndDay: days(30), RefundPercent: 50, RefundSource: RefundSourceCoins, Label: "first-month"},
		},
	}
}

func TestResolveRefundPolicy_ExactLengthBeatsWildcard(t *testing.T) {
	sub := testSubscription(30, 3000, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	wildcard := halfRefundPolicy(0)
	wildcard.ID = "policy-wildcard"
	exact := halfRefundPolicy(30)
	exact.ID = "policy-exact"

	// Wildcard listed first must still lose to the exact length match.
	got := ResolveRefundPolicy([]RefundPolicy{wildcard, exact}, sub)
	require.NotNil(t, got)
	assert.Equal(t, "policy-exact", got.ID)
}

func TestResolveRefundPolicy_OnlyExactMatchExists(t *testing.T) {
	sub := testSubscription(30, 3000, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	exact := halfRefundPolicy(30)

	got := ResolveRefundPolicy([]RefundPolicy{exact}, sub)
	require.NotNil(t, got)
	assert.Equal(t, exact.ID, got.ID)
}

func TestResolveRefundPolicy_ScopesRestrictCandidates(t *testing.T) {
	sub := testSubscription(30, 3000, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	wrongCategory := halfRefundPolicy(30)
	wrongCategory.ID = "policy-wrong-category"
	wrongCategory.CategoryIDs = []string{"cat-keto"}

	wrongProduct := halfRefundPolicy(30)
	wrongProduct.ID = "policy-wrong-product"
	wrongProduct.ProductIDs = []string{"pkg-premium"}

	scoped := halfRefundPolicy(30)
	scoped.ID = "policy-scoped"
	scoped.CategoryIDs = []string{"cat-veg"}
	scoped.ProductIDs = []string{"pkg-basic", "pkg-premium"}

	plain := halfRefundPolicy(30)
	plain.ID = "policy-plain"

	got := ResolveRefundPolicy([]RefundPolicy{wrongCategory, wrongProduct, plain, scoped}, sub)
	require.NotNil(t, got)
	// The scoped policy matches both allowlists and outranks the plain exact match.
	assert.Equal(t, "policy-scoped", got.ID)
}

func TestResolveRefundPolicy_TieKeepsFirstEncountered(t *testing.T) {
	sub := testSubscription(30, 3000, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	first := halfRefundPolicy(30)
	first.ID = "policy-first"
	second := halfRefundPolicy(30)
	second.ID = "policy-second"

	got := ResolveRefundPolicy([]RefundPolicy{first, second}, sub)
	require.NotNil(t, got)
	assert.Equal(t, "policy-first", got.ID)
}

func TestResolveRefundPolicy_NoMatch(t *testing.T) {
	sub := testSubscription(30, 3000, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	inactive := halfRefundPolicy(30)
	inactive.Active = false
	wrongLength := halfRefundPolicy(60)

	assert.Nil(t, ResolveRefundPolicy([]RefundPolicy{inactive, wrongLength}, sub))
	assert.Nil(t, ResolveRefundPolicy(nil, sub))
}

func TestSelectRefundTier_ContainingRange(t *testing.T) {
	policy := &RefundPolicy{Tiers: []RefundTier{
		{StartDay: 11, EndDay: days(20), RefundPercent: 25, Label: "late"},
		{StartDay: 0, EndDay: days(10), RefundPercent: 75, Label: "early"},
	}}

	tier := SelectRefundTier(policy, 5)
	require.NotNil(t, tier)
	assert.Equal(t, "early", tier.Label)

	tier = SelectRefundTier(policy, 15)
	require.NotNil(t, tier)
	assert.Equal(t, "late", tier.Label)
}

func TestSelectRefundTier_OpenEndedTier(t *testing.T) {
	policy := &RefundPolicy{Tiers: []RefundTier{
		{StartDay: 0, EndDay: days(10), RefundPercent: 75, Label: "early"},
		{StartDay: 11, RefundPercent: 10, Label: "open"},
	}}

	tier := SelectRefundTier(policy, 500)
	require.NotNil(t, tier)
	assert.Equal(t, "open", tier.Label)
}

func TestSelectRefundTier_GapFallsBackToLastStarted(t *testing.T) {
	// Admin-entered tiers with a hole between day 10 and day 20.
	policy := &RefundPolicy{Tiers: []RefundTier{
		{StartDay: 0, EndDay: days(10), RefundPercent: 75, Label: "early"},
		{StartDay: 20, EndDay: days(30), RefundPercent: 25, Label: "late"},
	}}

	tier := SelectRefundTier(policy, 15)
	require.NotNil(t, tier)
	assert.Equal(t, "early", tier.Label)

	tier = SelectRefundTier(policy, 45)
	require.NotNil(t, tier)
	assert.Equal(t, "late", tier.Label)
}

func TestSelectRefundTier_BeforeFirstTier(t *testing.T) {
	// Cancellation on day 0 before any tier's startDay must still pick a tier.
	policy := &RefundPolicy{Tiers: []RefundTier{
		{StartDay: 5, EndDay: days(10), RefundPercent: 75, Label: "early"},
		{StartDay: 11, EndDay: days(20), RefundPercent: 25, Label: "late"},
	}}

	tier := SelectRefundTier(policy, 0)
	require.NotNil(t, tier)
	assert.Equal(t, "late", tier.Label)
}

func TestSelectRefundTier_NeverNilForNonEmptyPolicy(t *testing.T) {
	policy := &RefundPolicy{Tiers: []RefundTier{
		{StartDay: 3, EndDay: days(7), RefundPercent: 80},
		{StartDay: 12, EndDay: days(18), RefundPercent: 40},
	}}

	for elapsed := int64(0); elapsed <= 60; elapsed++ {
		assert.NotNil(t, SelectRefundTier(policy, elapsed), "elapsedDays=%d", elapsed)
	}
}

func TestSelectRefundTier_NilOrEmptyPolicy(t *testing.T) {
	assert.Nil(t, SelectRefundTier(nil, 5))
	assert.Nil(t, SelectRefundTier(&RefundPolicy{}, 5))
}

func TestConsumedDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(30, 3000, start)

	testCases := []struct {
		name     string
		at       time.Time
		expected int64
	}{
		{"before start", start.AddDate(0, 0, -5), 0},
		{"on start date", start, 1},
		{"start date with clock time", start.Add(17 * time.Hour), 1},
		{"mid plan", start.AddDate(0, 0, 9), 10},
		{"on end date", start.AddDate(0, 0, 29), 30},
		{"after end date", start.AddDate(0, 0, 45), 30},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ConsumedDays(sub, tc.at))
		})
	}
}

func TestComputeRefund_HalfwayTier(t *testing.T) {
	// durationDays=30, totalPayable=3000, cancel on day 10, 50% tier:
	// remainingAmount = 3000/30*20 = 2000, refund = 1000.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(30, 3000, start)
	cancelAt := start.AddDate(0, 0, 9)

	info := ComputeRefund(sub, []RefundPolicy{halfRefundPolicy(30)}, cancelAt, "admin-1")

	assert.Equal(t, int64(20), info.RemainingDays)
	assert.Equal(t, 2000.0, info.RemainingAmount)
	assert.Equal(t, 50.0, info.PercentApplied)
	assert.Equal(t, 1000.0, info.Amount)
	assert.Equal(t, RefundSourceCoins, info.Source)
	assert.Equal(t, "first-month", info.TierLabel)
	assert.Equal(t, "INR", info.Currency)
	assert.Equal(t, "admin-1", info.ProcessedBy)
}

func TestComputeRefund_NoActivePolicy(t *testing.T) {
	// The remaining amount is still computed and reported so the portal can
	// show "0% of X".
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(30, 3000, start)

	info := ComputeRefund(sub, nil, start.AddDate(0, 0, 9), "")

	assert.Equal(t, 0.0, info.Amount)
	assert.Equal(t, 0.0, info.PercentApplied)
	assert.Equal(t, 2000.0, info.RemainingAmount)
}

func TestComputeRefund_OnOrBeforeStartDate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(30, 3000, start)

	info := ComputeRefund(sub, []RefundPolicy{halfRefundPolicy(30)}, start.AddDate(0, 0, -2), "")
	assert.Equal(t, int64(30), info.RemainingDays)
	assert.Equal(t, 3000.0, info.RemainingAmount)
	assert.Equal(t, 1500.0, info.Amount)

	info = ComputeRefund(sub, []RefundPolicy{halfRefundPolicy(30)}, start, "")
	assert.Equal(t, int64(29), info.RemainingDays)
}

func TestComputeRefund_AfterEndDate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(30, 3000, start)

	info := ComputeRefund(sub, []RefundPolicy{halfRefundPolicy(30)}, start.AddDate(0, 0, 60), "")

	assert.Equal(t, int64(0), info.RemainingDays)
	assert.Equal(t, 0.0, info.RemainingAmount)
	assert.Equal(t, 0.0, info.Amount)
}

func TestComputeRefund_ZeroDurationGuard(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := ReconstructFromPersistence("sub-bad", "cust-456", "", "", 0, start, start,
		nil, Summary{TotalPayable: 3000}, StatusApproved, nil, nil, "", "", nil, start, nil)

	info := ComputeRefund(sub, []RefundPolicy{halfRefundPolicy(0)}, start, "")

	assert.Equal(t, 0.0, info.Amount)
	assert.Equal(t, 0.0, info.PercentApplied)
	assert.Equal(t, int64(0), info.RemainingDays)
}

func TestComputeRefund_PercentClamped(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(30, 3000, start)

	policy := halfRefundPolicy(30)
	policy.Tiers[0].RefundPercent = 150

	info := ComputeRefund(sub, []RefundPolicy{policy}, start.AddDate(0, 0, 9), "")
	assert.Equal(t, 100.0, info.PercentApplied)
	assert.Equal(t, 2000.0, info.Amount)
}

func TestComputeRefund_IntermediateRounding(t *testing.T) {
	// 1000 over 3 days: per-day rounds to 333.33 before multiplying.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(3, 1000, start)

	info := ComputeRefund(sub, nil, start, "")
	assert.Equal(t, int64(2), info.RemainingDays)
	assert.Equal(t, 666.66, info.RemainingAmount)
}

func TestComputeRefund_RemainingAmountMonotonic(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(30, 2999, start)

	prev := sub.Summary().TotalPayable + 1
	for offset := -1; offset <= 35; offset++ {
		info := ComputeRefund(sub, nil, start.AddDate(0, 0, offset), "")
		assert.LessOrEqual(t, info.RemainingAmount, prev, "day offset %d", offset)
		prev = info.RemainingAmount
	}
}
