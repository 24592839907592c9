package contracts

import "context"

// WalletLedger defines the coin wallet primitive. Adjust applies a signed
// relative delta as an atomic increment of the underlying store — never a
// fetch-then-write — so concurrent adjustments to the same wallet cannot lose
// updates. Adjust with the negated delta serves as compensation. The ledger
// performs no retries; compensation policy lives with the caller.
type WalletLedger interface {
	Adjust(ctx context.Context, customerID string, delta float64) error
	Balance(ctx context.Context, customerID string) (float64, error)
}
