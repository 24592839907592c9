package repo

import (
	"context"

	"cloud.google.com/go/spanner"
	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"google.golang.org/api/iterator"
)

var _ contracts.WalletLedger = (*WalletRepo)(nil)

// WalletRepo implements the coin wallet ledger on Cloud Spanner. Balances are
// only ever mutated with relative-increment DML, so concurrent adjustments to
// the same wallet (a top-up approval racing a cancellation refund) cannot
// lose updates.
type WalletRepo struct {
	client *spanner.Client
}

// NewWalletRepo creates a new wallet repository
func NewWalletRepo(client *spanner.Client) *WalletRepo {
	return &WalletRepo{client: client}
}

// Adjust increments the wallet balance by the signed delta, creating the
// wallet row on first touch. No retries here; compensation policy lives with
// the caller.
func (r *WalletRepo) Adjust(ctx context.Context, customerID string, delta float64) error {
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		count, err := txn.Update(ctx, spanner.Statement{
			SQL: `
				UPDATE wallets
				SET balance = balance + @delta,
					updated_at = PENDING_COMMIT_TIMESTAMP()
				WHERE customer_id = @customer_id
			`,
			Params: map[string]interface{}{
				"customer_id": customerID,
				"delta":       delta,
			},
		})
		if err != nil {
			return err
		}
		if count == 0 {
			_, err = txn.Update(ctx, spanner.Statement{
				SQL: `
					INSERT INTO wallets (customer_id, balance, updated_at)
					VALUES (@customer_id, @delta, PENDING_COMMIT_TIMESTAMP())
				`,
				Params: map[string]interface{}{
					"customer_id": customerID,
					"delta":       delta,
				},
			})
		}
		return err
	})
	return err
}

// Balance returns the current coin balance, 0 for customers without a wallet.
func (r *WalletRepo) Balance(ctx context.Context, customerID string) (float64, error) {
	stmt := spanner.Statement{
		SQL: `SELECT balance FROM wallets WHERE customer_id = @customer_id`,
		Params: map[string]interface{}{
			"customer_id": customerID,
		},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, err
	}

	var balance float64
	if err := row.Columns(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}
