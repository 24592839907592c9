package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
	"google.golang.org/api/iterator"
)

var _ contracts.SubscriptionRepository = (*SubscriptionRepo)(nil)

const subscriptionColumns = `
	id, customer_id, category_id, diet_preference, duration_days,
	start_date, end_date, selections, summary, status, paused_meals,
	refund_info, admin_note, reviewed_by, cancelled_at, created_at, processed_at`

// SubscriptionRepo implements the subscription repository using Cloud Spanner.
// Embedded lists (selections, paused meals, refund info, summary) live in
// JSON columns; every write touches a single row.
type SubscriptionRepo struct {
	client *spanner.Client
}

// NewSubscriptionRepo creates a new subscription repository
func NewSubscriptionRepo(client *spanner.Client) *SubscriptionRepo {
	return &SubscriptionRepo{client: client}
}

// Insert returns a mutation for persisting a new subscription request.
// The mutation must be applied using the Apply() method.
func (r *SubscriptionRepo) Insert(ctx context.Context, sub *domain.SubscriptionRequest) (*spanner.Mutation, error) {
	mutation := spanner.Insert("subscription_requests",
		[]string{
			"id", "customer_id", "category_id", "diet_preference", "duration_days",
			"start_date", "end_date", "selections", "summary", "status",
			"paused_meals", "refund_info", "admin_note", "reviewed_by",
			"cancelled_at", "created_at", "processed_at",
		},
		[]interface{}{
			sub.ID(),
			sub.CustomerID(),
			sub.CategoryID(),
			sub.DietPreference(),
			sub.DurationDays(),
			sub.StartDate(),
			sub.EndDate(),
			toJSON(sub.Selections()),
			toJSON(sub.Summary()),
			string(sub.Status()),
			toJSON(sub.PausedMeals()),
			refundInfoJSON(sub.RefundInfo()),
			sub.AdminNote(),
			sub.ReviewedBy(),
			nullTime(sub.CancelledAt()),
			sub.CreatedAt(),
			nullTime(sub.ProcessedAt()),
		})

	return mutation, nil
}

// PartialUpdate returns a mutation that updates only the fields present in
// the partial. Status, refund info and dates never pass through this path.
func (r *SubscriptionRepo) PartialUpdate(id string, fields domain.UpdateFields) (*spanner.Mutation, error) {
	cols := []string{"id"}
	vals := []interface{}{id}

	if fields.DietPreference != nil {
		cols = append(cols, "diet_preference")
		vals = append(vals, *fields.DietPreference)
	}
	if fields.AdminNote != nil {
		cols = append(cols, "admin_note")
		vals = append(vals, *fields.AdminNote)
	}
	if fields.PausedMeals != nil {
		cols = append(cols, "paused_meals")
		vals = append(vals, toJSON(domain.DedupePausedMeals(*fields.PausedMeals)))
	}
	if len(cols) == 1 {
		return nil, fmt.Errorf("partial update for %s contains no fields", id)
	}

	return spanner.Update("subscription_requests", cols, vals), nil
}

// Apply applies the given mutations to the database
func (r *SubscriptionRepo) Apply(ctx context.Context, mutations ...*spanner.Mutation) error {
	_, err := r.client.Apply(ctx, mutations)
	return err
}

// UpdateStatusIf writes the subscription's status fields, but only if the
// row's status is still `expected`. A concurrent transition (two staff
// members cancelling the same request at once) makes the write a no-op and
// surfaces as ErrStatusConflict, so a refund is never credited twice.
func (r *SubscriptionRepo) UpdateStatusIf(ctx context.Context, sub *domain.SubscriptionRequest, expected domain.Status) error {
	stmt := spanner.Statement{
		SQL: `
			UPDATE subscription_requests
			SET status = @status,
				admin_note = @admin_note,
				reviewed_by = @reviewed_by,
				refund_info = @refund_info,
				cancelled_at = @cancelled_at,
				processed_at = @processed_at
			WHERE id = @id AND status = @expected
		`,
		Params: map[string]interface{}{
			"id":           sub.ID(),
			"expected":     string(expected),
			"status":       string(sub.Status()),
			"admin_note":   sub.AdminNote(),
			"reviewed_by":  sub.ReviewedBy(),
			"refund_info":  refundInfoJSON(sub.RefundInfo()),
			"cancelled_at": spannerNullTime(sub.CancelledAt()),
			"processed_at": spannerNullTime(sub.ProcessedAt()),
		},
	}

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		count, err := txn.Update(ctx, stmt)
		if err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrStatusConflict
		}
		return nil
	})
	return err
}

// FindByID retrieves a subscription request by ID
func (r *SubscriptionRepo) FindByID(ctx context.Context, id string) (*domain.SubscriptionRequest, error) {
	stmt := spanner.Statement{
		SQL: `SELECT` + subscriptionColumns + `
			FROM subscription_requests
			WHERE id = @id
		`,
		Params: map[string]interface{}{
			"id": id,
		},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}

	return scanSubscription(row)
}

func scanSubscription(row *spanner.Row) (*domain.SubscriptionRequest, error) {
	var (
		id             string
		customerID     string
		categoryID     spanner.NullString
		dietPreference spanner.NullString
		durationDays   int64
		startDate      time.Time
		endDate        time.Time
		selectionsCol  spanner.NullJSON
		summaryCol     spanner.NullJSON
		status         string
		pausedCol      spanner.NullJSON
		refundCol      spanner.NullJSON
		adminNote      spanner.NullString
		reviewedBy     spanner.NullString
		cancelledAt    spanner.NullTime
		createdAt      time.Time
		processedAt    spanner.NullTime
	)

	if err := row.Columns(&id, &customerID, &categoryID, &dietPreference, &durationDays,
		&startDate, &endDate, &selectionsCol, &summaryCol, &status, &pausedCol,
		&refundCol, &adminNote, &reviewedBy, &cancelledAt, &createdAt, &processedAt); err != nil {
		return nil, err
	}

	var selections []domain.Selection
	if err := fromJSON(selectionsCol, &selections); err != nil {
		return nil, fmt.Errorf("decoding selections for %s: %w", id, err)
	}
	var summary domain.Summary
	if err := fromJSON(summaryCol, &summary); err != nil {
		return nil, fmt.Errorf("decoding summary for %s: %w", id, err)
	}
	var pausedMeals []domain.PausedMeal
	if err := fromJSON(pausedCol, &pausedMeals); err != nil {
		return nil, fmt.Errorf("decoding paused meals for %s: %w", id, err)
	}
	var refundInfo *domain.RefundInfo
	if refundCol.Valid {
		refundInfo = &domain.RefundInfo{}
		if err := fromJSON(refundCol, refundInfo); err != nil {
			return nil, fmt.Errorf("decoding refund info for %s: %w", id, err)
		}
	}

	sub := domain.ReconstructFromPersistence(
		id,
		customerID,
		categoryID.StringVal,
		dietPreference.StringVal,
		durationDays,
		startDate,
		endDate,
		selections,
		summary,
		domain.ParseStatus(status),
		pausedMeals,
		refundInfo,
		adminNote.StringVal,
		reviewedBy.StringVal,
		timePtr(cancelledAt),
		createdAt,
		timePtr(processedAt),
	)

	return sub, nil
}

func toJSON(v interface{}) spanner.NullJSON {
	return spanner.NullJSON{Value: v, Valid: true}
}

func refundInfoJSON(info *domain.RefundInfo) spanner.NullJSON {
	if info == nil {
		return spanner.NullJSON{}
	}
	return spanner.NullJSON{Value: info, Valid: true}
}

// fromJSON decodes a JSON column into a typed value. The column holds an
// already-decoded interface{}; re-marshalling through encoding/json is the
// normalization step that maps unknown or missing fields to zero values.
func fromJSON(col spanner.NullJSON, dst interface{}) error {
	if !col.Valid || col.Value == nil {
		return nil
	}
	b, err := json.Marshal(col.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return spanner.NullTime{}
	}
	return *t
}

func spannerNullTime(t *time.Time) spanner.NullTime {
	if t == nil {
		return spanner.NullTime{}
	}
	return spanner.NullTime{Time: *t, Valid: true}
}

func timePtr(t spanner.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
