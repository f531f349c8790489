package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/domain/billing"
)

const (
	subscriptionTable = "subscriptions"
	billingEventTable = "subscription_events"
)

var _ billing.Repository = (*BillingRepo)(nil)

// BillingRepo is the PostgreSQL billing store. Webhook payloads are
// compressed with zstd at rest; they are kept for audit only and are
// never served raw.
type BillingRepo struct {
	txm       *TxManager
	builder   squirrel.StatementBuilderType
	subCols   []string
	eventCols []string

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewBillingRepo creates a billing repository.
func NewBillingRepo(txm *TxManager) (*BillingRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &BillingRepo{
		txm:       txm,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		subCols:   ExtractDBColumns[billing.Subscription](),
		eventCols: ExtractDBColumns[billing.SubscriptionEvent](),
		encoder:   encoder,
		decoder:   decoder,
	}, nil
}

// RecordEvent appends the event keyed by its external event id. A
// redelivered event hits the conflict target and reports false.
func (r *BillingRepo) RecordEvent(ctx context.Context, ev billing.SubscriptionEvent) (bool, error) {
	if len(ev.Payload) > 0 {
		ev.Payload = r.encoder.EncodeAll(ev.Payload, nil)
	}

	q := r.builder.
		Insert(billingEventTable).
		SetMap(StructToMap(ev)).
		Suffix("ON CONFLICT (external_event_id) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build event insert: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("record event: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// GetByExternalID retrieves a subscription by the processor's id.
func (r *BillingRepo) GetByExternalID(ctx context.Context, externalID string) (*billing.Subscription, error) {
	return r.getOne(ctx, squirrel.Eq{"external_id": externalID}, externalID)
}

// GetByClinic retrieves the clinic's subscription.
func (r *BillingRepo) GetByClinic(ctx context.Context, clinicID id.ID) (*billing.Subscription, error) {
	return r.getOne(ctx, squirrel.Eq{"clinic_id": clinicID}, clinicID.String())
}

func (r *BillingRepo) getOne(ctx context.Context, pred squirrel.Eq, key string) (*billing.Subscription, error) {
	q := r.builder.
		Select(r.subCols...).
		From(subscriptionTable).
		Where(pred)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscription select: %w", err)
	}

	var sub billing.Subscription
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sub, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("subscription", key)
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

// Create inserts a subscription row.
func (r *BillingRepo) Create(ctx context.Context, sub *billing.Subscription) error {
	q := r.builder.
		Insert(subscriptionTable).
		SetMap(StructToMap(*sub))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build subscription insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if IsUniqueViolation(err) {
			return apperror.NewDuplicate("subscription", "external_id", sub.ExternalID)
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// UpdateStatus writes the new status and period end under optimistic
// version locking.
func (r *BillingRepo) UpdateStatus(ctx context.Context, sub *billing.Subscription) error {
	currentVersion := sub.Version
	sub.Version++
	sub.UpdatedAt = time.Now().UTC()

	q := r.builder.
		Update(subscriptionTable).
		Set("status", sub.Status).
		Set("plan", sub.Plan).
		Set("current_period_end", sub.CurrentPeriodEnd).
		Set("version", sub.Version).
		Set("updated_at", sub.UpdatedAt).
		Where(squirrel.Eq{"id": sub.ID}).
		Where(squirrel.Eq{"version": currentVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build subscription update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("subscription", sub.ID.String())
	}
	return nil
}

// Events returns the event log for a subscription, oldest first.
// Payloads come back decompressed.
func (r *BillingRepo) Events(ctx context.Context, externalSubscriptionID string) ([]billing.SubscriptionEvent, error) {
	q := r.builder.
		Select(r.eventCols...).
		From(billingEventTable).
		Where(squirrel.Eq{"external_subscription_id": externalSubscriptionID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build events select: %w", err)
	}

	var events []billing.SubscriptionEvent
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &events, sql, args...); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	for i := range events {
		if len(events[i].Payload) == 0 {
			continue
		}
		decoded, err := r.decoder.DecodeAll(events[i].Payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decode event payload: %w", err)
		}
		events[i].Payload = decoded
	}
	return events, nil
}
