package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

var subscriptionSorts = map[string]string{
	query.DefaultSort: "s.created_at",
}

// Subscribe records that the subscriber follows the channel. A repeated
// subscription returns ErrConflict.
func (r *PostgresSubscriptionRepository) Subscribe(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Unsubscribe removes the edge. A missing edge returns ErrNotFound.
func (r *PostgresSubscriptionRepository) Unsubscribe(ctx context.Context, subscriberID, channelID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSubscribers pages through the users following channelID, each with their profile.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string, params query.Params) (query.Page[models.Subscription], error) {
	return r.list(ctx, "s.channel_id", channelID, "s.subscriber_id", params)
}

// ListSubscribed pages through the channels subscriberID follows, each with the channel's profile.
func (r *PostgresSubscriptionRepository) ListSubscribed(ctx context.Context, subscriberID string, params query.Params) (query.Page[models.Subscription], error) {
	return r.list(ctx, "s.subscriber_id", subscriberID, "s.channel_id", params)
}

func (r *PostgresSubscriptionRepository) list(ctx context.Context, matchColumn, id, profileColumn string, params query.Params) (query.Page[models.Subscription], error) {
	p := query.From("subscriptions", "s").
		Select("s.id", "s.subscriber_id", "s.channel_id", "s.created_at").
		Select(ownerColumns("u")...).
		LeftJoin("users", "u", "u.id = "+profileColumn).
		Match(matchColumn, id).
		Search("u.username", params.Query).
		Sortable(subscriptionSorts)

	return queryPage(ctx, r.pool, p, params, func(rows pgx.Rows) (models.Subscription, error) {
		var sub models.Subscription
		var profile ownerScan
		dest := []any{&sub.ID, &sub.SubscriberID, &sub.ChannelID, &sub.CreatedAt}
		if err := rows.Scan(append(dest, profile.dest()...)...); err != nil {
			return models.Subscription{}, err
		}
		sub.Profile = profile.profile()
		return sub, nil
	})
}
