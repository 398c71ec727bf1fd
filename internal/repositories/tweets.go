package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
)

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

var tweetSelect = "t.id, t.content, t.owner_id, t.created_at, t.updated_at, " +
	"u.id, u.username, u.full_name, u.avatar_url, u.avatar_storage_id"

var tweetSorts = map[string]string{
	query.DefaultSort: "t.created_at",
	"updatedAt":       "t.updated_at",
}

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var t models.Tweet
	var owner ownerScan
	dest := []any{&t.ID, &t.Content, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt}
	if err := row.Scan(append(dest, owner.dest()...)...); err != nil {
		return models.Tweet{}, err
	}
	t.Owner = owner.profile()
	return t, nil
}

// Create persists a new tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (id, content, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.Content, tweet.OwnerID, tweet.CreatedAt, tweet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert tweet: %w", err)
	}
	return nil
}

// FindByID fetches a tweet with its owner profile.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `
        SELECT `+tweetSelect+`
        FROM tweets t
        LEFT JOIN users u ON u.id = t.owner_id
        WHERE t.id = $1
    `, id))
	if err != nil {
		if isNoRows(err) {
			return models.Tweet{}, ErrNotFound
		}
		return models.Tweet{}, fmt.Errorf("select tweet: %w", err)
	}
	return tweet, nil
}

// List pages through tweets, restricted to ownerID when it is not empty.
func (r *PostgresTweetRepository) List(ctx context.Context, ownerID string, params query.Params) (query.Page[models.Tweet], error) {
	p := query.From("tweets", "t").
		Select(tweetSelect).
		LeftJoin("users", "u", "u.id = t.owner_id").
		Sortable(tweetSorts)
	if ownerID != "" {
		p.Match("t.owner_id", ownerID)
	}
	p.Search("t.content", params.Query)

	return queryPage(ctx, r.pool, p, params, func(rows pgx.Rows) (models.Tweet, error) {
		return scanTweet(rows)
	})
}

// Update writes the tweet content.
func (r *PostgresTweetRepository) Update(ctx context.Context, tweet models.Tweet) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE tweets SET content = $2, updated_at = $3 WHERE id = $1`,
		tweet.ID, tweet.Content, tweet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update tweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the tweet.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
