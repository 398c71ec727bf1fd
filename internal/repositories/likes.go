package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

var likeSorts = map[string]string{
	query.DefaultSort: "l.created_at",
}

func likeColumn(kind models.LikeKind) (string, error) {
	switch kind {
	case models.LikeKindVideo:
		return "video_id", nil
	case models.LikeKindComment:
		return "comment_id", nil
	case models.LikeKindTweet:
		return "tweet_id", nil
	default:
		return "", models.ErrInvalidLikeTarget
	}
}

// Toggle removes the owner's like on the target if present and records
// like otherwise, inside one transaction.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, like models.Like) (models.ToggleResult, error) {
	if err := like.Target.Validate(); err != nil {
		return models.ToggleResult{}, err
	}
	column, err := likeColumn(like.Target.Kind)
	if err != nil {
		return models.ToggleResult{}, err
	}

	var result models.ToggleResult
	err = db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var removed models.Like
		err := tx.QueryRow(ctx, `
            DELETE FROM likes WHERE owner_id = $1 AND `+column+` = $2
            RETURNING id, created_at
        `, like.OwnerID, like.Target.ID).Scan(&removed.ID, &removed.CreatedAt)
		switch {
		case err == nil:
			removed.OwnerID = like.OwnerID
			removed.Target = like.Target
			result = models.ToggleResult{Added: false, Like: removed}
			return nil
		case !isNoRows(err):
			return fmt.Errorf("delete like: %w", err)
		}

		stored, err := insertLike(ctx, tx, column, like)
		if err != nil {
			return err
		}
		result = models.ToggleResult{Added: true, Like: stored}
		return nil
	})
	if err != nil {
		return models.ToggleResult{}, err
	}
	return result, nil
}

// insertLike records like unless a concurrent toggle already stored one for
// the same owner and target, in which case the stored row is returned.
func insertLike(ctx context.Context, tx pgx.Tx, column string, like models.Like) (models.Like, error) {
	err := tx.QueryRow(ctx, `
        INSERT INTO likes (id, owner_id, `+column+`, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING
        RETURNING id, created_at
    `, like.ID, like.OwnerID, like.Target.ID, like.CreatedAt).Scan(&like.ID, &like.CreatedAt)
	switch {
	case err == nil:
		return like, nil
	case isCheckViolation(err):
		return models.Like{}, models.ErrInvalidLikeTarget
	case !isNoRows(err):
		return models.Like{}, fmt.Errorf("insert like: %w", err)
	}

	err = tx.QueryRow(ctx, `
        SELECT id, created_at FROM likes WHERE owner_id = $1 AND `+column+` = $2
    `, like.OwnerID, like.Target.ID).Scan(&like.ID, &like.CreatedAt)
	if err != nil {
		return models.Like{}, fmt.Errorf("select existing like: %w", err)
	}
	return like, nil
}

// ListByTarget pages through the likes on one video, comment or tweet.
func (r *PostgresLikeRepository) ListByTarget(ctx context.Context, target models.LikeTarget, params query.Params) (query.Page[models.Like], error) {
	if err := target.Validate(); err != nil {
		return query.Page[models.Like]{}, err
	}
	column, err := likeColumn(target.Kind)
	if err != nil {
		return query.Page[models.Like]{}, err
	}

	p := query.From("likes", "l").
		Select("l.id", "l.owner_id", "l.created_at").
		Select(ownerColumns("u")...).
		LeftJoin("users", "u", "u.id = l.owner_id").
		Match("l."+column, target.ID).
		Sortable(likeSorts)

	return queryPage(ctx, r.pool, p, params, func(rows pgx.Rows) (models.Like, error) {
		like := models.Like{Target: target}
		var owner ownerScan
		dest := []any{&like.ID, &like.OwnerID, &like.CreatedAt}
		if err := rows.Scan(append(dest, owner.dest()...)...); err != nil {
			return models.Like{}, err
		}
		like.Owner = owner.profile()
		return like, nil
	})
}
