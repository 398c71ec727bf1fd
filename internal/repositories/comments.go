package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

var commentSelect = "c.id, c.content, c.video_id, c.owner_id, c.created_at, c.updated_at, " +
	"u.id, u.username, u.full_name, u.avatar_url, u.avatar_storage_id"

var commentSorts = map[string]string{
	query.DefaultSort: "c.created_at",
	"updatedAt":       "c.updated_at",
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	var owner ownerScan
	dest := []any{&c.ID, &c.Content, &c.VideoID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, owner.dest()...)...); err != nil {
		return models.Comment{}, err
	}
	c.Owner = owner.profile()
	return c, nil
}

// Create persists a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, content, video_id, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.Content, comment.VideoID, comment.OwnerID, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// FindByID fetches a comment with its owner profile.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        SELECT `+commentSelect+`
        FROM comments c
        LEFT JOIN users u ON u.id = c.owner_id
        WHERE c.id = $1
    `, id))
	if err != nil {
		if isNoRows(err) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}
	return comment, nil
}

// ListByVideo pages through the comments on a video, searching their content.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string, params query.Params) (query.Page[models.Comment], error) {
	p := query.From("comments", "c").
		Select(commentSelect).
		LeftJoin("users", "u", "u.id = c.owner_id").
		Match("c.video_id", videoID).
		Search("c.content", params.Query).
		Sortable(commentSorts)

	return queryPage(ctx, r.pool, p, params, func(rows pgx.Rows) (models.Comment, error) {
		return scanComment(rows)
	})
}

// Update writes the comment content.
func (r *PostgresCommentRepository) Update(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
		comment.ID, comment.Content, comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
