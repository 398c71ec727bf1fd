package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

var videoColumns = []string{
	"v.id", "v.video_url", "v.video_storage_id", "v.thumbnail_url", "v.thumbnail_storage_id",
	"v.title", "v.description", "v.duration", "v.views", "v.is_published", "v.owner_id",
	"v.created_at", "v.updated_at",
}

var videoSelect = strings.Join(append(append([]string{}, videoColumns...), ownerColumns("u")...), ", ")

var videoSorts = map[string]string{
	query.DefaultSort: "v.created_at",
	"updatedAt":       "v.updated_at",
	"title":           "v.title",
	"views":           "v.views",
	"duration":        "v.duration",
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	var owner ownerScan
	dest := []any{&v.ID, &v.VideoFile.URL, &v.VideoFile.StorageID, &v.Thumbnail.URL, &v.Thumbnail.StorageID,
		&v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.OwnerID,
		&v.CreatedAt, &v.UpdatedAt}
	if err := row.Scan(append(dest, owner.dest()...)...); err != nil {
		return models.Video{}, err
	}
	v.Owner = owner.profile()
	return v, nil
}

// VideoFilter narrows a video listing.
type VideoFilter struct {
	OwnerID       string
	PublishedOnly bool
}

// Create persists a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, video_url, video_storage_id, thumbnail_url, thumbnail_storage_id,
            title, description, duration, views, is_published, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.VideoFile.URL, video.VideoFile.StorageID, video.Thumbnail.URL, video.Thumbnail.StorageID,
		video.Title, video.Description, video.Duration, video.Views, video.IsPublished, video.OwnerID,
		video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindByID fetches a video with its owner profile.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `
        SELECT `+videoSelect+`
        FROM videos v
        LEFT JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, id))
	if err != nil {
		if isNoRows(err) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// List pages through videos matching the filter, searching titles.
func (r *PostgresVideoRepository) List(ctx context.Context, filter VideoFilter, params query.Params) (query.Page[models.Video], error) {
	p := query.From("videos", "v").
		Select(videoSelect).
		LeftJoin("users", "u", "u.id = v.owner_id").
		Sortable(videoSorts)
	if filter.PublishedOnly {
		p.Match("v.is_published", true)
	}
	if filter.OwnerID != "" {
		p.Match("v.owner_id", filter.OwnerID)
	}
	p.Search("v.title", params.Query)

	return queryPage(ctx, r.pool, p, params, func(rows pgx.Rows) (models.Video, error) {
		return scanVideo(rows)
	})
}

// Update writes the editable fields of a video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, thumbnail_storage_id = $5, updated_at = $6
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.Thumbnail.URL, video.Thumbnail.StorageID, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublish flips the publish flag in place and returns the new value.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, id string, at time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var published bool
	err = conn.QueryRow(ctx, `
        UPDATE videos SET is_published = NOT is_published, updated_at = $2
        WHERE id = $1
        RETURNING is_published
    `, id, at).Scan(&published)
	if err != nil {
		if isNoRows(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle video publish: %w", err)
	}
	return published, nil
}

// IncrementViews counts one view of the video.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the video. Comments, likes and playlist entries referencing it are kept.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
