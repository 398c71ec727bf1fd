package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
)

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists and their membership.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// playlistSelect aggregates the ordered video ids so one row carries the whole playlist.
var playlistSelect = "p.id, p.name, p.description, p.thumbnail_url, p.thumbnail_storage_id, p.owner_id, " +
	"p.created_at, p.updated_at, " +
	"COALESCE((SELECT array_agg(pv.video_id ORDER BY pv.added_at, pv.video_id) FROM playlist_videos pv WHERE pv.playlist_id = p.id), ARRAY[]::TEXT[]), " +
	"u.id, u.username, u.full_name, u.avatar_url, u.avatar_storage_id"

var playlistSorts = map[string]string{
	query.DefaultSort: "p.created_at",
	"updatedAt":       "p.updated_at",
	"name":            "p.name",
}

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var p models.Playlist
	var owner ownerScan
	dest := []any{&p.ID, &p.Name, &p.Description, &p.Thumbnail.URL, &p.Thumbnail.StorageID, &p.OwnerID,
		&p.CreatedAt, &p.UpdatedAt, &p.VideoIDs}
	if err := row.Scan(append(dest, owner.dest()...)...); err != nil {
		return models.Playlist{}, err
	}
	if p.VideoIDs == nil {
		p.VideoIDs = []string{}
	}
	p.Owner = owner.profile()
	return p, nil
}

// Create persists a new playlist. A duplicate name returns ErrConflict.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, name, description, thumbnail_url, thumbnail_storage_id, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, playlist.ID, playlist.Name, playlist.Description, playlist.Thumbnail.URL, playlist.Thumbnail.StorageID,
		playlist.OwnerID, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert playlist: %w", err)
	}
	return nil
}

func (r *PostgresPlaylistRepository) findOne(ctx context.Context, where string, arg any) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := scanPlaylist(conn.QueryRow(ctx, `
        SELECT `+playlistSelect+`
        FROM playlists p
        LEFT JOIN users u ON u.id = p.owner_id
        WHERE `+where, arg))
	if err != nil {
		if isNoRows(err) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}
	return playlist, nil
}

// FindByID fetches a playlist with its video ids and owner profile.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	return r.findOne(ctx, "p.id = $1", id)
}

// FindByName fetches a playlist by its unique name.
func (r *PostgresPlaylistRepository) FindByName(ctx context.Context, name string) (models.Playlist, error) {
	return r.findOne(ctx, "p.name = $1", name)
}

// ListByOwner pages through the playlists of ownerID, searching names.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string, params query.Params) (query.Page[models.Playlist], error) {
	p := query.From("playlists", "p").
		Select(playlistSelect).
		LeftJoin("users", "u", "u.id = p.owner_id").
		Match("p.owner_id", ownerID).
		Search("p.name", params.Query).
		Sortable(playlistSorts)

	return queryPage(ctx, r.pool, p, params, func(rows pgx.Rows) (models.Playlist, error) {
		return scanPlaylist(rows)
	})
}

// Detail loads the playlist with its videos resolved in playlist order.
// Videos deleted since being added are skipped.
func (r *PostgresPlaylistRepository) Detail(ctx context.Context, id string) (models.PlaylistDetail, error) {
	playlist, err := r.FindByID(ctx, id)
	if err != nil {
		return models.PlaylistDetail{}, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.PlaylistDetail{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoSelect+`
        FROM playlist_videos pv
        JOIN videos v ON v.id = pv.video_id
        LEFT JOIN users u ON u.id = v.owner_id
        WHERE pv.playlist_id = $1
        ORDER BY pv.added_at ASC, pv.video_id ASC
    `, id)
	if err != nil {
		return models.PlaylistDetail{}, fmt.Errorf("select playlist videos: %w", err)
	}
	defer rows.Close()

	detail := models.PlaylistDetail{Playlist: playlist, Videos: []models.Video{}}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return models.PlaylistDetail{}, fmt.Errorf("scan playlist video: %w", err)
		}
		detail.Videos = append(detail.Videos, video)
	}
	if err := rows.Err(); err != nil {
		return models.PlaylistDetail{}, fmt.Errorf("iterate playlist videos: %w", err)
	}
	return detail, nil
}

// Update writes the name, description and thumbnail. A name taken by another
// playlist returns ErrConflict.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists
        SET name = $2, description = $3, thumbnail_url = $4, thumbnail_storage_id = $5, updated_at = $6
        WHERE id = $1
    `, playlist.ID, playlist.Name, playlist.Description, playlist.Thumbnail.URL, playlist.Thumbnail.StorageID, playlist.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the playlist and its membership rows.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1`, id); err != nil {
			return fmt.Errorf("delete playlist videos: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete playlist: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddVideo appends the video to the playlist. A video already present returns ErrConflict.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string, at time.Time) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, added_at)
            VALUES ($1, $2, $3)
            ON CONFLICT DO NOTHING
        `, playlistID, videoID, at)
		if err != nil {
			return fmt.Errorf("insert playlist video: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}
		if _, err := tx.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, playlistID, at); err != nil {
			return fmt.Errorf("touch playlist: %w", err)
		}
		return nil
	})
}

// RemoveVideo drops the video from the playlist. A video not present returns ErrNotFound.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string, at time.Time) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
		if err != nil {
			return fmt.Errorf("delete playlist video: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, playlistID, at); err != nil {
			return fmt.Errorf("touch playlist: %w", err)
		}
		return nil
	})
}
