package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/query"
)

// ownerColumns projects the reduced profile of the user joined under alias.
func ownerColumns(alias string) []string {
	return []string{
		alias + ".id",
		alias + ".username",
		alias + ".full_name",
		alias + ".avatar_url",
		alias + ".avatar_storage_id",
	}
}

// ownerScan receives the nullable columns of a left-joined owner.
type ownerScan struct {
	id, username, fullName, avatarURL, avatarStorageID *string
}

func (o *ownerScan) dest() []any {
	return []any{&o.id, &o.username, &o.fullName, &o.avatarURL, &o.avatarStorageID}
}

// profile returns nil when the join found no user.
func (o *ownerScan) profile() *models.OwnerProfile {
	if o.id == nil {
		return nil
	}
	return &models.OwnerProfile{
		ID:       *o.id,
		Username: deref(o.username),
		FullName: deref(o.fullName),
		Avatar:   models.Asset{URL: deref(o.avatarURL), StorageID: deref(o.avatarStorageID)},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// queryPage runs the count and page statements of the pipeline on one connection.
func queryPage[T any](ctx context.Context, pool db.Pool, p *query.Pipeline, params query.Params, scan func(pgx.Rows) (T, error)) (query.Page[T], error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return query.Page[T]{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	countSQL, countArgs := p.CountSQL()
	var total int64
	if err := conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return query.Page[T]{}, fmt.Errorf("count rows: %w", err)
	}

	docs := make([]T, 0, params.Limit)
	if int64(params.Offset()) < total {
		sql, args := p.Paginate(params).SQL()
		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return query.Page[T]{}, fmt.Errorf("query page: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			doc, err := scan(rows)
			if err != nil {
				return query.Page[T]{}, fmt.Errorf("scan row: %w", err)
			}
			docs = append(docs, doc)
		}
		if err := rows.Err(); err != nil {
			return query.Page[T]{}, fmt.Errorf("iterate rows: %w", err)
		}
	}

	return query.NewPage(docs, total, params), nil
}
