package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/princekumarofficial/media-service/internal/storage"
	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

const mediaColumns = `id, content_hash, storage_path, original_name, mime_type, size_bytes,
	category, reference_count, status, uploaded_by, created_at, updated_at`

func scanMedia(row rowScanner) (*media.MediaObject, error) {
	var m media.MediaObject
	err := row.Scan(&m.ID, &m.ContentHash, &m.StoragePath, &m.OriginalName, &m.MimeType, &m.SizeBytes,
		&m.Category, &m.ReferenceCount, &m.Status, &m.UploadedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *Postgres) FindMediaByHash(ctx context.Context, hash string) (*media.MediaObject, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE content_hash = $1 AND status <> 'deleted'`
	m, err := scanMedia(p.Db.QueryRowContext(ctx, query, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media by hash: %w", err)
	}
	return m, nil
}

func (p *Postgres) InsertMedia(ctx context.Context, obj *media.MediaObject) (bool, error) {
	query := `
	INSERT INTO media (id, content_hash, storage_path, original_name, mime_type, size_bytes,
		category, reference_count, status, uploaded_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	ON CONFLICT (content_hash) WHERE status <> 'deleted' DO NOTHING
	RETURNING created_at, updated_at
	`
	err := p.Db.QueryRowContext(ctx, query, obj.ID, obj.ContentHash, obj.StoragePath, obj.OriginalName,
		obj.MimeType, obj.SizeBytes, obj.Category, obj.ReferenceCount, obj.Status, obj.UploadedBy,
		obj.CreatedAt).Scan(&obj.CreatedAt, &obj.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert media: %w", err)
	}
	return true, nil
}

func (p *Postgres) GetMedia(ctx context.Context, id string) (*media.MediaObject, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1`
	m, err := scanMedia(p.Db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.MediaNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

func (p *Postgres) UpdateMediaMetadata(ctx context.Context, id string, patch media.MetadataPatch) (*media.MediaObject, error) {
	query := `
	UPDATE media SET
		original_name = COALESCE($2, original_name),
		category = COALESCE($3, category),
		updated_at = CASE WHEN status = 'orphaned' THEN updated_at ELSE NOW() END
	WHERE id = $1 AND status <> 'deleted'
	RETURNING ` + mediaColumns
	var name, category sql.NullString
	if patch.OriginalName != nil {
		name = sql.NullString{String: *patch.OriginalName, Valid: true}
	}
	if patch.Category != nil {
		category = sql.NullString{String: string(*patch.Category), Valid: true}
	}
	m, err := scanMedia(p.Db.QueryRowContext(ctx, query, id, name, category))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.MediaNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("update media metadata: %w", err)
	}
	return m, nil
}

func (p *Postgres) IncrementReference(ctx context.Context, id string) (*media.MediaObject, error) {
	query := `
	UPDATE media SET
		reference_count = reference_count + 1,
		status = 'active',
		updated_at = NOW()
	WHERE id = $1 AND status <> 'deleted'
	RETURNING ` + mediaColumns
	m, err := scanMedia(p.Db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := p.GetMedia(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, types.ErrMediaDeleted
	}
	if err != nil {
		return nil, fmt.Errorf("increment reference: %w", err)
	}
	return m, nil
}

func (p *Postgres) DecrementReference(ctx context.Context, id string) (*media.MediaObject, bool, error) {
	query := `
	UPDATE media SET
		reference_count = reference_count - 1,
		status = CASE WHEN reference_count - 1 = 0 THEN 'orphaned' ELSE status END,
		updated_at = NOW()
	WHERE id = $1 AND reference_count > 0 AND status <> 'deleted'
	RETURNING ` + mediaColumns
	m, err := scanMedia(p.Db.QueryRowContext(ctx, query, id))
	if err == nil {
		return m, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("decrement reference: %w", err)
	}

	// Count already zero: never go negative, but repair a stray active status.
	repair := `
	UPDATE media SET status = 'orphaned', updated_at = NOW()
	WHERE id = $1 AND reference_count = 0 AND status = 'active'
	RETURNING ` + mediaColumns
	m, err = scanMedia(p.Db.QueryRowContext(ctx, repair, id))
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("repair orphan status: %w", err)
	}
	m, err = p.GetMedia(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (p *Postgres) MarkMediaDeleted(ctx context.Context, id string, claim storage.PurgeClaim) (*media.MediaObject, error) {
	query := `
	UPDATE media SET status = 'deleted', updated_at = NOW()
	WHERE id = $1 AND status <> 'deleted'
		AND (NOT $2 OR reference_count = 0)
		AND ($3::timestamptz IS NULL OR (status = 'orphaned' AND updated_at <= $3))
	RETURNING ` + mediaColumns
	var before sql.NullTime
	if !claim.OrphanedBefore.IsZero() {
		before = sql.NullTime{Time: claim.OrphanedBefore, Valid: true}
	}
	m, err := scanMedia(p.Db.QueryRowContext(ctx, query, id, claim.Unreferenced, before))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := p.GetMedia(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mark media deleted: %w", err)
	}
	return m, nil
}

func (p *Postgres) RemoveMedia(ctx context.Context, id string) error {
	res, err := p.Db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove media: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.MediaNotFoundError{ID: id}
	}
	return nil
}

func (p *Postgres) ListMediaByStatus(ctx context.Context, status media.Status, before time.Time) ([]media.MediaObject, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE status = $1 AND updated_at <= $2 ORDER BY updated_at`
	rows, err := p.Db.QueryContext(ctx, query, status, before)
	if err != nil {
		return nil, fmt.Errorf("list media by status: %w", err)
	}
	defer rows.Close()

	var out []media.MediaObject
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (p *Postgres) MediaStats(ctx context.Context) (*media.Stats, error) {
	stats := &media.Stats{ByCategory: make(map[media.Category]media.CategoryStats)}

	rows, err := p.Db.QueryContext(ctx, `
	SELECT category, COUNT(*), COALESCE(SUM(size_bytes), 0)
	FROM media WHERE status = 'active' GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("media stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cat media.Category
		var cs media.CategoryStats
		if err := rows.Scan(&cat, &cs.Count, &cs.Size); err != nil {
			return nil, fmt.Errorf("scan media stats: %w", err)
		}
		stats.ByCategory[cat] = cs
		stats.TotalFiles += cs.Count
		stats.TotalSize += cs.Size
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = p.Db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media WHERE status = 'orphaned'`).Scan(&stats.OrphanedCount)
	if err != nil {
		return nil, fmt.Errorf("count orphaned media: %w", err)
	}
	return stats, nil
}
