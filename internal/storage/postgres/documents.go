package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/documents"
)

const documentColumns = `id, title, description, url, file_name, media_id, status,
	rejection_reason, uploaded_by, approved_by, approved_at, created_at, updated_at`

func scanDocument(row rowScanner, kind documents.Kind) (*documents.Document, error) {
	d := documents.Document{Kind: kind}
	var mediaID, reason, approvedBy sql.NullString
	var approvedAt sql.NullTime
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.URL, &d.FileName, &mediaID, &d.Status,
		&reason, &d.UploadedBy, &approvedBy, &approvedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if mediaID.Valid {
		d.MediaID = &mediaID.String
	}
	if reason.Valid {
		d.RejectionReason = &reason.String
	}
	if approvedBy.Valid {
		d.ApprovedBy = &approvedBy.String
	}
	if approvedAt.Valid {
		d.ApprovedAt = &approvedAt.Time
	}
	return &d, nil
}

func (p *Postgres) CreateDocument(ctx context.Context, doc *documents.Document) error {
	query := fmt.Sprintf(`
	INSERT INTO %s (id, title, description, url, file_name, media_id, status,
		rejection_reason, uploaded_by, approved_by, approved_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	RETURNING created_at, updated_at
	`, doc.Kind.Table())

	err := p.Db.QueryRowContext(ctx, query, doc.ID, doc.Title, doc.Description, doc.URL, doc.FileName,
		doc.MediaID, doc.Status, doc.RejectionReason, doc.UploadedBy, doc.ApprovedBy, doc.ApprovedAt,
		doc.CreatedAt).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create %s material: %w", doc.Kind, err)
	}
	return nil
}

func (p *Postgres) GetDocument(ctx context.Context, kind documents.Kind, id string) (*documents.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, kind.Table())
	d, err := scanDocument(p.Db.QueryRowContext(ctx, query, id), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.DocumentNotFoundError{Kind: string(kind), ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get %s material: %w", kind, err)
	}
	return d, nil
}

func (p *Postgres) UpdateDocument(ctx context.Context, doc *documents.Document) error {
	query := fmt.Sprintf(`
	UPDATE %s SET
		title = $2, description = $3, url = $4, file_name = $5, media_id = $6, status = $7,
		rejection_reason = $8, approved_by = $9, approved_at = $10, updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`, doc.Kind.Table())

	err := p.Db.QueryRowContext(ctx, query, doc.ID, doc.Title, doc.Description, doc.URL, doc.FileName,
		doc.MediaID, doc.Status, doc.RejectionReason, doc.ApprovedBy, doc.ApprovedAt).Scan(&doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &types.DocumentNotFoundError{Kind: string(doc.Kind), ID: doc.ID}
	}
	if err != nil {
		return fmt.Errorf("update %s material: %w", doc.Kind, err)
	}
	return nil
}

func (p *Postgres) DeleteDocument(ctx context.Context, kind documents.Kind, id string) error {
	res, err := p.Db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kind.Table()), id)
	if err != nil {
		return fmt.Errorf("delete %s material: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.DocumentNotFoundError{Kind: string(kind), ID: id}
	}
	return nil
}

func (p *Postgres) ListDocumentsByUploader(ctx context.Context, kind documents.Kind, uploaderID string) ([]documents.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE uploaded_by = $1 ORDER BY created_at DESC`,
		documentColumns, kind.Table())
	rows, err := p.Db.QueryContext(ctx, query, uploaderID)
	if err != nil {
		return nil, fmt.Errorf("list %s materials: %w", kind, err)
	}
	defer rows.Close()

	var out []documents.Document
	for rows.Next() {
		d, err := scanDocument(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s material: %w", kind, err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
