package storage

import (
	"context"
	"time"

	"github.com/princekumarofficial/media-service/internal/types/documents"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

// PurgeClaim narrows which rows MarkMediaDeleted may move to the terminal
// deleted status. The zero value claims any row that is not already deleted.
type PurgeClaim struct {
	// Unreferenced requires reference_count = 0.
	Unreferenced bool
	// OrphanedBefore, when set, requires status orphaned with updated_at at or
	// before it.
	OrphanedBefore time.Time
}

type MediaRepository interface {
	// FindMediaByHash returns the live (not deleted) object with hash, or nil.
	FindMediaByHash(ctx context.Context, hash string) (*media.MediaObject, error)
	// InsertMedia reports false without error when a live row already holds
	// the same content hash.
	InsertMedia(ctx context.Context, obj *media.MediaObject) (bool, error)
	GetMedia(ctx context.Context, id string) (*media.MediaObject, error)
	UpdateMediaMetadata(ctx context.Context, id string, patch media.MetadataPatch) (*media.MediaObject, error)
	// IncrementReference adds one reference and reactivates orphans. Deleted
	// rows are refused with types.ErrMediaDeleted.
	IncrementReference(ctx context.Context, id string) (*media.MediaObject, error)
	// DecrementReference removes one reference, orphaning the object at zero.
	// clamped is true when the count was already zero.
	DecrementReference(ctx context.Context, id string) (obj *media.MediaObject, clamped bool, err error)
	// MarkMediaDeleted returns nil without error when the row exists but the
	// claim does not hold.
	MarkMediaDeleted(ctx context.Context, id string, claim PurgeClaim) (*media.MediaObject, error)
	RemoveMedia(ctx context.Context, id string) error
	// ListMediaByStatus returns rows in status last updated at or before before.
	ListMediaByStatus(ctx context.Context, status media.Status, before time.Time) ([]media.MediaObject, error)
	MediaStats(ctx context.Context) (*media.Stats, error)
}

type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *documents.Document) error
	GetDocument(ctx context.Context, kind documents.Kind, id string) (*documents.Document, error)
	UpdateDocument(ctx context.Context, doc *documents.Document) error
	DeleteDocument(ctx context.Context, kind documents.Kind, id string) error
	ListDocumentsByUploader(ctx context.Context, kind documents.Kind, uploaderID string) ([]documents.Document, error)
}

type Storage interface {
	MediaRepository
	DocumentRepository
	Close() error
}
