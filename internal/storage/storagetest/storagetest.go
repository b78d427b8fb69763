// Package storagetest holds behaviour checks shared by every storage.Storage
// implementation.
package storagetest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/media-service/internal/storage"
	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/documents"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

// NewMedia returns an unsaved active object with a unique hash and path.
func NewMedia(refs int) *media.MediaObject {
	id := uuid.NewString()
	sum := sha256.Sum256([]byte(id))
	return &media.MediaObject{
		ID:             id,
		ContentHash:    hex.EncodeToString(sum[:]),
		StoragePath:    "2024/01/" + id + ".pdf",
		OriginalName:   "notes.pdf",
		MimeType:       "application/pdf",
		SizeBytes:      42,
		Category:       media.CategoryDocument,
		ReferenceCount: refs,
		Status:         media.StatusActive,
		UploadedBy:     "uploader-1",
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

// Run exercises s. The store may hold rows from other runs.
func Run(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	t.Run("insert conflicts on live hash", func(t *testing.T) {
		m := NewMedia(1)
		ok, err := s.InsertMedia(ctx, m)
		require.NoError(t, err)
		require.True(t, ok)

		dup := NewMedia(1)
		dup.ContentHash = m.ContentHash
		ok, err = s.InsertMedia(ctx, dup)
		require.NoError(t, err)
		assert.False(t, ok)

		found, err := s.FindMediaByHash(ctx, m.ContentHash)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, m.ID, found.ID)
	})

	t.Run("deleted rows free their hash", func(t *testing.T) {
		m := NewMedia(0)
		m.Status = media.StatusOrphaned
		_, err := s.InsertMedia(ctx, m)
		require.NoError(t, err)

		claimed, err := s.MarkMediaDeleted(ctx, m.ID, storage.PurgeClaim{Unreferenced: true})
		require.NoError(t, err)
		require.NotNil(t, claimed)
		assert.Equal(t, media.StatusDeleted, claimed.Status)

		found, err := s.FindMediaByHash(ctx, m.ContentHash)
		require.NoError(t, err)
		assert.Nil(t, found)

		again := NewMedia(1)
		again.ContentHash = m.ContentHash
		ok, err := s.InsertMedia(ctx, again)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = s.IncrementReference(ctx, m.ID)
		assert.ErrorIs(t, err, types.ErrMediaDeleted)
	})

	t.Run("reference counting", func(t *testing.T) {
		m := NewMedia(1)
		_, err := s.InsertMedia(ctx, m)
		require.NoError(t, err)

		got, err := s.IncrementReference(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.ReferenceCount)

		got, clamped, err := s.DecrementReference(ctx, m.ID)
		require.NoError(t, err)
		assert.False(t, clamped)
		assert.Equal(t, 1, got.ReferenceCount)
		assert.Equal(t, media.StatusActive, got.Status)

		got, _, err = s.DecrementReference(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.ReferenceCount)
		assert.Equal(t, media.StatusOrphaned, got.Status)

		got, clamped, err = s.DecrementReference(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, clamped)
		assert.Equal(t, 0, got.ReferenceCount)

		got, err = s.IncrementReference(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.ReferenceCount)
		assert.Equal(t, media.StatusActive, got.Status)
	})

	t.Run("unknown media", func(t *testing.T) {
		id := uuid.NewString()
		_, err := s.GetMedia(ctx, id)
		var nf *types.MediaNotFoundError
		assert.True(t, errors.As(err, &nf))

		_, err = s.IncrementReference(ctx, id)
		assert.True(t, errors.As(err, &nf))

		_, _, err = s.DecrementReference(ctx, id)
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("purge claims", func(t *testing.T) {
		m := NewMedia(1)
		_, err := s.InsertMedia(ctx, m)
		require.NoError(t, err)

		claimed, err := s.MarkMediaDeleted(ctx, m.ID, storage.PurgeClaim{Unreferenced: true})
		require.NoError(t, err)
		assert.Nil(t, claimed)

		claimed, err = s.MarkMediaDeleted(ctx, m.ID, storage.PurgeClaim{OrphanedBefore: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		assert.Nil(t, claimed, "active rows are never claimed as orphans")

		_, _, err = s.DecrementReference(ctx, m.ID)
		require.NoError(t, err)

		claimed, err = s.MarkMediaDeleted(ctx, m.ID, storage.PurgeClaim{OrphanedBefore: time.Now().Add(-time.Hour)})
		require.NoError(t, err)
		assert.Nil(t, claimed, "recent orphans are kept")

		claimed, err = s.MarkMediaDeleted(ctx, m.ID, storage.PurgeClaim{Unreferenced: true, OrphanedBefore: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		require.NotNil(t, claimed)

		listed, err := s.ListMediaByStatus(ctx, media.StatusDeleted, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Contains(t, ids(listed), m.ID)

		require.NoError(t, s.RemoveMedia(ctx, m.ID))
		var nf *types.MediaNotFoundError
		assert.True(t, errors.As(s.RemoveMedia(ctx, m.ID), &nf))
	})

	t.Run("metadata", func(t *testing.T) {
		m := NewMedia(1)
		_, err := s.InsertMedia(ctx, m)
		require.NoError(t, err)

		name := "renamed.pdf"
		cat := media.CategoryImage
		got, err := s.UpdateMediaMetadata(ctx, m.ID, media.MetadataPatch{OriginalName: &name, Category: &cat})
		require.NoError(t, err)
		assert.Equal(t, "renamed.pdf", got.OriginalName)
		assert.Equal(t, media.CategoryImage, got.Category)
		assert.Equal(t, m.ContentHash, got.ContentHash)
	})

	t.Run("documents", func(t *testing.T) {
		m := NewMedia(1)
		_, err := s.InsertMedia(ctx, m)
		require.NoError(t, err)

		uploader := "student-" + uuid.NewString()
		doc := &documents.Document{
			ID:         uuid.NewString(),
			Kind:       documents.KindClass,
			Title:      "Week 1",
			MediaID:    &m.ID,
			Status:     documents.StatusPending,
			UploadedBy: uploader,
			CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		}
		require.NoError(t, s.CreateDocument(ctx, doc))

		got, err := s.GetDocument(ctx, documents.KindClass, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Week 1", got.Title)
		assert.Equal(t, m.ID, got.BoundMedia())

		_, err = s.GetDocument(ctx, documents.KindStudy, doc.ID)
		var dnf *types.DocumentNotFoundError
		assert.True(t, errors.As(err, &dnf))

		reason := "blurry"
		reviewer := "admin-1"
		now := time.Now().UTC().Truncate(time.Microsecond)
		got.Status = documents.StatusRejected
		got.RejectionReason = &reason
		got.ApprovedBy = &reviewer
		got.ApprovedAt = &now
		got.MediaID = nil
		require.NoError(t, s.UpdateDocument(ctx, got))

		got, err = s.GetDocument(ctx, documents.KindClass, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, documents.StatusRejected, got.Status)
		require.NotNil(t, got.RejectionReason)
		assert.Equal(t, "blurry", *got.RejectionReason)
		assert.Nil(t, got.MediaID)

		list, err := s.ListDocumentsByUploader(ctx, documents.KindClass, uploader)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, s.DeleteDocument(ctx, documents.KindClass, doc.ID))
		assert.True(t, errors.As(s.DeleteDocument(ctx, documents.KindClass, doc.ID), &dnf))
	})

	t.Run("stats", func(t *testing.T) {
		before, err := s.MediaStats(ctx)
		require.NoError(t, err)

		m := NewMedia(1)
		m.Category = media.CategoryAudio
		m.SizeBytes = 1000
		_, err = s.InsertMedia(ctx, m)
		require.NoError(t, err)

		after, err := s.MediaStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.TotalFiles+1, after.TotalFiles)
		assert.Equal(t, before.TotalSize+1000, after.TotalSize)
		assert.Equal(t, before.ByCategory[media.CategoryAudio].Count+1, after.ByCategory[media.CategoryAudio].Count)
	})
}

func ids(objs []media.MediaObject) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.ID)
	}
	return out
}
