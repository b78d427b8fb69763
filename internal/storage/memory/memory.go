// Package memory is an in-process Storage used by tests and by the
// "memory" database driver for local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/princekumarofficial/media-service/internal/storage"
	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/documents"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

type Store struct {
	mu    sync.Mutex
	media map[string]*media.MediaObject
	docs  map[documents.Kind]map[string]*documents.Document
	// Now is the clock; tests may replace it.
	Now func() time.Time
}

var _ storage.Storage = (*Store)(nil)

func New() *Store {
	return &Store{
		media: make(map[string]*media.MediaObject),
		docs: map[documents.Kind]map[string]*documents.Document{
			documents.KindStudy: {},
			documents.KindClass: {},
		},
		Now: time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) now() time.Time {
	return s.Now().UTC()
}

func copyMedia(m *media.MediaObject) *media.MediaObject {
	c := *m
	return &c
}

func (s *Store) FindMediaByHash(_ context.Context, hash string) (*media.MediaObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.media {
		if m.ContentHash == hash && m.Status != media.StatusDeleted {
			return copyMedia(m), nil
		}
	}
	return nil, nil
}

func (s *Store) InsertMedia(_ context.Context, obj *media.MediaObject) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.media {
		if m.ContentHash == obj.ContentHash && m.Status != media.StatusDeleted {
			return false, nil
		}
	}
	obj.UpdatedAt = obj.CreatedAt
	s.media[obj.ID] = copyMedia(obj)
	return true, nil
}

func (s *Store) GetMedia(_ context.Context, id string) (*media.MediaObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		return nil, &types.MediaNotFoundError{ID: id}
	}
	return copyMedia(m), nil
}

func (s *Store) UpdateMediaMetadata(_ context.Context, id string, patch media.MetadataPatch) (*media.MediaObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok || m.Status == media.StatusDeleted {
		return nil, &types.MediaNotFoundError{ID: id}
	}
	if patch.OriginalName != nil {
		m.OriginalName = *patch.OriginalName
	}
	if patch.Category != nil {
		m.Category = *patch.Category
	}
	if m.Status != media.StatusOrphaned {
		m.UpdatedAt = s.now()
	}
	return copyMedia(m), nil
}

func (s *Store) IncrementReference(_ context.Context, id string) (*media.MediaObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		return nil, &types.MediaNotFoundError{ID: id}
	}
	if m.Status == media.StatusDeleted {
		return nil, types.ErrMediaDeleted
	}
	m.ReferenceCount++
	m.Status = media.StatusActive
	m.UpdatedAt = s.now()
	return copyMedia(m), nil
}

func (s *Store) DecrementReference(_ context.Context, id string) (*media.MediaObject, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		return nil, false, &types.MediaNotFoundError{ID: id}
	}
	if m.Status == media.StatusDeleted {
		return copyMedia(m), true, nil
	}
	if m.ReferenceCount == 0 {
		if m.Status == media.StatusActive {
			m.Status = media.StatusOrphaned
			m.UpdatedAt = s.now()
		}
		return copyMedia(m), true, nil
	}
	m.ReferenceCount--
	if m.ReferenceCount == 0 {
		m.Status = media.StatusOrphaned
	}
	m.UpdatedAt = s.now()
	return copyMedia(m), false, nil
}

func (s *Store) MarkMediaDeleted(_ context.Context, id string, claim storage.PurgeClaim) (*media.MediaObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		return nil, &types.MediaNotFoundError{ID: id}
	}
	if m.Status == media.StatusDeleted {
		return nil, nil
	}
	if claim.Unreferenced && m.ReferenceCount != 0 {
		return nil, nil
	}
	if !claim.OrphanedBefore.IsZero() &&
		(m.Status != media.StatusOrphaned || m.UpdatedAt.After(claim.OrphanedBefore)) {
		return nil, nil
	}
	m.Status = media.StatusDeleted
	m.UpdatedAt = s.now()
	return copyMedia(m), nil
}

func (s *Store) RemoveMedia(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.media[id]; !ok {
		return &types.MediaNotFoundError{ID: id}
	}
	delete(s.media, id)
	// ON DELETE SET NULL
	for _, byID := range s.docs {
		for _, d := range byID {
			if d.MediaID != nil && *d.MediaID == id {
				d.MediaID = nil
			}
		}
	}
	return nil
}

func (s *Store) ListMediaByStatus(_ context.Context, status media.Status, before time.Time) ([]media.MediaObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []media.MediaObject
	for _, m := range s.media {
		if m.Status == status && !m.UpdatedAt.After(before) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) MediaStats(_ context.Context) (*media.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &media.Stats{ByCategory: make(map[media.Category]media.CategoryStats)}
	for _, m := range s.media {
		switch m.Status {
		case media.StatusActive:
			cs := stats.ByCategory[m.Category]
			cs.Count++
			cs.Size += m.SizeBytes
			stats.ByCategory[m.Category] = cs
			stats.TotalFiles++
			stats.TotalSize += m.SizeBytes
		case media.StatusOrphaned:
			stats.OrphanedCount++
		}
	}
	return stats, nil
}

func copyDocument(d *documents.Document) *documents.Document {
	c := *d
	if d.MediaID != nil {
		v := *d.MediaID
		c.MediaID = &v
	}
	if d.RejectionReason != nil {
		v := *d.RejectionReason
		c.RejectionReason = &v
	}
	if d.ApprovedBy != nil {
		v := *d.ApprovedBy
		c.ApprovedBy = &v
	}
	if d.ApprovedAt != nil {
		v := *d.ApprovedAt
		c.ApprovedAt = &v
	}
	return &c
}

func (s *Store) table(kind documents.Kind) (map[string]*documents.Document, error) {
	t, ok := s.docs[kind]
	if !ok {
		return nil, types.ErrInvalidKind
	}
	return t, nil
}

func (s *Store) CreateDocument(_ context.Context, doc *documents.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(doc.Kind)
	if err != nil {
		return err
	}
	if doc.MediaID != nil {
		if _, ok := s.media[*doc.MediaID]; !ok {
			return &types.MediaNotFoundError{ID: *doc.MediaID}
		}
	}
	doc.UpdatedAt = doc.CreatedAt
	t[doc.ID] = copyDocument(doc)
	return nil
}

func (s *Store) GetDocument(_ context.Context, kind documents.Kind, id string) (*documents.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	d, ok := t[id]
	if !ok {
		return nil, &types.DocumentNotFoundError{Kind: string(kind), ID: id}
	}
	return copyDocument(d), nil
}

func (s *Store) UpdateDocument(_ context.Context, doc *documents.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(doc.Kind)
	if err != nil {
		return err
	}
	if _, ok := t[doc.ID]; !ok {
		return &types.DocumentNotFoundError{Kind: string(doc.Kind), ID: doc.ID}
	}
	if doc.MediaID != nil {
		if _, ok := s.media[*doc.MediaID]; !ok {
			return &types.MediaNotFoundError{ID: *doc.MediaID}
		}
	}
	doc.UpdatedAt = s.now()
	t[doc.ID] = copyDocument(doc)
	return nil
}

func (s *Store) DeleteDocument(_ context.Context, kind documents.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(kind)
	if err != nil {
		return err
	}
	if _, ok := t[id]; !ok {
		return &types.DocumentNotFoundError{Kind: string(kind), ID: id}
	}
	delete(t, id)
	return nil
}

func (s *Store) ListDocumentsByUploader(_ context.Context, kind documents.Kind, uploaderID string) ([]documents.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	var out []documents.Document
	for _, d := range t {
		if d.UploadedBy == uploaderID {
			out = append(out, *copyDocument(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
