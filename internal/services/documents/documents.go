// Package documents runs the approval workflow for study and class
// materials and keeps media reference counts in step with their bindings.
package documents

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/princekumarofficial/media-service/internal/keylock"
	"github.com/princekumarofficial/media-service/internal/storage"
	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/documents"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

// MediaReferences is the reference counter documents bind through.
type MediaReferences interface {
	IncrementReference(ctx context.Context, id string) (*media.MediaObject, error)
	DecrementReference(ctx context.Context, id string) (*media.MediaObject, error)
}

// ReviewPublisher is told about published and rejected documents.
type ReviewPublisher interface {
	PublishDocumentReviewed(doc *documents.Document) error
}

type Service struct {
	repo      storage.DocumentRepository
	refs      MediaReferences
	publisher ReviewPublisher
	locks     *keylock.Locker
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the workflow. publisher may be nil.
func NewService(repo storage.DocumentRepository, refs MediaReferences, publisher ReviewPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		refs:      refs,
		publisher: publisher,
		locks:     keylock.New(),
		logger:    logger.With(slog.String("component", "documents")),
		now:       time.Now,
	}
}

// DeleteResult reports a document delete. ReleaseError is set when the
// document was removed but its media reference could not be released.
type DeleteResult struct {
	DocumentID      string `json:"documentId"`
	ReleasedMediaID string `json:"releasedMediaId,omitempty"`
	ReleaseError    string `json:"releaseError,omitempty"`
}

func (s *Service) lock(kind documents.Kind, id string) func() {
	return s.locks.Lock(string(kind) + ":" + id)
}

func (s *Service) Get(ctx context.Context, kind documents.Kind, id string) (*documents.Document, error) {
	return s.repo.GetDocument(ctx, kind, id)
}

// Create inserts a document. Contributions always start pending; direct
// creates start in draft unless the caller picks a status.
func (s *Service) Create(ctx context.Context, kind documents.Kind, origin documents.Origin, in documents.CreateInput, actorID string) (*documents.Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, types.ErrTitleRequired
	}

	status := documents.StatusDraft
	if origin == documents.OriginContribution {
		status = documents.StatusPending
	} else if in.Status != "" {
		if !in.Status.Valid() {
			return nil, &types.InvalidTransitionError{From: "", To: string(in.Status)}
		}
		status = in.Status
	}

	now := s.now().UTC()
	doc := &documents.Document{
		ID:          uuid.NewString(),
		Kind:        kind,
		Title:       title,
		Description: in.Description,
		URL:         in.URL,
		FileName:    in.FileName,
		Status:      status,
		UploadedBy:  actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.stamp(doc, status, actorID, "")

	if in.MediaID != "" {
		if _, err := s.refs.IncrementReference(ctx, in.MediaID); err != nil {
			return nil, err
		}
		mediaID := in.MediaID
		doc.MediaID = &mediaID
	}

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		if doc.MediaID != nil {
			s.release(ctx, *doc.MediaID, "create failed")
		}
		return nil, err
	}

	s.logger.Info("document created",
		slog.String("kind", string(kind)),
		slog.String("document_id", doc.ID),
		slog.String("origin", string(origin)),
		slog.String("status", string(status)),
		slog.String("media_id", doc.BoundMedia()))
	return doc, nil
}

// stamp applies the review fields a status write carries.
func (s *Service) stamp(doc *documents.Document, target documents.Status, actorID, reason string) {
	now := s.now().UTC()
	switch target {
	case documents.StatusPublished:
		doc.ApprovedBy = &actorID
		doc.ApprovedAt = &now
		doc.RejectionReason = nil
	case documents.StatusRejected:
		if strings.TrimSpace(reason) == "" {
			reason = documents.DefaultRejectionReason
		}
		doc.ApprovedBy = &actorID
		doc.ApprovedAt = &now
		doc.RejectionReason = &reason
	default:
		doc.RejectionReason = nil
	}
}

// UpdateStatus moves a document to target. Publishing and rejecting stamp
// the reviewer and time.
func (s *Service) UpdateStatus(ctx context.Context, kind documents.Kind, id string, target documents.Status, actorID, reason string) (*documents.Document, error) {
	unlock := s.lock(kind, id)
	defer unlock()

	doc, err := s.repo.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := documents.CheckTransition(doc.Status, target); err != nil {
		return nil, err
	}

	doc.Status = target
	s.stamp(doc, target, actorID, reason)
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document status updated",
		slog.String("kind", string(kind)),
		slog.String("document_id", id),
		slog.String("status", string(target)),
		slog.String("actor_id", actorID))

	if s.publisher != nil && (target == documents.StatusPublished || target == documents.StatusRejected) {
		if err := s.publisher.PublishDocumentReviewed(doc); err != nil {
			s.logger.Warn("failed to publish review event", slog.String("document_id", id), slog.String("error", err.Error()))
		}
	}
	return doc, nil
}

// Resubmit sends a rejected document back for review. Only its uploader may.
func (s *Service) Resubmit(ctx context.Context, kind documents.Kind, id, actorID string) (*documents.Document, error) {
	unlock := s.lock(kind, id)
	defer unlock()

	doc, err := s.repo.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if doc.UploadedBy != actorID {
		return nil, &types.NotOwnerError{DocumentID: id, ActorID: actorID}
	}
	if doc.Status != documents.StatusRejected {
		return nil, &types.InvalidTransitionError{From: string(doc.Status), To: string(documents.StatusPending)}
	}

	doc.Status = documents.StatusPending
	doc.RejectionReason = nil
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("document resubmitted", slog.String("kind", string(kind)), slog.String("document_id", id))
	return doc, nil
}

// Update applies patch. Changing the bound media takes the new reference
// before the document is written and drops the old one only afterwards, so
// a failure part way leaves an extra reference rather than a missing one.
func (s *Service) Update(ctx context.Context, kind documents.Kind, id string, patch documents.Patch) (*documents.Document, error) {
	unlock := s.lock(kind, id)
	defer unlock()

	doc, err := s.repo.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, types.ErrTitleRequired
		}
		doc.Title = title
	}
	if patch.Description != nil {
		doc.Description = *patch.Description
	}
	if patch.URL != nil {
		doc.URL = *patch.URL
	}
	if patch.FileName != nil {
		doc.FileName = *patch.FileName
	}

	oldMedia := doc.BoundMedia()
	newMedia := oldMedia
	if patch.MediaID != nil {
		newMedia = strings.TrimSpace(*patch.MediaID)
	}
	rebind := newMedia != oldMedia

	if rebind {
		if newMedia != "" {
			if _, err := s.refs.IncrementReference(ctx, newMedia); err != nil {
				return nil, err
			}
			doc.MediaID = &newMedia
		} else {
			doc.MediaID = nil
		}
	}

	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		if rebind && newMedia != "" {
			s.release(ctx, newMedia, "update failed")
		}
		return nil, err
	}

	if rebind {
		if oldMedia != "" {
			s.release(ctx, oldMedia, "rebound")
		}
		s.logger.Info("document media rebound",
			slog.String("kind", string(kind)),
			slog.String("document_id", id),
			slog.String("old_media_id", oldMedia),
			slog.String("new_media_id", newMedia))
	}
	return doc, nil
}

// Delete removes a document and then releases its media reference. A failed
// release is reported in the result, not as an error.
func (s *Service) Delete(ctx context.Context, kind documents.Kind, id string) (DeleteResult, error) {
	unlock := s.lock(kind, id)
	defer unlock()

	result := DeleteResult{DocumentID: id}
	doc, err := s.repo.GetDocument(ctx, kind, id)
	if err != nil {
		return result, err
	}
	if err := s.repo.DeleteDocument(ctx, kind, id); err != nil {
		return result, err
	}

	if mediaID := doc.BoundMedia(); mediaID != "" {
		if err := s.release(ctx, mediaID, "document deleted"); err != nil {
			result.ReleaseError = err.Error()
		} else {
			result.ReleasedMediaID = mediaID
		}
	}

	s.logger.Info("document deleted", slog.String("kind", string(kind)), slog.String("document_id", id))
	return result, nil
}

// release drops one reference and logs instead of failing the caller.
func (s *Service) release(ctx context.Context, mediaID, why string) error {
	if _, err := s.refs.DecrementReference(context.WithoutCancel(ctx), mediaID); err != nil {
		s.logger.Warn("failed to release media reference",
			slog.String("media_id", mediaID),
			slog.String("reason", why),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// BulkAction applies action to every id. Per item failures are collected
// and never stop the batch.
func (s *Service) BulkAction(ctx context.Context, kind documents.Kind, ids []string, action documents.BulkAction, actorID, reason string) (types.BatchResult, error) {
	result := types.BatchResult{Requested: len(ids)}
	if !action.Valid() {
		return result, types.ErrInvalidBulkAction
	}
	if action == documents.BulkReject && strings.TrimSpace(reason) == "" {
		reason = documents.BulkRejectionReason
	}

	for _, id := range ids {
		var err error
		if action == documents.BulkDelete {
			_, err = s.Delete(ctx, kind, id)
		} else {
			target, _ := action.TargetStatus()
			_, err = s.UpdateStatus(ctx, kind, id, target, actorID, reason)
		}
		if err != nil {
			s.logger.Warn("bulk action item failed",
				slog.String("action", string(action)),
				slog.String("document_id", id),
				slog.String("error", err.Error()))
			result.Fail(id, err)
			continue
		}
		result.Succeed()
	}

	s.logger.Info("bulk action finished",
		slog.String("kind", string(kind)),
		slog.String("action", string(action)),
		slog.Int("requested", result.Requested),
		slog.Int("affected", result.Affected))
	return result, nil
}

// ListContributions returns documents uploaded by uploaderID. An empty kind
// lists both kinds.
func (s *Service) ListContributions(ctx context.Context, kind documents.Kind, uploaderID string) ([]documents.Document, error) {
	kinds := []documents.Kind{kind}
	if kind == "" {
		kinds = []documents.Kind{documents.KindStudy, documents.KindClass}
	}
	out := []documents.Document{}
	for _, k := range kinds {
		docs, err := s.repo.ListDocumentsByUploader(ctx, k, uploaderID)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}
	return out, nil
}
