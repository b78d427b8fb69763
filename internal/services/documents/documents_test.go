package documents

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/media-service/internal/blobstore"
	"github.com/princekumarofficial/media-service/internal/config"
	"github.com/princekumarofficial/media-service/internal/logger"
	mediaService "github.com/princekumarofficial/media-service/internal/services/media"
	"github.com/princekumarofficial/media-service/internal/storage/memory"
	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/documents"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

type recordingPublisher struct {
	mu   sync.Mutex
	docs []documents.Document
}

func (p *recordingPublisher) PublishDocumentReviewed(doc *documents.Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs = append(p.docs, *doc)
	return nil
}

type fixture struct {
	docs      *Service
	media     *mediaService.Service
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := filepath.Join(t.TempDir(), "uploads")
	blobs := blobstore.NewLocal(root)
	require.NoError(t, blobs.Init(context.Background()))

	repo := memory.New()
	ms := mediaService.NewService(repo, blobs, config.Media{
		UploadDir:   root,
		TempDir:     t.TempDir(),
		BaseURL:     "/media/files",
		MaxFileSize: 1 << 20,
	}, logger.Discard())
	pub := &recordingPublisher{}

	return &fixture{
		docs:      NewService(repo, ms, pub, logger.Discard()),
		media:     ms,
		publisher: pub,
	}
}

func (f *fixture) upload(t *testing.T, content string) *media.MediaObject {
	t.Helper()
	obj, _, err := f.media.Store(context.Background(), media.UploadInput{
		Reader:       strings.NewReader(content),
		OriginalName: "file.pdf",
		MimeType:     "application/pdf",
		UploadedBy:   "uploader-1",
	})
	require.NoError(t, err)
	return obj
}

func (f *fixture) refs(t *testing.T, id string) (int, media.Status) {
	t.Helper()
	obj, err := f.media.Get(context.Background(), id)
	require.NoError(t, err)
	return obj.ReferenceCount, obj.Status
}

func TestCreateInitialStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	direct, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect, documents.CreateInput{Title: "Direct"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, documents.StatusDraft, direct.Status)

	overridden, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
		documents.CreateInput{Title: "Published", Status: documents.StatusPublished}, "admin")
	require.NoError(t, err)
	assert.Equal(t, documents.StatusPublished, overridden.Status)
	require.NotNil(t, overridden.ApprovedBy)

	contribution, err := f.docs.Create(ctx, documents.KindClass, documents.OriginContribution,
		documents.CreateInput{Title: "Contribution", Status: documents.StatusPublished}, "student")
	require.NoError(t, err)
	assert.Equal(t, documents.StatusPending, contribution.Status, "contributions always need review")
	assert.Nil(t, contribution.ApprovedBy)

	_, err = f.docs.Create(ctx, documents.KindClass, documents.OriginDirect, documents.CreateInput{Title: "  "}, "admin")
	assert.Error(t, err)
}

func TestCreateBindsMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.upload(t, "bind me")

	doc, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
		documents.CreateInput{Title: "Bound", MediaID: m.ID}, "admin")
	require.NoError(t, err)
	assert.Equal(t, m.ID, doc.BoundMedia())

	count, _ := f.refs(t, m.ID)
	assert.Equal(t, 2, count)

	_, err = f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
		documents.CreateInput{Title: "Dangling", MediaID: "00000000-0000-0000-0000-000000000000"}, "admin")
	var nf *types.MediaNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestUpdateStatusStamps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginContribution, documents.CreateInput{Title: "Essay"}, "student")
	require.NoError(t, err)

	rejected, err := f.docs.UpdateStatus(ctx, documents.KindStudy, doc.ID, documents.StatusRejected, "admin", "")
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, documents.DefaultRejectionReason, *rejected.RejectionReason)
	assert.Equal(t, "admin", *rejected.ApprovedBy)
	assert.NotNil(t, rejected.ApprovedAt)

	published, err := f.docs.UpdateStatus(ctx, documents.KindStudy, doc.ID, documents.StatusPublished, "admin", "ignored")
	require.NoError(t, err)
	assert.Nil(t, published.RejectionReason)
	assert.Equal(t, documents.StatusPublished, published.Status)

	republished, err := f.docs.UpdateStatus(ctx, documents.KindStudy, doc.ID, documents.StatusPublished, "admin-2", "")
	require.NoError(t, err)
	assert.Equal(t, "admin-2", *republished.ApprovedBy)

	_, err = f.docs.UpdateStatus(ctx, documents.KindStudy, doc.ID, documents.Status("archived"), "admin", "")
	var invalid *types.InvalidTransitionError
	assert.True(t, errors.As(err, &invalid))

	assert.Len(t, f.publisher.docs, 3)
}

func TestUpdateStatusReRejectsWithNewReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginContribution, documents.CreateInput{Title: "Notes"}, "student")
	require.NoError(t, err)

	_, err = f.docs.UpdateStatus(ctx, documents.KindStudy, doc.ID, documents.StatusRejected, "admin", "blurry")
	require.NoError(t, err)

	again, err := f.docs.UpdateStatus(ctx, documents.KindStudy, doc.ID, documents.StatusRejected, "admin", "pages 3-5 are unreadable")
	require.NoError(t, err)
	assert.Equal(t, documents.StatusRejected, again.Status)
	require.NotNil(t, again.RejectionReason)
	assert.Equal(t, "pages 3-5 are unreadable", *again.RejectionReason)

	again, err = f.docs.UpdateStatus(ctx, documents.KindStudy, doc.ID, documents.StatusRejected, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, documents.DefaultRejectionReason, *again.RejectionReason)
}

func TestUpdateStatusPublishedBackToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect, documents.CreateInput{Title: "Syllabus", Status: documents.StatusPublished}, "admin")
	require.NoError(t, err)
	require.Equal(t, documents.StatusPublished, doc.Status)

	got, err := f.docs.UpdateStatus(ctx, documents.KindStudy, doc.ID, documents.StatusPending, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, documents.StatusPending, got.Status)
	assert.Nil(t, got.RejectionReason)
}

func TestBulkPublishCountsAlreadyPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	published, err := f.docs.Create(ctx, documents.KindClass, documents.OriginDirect, documents.CreateInput{Title: "Week 1", Status: documents.StatusPublished}, "admin")
	require.NoError(t, err)
	pending, err := f.docs.Create(ctx, documents.KindClass, documents.OriginContribution, documents.CreateInput{Title: "Week 2"}, "student")
	require.NoError(t, err)

	res, err := f.docs.BulkAction(ctx, documents.KindClass, []string{published.ID, pending.ID}, documents.BulkPublish, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)
	assert.Empty(t, res.Failures)

	got, err := f.docs.Get(ctx, documents.KindClass, published.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusPublished, got.Status)
}

func TestResubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc, err := f.docs.Create(ctx, documents.KindClass, documents.OriginContribution, documents.CreateInput{Title: "Lab"}, "student")
	require.NoError(t, err)

	_, err = f.docs.Resubmit(ctx, documents.KindClass, doc.ID, "student")
	var invalid *types.InvalidTransitionError
	require.True(t, errors.As(err, &invalid), "pending documents cannot be resubmitted")

	_, err = f.docs.UpdateStatus(ctx, documents.KindClass, doc.ID, documents.StatusRejected, "admin", "missing data")
	require.NoError(t, err)

	_, err = f.docs.Resubmit(ctx, documents.KindClass, doc.ID, "someone-else")
	var notOwner *types.NotOwnerError
	require.True(t, errors.As(err, &notOwner))

	got, err := f.docs.Resubmit(ctx, documents.KindClass, doc.ID, "student")
	require.NoError(t, err)
	assert.Equal(t, documents.StatusPending, got.Status)
	assert.Nil(t, got.RejectionReason)
}

func TestUpdateRebindsMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.upload(t, "media A")
	b := f.upload(t, "media C")
	other := f.upload(t, "unrelated")

	doc, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
		documents.CreateInput{Title: "Notes", MediaID: a.ID}, "admin")
	require.NoError(t, err)
	aBefore, _ := f.refs(t, a.ID)
	bBefore, _ := f.refs(t, b.ID)
	otherBefore, _ := f.refs(t, other.ID)

	title := "Notes v2"
	updated, err := f.docs.Update(ctx, documents.KindStudy, doc.ID, documents.Patch{Title: &title, MediaID: &b.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.BoundMedia())
	assert.Equal(t, "Notes v2", updated.Title)

	aAfter, _ := f.refs(t, a.ID)
	bAfter, _ := f.refs(t, b.ID)
	otherAfter, _ := f.refs(t, other.ID)
	assert.Equal(t, aBefore-1, aAfter)
	assert.Equal(t, bBefore+1, bAfter)
	assert.Equal(t, otherBefore, otherAfter)

	// Same media again is not a rebind.
	_, err = f.docs.Update(ctx, documents.KindStudy, doc.ID, documents.Patch{MediaID: &b.ID})
	require.NoError(t, err)
	again, _ := f.refs(t, b.ID)
	assert.Equal(t, bAfter, again)

	empty := ""
	unbound, err := f.docs.Update(ctx, documents.KindStudy, doc.ID, documents.Patch{MediaID: &empty})
	require.NoError(t, err)
	assert.Nil(t, unbound.MediaID)
	final, _ := f.refs(t, b.ID)
	assert.Equal(t, bAfter-1, final)
}

func TestUpdateToMissingMediaChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.upload(t, "keep me")
	doc, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
		documents.CreateInput{Title: "Notes", MediaID: a.ID}, "admin")
	require.NoError(t, err)

	missing := "00000000-0000-0000-0000-000000000000"
	_, err = f.docs.Update(ctx, documents.KindStudy, doc.ID, documents.Patch{MediaID: &missing})
	require.Error(t, err)

	count, _ := f.refs(t, a.ID)
	assert.Equal(t, 2, count)
	got, err := f.docs.Get(ctx, documents.KindStudy, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.BoundMedia())
}

func TestDeleteReleasesMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.upload(t, "delete me")
	doc, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
		documents.CreateInput{Title: "Temp", MediaID: m.ID}, "admin")
	require.NoError(t, err)

	res, err := f.docs.Delete(ctx, documents.KindStudy, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, res.ReleasedMediaID)
	assert.Empty(t, res.ReleaseError)

	_, err = f.docs.Get(ctx, documents.KindStudy, doc.ID)
	assert.True(t, types.IsNotFound(err))

	_, err = f.docs.Delete(ctx, documents.KindStudy, doc.ID)
	assert.True(t, types.IsNotFound(err))
}

func TestBulkActionPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		d, err := f.docs.Create(ctx, documents.KindClass, documents.OriginContribution, documents.CreateInput{Title: title}, "student")
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}
	ids = append(ids, "missing-id")

	res, err := f.docs.BulkAction(ctx, documents.KindClass, ids, documents.BulkApprove, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Requested)
	assert.Equal(t, 3, res.Affected)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "missing-id", res.Failures[0].ID)

	res, err = f.docs.BulkAction(ctx, documents.KindClass, ids[:2], documents.BulkReject, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)
	got, err := f.docs.Get(ctx, documents.KindClass, ids[0])
	require.NoError(t, err)
	assert.Equal(t, documents.BulkRejectionReason, *got.RejectionReason)

	res, err = f.docs.BulkAction(ctx, documents.KindClass, ids[2:3], documents.BulkUnpublish, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)
	got, err = f.docs.Get(ctx, documents.KindClass, ids[2])
	require.NoError(t, err)
	assert.Equal(t, documents.StatusDraft, got.Status)

	res, err = f.docs.BulkAction(ctx, documents.KindClass, ids, documents.BulkDelete, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Affected)
	assert.Len(t, res.Failures, 1)

	_, err = f.docs.BulkAction(ctx, documents.KindClass, ids, documents.BulkAction("archive"), "admin", "")
	assert.ErrorIs(t, err, types.ErrInvalidBulkAction)
}

func TestBulkDeleteSurvivesStaleMediaReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.upload(t, "force deleted later")
	doc, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
		documents.CreateInput{Title: "x", MediaID: m.ID}, "admin")
	require.NoError(t, err)
	plain, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
		documents.CreateInput{Title: "y"}, "admin")
	require.NoError(t, err)

	// Removing the media row clears the binding on doc.
	_, err = f.media.Delete(ctx, m.ID, true)
	require.NoError(t, err)

	res, err := f.docs.BulkAction(ctx, documents.KindStudy, []string{doc.ID, plain.ID}, documents.BulkDelete, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)
}

func TestListContributions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginContribution, documents.CreateInput{Title: "s"}, "student")
	require.NoError(t, err)
	_, err = f.docs.Create(ctx, documents.KindClass, documents.OriginContribution, documents.CreateInput{Title: "c"}, "student")
	require.NoError(t, err)
	_, err = f.docs.Create(ctx, documents.KindClass, documents.OriginContribution, documents.CreateInput{Title: "other"}, "someone")
	require.NoError(t, err)

	all, err := f.docs.ListContributions(ctx, "", "student")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	class, err := f.docs.ListContributions(ctx, documents.KindClass, "student")
	require.NoError(t, err)
	assert.Len(t, class, 1)
}

func TestConcurrentRebindsKeepCountsConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.upload(t, "A")
	b := f.upload(t, "B")

	var docIDs []string
	for i := 0; i < 8; i++ {
		d, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
			documents.CreateInput{Title: "doc", MediaID: a.ID}, "admin")
		require.NoError(t, err)
		docIDs = append(docIDs, d.ID)
	}

	var wg sync.WaitGroup
	for _, id := range docIDs {
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, _ = f.docs.Update(ctx, documents.KindStudy, id, documents.Patch{MediaID: &b.ID})
			}(id)
		}
	}
	wg.Wait()

	aCount, aStatus := f.refs(t, a.ID)
	bCount, _ := f.refs(t, b.ID)
	assert.Equal(t, 1, aCount, "only the upload reference remains on A")
	assert.Equal(t, media.StatusActive, aStatus)
	assert.Equal(t, 9, bCount)
}

// Upload, bind, unbind and sweep one file end to end.
func TestMediaLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m1 := f.upload(t, "file F")
	count, status := f.refs(t, m1.ID)
	require.Equal(t, 1, count)
	require.Equal(t, media.StatusActive, status)

	d1, err := f.docs.Create(ctx, documents.KindStudy, documents.OriginDirect,
		documents.CreateInput{Title: "D1", MediaID: m1.ID}, "admin")
	require.NoError(t, err)
	count, _ = f.refs(t, m1.ID)
	require.Equal(t, 2, count)

	_, err = f.docs.Delete(ctx, documents.KindStudy, d1.ID)
	require.NoError(t, err)
	count, _ = f.refs(t, m1.ID)
	require.Equal(t, 1, count)

	// The upload's own reference is released when its uploader abandons it.
	_, err = f.media.DecrementReference(ctx, m1.ID)
	require.NoError(t, err)

	d2, err := f.docs.Create(ctx, documents.KindClass, documents.OriginContribution,
		documents.CreateInput{Title: "D2", MediaID: m1.ID}, "student")
	require.NoError(t, err)
	count, status = f.refs(t, m1.ID)
	require.Equal(t, 1, count)
	require.Equal(t, media.StatusActive, status, "binding an orphan revives it")

	_, err = f.docs.Delete(ctx, documents.KindClass, d2.ID)
	require.NoError(t, err)
	count, status = f.refs(t, m1.ID)
	require.Equal(t, 0, count)
	require.Equal(t, media.StatusOrphaned, status)

	res, err := f.media.CleanupOrphaned(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)
	_, err = f.media.Get(ctx, m1.ID)
	assert.True(t, types.IsNotFound(err))
}
