package documents

import (
	"strings"
	"time"

	"github.com/princekumarofficial/media-service/internal/types"
)

// Kind selects which owning-document table a material lives in.
type Kind string

const (
	KindStudy Kind = "study"
	KindClass Kind = "class"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindStudy:
		return KindStudy, nil
	case KindClass:
		return KindClass, nil
	}
	return "", types.ErrInvalidKind
}

// Table is the relational table backing the kind.
func (k Kind) Table() string {
	if k == KindClass {
		return "class_materials"
	}
	return "study_materials"
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// transitions lists every status an admin write may target from each status.
// Any known status may be written over any other, including itself.
var transitions = map[Status]map[Status]bool{
	StatusDraft:     allStatuses(),
	StatusPending:   allStatuses(),
	StatusPublished: allStatuses(),
	StatusRejected:  allStatuses(),
}

func allStatuses() map[Status]bool {
	return map[Status]bool{
		StatusDraft:     true,
		StatusPending:   true,
		StatusPublished: true,
		StatusRejected:  true,
	}
}

func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// CheckTransition returns an InvalidTransitionError when from -> to is not allowed.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &types.InvalidTransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// Origin distinguishes admin creates from uploader contributions.
type Origin string

const (
	OriginDirect       Origin = "direct"
	OriginContribution Origin = "contribution"
)

const (
	DefaultRejectionReason = "No reason provided"
	BulkRejectionReason    = "Bulk rejected"
)

// Document is a study or class material that may bind one media object.
type Document struct {
	ID              string     `json:"id"`
	Kind            Kind       `json:"kind"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	URL             string     `json:"url,omitempty"`
	FileName        string     `json:"fileName,omitempty"`
	MediaID         *string    `json:"mediaId,omitempty"`
	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	UploadedBy      string     `json:"uploadedById"`
	ApprovedBy      *string    `json:"approvedById,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// BoundMedia returns the bound media id or "".
func (d *Document) BoundMedia() string {
	if d.MediaID == nil {
		return ""
	}
	return *d.MediaID
}

type CreateInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	URL         string `json:"url" validate:"omitempty,url"`
	FileName    string `json:"fileName" validate:"max=255"`
	MediaID     string `json:"mediaId" validate:"omitempty,uuid"`
	// Status is honoured only for direct creates.
	Status Status `json:"status" validate:"omitempty,oneof=draft pending published rejected"`
}

// Patch edits a document. A non-nil MediaID of "" unbinds the current media.
type Patch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	URL         *string `json:"url" validate:"omitempty"`
	FileName    *string `json:"fileName" validate:"omitempty,max=255"`
	MediaID     *string `json:"mediaId" validate:"omitempty"`
}

type BulkAction string

const (
	BulkPublish   BulkAction = "publish"
	BulkApprove   BulkAction = "approve"
	BulkUnpublish BulkAction = "unpublish"
	BulkReject    BulkAction = "reject"
	BulkDelete    BulkAction = "delete"
)

func (a BulkAction) Valid() bool {
	switch a {
	case BulkPublish, BulkApprove, BulkUnpublish, BulkReject, BulkDelete:
		return true
	}
	return false
}

// TargetStatus maps a status-changing bulk action to the status it writes.
func (a BulkAction) TargetStatus() (Status, bool) {
	switch a {
	case BulkPublish, BulkApprove:
		return StatusPublished, true
	case BulkUnpublish:
		return StatusDraft, true
	case BulkReject:
		return StatusRejected, true
	}
	return "", false
}
