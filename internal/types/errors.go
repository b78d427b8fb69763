package types

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyUpload       = errors.New("upload is empty")
	ErrTooLarge          = errors.New("upload exceeds the maximum file size")
	ErrUnsupportedMedia  = errors.New("unsupported media type")
	ErrInvalidCategory   = errors.New("invalid media category")
	ErrInvalidKind       = errors.New("invalid document kind")
	ErrInvalidBulkAction = errors.New("invalid bulk action")
	ErrMediaDeleted      = errors.New("media object is being deleted")
	ErrTitleRequired     = errors.New("title is required")
	ErrNameRequired      = errors.New("original name must not be empty")
	ErrNegativeAge       = errors.New("olderThanDays must not be negative")
)

// StorageWriteError is a physical I/O failure during an upload. No catalog
// row exists for the failed write.
type StorageWriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage write failed (%s): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage write failed (%s %s): %v", e.Op, e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// MediaInUseError refuses a non-forced delete of a referenced object.
type MediaInUseError struct {
	ID         string
	References int
}

func (e *MediaInUseError) Error() string {
	return fmt.Sprintf("media %s is referenced by %d document(s)", e.ID, e.References)
}

type MediaNotFoundError struct {
	ID string
}

func (e *MediaNotFoundError) Error() string {
	return fmt.Sprintf("media %s not found", e.ID)
}

type DocumentNotFoundError struct {
	Kind string
	ID   string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("%s material %s not found", e.Kind, e.ID)
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

type NotOwnerError struct {
	DocumentID string
	ActorID    string
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("user %s does not own document %s", e.ActorID, e.DocumentID)
}

// IsNotFound reports whether err is a media or document lookup miss.
func IsNotFound(err error) bool {
	var mnf *MediaNotFoundError
	var dnf *DocumentNotFoundError
	return errors.As(err, &mnf) || errors.As(err, &dnf)
}
