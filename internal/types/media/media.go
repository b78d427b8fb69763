package media

import (
	"io"
	"strconv"
	"strings"
	"time"
)

// Category classifies a stored media object.
type Category string

const (
	CategoryDocument Category = "document"
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryImage    Category = "image"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryDocument, CategoryAudio, CategoryVideo, CategoryImage:
		return true
	}
	return false
}

// CategoryFromMime derives a category from the MIME type prefix.
func CategoryFromMime(mimeType string) Category {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return CategoryImage
	case strings.HasPrefix(mimeType, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return CategoryAudio
	default:
		return CategoryDocument
	}
}

// Status is the catalog lifecycle state of a media object. Deleted is terminal.
type Status string

const (
	StatusActive   Status = "active"
	StatusOrphaned Status = "orphaned"
	StatusDeleted  Status = "deleted"
)

// MediaObject is one catalog row per distinct stored byte sequence.
type MediaObject struct {
	ID             string    `json:"id" db:"id"`
	ContentHash    string    `json:"content_hash" db:"content_hash"`
	StoragePath    string    `json:"storage_path" db:"storage_path"`
	OriginalName   string    `json:"original_name" db:"original_name"`
	MimeType       string    `json:"mime_type" db:"mime_type"`
	SizeBytes      int64     `json:"size_bytes" db:"size_bytes"`
	Category       Category  `json:"category" db:"category"`
	ReferenceCount int       `json:"reference_count" db:"reference_count"`
	Status         Status    `json:"status" db:"status"`
	UploadedBy     string    `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UploadInput carries an incoming blob. The caller owns Reader.
type UploadInput struct {
	Reader       io.Reader
	OriginalName string
	MimeType     string
	Category     Category
	// CustomName replaces OriginalName in the catalog when set.
	CustomName string
	UploadedBy string
}

// MetadataPatch edits display metadata; nil fields are left unchanged.
type MetadataPatch struct {
	OriginalName *string   `json:"originalName,omitempty" validate:"omitempty,min=1,max=255"`
	Category     *Category `json:"category,omitempty" validate:"omitempty,oneof=document audio video image"`
}

// MediaResponse is the read model handed to the CRUD layer.
type MediaResponse struct {
	ID             string    `json:"id"`
	OriginalName   string    `json:"originalName"`
	URL            string    `json:"url"`
	MimeType       string    `json:"mimeType"`
	SizeBytes      int64     `json:"size"`
	SizeHuman      string    `json:"sizeHuman"`
	Category       Category  `json:"category"`
	Status         Status    `json:"status"`
	ReferenceCount int       `json:"referenceCount"`
	UploadedByID   string    `json:"uploadedById,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CategoryStats struct {
	Count int64 `json:"count"`
	Size  int64 `json:"size"`
}

// Stats summarises active storage usage.
type Stats struct {
	TotalFiles     int64                      `json:"totalFiles"`
	TotalSize      int64                      `json:"totalSize"`
	TotalSizeHuman string                     `json:"totalSizeHuman"`
	ByCategory     map[Category]CategoryStats `json:"byCategory"`
	OrphanedCount  int64                      `json:"orphanedCount"`
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// HumanSize renders bytes with at most two decimals, e.g. "1.5 KB".
func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[i]
}
