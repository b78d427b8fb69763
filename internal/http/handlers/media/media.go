package media

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/media-service/internal/blobstore"
	"github.com/princekumarofficial/media-service/internal/http/middleware"
	mediaService "github.com/princekumarofficial/media-service/internal/services/media"
	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/media"
	"github.com/princekumarofficial/media-service/internal/utils/response"
)

const (
	// multipartMemory is how much of a multipart body is held in memory
	// before parts spill to temporary files.
	multipartMemory = 8 << 20
	// multipartOverhead allows for boundaries and form fields on top of the
	// file itself.
	multipartOverhead = 1 << 20

	presignExpiry = 15 * time.Minute
)

type MediaHandlers struct {
	mediaService *mediaService.Service
	maxFileSize  int64
	validate     *validator.Validate
	logger       *slog.Logger
}

// UploadResponse is returned by a successful upload.
type UploadResponse struct {
	media.MediaResponse
	Deduplicated bool `json:"deduplicated"`
}

// NewMediaHandlers creates a new media handlers instance
func NewMediaHandlers(svc *mediaService.Service, maxFileSize int64, logger *slog.Logger) *MediaHandlers {
	return &MediaHandlers{
		mediaService: svc,
		maxFileSize:  maxFileSize,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Upload stores a multipart file
// @Summary Upload a file
// @Description Stores a file once per distinct content. Re-uploading identical bytes returns the existing object with one more reference.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param category formData string false "document, audio, video or image"
// @Param customName formData string false "Display name overriding the file name"
// @Success 201 {object} UploadResponse "File uploaded"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 413 {object} response.Response "File too large"
// @Failure 415 {object} response.Response "Unsupported media type"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /media/upload [post]
func (h *MediaHandlers) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.FromError(w, types.ErrTooLarge)
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid multipart form")))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("file is required")))
			return
		}
		defer file.Close()

		category := media.Category(r.FormValue("category"))
		if category != "" && !category.Valid() {
			response.FromError(w, types.ErrInvalidCategory)
			return
		}

		obj, deduplicated, err := h.mediaService.Store(r.Context(), media.UploadInput{
			Reader:       file,
			OriginalName: header.Filename,
			MimeType:     header.Header.Get("Content-Type"),
			Category:     category,
			CustomName:   r.FormValue("customName"),
			UploadedBy:   userID,
		})
		if err != nil {
			h.logger.Warn("upload failed", slog.String("user_id", userID), slog.String("error", err.Error()))
			response.FromError(w, err)
			return
		}

		status, message := http.StatusCreated, "File uploaded successfully"
		if deduplicated {
			status, message = http.StatusOK, "Identical file already stored"
		}
		response.WriteJSON(w, status, response.RequestOK(message, UploadResponse{
			MediaResponse: h.mediaService.Response(obj),
			Deduplicated:  deduplicated,
		}))
	}
}

// Get returns a media object
// @Summary Get media
// @Tags media
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} media.MediaResponse
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /media/{id} [get]
func (h *MediaHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obj, err := h.mediaService.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("", h.mediaService.Response(obj)))
	}
}

// UpdateMetadata edits the display name or category
// @Summary Update media metadata
// @Tags media
// @Accept json
// @Produce json
// @Param id path string true "Media ID"
// @Param request body media.MetadataPatch true "Fields to change"
// @Success 200 {object} media.MediaResponse
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /media/{id} [patch]
func (h *MediaHandlers) UpdateMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch media.MetadataPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}
		if err := h.validate.Struct(patch); err != nil {
			response.FromError(w, err)
			return
		}

		obj, err := h.mediaService.UpdateMetadata(r.Context(), r.PathValue("id"), patch)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Media updated", h.mediaService.Response(obj)))
	}
}

// Delete removes a media object
// @Summary Delete media
// @Description Refuses while documents still reference the object unless force is set.
// @Tags media
// @Produce json
// @Param id path string true "Media ID"
// @Param force query bool false "Delete even if referenced"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response "Not found"
// @Failure 409 {object} response.Response "Still referenced"
// @Security BearerAuth
// @Router /media/{id} [delete]
func (h *MediaHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
		id := r.PathValue("id")

		obj, err := h.mediaService.Delete(r.Context(), id, force)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Media deleted", map[string]interface{}{
			"id":                   obj.ID,
			"forced":               force,
			"referencesAtDeletion": obj.ReferenceCount,
		}))
	}
}

// Stats reports storage usage
// @Summary Storage statistics
// @Tags media
// @Produce json
// @Success 200 {object} media.Stats
// @Security BearerAuth
// @Router /media/stats [get]
func (h *MediaHandlers) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.mediaService.Stats(r.Context())
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("", stats))
	}
}

// Cleanup purges orphaned media
// @Summary Purge orphaned media
// @Tags media
// @Produce json
// @Param olderThanDays query int false "Minimum orphan age in days (default 7)"
// @Success 200 {object} types.BatchResult
// @Failure 400 {object} response.Response "Bad request"
// @Security BearerAuth
// @Router /media/cleanup [post]
func (h *MediaHandlers) Cleanup(defaultDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := defaultDays
		if raw := r.URL.Query().Get("olderThanDays"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("olderThanDays must be an integer")))
				return
			}
			days = n
		}

		result, err := h.mediaService.CleanupOrphaned(r.Context(), days)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cleanup finished", result))
	}
}

// ServeFile streams a stored blob, or redirects to a presigned URL when the
// blob store issues them.
// @Summary Download a stored file
// @Tags media
// @Param path path string true "Storage path"
// @Success 200 {file} binary
// @Success 302
// @Failure 404 {object} response.Response "Not found"
// @Router /media/files/{path} [get]
func (h *MediaHandlers) ServeFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("path")

		if url, ok, err := h.mediaService.DownloadURL(r.Context(), key, presignExpiry); ok {
			http.Redirect(w, r, url, http.StatusFound)
			return
		} else if err != nil {
			h.logger.Warn("presign failed", slog.String("storage_path", key), slog.String("error", err.Error()))
		}

		rc, err := h.mediaService.Open(r.Context(), key)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrInvalidKey) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("file not found")))
				return
			}
			response.FromError(w, err)
			return
		}
		defer rc.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if _, err := io.Copy(w, rc); err != nil {
			h.logger.Warn("file stream interrupted", slog.String("storage_path", key), slog.String("error", err.Error()))
		}
	}
}
