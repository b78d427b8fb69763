package documents

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/media-service/internal/http/middleware"
	documentService "github.com/princekumarofficial/media-service/internal/services/documents"
	"github.com/princekumarofficial/media-service/internal/types/documents"
	"github.com/princekumarofficial/media-service/internal/utils/response"
)

// StatusRequest changes a document's workflow status.
type StatusRequest struct {
	Status          documents.Status `json:"status" validate:"required,oneof=draft pending published rejected"`
	RejectionReason string           `json:"rejectionReason" validate:"max=1000"`
}

// BulkRequest applies one action to many documents.
type BulkRequest struct {
	IDs             []string             `json:"ids" validate:"required,min=1,max=500,dive,required"`
	Action          documents.BulkAction `json:"action" validate:"required,oneof=publish approve unpublish reject delete"`
	RejectionReason string               `json:"rejectionReason" validate:"max=1000"`
}

type DocumentHandlers struct {
	service  *documentService.Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewDocumentHandlers(service *documentService.Service, logger *slog.Logger) *DocumentHandlers {
	return &DocumentHandlers{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// decode reads a JSON body into dst and validates it, writing the error
// response itself when either step fails.
func (h *DocumentHandlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		response.FromError(w, err)
		return false
	}
	return true
}

// actor resolves the authenticated user and the {kind} path segment.
func actor(w http.ResponseWriter, r *http.Request) (string, documents.Kind, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
		return "", "", false
	}
	kind, err := documents.ParseKind(r.PathValue("kind"))
	if err != nil {
		response.FromError(w, err)
		return "", "", false
	}
	return userID, kind, true
}

// Create adds a material. Direct creates honour the requested status;
// contributions always enter review as pending.
// @Summary Create material
// @Tags materials
// @Accept json
// @Produce json
// @Param kind path string true "study or class"
// @Param request body documents.CreateInput true "Material"
// @Success 201 {object} documents.Document
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "Media not found"
// @Security BearerAuth
// @Router /materials/{kind} [post]
// @Router /contributions/{kind} [post]
func (h *DocumentHandlers) Create(origin documents.Origin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, kind, ok := actor(w, r)
		if !ok {
			return
		}
		var in documents.CreateInput
		if !h.decode(w, r, &in) {
			return
		}

		doc, err := h.service.Create(r.Context(), kind, origin, in, userID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Material created", doc))
	}
}

// Contributions lists the caller's own uploads
// @Summary List my contributions
// @Tags materials
// @Produce json
// @Param kind query string false "study or class; both when omitted"
// @Success 200 {array} documents.Document
// @Security BearerAuth
// @Router /contributions [get]
func (h *DocumentHandlers) Contributions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		var kind documents.Kind
		if raw := r.URL.Query().Get("kind"); raw != "" {
			k, err := documents.ParseKind(raw)
			if err != nil {
				response.FromError(w, err)
				return
			}
			kind = k
		}

		docs, err := h.service.ListContributions(r.Context(), kind, userID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("", docs))
	}
}

// Update edits a material and may rebind its media
// @Summary Update material
// @Tags materials
// @Accept json
// @Produce json
// @Param kind path string true "study or class"
// @Param id path string true "Material ID"
// @Param request body documents.Patch true "Fields to change; mediaId \"\" unbinds"
// @Success 200 {object} documents.Document
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /materials/{kind}/{id} [patch]
func (h *DocumentHandlers) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, kind, ok := actor(w, r)
		if !ok {
			return
		}
		var patch documents.Patch
		if !h.decode(w, r, &patch) {
			return
		}

		doc, err := h.service.Update(r.Context(), kind, r.PathValue("id"), patch)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Material updated", doc))
	}
}

// UpdateStatus moves a material through the review workflow
// @Summary Change material status
// @Tags materials
// @Accept json
// @Produce json
// @Param kind path string true "study or class"
// @Param id path string true "Material ID"
// @Param request body StatusRequest true "Target status"
// @Success 200 {object} documents.Document
// @Failure 400 {object} response.Response "Invalid transition"
// @Security BearerAuth
// @Router /materials/{kind}/{id}/status [patch]
func (h *DocumentHandlers) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, kind, ok := actor(w, r)
		if !ok {
			return
		}
		var req StatusRequest
		if !h.decode(w, r, &req) {
			return
		}

		doc, err := h.service.UpdateStatus(r.Context(), kind, r.PathValue("id"), req.Status, userID, req.RejectionReason)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Status updated", doc))
	}
}

// Resubmit sends a rejected contribution back for review
// @Summary Resubmit material
// @Tags materials
// @Produce json
// @Param kind path string true "study or class"
// @Param id path string true "Material ID"
// @Success 200 {object} documents.Document
// @Failure 403 {object} response.Response "Not the uploader"
// @Security BearerAuth
// @Router /materials/{kind}/{id}/resubmit [post]
func (h *DocumentHandlers) Resubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, kind, ok := actor(w, r)
		if !ok {
			return
		}
		doc, err := h.service.Resubmit(r.Context(), kind, r.PathValue("id"), userID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Material resubmitted", doc))
	}
}

// Delete removes a material and releases its media
// @Summary Delete material
// @Tags materials
// @Produce json
// @Param kind path string true "study or class"
// @Param id path string true "Material ID"
// @Success 200 {object} documentService.DeleteResult
// @Failure 404 {object} response.Response "Not found"
// @Security BearerAuth
// @Router /materials/{kind}/{id} [delete]
func (h *DocumentHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, kind, ok := actor(w, r)
		if !ok {
			return
		}
		result, err := h.service.Delete(r.Context(), kind, r.PathValue("id"))
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Material deleted", result))
	}
}

// Bulk applies one action to many materials
// @Summary Bulk action
// @Description Failures on individual ids are reported in the result and do not stop the batch.
// @Tags materials
// @Accept json
// @Produce json
// @Param kind path string true "study or class"
// @Param request body BulkRequest true "Action and ids"
// @Success 200 {object} types.BatchResult
// @Failure 400 {object} response.Response "Bad request"
// @Security BearerAuth
// @Router /materials/{kind}/bulk [post]
func (h *DocumentHandlers) Bulk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, kind, ok := actor(w, r)
		if !ok {
			return
		}
		var req BulkRequest
		if !h.decode(w, r, &req) {
			return
		}

		result, err := h.service.BulkAction(r.Context(), kind, req.IDs, req.Action, userID, req.RejectionReason)
		if err != nil {
			response.FromError(w, err)
			return
		}
		message := "Bulk action completed"
		if result.Partial() {
			message = "Bulk action completed with failures"
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK(message, result))
	}
}
