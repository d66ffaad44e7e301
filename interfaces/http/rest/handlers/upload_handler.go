package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meishi-backend/application/workflow"
	"meishi-backend/pkg/common"
	"meishi-backend/pkg/utils"
)

// UploadHandler drives upload sessions through the ingestion workflow
type UploadHandler struct {
	manager *workflow.Manager
	logger  *zap.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(manager *workflow.Manager, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		manager: manager,
		logger:  logger,
	}
}

// AttachImageRequest represents the request body for attaching an image
type AttachImageRequest struct {
	ImageRef string `json:"imageRef" validate:"required,max=2048"`
}

// ResolveRequest represents the request body for resolving duplicates
type ResolveRequest struct {
	Action string `json:"action" validate:"required,oneof=update new cancel"`
	CardID string `json:"cardId,omitempty"`
}

// StartSession handles POST /uploads
func (h *UploadHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.StartSession()
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, toSessionView(session))
}

// GetSession handles GET /uploads/{sessionID}
func (h *UploadHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.GetSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toSessionView(session))
}

// AttachImage handles POST /uploads/{sessionID}/image
func (h *UploadHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	var req AttachImageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	session, err := h.manager.AttachImage(chi.URLParam(r, "sessionID"), req.ImageRef)
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toSessionView(session))
}

// StartOCR handles POST /uploads/{sessionID}/ocr
func (h *UploadHandler) StartOCR(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.StartOCR(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	// Extraction runs asynchronously; the client polls the session for the
	// transition to review.
	common.RespondJSON(w, http.StatusAccepted, toSessionView(session))
}

// EditFields handles PUT /uploads/{sessionID}/fields
func (h *UploadHandler) EditFields(w http.ResponseWriter, r *http.Request) {
	var patch workflow.DraftPatch
	if err := common.ParseJSONBody(r, &patch, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}

	session, err := h.manager.EditDraft(chi.URLParam(r, "sessionID"), patch)
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toSessionView(session))
}

// Save handles POST /uploads/{sessionID}/save
func (h *UploadHandler) Save(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Save(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toSessionView(session))
}

// Resolve handles POST /uploads/{sessionID}/resolve
func (h *UploadHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	session, err := h.manager.Resolve(r.Context(), chi.URLParam(r, "sessionID"), workflow.ResolveAction(req.Action), req.CardID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toSessionView(session))
}

// Reset handles POST /uploads/{sessionID}/reset
func (h *UploadHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Reset(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toSessionView(session))
}
