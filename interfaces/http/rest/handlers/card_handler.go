package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meishi-backend/application/ports"
	"meishi-backend/application/services"
	"meishi-backend/domain/card"
	"meishi-backend/pkg/common"
	"meishi-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// CardHandler handles card-related HTTP requests
type CardHandler struct {
	cards  *services.CardService
	logger *zap.Logger
}

// NewCardHandler creates a new card handler
func NewCardHandler(cards *services.CardService, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		cards:  cards,
		logger: logger,
	}
}

// CreateCardRequest represents the request body for creating a card
type CreateCardRequest struct {
	ImageRef string          `json:"imageRef,omitempty" validate:"omitempty,max=2048"`
	OCR      *card.OcrResult `json:"ocr,omitempty"`
	Fields   card.Fields     `json:"fields"`
}

// UpdateCardRequest represents the request body for updating a card.
// Present fields overwrite, absent fields are preserved.
type UpdateCardRequest struct {
	CompanyName *string `json:"companyName,omitempty" validate:"omitempty,max=200"`
	PersonName  *string `json:"personName,omitempty" validate:"omitempty,max=200"`
	Department  *string `json:"department,omitempty" validate:"omitempty,max=200"`
	Position    *string `json:"position,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,max=320"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Website     *string `json:"website,omitempty" validate:"omitempty,max=2048"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=unverified verified"`
}

// ListCards handles GET /cards
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	params, err := common.ExtractPaginationParams(r)
	if err != nil {
		respondAppError(w, err)
		return
	}

	query := ports.CardQuery{
		Page:         params.Page,
		PageSize:     params.PageSize,
		Search:       r.URL.Query().Get("search"),
		StatusFilter: r.URL.Query().Get("status"),
	}

	page, err := h.cards.List(r.Context(), query)
	if err != nil {
		respondAppError(w, err)
		return
	}

	result := common.NewPaginatedResult(toCardViews(page.Data), page.Page, page.PageSize, page.Total)
	common.RespondJSON(w, http.StatusOK, result)
}

// GetCard handles GET /cards/{cardID}
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	c, err := h.cards.Get(r.Context(), cardID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toCardView(c))
}

// CreateCard handles POST /cards
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	var ocr card.OcrResult
	if req.OCR != nil {
		ocr = *req.OCR
	}

	created, err := h.cards.Create(r.Context(), req.ImageRef, ocr, req.Fields)
	if err != nil {
		respondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toCardView(created))
}

// UpdateCard handles PUT /cards/{cardID}
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	var req UpdateCardRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	patch := card.Patch{
		CompanyName: req.CompanyName,
		PersonName:  req.PersonName,
		Department:  req.Department,
		Position:    req.Position,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Website:     req.Website,
	}
	if req.Status != nil {
		status := card.Status(*req.Status)
		patch.Status = &status
	}

	updated, err := h.cards.Update(r.Context(), cardID, patch)
	if err != nil {
		respondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toCardView(updated))
}

// DeleteCard handles DELETE /cards/{cardID}
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	deleted, err := h.cards.Delete(r.Context(), cardID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// FindDuplicates handles GET /cards/duplicates
func (h *CardHandler) FindDuplicates(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	exclude := r.URL.Query().Get("exclude")

	candidates, err := h.cards.FindDuplicates(r.Context(), email, exclude)
	if err != nil {
		respondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"duplicates": toDuplicateViews(candidates),
	})
}

// ExportCards handles GET /cards/export
func (h *CardHandler) ExportCards(w http.ResponseWriter, r *http.Request) {
	csv, err := h.cards.ExportCSV(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cards.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csv))
}
