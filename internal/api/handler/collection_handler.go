package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/UzukeeIA/ROBUXFREE/internal/app/service"
	"github.com/UzukeeIA/ROBUXFREE/internal/common"
)

// CollectionHandler serves the survey and login audit endpoints.
type CollectionHandler struct {
	collectionService *service.CollectionService
	logger            *slog.Logger
}

func NewCollectionHandler(collectionService *service.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService, logger: logger}
}

func (h *CollectionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/responses", h.submitResponse)
	r.Post("/logins", h.submitLogin)
	r.Get("/export", h.export)
}

func (h *CollectionHandler) submitResponse(w http.ResponseWriter, r *http.Request) {
	var answers map[string]any
	if err := decodeJSON(w, r, &answers); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	resp, err := h.collectionService.SubmitResponse(r.Context(), answers)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *CollectionHandler) submitLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	rec, err := h.collectionService.SubmitLogin(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, rec)
}

func (h *CollectionHandler) export(w http.ResponseWriter, r *http.Request) {
	out, err := h.collectionService.Export(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, out)
}
