package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/UzukeeIA/ROBUXFREE/internal/app/service"
	"github.com/UzukeeIA/ROBUXFREE/internal/common"
)

type AvatarHandler struct {
	avatarService *service.AvatarService
	logger        *slog.Logger
}

func NewAvatarHandler(avatarService *service.AvatarService, logger *slog.Logger) *AvatarHandler {
	return &AvatarHandler{avatarService: avatarService, logger: logger}
}

func (h *AvatarHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{username}", h.resolve)
}

func (h *AvatarHandler) resolve(w http.ResponseWriter, r *http.Request) {
	resp, err := h.avatarService.Resolve(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
