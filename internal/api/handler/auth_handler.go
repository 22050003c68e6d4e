package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/UzukeeIA/ROBUXFREE/internal/api/middleware"
	"github.com/UzukeeIA/ROBUXFREE/internal/app/service"
	"github.com/UzukeeIA/ROBUXFREE/internal/app/session"
	"github.com/UzukeeIA/ROBUXFREE/internal/common"
	"github.com/UzukeeIA/ROBUXFREE/internal/common/security"
	"github.com/UzukeeIA/ROBUXFREE/internal/domain/model"
)

type AuthHandler struct {
	authService  *service.AuthService
	sessions     session.Store
	issuer       *security.TokenIssuer
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, sessions session.Store, issuer *security.TokenIssuer, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		sessions:     sessions,
		issuer:       issuer,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type AuthResponse struct {
	User *model.Identity `json:"user"`
}

type MeResponse struct {
	Authenticated bool            `json:"authenticated"`
	User          *model.Identity `json:"user,omitempty"`
}

// RegisterRoutes mounts the auth endpoints. limit wraps the credential
// endpoints with the per-route rate limiter.
func (h *AuthHandler) RegisterRoutes(r chi.Router, limit func(route string) func(http.Handler) http.Handler) {
	r.With(limit("register")).Post("/register", h.register)
	r.With(limit("login")).Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
	r.With(middleware.RequireSession).Put("/me/avatar", h.updateAvatar)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	identity, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.startSession(w, r, identity.ID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, AuthResponse{User: identity})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	identity, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.startSession(w, r, identity.ID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, AuthResponse{User: identity})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := middleware.GetSessionIDFromContext(r.Context()); ok {
		if err := h.sessions.Delete(r.Context(), sid); err != nil {
			respondError(w, r, h.logger, err)
			return
		}
	}
	h.clearCookie(w)
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	identity, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, MeResponse{Authenticated: identity != nil, User: identity})
}

func (h *AuthHandler) updateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req service.UpdateAvatarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	identity, err := h.authService.UpdateAvatar(r.Context(), userID, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, AuthResponse{User: identity})
}

// startSession replaces any session the client already holds with a new one
// for userID and sets the cookie.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	if old, ok := middleware.GetSessionIDFromContext(r.Context()); ok {
		if err := h.sessions.Delete(r.Context(), old); err != nil {
			h.logger.WarnContext(r.Context(), "failed to drop previous session", "error", err)
		}
	}
	sid, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		return common.Errorf("create session: %w", err)
	}
	token, err := h.issuer.GenerateToken(sid)
	if err != nil {
		return common.Errorf("sign session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
