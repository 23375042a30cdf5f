package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"bunnyfocus/internal/auth"
	"bunnyfocus/internal/chat"
	"bunnyfocus/internal/service"
)

const maxBodyBytes = 1 << 20

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type itemRequest struct {
	ItemID string `json:"item_id"`
}

type settingsRequest struct {
	Theme       *string `json:"theme"`
	AccentColor *string `json:"accent_color"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Password required")
		return
	}
	token, expiresAt, err := a.Service.Login(req.Password, a.ProfileID)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAuthDisabled):
			writeError(w, http.StatusNotFound, "AUTH_DISABLED", "Login is not enabled")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		default:
			log.Printf("login failed: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token")
		}
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, ExpiresAt: expiresAt})
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	profileID, ok := a.profileID(w, r)
	if !ok {
		return
	}
	dash, err := a.Service.Dashboard(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	profileID, ok := a.profileID(w, r)
	if !ok {
		return
	}
	p, err := a.Service.Profile(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleComplete(w http.ResponseWriter, r *http.Request) {
	profileID, ok := a.profileID(w, r)
	if !ok {
		return
	}
	done, err := a.Service.CompleteSession(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, done)
}

func (a *API) handleOptions(w http.ResponseWriter, r *http.Request) {
	profileID, ok := a.profileID(w, r)
	if !ok {
		return
	}
	offer, err := a.Service.Offer(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (a *API) handleClaim(w http.ResponseWriter, r *http.Request) {
	profileID, ok := a.profileID(w, r)
	if !ok {
		return
	}
	itemID, ok := decodeItemID(w, r)
	if !ok {
		return
	}
	p, err := a.Service.Claim(r.Context(), profileID, itemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleSelect(w http.ResponseWriter, r *http.Request) {
	profileID, ok := a.profileID(w, r)
	if !ok {
		return
	}
	itemID, ok := decodeItemID(w, r)
	if !ok {
		return
	}
	p, err := a.Service.Select(r.Context(), profileID, itemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	profileID, ok := a.profileID(w, r)
	if !ok {
		return
	}
	entries, err := a.Service.CatalogView(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	profileID, ok := a.profileID(w, r)
	if !ok {
		return
	}
	settings, err := a.Service.Settings(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	profileID, ok := a.profileID(w, r)
	if !ok {
		return
	}
	var req settingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	settings, err := a.Service.UpdateSettings(r.Context(), profileID, service.SettingsUpdate{
		Theme:       req.Theme,
		AccentColor: req.AccentColor,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, err := a.Service.Chat(r.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatDisabled):
			writeError(w, http.StatusServiceUnavailable, "CHAT_DISABLED", "Chat is not configured")
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Message required")
		case errors.Is(err, chat.ErrMessageTooLong):
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Message too long")
		default:
			log.Printf("chat failed: %v", err)
			writeError(w, http.StatusBadGateway, "CHAT_FAILED", "Chat service unavailable")
		}
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (a *API) profileID(w http.ResponseWriter, r *http.Request) (string, bool) {
	profileID, ok := auth.ProfileIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing profile")
		return "", false
	}
	return profileID, true
}

func decodeItemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "item_id required")
		return "", false
	}
	return itemID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid payload")
		return false
	}
	return true
}
