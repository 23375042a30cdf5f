package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"bunnyfocus/internal/repo"
	"bunnyfocus/internal/service"
	"bunnyfocus/internal/streak"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

// writeServiceError maps domain errors to status codes. Anything unknown is
// logged and reported as an internal error.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, streak.ErrNoOfferToday):
		writeError(w, http.StatusConflict, "NO_OFFER_TODAY", "No offer for today, complete a session first")
	case errors.Is(err, streak.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, "ALREADY_CLAIMED", "Today's bunny was already claimed")
	case errors.Is(err, streak.ErrOptionNotOffered):
		writeError(w, http.StatusBadRequest, "OPTION_NOT_OFFERED", "Item is not among today's options")
	case errors.Is(err, streak.ErrUnknownItem):
		writeError(w, http.StatusNotFound, "UNKNOWN_ITEM", "Unknown item")
	case errors.Is(err, streak.ErrStreakTooLow):
		writeError(w, http.StatusForbidden, "STREAK_TOO_LOW", "Streak too low for this item")
	case errors.Is(err, streak.ErrItemNotOwned):
		writeError(w, http.StatusForbidden, "ITEM_NOT_OWNED", "Item not in collection")
	case errors.Is(err, service.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Theme or accent_color required, at most 64 characters")
	case errors.Is(err, repo.ErrInvalidProfileID):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid profile id")
	case errors.Is(err, repo.ErrCorruptProfile):
		log.Printf("corrupt profile: %v", err)
		writeError(w, http.StatusInternalServerError, "CORRUPT_PROFILE", "Stored profile is unreadable")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}
