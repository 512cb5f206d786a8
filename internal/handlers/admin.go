package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stanstork/admingate/internal/models"
	"github.com/stanstork/admingate/internal/repository"
)

// AdminHandler serves user management endpoints. It assumes the router has
// already put authz.AdminOnly in front of it.
type AdminHandler struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

func NewAdminHandler(userRepo repository.UserRepository, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, logger: logger}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.ListUsers()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list users")
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		h.writeRepoError(w, err, userID)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var payload struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	role := models.UserRole(strings.TrimSpace(payload.Role))
	if !models.IsValidRole(role) {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	user, err := h.userRepo.UpdateUserRole(userID, role)
	if err != nil {
		h.writeRepoError(w, err, userID)
		return
	}

	h.logger.Info().Str("user_id", userID).Str("role", string(role)).Msg("user role updated")
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	if err := h.userRepo.DeleteUser(userID); err != nil {
		h.writeRepoError(w, err, userID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) writeRepoError(w http.ResponseWriter, err error, userID string) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "User not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrInvalidRole):
		http.Error(w, "Invalid role", http.StatusBadRequest)
	default:
		h.logger.Error().Err(err).Str("user_id", userID).Msg("user repository failure")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
