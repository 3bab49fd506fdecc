package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogssom/internal/apperr"
	"blogssom/internal/config"
	"blogssom/internal/middleware"
	"blogssom/internal/models"
	"blogssom/internal/repository"
)

type UserHandler struct {
	users repository.UserRepository
	cfg   *config.Config
}

func NewUserHandler(users repository.UserRepository, cfg *config.Config) *UserHandler {
	return &UserHandler{users: users, cfg: cfg}
}

// @Tags Account
// @Summary Current user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		apperr.Write(w, apperr.New(apperr.KindNoToken, "You are not logged in! Log in to get access."), h.cfg.IsProduction())
		return
	}

	writeUser(w, http.StatusOK, u)
}

// @Tags Account
// @Summary List users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/users/ [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	if users == nil {
		users = []models.User{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"results": len(users),
		"data":    map[string]any{"users": users},
	})
}

// @Tags Account
// @Summary Get user
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apperr.Write(w, apperr.New(apperr.KindNotFound, "No user found with that ID"), h.cfg.IsProduction())
			return
		}
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	writeUser(w, http.StatusOK, u)
}

// @Tags Account
// @Summary Deactivate user
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.users.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apperr.Write(w, apperr.New(apperr.KindNotFound, "No user found with that ID"), h.cfg.IsProduction())
			return
		}
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateUser is intentionally not implemented; accounts are only created
// through signup so every password passes through the hashing path.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	apperr.Write(w, apperr.New(apperr.KindMethodNotSupported, "This route is not defined! Please use /signup instead"), h.cfg.IsProduction())
}

func writeUser(w http.ResponseWriter, status int, u *models.User) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   map[string]any{"user": u},
	})
}
