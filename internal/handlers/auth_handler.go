package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"blogssom/internal/apperr"
	"blogssom/internal/auth"
	"blogssom/internal/config"
	"blogssom/internal/middleware"
	"blogssom/internal/models"
	"blogssom/internal/repository"
	"blogssom/internal/services"
)

type AuthHandler struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordManager
	notifier  *services.Notifier
	cfg       *config.Config
	v         *validator.Validate
}

func NewAuthHandler(users repository.UserRepository, tokens *auth.TokenService, passwords *auth.PasswordManager, notifier *services.Notifier, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		notifier:  notifier,
		cfg:       cfg,
		v:         validator.New(),
	}
}

// sendToken issues a session token for u and delivers it both as an
// http-only cookie and in the response body.
func (h *AuthHandler) sendToken(w http.ResponseWriter, u *models.User, status int) {
	token, _, err := h.tokens.Issue(u.ID)
	if err != nil {
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	http.SetCookie(w, h.sessionCookie(token, h.cfg.JWTLifetime))

	var resp models.TokenResponse
	resp.Status = "success"
	resp.Token = token
	resp.Data.User = u

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Cookie attributes tighten in production: cross-site frontend needs
// SameSite=None, which in turn requires Secure.
func (h *AuthHandler) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	}
	if h.cfg.IsProduction() {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("Invalid request body"), h.cfg.IsProduction())
		return
	}
	if err := h.v.Struct(req); err != nil {
		apperr.Write(w, apperr.Validation(err.Error()), h.cfg.IsProduction())
		return
	}

	hash, err := h.passwords.Hash(r.Context(), req.Password)
	if err != nil {
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			apperr.Write(w, apperr.New(apperr.KindDuplicateKey, "An account with this email already exists"), h.cfg.IsProduction())
			return
		}
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	// Welcome mail is best effort; a delivery problem should not undo a
	// completed signup.
	if err := h.notifier.SendWelcome(u, h.cfg.FrontendBase()+"/me"); err != nil {
		log.Printf("welcome email to %s failed: %v", u.Email, err)
	}

	h.sendToken(w, u, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("Invalid request body"), h.cfg.IsProduction())
		return
	}
	if err := h.v.Struct(req); err != nil {
		apperr.Write(w, apperr.Validation("Please provide email and password!"), h.cfg.IsProduction())
		return
	}

	u, err := h.users.GetByEmailWithPassword(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apperr.Write(w, apperr.BadCredentials(), h.cfg.IsProduction())
			return
		}
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	if !h.passwords.Verify(r.Context(), req.Password, u.PasswordHash) {
		apperr.Write(w, apperr.BadCredentials(), h.cfg.IsProduction())
		return
	}

	u.PasswordHash = ""
	h.sendToken(w, u, http.StatusOK)
}

// Logout clears the session cookie. Tokens stay valid until they expire;
// there is no server-side revocation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c := h.sessionCookie("", 0)
	c.Expires = time.Unix(0, 0)
	c.MaxAge = -1
	http.SetCookie(w, c)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("Invalid request body"), h.cfg.IsProduction())
		return
	}
	if err := h.v.Struct(req); err != nil {
		apperr.Write(w, apperr.Validation("Please provide your email!"), h.cfg.IsProduction())
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apperr.Write(w, apperr.New(apperr.KindNotFound, "No user with this email address."), h.cfg.IsProduction())
			return
		}
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	plaintext, err := h.passwords.NewResetToken(u)
	if err != nil {
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}
	if err := h.users.SetResetToken(r.Context(), u.ID, *u.ResetTokenHash, *u.ResetTokenExpiresAt); err != nil {
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	resetURL := h.cfg.FrontendBase() + "/reset-password?resetToken=" + plaintext
	if err := h.notifier.SendPasswordReset(u, resetURL); err != nil {
		// The stored hash must not outlive a mail that never went out,
		// even when the client has already abandoned the request.
		rollbackCtx := context.WithoutCancel(r.Context())
		if clearErr := h.users.ClearResetToken(rollbackCtx, u.ID); clearErr != nil {
			log.Printf("rollback of reset token for %s failed: %v", u.ID, clearErr)
		}
		apperr.Write(w, apperr.Wrap(apperr.KindDeliveryFailure, "There was an error sending the email. Try again later!", err), h.cfg.IsProduction())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	plaintext := chi.URLParam(r, "token")
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("Invalid request body"), h.cfg.IsProduction())
		return
	}
	if plaintext == "" || h.v.Struct(req) != nil {
		apperr.Write(w, apperr.Validation("Please provide token and password!"), h.cfg.IsProduction())
		return
	}

	u, err := h.users.GetByValidResetTokenHash(r.Context(), auth.HashResetToken(plaintext))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apperr.Write(w, apperr.Validation("Token is invalid or has expired"), h.cfg.IsProduction())
			return
		}
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	hash, err := h.passwords.Hash(r.Context(), req.Password)
	if err != nil {
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	h.passwords.MarkPasswordChanged(u)
	if err := h.users.UpdatePassword(r.Context(), u.ID, hash, u.PasswordChangedAt); err != nil {
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	h.sendToken(w, u, http.StatusOK)
}

// UpdatePassword changes the password of the authenticated account. All
// sessions issued before this point become stale.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	current := middleware.UserFromContext(r.Context())
	if current == nil {
		apperr.Write(w, apperr.New(apperr.KindNoToken, "You are not logged in! Log in to get access."), h.cfg.IsProduction())
		return
	}

	var req models.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("Invalid request body"), h.cfg.IsProduction())
		return
	}
	if err := h.v.Struct(req); err != nil {
		apperr.Write(w, apperr.Validation("Please provide your current password and new password!"), h.cfg.IsProduction())
		return
	}

	u, err := h.users.GetByIDWithPassword(r.Context(), current.ID)
	if err != nil {
		// The account can disappear between the auth gate and here.
		if errors.Is(err, repository.ErrNotFound) {
			apperr.Write(w, apperr.New(apperr.KindAccountGone, "The user belonging to the token no longer exists."), h.cfg.IsProduction())
			return
		}
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	if !h.passwords.Verify(r.Context(), req.CurrentPassword, u.PasswordHash) {
		apperr.Write(w, apperr.New(apperr.KindBadCredentials, "Your current password is wrong!"), h.cfg.IsProduction())
		return
	}

	hash, err := h.passwords.Hash(r.Context(), req.NewPassword)
	if err != nil {
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	h.passwords.MarkPasswordChanged(u)
	if err := h.users.UpdatePassword(r.Context(), u.ID, hash, u.PasswordChangedAt); err != nil {
		apperr.Write(w, apperr.Internal(err), h.cfg.IsProduction())
		return
	}

	u.PasswordHash = ""
	h.sendToken(w, u, http.StatusOK)
}
