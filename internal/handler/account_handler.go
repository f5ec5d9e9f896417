package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/atlas-accounts/internal/avatar"
	"github.com/prn-tf/atlas-accounts/internal/domain"
	"github.com/prn-tf/atlas-accounts/internal/service"
)

// AccountHandler handles account and session requests.
type AccountHandler struct {
	accounts       *service.AccountService
	sessions       *service.SessionService
	avatars        *avatar.Processor
	maxUploadBytes int64
	logger         zerolog.Logger
}

// AccountHandlerConfig contains configuration for the handler.
type AccountHandlerConfig struct {
	Accounts       *service.AccountService
	Sessions       *service.SessionService
	Avatars        *avatar.Processor
	MaxUploadBytes int64
	Logger         zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(cfg AccountHandlerConfig) *AccountHandler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 1_000_000
	}
	return &AccountHandler{
		accounts:       cfg.Accounts,
		sessions:       cfg.Sessions,
		avatars:        cfg.Avatars,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         cfg.Logger.With().Str("handler", "account").Logger(),
	}
}

// sessionResponse is the reply to registration and login.
type sessionResponse struct {
	User  *domain.Account `json:"user"`
	Token string          `json:"token"`
}

// createRequest is the registration body.
type createRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
}

// Register handles POST /users.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	account, err := h.accounts.Create(r.Context(), service.CreateAccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.sessions.Issue(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{User: account, Token: token})
}

// loginRequest is the login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /users/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.sessions.Issue(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{User: account, Token: token})
}

// Logout handles POST /users/logout. Revokes the presented token only.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	if err := h.sessions.RevokeOne(r.Context(), account, tokenFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// LogoutAll handles POST /users/logoutAll. Revokes every session.
func (h *AccountHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	if err := h.sessions.RevokeAll(r.Context(), account); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// Me handles GET /users/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountFrom(r))
}

// UpdateMe handles PATCH /users/me. The body is decoded as a raw field map
// so that unknown keys reject the whole request instead of being silently
// dropped.
func (h *AccountHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := readJSON(r, &fields); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	account, err := h.accounts.Update(r.Context(), accountFrom(r).ID, fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// DeleteMe handles DELETE /users/me. Every session dies with the account.
func (h *AccountHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Delete(r.Context(), accountFrom(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// allowedAvatarExts lists the accepted upload filename extensions.
var allowedAvatarExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// UploadAvatar handles POST /users/me/avatar. Accepts a multipart form with
// an "avatar" file field, normalizes the image, and stores it.
func (h *AccountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, domain.ErrImageTooLarge)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "avatar file is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedAvatarExts[ext] {
		writeError(w, domain.ErrUnsupportedImage)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, domain.ErrImageTooLarge)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read avatar upload"})
		return
	}

	normalized, err := h.avatars.Normalize(data)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.SetAvatar(r.Context(), accountFrom(r).ID, normalized); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

// DeleteAvatar handles DELETE /users/me/avatar.
func (h *AccountHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.ClearAvatar(r.Context(), accountFrom(r).ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// GetAvatar handles GET /users/{id}/avatar. Public: anyone holding an
// account ID can fetch the avatar. An unknown account and an account
// without an avatar are the same 404.
func (h *AccountHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := h.accounts.GetAvatar(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to write avatar response")
	}
}
