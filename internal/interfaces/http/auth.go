package http

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"finlink/internal/domain/user"
	"finlink/internal/shared/apperr"
	"finlink/internal/shared/middleware"
)

type AuthHandler struct {
	users  *user.Service
	logger *zap.Logger
}

func NewAuthHandler(users *user.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// MeResponse is the public view of the current user.
type MeResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleRegister creates a user and returns a token pair.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterParams
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, pair, err := h.users.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user registered", zap.Int64("user_id", u.ID))
	writeJSON(w, http.StatusOK, pair)
}

// HandleLogin accepts form fields username and password, or a JSON body
// with email and password.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email, password, err := loginCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	pair, err := h.users.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func loginCredentials(r *http.Request) (string, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			return "", "", err
		}
		return req.Email, req.Password, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", "", err
	}
	return r.PostForm.Get("username"), r.PostForm.Get("password"), nil
}

// HandleRefresh exchanges a refresh token, sent as a bearer token or as
// refresh_token in a JSON body, for a new pair.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		var req RefreshRequest
		if err := decodeJSON(r, &req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}
	if token == "" {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	pair, err := h.users.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// HandleMe returns the authenticated user. A token whose subject no longer
// exists is treated as invalid.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	u, err := h.users.CurrentUser(r.Context(), email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{ID: u.ID, Name: u.Name, Email: u.Email})
}
