package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"finlink/internal/domain/link"
	"finlink/internal/domain/openfinance"
	"finlink/internal/shared/apperr"
	"finlink/internal/shared/middleware"
)

// BelvoHandler serves the aggregator pass-through and link routes.
type BelvoHandler struct {
	gateway *openfinance.Service
	links   *link.Service
	logger  *zap.Logger
}

func NewBelvoHandler(gateway *openfinance.Service, links *link.Service, logger *zap.Logger) *BelvoHandler {
	return &BelvoHandler{gateway: gateway, links: links, logger: logger}
}

type AccessTokenResponse struct {
	Access string `json:"access"`
}

// HandleBanks relays the aggregator's accounts listing.
func (h *BelvoHandler) HandleBanks(w http.ResponseWriter, r *http.Request) {
	body, err := h.gateway.Institutions(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *BelvoHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.gateway.Balance(r.Context(), r.URL.Query().Get("link_id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// HandleCreateLink stores a link for the authenticated user.
func (h *BelvoHandler) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var params link.CreateParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	l, err := h.links.Create(r.Context(), email, params)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrConflict):
			writeError(w, http.StatusConflict, "Link already exists")
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			writeServiceError(w, h.logger, err)
		}
		return
	}

	h.logger.Info("link created",
		zap.String("link_id", l.ID),
		zap.Int64("user_id", l.UserID),
		zap.String("institution", l.Institution),
	)
	writeJSON(w, http.StatusCreated, l)
}

func (h *BelvoHandler) HandleAccessToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.gateway.AccessToken(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, AccessTokenResponse{Access: token})
}
