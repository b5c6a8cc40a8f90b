package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/replaybrowser/replaybrowser/internal/api/middleware"
	"github.com/replaybrowser/replaybrowser/internal/api/request"
	"github.com/replaybrowser/replaybrowser/internal/api/response"
	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/services/account"
	"github.com/replaybrowser/replaybrowser/internal/services/auth"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService    *auth.Service
	accountService *account.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, accountService *account.Service) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		accountService: accountService,
	}
}

// Login handles POST /api/v1/auth/login
//
// The identifier arrives pre-authenticated from the external identity
// handshake; this endpoint turns it into a local account and session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	id, err := model.ParseIdentifier(req.Identifier)
	if err != nil {
		WriteError(w, err)
		return
	}

	acct, err := h.accountService.OnLogin(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrIdentifierTombstoned) {
			// Any sessions left over from before the permanent deletion
			// must not outlive it
			h.authService.TerminateSessionsFor(id)
		}
		WriteError(w, err)
		return
	}

	session := h.authService.CreateSession(acct.Identifier, acct.Username)
	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session, acct))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	h.authService.InvalidateSession(session.Token)
	response.NoContent(w)
}
