package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/replaybrowser/replaybrowser/internal/api/middleware"
	"github.com/replaybrowser/replaybrowser/internal/api/request"
	"github.com/replaybrowser/replaybrowser/internal/api/response"
	"github.com/replaybrowser/replaybrowser/internal/dependencies/clock"
	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/services/account"
	"github.com/replaybrowser/replaybrowser/internal/services/auth"
	"github.com/replaybrowser/replaybrowser/internal/services/export"
)

// AdminHandler handles administrative account endpoints
type AdminHandler struct {
	accountService *account.Service
	exportService  *export.Service
	authService    *auth.Service
	clock          clock.Clock
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	accountService *account.Service,
	exportService *export.Service,
	authService *auth.Service,
	clock clock.Clock,
) *AdminHandler {
	return &AdminHandler{
		accountService: accountService,
		exportService:  exportService,
		authService:    authService,
		clock:          clock,
	}
}

// DeleteAccount handles DELETE /api/v1/admin/accounts/{identifier}
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	target, err := model.ParseIdentifier(mux.Vars(r)["identifier"])
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.DeleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	result, err := h.accountService.AdminDelete(r.Context(), session.Identifier, target, req.Permanent)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.authService.TerminateSessionsFor(target)
	response.JSON(w, http.StatusOK, response.DeleteResultFromService(result))
}

// ExportAccount handles GET /api/v1/admin/accounts/{identifier}/export
func (h *AdminHandler) ExportAccount(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	target, err := model.ParseIdentifier(mux.Vars(r)["identifier"])
	if err != nil {
		WriteError(w, err)
		return
	}

	requester, err := h.accountService.Get(r.Context(), session.Identifier)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !requester.IsAdmin {
		WriteError(w, model.ErrNotAdmin)
		return
	}

	writeExport(w, r, h.exportService, target, true, h.clock)
}
