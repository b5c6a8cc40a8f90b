package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/replaybrowser/replaybrowser/internal/api/middleware"
	"github.com/replaybrowser/replaybrowser/internal/api/request"
	"github.com/replaybrowser/replaybrowser/internal/api/response"
	"github.com/replaybrowser/replaybrowser/internal/dependencies/clock"
	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/services/account"
	"github.com/replaybrowser/replaybrowser/internal/services/auth"
	"github.com/replaybrowser/replaybrowser/internal/services/export"
	"github.com/replaybrowser/replaybrowser/internal/services/replay"
)

// AccountHandler handles account endpoints for the authenticated caller
type AccountHandler struct {
	accountService *account.Service
	replayService  *replay.Service
	exportService  *export.Service
	authService    *auth.Service
	clock          clock.Clock
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(
	accountService *account.Service,
	replayService *replay.Service,
	exportService *export.Service,
	authService *auth.Service,
	clock clock.Clock,
) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		replayService:  replayService,
		exportService:  exportService,
		authService:    authService,
		clock:          clock,
	}
}

// Get handles GET /api/v1/account
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	acct, err := h.accountService.Get(r.Context(), session.Identifier)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(acct))
}

// Delete handles DELETE /api/v1/account
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	// The body is optional; absent means an ordinary deletion
	var req request.DeleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	result, err := h.accountService.DeleteOwn(r.Context(), session.Identifier, req.Permanent)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.authService.TerminateSessionsFor(session.Identifier)
	response.JSON(w, http.StatusOK, response.DeleteResultFromService(result))
}

// Export handles GET /api/v1/account/export
func (h *AccountHandler) Export(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	writeExport(w, r, h.exportService, session.Identifier, false, h.clock)
}

// ListFavorites handles GET /api/v1/account/favorites
func (h *AccountHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	replays, err := h.replayService.Favorites(r.Context(), session.Identifier)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReplaysFromModel(replays))
}

// AddFavorite handles POST /api/v1/account/favorites
func (h *AccountHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	var req request.FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.ReplayID == "" {
		WriteError(w, NewInvalidRequestError("replay_id is required"))
		return
	}

	if err := h.replayService.AddFavorite(r.Context(), session.Identifier, model.ReplayID(req.ReplayID)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// RemoveFavorite handles DELETE /api/v1/account/favorites/{replay_id}
func (h *AccountHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	replayID := model.ReplayID(mux.Vars(r)["replay_id"])

	if err := h.replayService.RemoveFavorite(r.Context(), session.Identifier, replayID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// writeExport builds the export archive in memory before any header or
// body byte goes out, so a storage failure mid-archive yields a clean error
// response instead of a truncated download. Archives are a handful of JSON
// entries, small enough to buffer.
func writeExport(w http.ResponseWriter, r *http.Request, svc *export.Service, id model.Identifier, admin bool, clk clock.Clock) {
	var buf bytes.Buffer
	if err := svc.WriteArchive(r.Context(), &buf, id, admin); err != nil {
		WriteError(w, err)
		return
	}

	filename := export.Filename(id, admin, clk.Now())
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}
