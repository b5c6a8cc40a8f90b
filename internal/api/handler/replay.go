package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/replaybrowser/replaybrowser/internal/api/response"
	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/services/replay"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

const defaultPageSize = 50

// ReplayHandler handles replay browsing endpoints
type ReplayHandler struct {
	replayService *replay.Service
}

// NewReplayHandler creates a new replay handler
func NewReplayHandler(replayService *replay.Service) *ReplayHandler {
	return &ReplayHandler{
		replayService: replayService,
	}
}

// List handles GET /api/v1/replays
func (h *ReplayHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	replays, err := h.replayService.ListReplays(r.Context(), opts)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReplaysFromModel(replays))
}

// Search handles GET /api/v1/replays/search
func (h *ReplayHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteError(w, NewInvalidRequestError("q is required"))
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	replays, err := h.replayService.SearchReplays(r.Context(), query, opts)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReplaysFromModel(replays))
}

// Get handles GET /api/v1/replays/{id}
func (h *ReplayHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.ReplayID(mux.Vars(r)["id"])

	rep, err := h.replayService.GetReplay(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReplayFromModel(rep))
}

// listOptions parses offset and limit query parameters
func listOptions(r *http.Request) (storage.ListOptions, error) {
	opts := storage.ListOptions{Limit: defaultPageSize}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return opts, NewInvalidRequestError("offset must be a non-negative integer")
		}
		opts.Offset = offset
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return opts, NewInvalidRequestError("limit must be a positive integer")
		}
		opts.Limit = limit
	}

	return opts, nil
}
