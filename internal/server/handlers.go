package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
	"github.com/playlog/steamsync/internal/tasks"
)

// SyncHandler exposes the sync service's operations over HTTP.
// Implements the Handler interface for registration with a Router.
type SyncHandler struct {
	service *tasks.Service
	logger  *log.Logger
}

// NewSyncHandler creates a handler backed by the given service.
func NewSyncHandler(service *tasks.Service, logger *log.Logger) *SyncHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncHandler{
		service: service,
		logger:  shared.WithLogger(logger, "component", "http"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *SyncHandler) Routes() []string {
	return []string{
		"POST /steam/link",
		"POST /steam/sync",
		"POST /steam/unlink",
		"GET /steam/status",
		"GET /steam/runs",
	}
}

// ServeHTTP dispatches to the operation matching the request path.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/steam/link":
		h.link(w, r)
	case "/steam/sync":
		h.syncNow(w, r)
	case "/steam/unlink":
		h.unlink(w, r)
	case "/steam/status":
		h.status(w, r)
	case "/steam/runs":
		h.runs(w, r)
	default:
		http.NotFound(w, r)
	}
}

type linkRequest struct {
	UserID  string `json:"user_id"`
	Profile string `json:"profile"`
}

type linkResponse struct {
	SteamID string       `json:"steam_id"`
	Run     *runResponse `json:"run"`
	Warning string       `json:"warning,omitempty"`
}

type runResponse struct {
	ID            string     `json:"id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	TitlesSeen    int        `json:"titles_seen"`
	TitlesAdded   int        `json:"titles_added"`
	TitlesUpdated int        `json:"titles_updated"`
	Outcome       string     `json:"outcome"`
	ErrorDetail   string     `json:"error_detail,omitempty"`
}

func toRunResponse(run *models.SyncRun) *runResponse {
	if run == nil {
		return nil
	}
	return &runResponse{
		ID:            run.ID,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		TitlesSeen:    run.TitlesSeen,
		TitlesAdded:   run.TitlesAdded,
		TitlesUpdated: run.TitlesUpdated,
		Outcome:       string(run.Outcome),
		ErrorDetail:   run.ErrorDetail,
	}
}

// link associates a user with a Steam profile and runs the initial import
// before responding. A partial import still succeeds with a warning attached.
func (h *SyncHandler) link(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Profile == "" {
		h.writeError(w, http.StatusBadRequest, "user_id and profile are required")
		return
	}

	result, err := h.service.Link(r.Context(), req.UserID, req.Profile)
	if err != nil && !errors.Is(err, shared.ErrPartialImport) {
		h.fail(w, err)
		return
	}

	resp := linkResponse{SteamID: result.Account.SteamID, Run: toRunResponse(result.Run)}
	if err != nil {
		resp.Warning = err.Error()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type syncRequest struct {
	UserID string `json:"user_id"`
}

// syncNow starts a manual run and returns 202 with the run id.
func (h *SyncHandler) syncNow(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	runID, err := h.service.SyncNow(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (h *SyncHandler) unlink(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.service.Unlink(req.UserID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Linked         bool       `json:"linked"`
	SteamID        string     `json:"steam_id,omitempty"`
	ProfileURL     string     `json:"profile_url,omitempty"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	LastSyncStatus string     `json:"last_sync_status,omitempty"`
	Running        bool       `json:"running"`
}

func (h *SyncHandler) status(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	info, err := h.service.Status(userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := statusResponse{
		Linked:         info.Linked,
		SteamID:        info.SteamID,
		ProfileURL:     info.ProfileURL,
		LastSyncAt:     info.LastSyncAt,
		LastSyncStatus: string(info.LastSyncStatus),
		Running:        info.Running,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *SyncHandler) runs(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	runs, err := h.service.Runs(userID, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := make([]*runResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// fail maps service errors onto HTTP status codes.
func (h *SyncHandler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrInvalidProfileFormat), errors.Is(err, shared.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrProfileNotFound),
		errors.Is(err, shared.ErrAccountNotLinked),
		errors.Is(err, shared.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrPrivateLibrary):
		status = http.StatusForbidden
	case errors.Is(err, shared.ErrSyncInProgress):
		status = http.StatusConflict
	case errors.Is(err, shared.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, shared.ErrTransientNetwork), errors.Is(err, shared.ErrAPIRequest):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	h.writeError(w, status, err.Error())
}

func (h *SyncHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encoding response", "error", err)
	}
}

func (h *SyncHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
