package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/roshambo/internal/domain/move"
)

const maxBodyBytes = 4 << 10

// IdempotencyHeader carries a round id when the body has none.
const IdempotencyHeader = "Idempotency-Key"

// createSessionRequest mirrors the OpenAPI schema for POST /sessions.
type createSessionRequest struct {
	Player string `json:"player"`
}

// playRequest mirrors the OpenAPI schema for POST /sessions/{id}/rounds.
type playRequest struct {
	Move    string `json:"move"`
	RoundID string `json:"round_id"`
}

// SessionsHandler handles session and round requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions. The body is optional.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}

	var req createSessionRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		fail(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}

	snap, err := h.deps.CreateSession(r.Context(), req.Player)
	if err != nil {
		fail(r.Context(), w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+snap.ID)
	writeJSON(w, http.StatusCreated, snap)
}

// HandleSession routes /sessions/{id} and /sessions/{id}/rounds.
func (h *SessionsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	id, rest, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/sessions/"), "/")
	if id == "" {
		fail(r.Context(), w, WrapKind("api.session", ErrBadRequest, errors.New("missing session id")))
		return
	}

	switch rest {
	case "":
		h.handleSession(w, r, id)
	case "rounds":
		h.handlePlay(w, r, id)
	default:
		fail(r.Context(), w, NewKind("api.session", ErrNotFound))
	}
}

// handleSession serves GET and DELETE /sessions/{id}.
func (h *SessionsHandler) handleSession(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		snap, err := h.deps.Session(r.Context(), id)
		if err != nil {
			fail(r.Context(), w, Wrap("api.get_session", err))
			return
		}
		writeJSON(w, http.StatusOK, snap)
	case http.MethodDelete:
		if err := h.deps.EndSession(r.Context(), id); err != nil {
			fail(r.Context(), w, Wrap("api.end_session", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "api.session", http.MethodGet, http.MethodDelete)
	}
}

// handlePlay serves POST /sessions/{id}/rounds.
func (h *SessionsHandler) handlePlay(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.play_round"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}

	var req playRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		fail(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := move.Parse(req.Move)
	if err != nil {
		fail(r.Context(), w, Wrap(op, err))
		return
	}
	roundID := strings.TrimSpace(req.RoundID)
	if roundID == "" {
		roundID = strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	}

	res, err := h.deps.Play(r.Context(), id, roundID, m)
	if err != nil {
		fail(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeBody reads a bounded JSON body into v. An empty body is accepted
// only when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && optional:
		return nil
	case errors.Is(err, io.EOF):
		return errors.New("empty body")
	default:
		return err
	}
}
