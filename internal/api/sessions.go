package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/landarea-core/internal/conversion"
	"github.com/nerrad567/landarea-core/internal/session"
)

// SessionResponse is the JSON form of a converter session.
type SessionResponse struct {
	ID        string        `json:"id"`
	State     session.State `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
}

func sessionResponse(sess *session.Session, state session.State) SessionResponse {
	return SessionResponse{
		ID:        sess.ID(),
		State:     state,
		CreatedAt: sess.CreatedAt(),
	}
}

// handleCreateSession starts a session with default inputs.
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(sess, sess.State()))
}

// handleGetSession returns the current state of a session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess, sess.State()))
}

// handleUpdateSession applies a partial update. Either every field is
// applied or, on a validation error, none is.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var patch session.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	state, err := sess.Apply(patch)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.recordConversion(surfaceHTTP, state.Request(), stateValid(state))
	writeJSON(w, http.StatusOK, sessionResponse(sess, state))
}

// handleSwapSession exchanges the source and target units.
func (s *Server) handleSwapSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	state := sess.Swap()
	s.recordConversion(surfaceHTTP, state.Request(), stateValid(state))
	writeJSON(w, http.StatusOK, sessionResponse(sess, state))
}

// handleResetSession restores the default inputs.
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	state := sess.Reset()
	s.recordConversion(surfaceHTTP, state.Request(), stateValid(state))
	writeJSON(w, http.StatusOK, sessionResponse(sess, state))
}

// handleDeleteSession discards a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeSessionError(w, err)
		return nil, false
	}
	return sess, true
}

// writeSessionError maps session errors to HTTP responses.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeNotFound(w, "session not found")
	case errors.Is(err, session.ErrInvalidUnit), errors.Is(err, session.ErrInvalidRegion):
		writeValidation(w, "", err)
	case errors.Is(err, session.ErrTooManySessions):
		writeUnavailable(w, "session limit reached")
	default:
		s.logger.Error("session operation failed", "error", err)
		writeInternalError(w, "session operation failed")
	}
}

// stateValid reports whether a state holds a numeric result.
func stateValid(st session.State) bool {
	return st.Output != "" && st.Output != conversion.InvalidInput
}
