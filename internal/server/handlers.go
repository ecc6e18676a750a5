package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/Protoscribe/internal/draft"
	"github.com/turtacn/Protoscribe/internal/monitor"
	"github.com/turtacn/Protoscribe/internal/session"
	"github.com/turtacn/Protoscribe/pkg/consts"
	"github.com/turtacn/Protoscribe/pkg/digest"
	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/protocol"
)

type sessionView struct {
	session.Snapshot
	Events []string `json:"events"`
}

func view(s *session.Session) sessionView {
	return sessionView{Snapshot: s.Snapshot(), Events: s.Events()}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, view(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(sess *session.Session, patch protocol.Patch) error {
		_, err := sess.Update(patch)
		return err
	})
}

func (s *Server) handleSubmitStep(w http.ResponseWriter, r *http.Request) {
	step, ok := session.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		s.writeError(w, perrors.New(perrors.ErrCodeUnknownStep, "Submit", "unknown step "+chi.URLParam(r, "step"), nil))
		return
	}
	s.mutate(w, r, func(sess *session.Session, patch protocol.Patch) error {
		_, err := sess.Submit(step, patch)
		return err
	})
}

// mutate decodes a Patch body, applies fn to the session and persists it.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*session.Session, protocol.Patch) error) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var patch protocol.Patch
	dec := json.NewDecoder(io.LimitReader(r.Body, consts.MaxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		s.writeError(w, perrors.New(perrors.ErrCodeDraftDecode, "DecodePatch", "malformed patch", err))
		return
	}

	if err := fn(sess, patch); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch chi.URLParam(r, "action") {
	case "back":
		_, err = sess.Back()
	case "abandon":
		err = sess.Abandon()
	case "undo":
		_, err = sess.Undo()
	case "redo":
		_, err = sess.Redo()
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := s.compileOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeDocument(w, sess.Document(opts...))
}

// handleCompile compiles a draft sent as JSON without creating a session.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, consts.MaxRequestBytes))
	if err != nil {
		s.writeError(w, perrors.New(perrors.ErrCodeDraftRead, "Compile", "cannot read body", err))
		return
	}
	p, err := draft.Decode(body, draft.FormatJSON)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := s.compileOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeDocument(w, protocol.Compile(p, opts...))
}

func (s *Server) handleVerbs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"roles": protocol.Roles(),
		"verbs": protocol.Verbs(),
	})
}

// compileOptions starts from the configured compiler settings. The
// "nesting" query parameter replaces the configured mode and "strict=true"
// turns on strict formats.
func (s *Server) compileOptions(r *http.Request) ([]protocol.CompileOption, error) {
	opts := s.cfg.CompileOptions()
	q := r.URL.Query()
	if raw := q.Get("nesting"); raw != "" {
		mode, ok := protocol.ParseNestingMode(raw)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeDraftDecode, "CompileOptions", "unknown nesting mode "+raw, nil)
		}
		opts = append(opts, protocol.WithNesting(mode))
	}
	if raw := q.Get("strict"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, perrors.New(perrors.ErrCodeDraftDecode, "CompileOptions", "strict must be a boolean", err)
		}
		if strict {
			opts = append(opts, protocol.WithStrictFormats())
		}
	}
	return opts, nil
}

func (s *Server) writeDocument(w http.ResponseWriter, doc *protocol.Document) {
	out, err := doc.Render()
	if err != nil {
		s.writeError(w, err)
		return
	}
	monitor.ObserveCompile(doc)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(consts.HeaderDescriptorCID, digest.String(out))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// Personal.AI order the ending
