package hostsrv

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dialogrun/diavolo/internal/dialogue/config"
	"github.com/dialogrun/diavolo/internal/dialogue/runner"
	"github.com/dialogrun/diavolo/internal/dialogue/script"
)

const msgpackContentType = "application/msgpack"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeMsgpack(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"dialogues": len(s.registry.List()),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := readMsgpack(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Script == "" {
		writeError(w, http.StatusBadRequest, "script is required")
		return
	}

	dialogue, err := script.Parse([]byte(req.Script))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid script: %v", err))
		return
	}

	cfg := config.Default()
	if req.Lang != "" {
		cfg.Language = req.Lang
	}
	run, err := runner.Instantiate(cfg, dialogue, req.Actors, req.Args, runner.WithLogger(s.logger))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("cannot start dialogue: %v", err))
		return
	}

	sess := &Session{
		ID:        ulid.Make().String(),
		StartedAt: time.Now().UTC(),
		run:       run,
	}
	if err := s.registry.Register(sess); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeMsgpack(w, http.StatusCreated, CreateResponse{ID: sess.ID, View: sess.View()})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("dialogue %s not found", id))
		return
	}
	writeMsgpack(w, http.StatusOK, sess.View())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("dialogue %s not found", id))
		return
	}

	var req ActionRequest
	if err := readMsgpack(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	action, ok := toRunnerAction(req)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown action kind %q", req.Kind))
		return
	}

	accepted, err := sess.Dispatch(action)
	if err != nil {
		s.logger.Printf("dialogue %s aborted: %v", id, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("dialogue aborted: %v", err))
		return
	}

	writeMsgpack(w, http.StatusOK, ActionResponse{Accepted: accepted, View: sess.View()})
}

// --- wire helpers ---

func readMsgpack(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(body, v)
}

func writeMsgpack(w http.ResponseWriter, status int, v any) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"encode response: %v"}`, err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", msgpackContentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeMsgpack(w, status, ErrorResponse{Error: msg})
}
