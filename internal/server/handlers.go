package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/petasbytes/go-assistant/internal/safety"
	"github.com/petasbytes/go-assistant/internal/telemetry"
)

// MessageRequest is the body of both POST routes.
type MessageRequest struct {
	Content string `json:"content"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse carries a human-readable failure description.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

var errEmptyContent = errors.New("content must not be empty")

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMessage(w, r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if err := safety.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set(SessionHeader, sessionID)

	ctx, turnID := telemetry.EnsureTurnID(r.Context())
	logger := hlog.FromRequest(r).With().Str("session", sessionID).Str("turn_id", turnID).Logger()
	telemetry.EmitRequestFeatures(ctx, s.mode, req.Content)

	unlock := s.sessions.lock(sessionID)
	defer unlock()

	conv, err := s.store.Load(ctx, sessionID)
	if err != nil {
		logger.Error().Err(err).Msg("chat: load session")
		writeError(w, http.StatusInternalServerError, fmt.Errorf("load session: %w", err))
		return
	}

	reply, updated, err := s.runner.Respond(ctx, conv, req.Content)
	if err != nil {
		logger.Error().Err(err).Msg("chat: turn failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.store.Save(ctx, sessionID, updated); err != nil {
		logger.Error().Err(err).Msg("chat: save session")
		writeError(w, http.StatusInternalServerError, fmt.Errorf("save session: %w", err))
		return
	}
	logger.Debug().Int("messages", len(updated)).Msg("chat: turn complete")
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMessage(w, r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if _, err := s.docs.AddDocument(r.Context(), req.Content); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("document: add failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": s.mode})
}

// decodeMessage reads a MessageRequest with non-blank content.
func decodeMessage(w http.ResponseWriter, r *http.Request) (MessageRequest, error) {
	var req MessageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, errors.New("request body is empty")
		}
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if strings.TrimSpace(req.Content) == "" {
		return req, errEmptyContent
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Detail: err.Error()})
}
