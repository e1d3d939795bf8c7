package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/imamik/stackpilot/internal/metrics"
	"github.com/imamik/stackpilot/internal/router"
)

var errNoFlusher = errors.New("response writer does not support flushing")

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Healthy"})
}

func (s *Server) handleInvocations(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req.SessionID = sessionID(r, req.SessionID)

	sse, err := startSSE(w)
	if err != nil {
		s.log.Error(err, "sse stream unavailable")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log := s.log.WithValues("session", req.SessionID, "transport", "sse")
	out := s.runner.Run(ctx, req)
	for frag := range out {
		if err := sse.writeData(frag.Text); err != nil {
			log.V(1).Info("client went away", "error", err.Error())
			cancel()
			drain(out)
			return
		}
		metrics.RecordFragment("sse")
	}
}

func decodeRequest(body io.Reader) (router.Request, error) {
	var req router.Request
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, errors.New("request body is empty")
		}
		return req, errors.New("invalid request body: " + err.Error())
	}
	return req, nil
}

type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func startSSE(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errNoFlusher
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// writeData emits text as one JSON-string data event.
func (s *sseWriter) writeData(text string) error {
	b, err := json.Marshal(text)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, "data: "); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, "\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func drain(ch <-chan router.Fragment) {
	for range ch {
	}
}
