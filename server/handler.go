// FILE: lixenwraith/asrproxy/server/handler.go
package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lixenwraith/asrproxy/asr"
	"github.com/lixenwraith/asrproxy/log"
)

// Recognizer is the part of asr.Client the handler needs
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
	RecognizeFile(ctx context.Context, path string) (string, error)
}

var _ Recognizer = (*asr.Client)(nil)

// Handler turns requests into responses. Every failure becomes a non-zero
// status; nothing is returned to the transport as an error.
type Handler struct {
	mu      sync.RWMutex
	client  Recognizer
	logger  *log.Facility
	timeout time.Duration

	served atomic.Uint64
	failed atomic.Uint64
}

// NewHandler creates a handler without a client. Requests fail with an
// internal status until SetClient is called.
func NewHandler(logger *log.Facility, timeout time.Duration) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{logger: logger, timeout: timeout}
}

// SetClient installs the recognition client
func (h *Handler) SetClient(r Recognizer) {
	if c, ok := r.(*asr.Client); ok && c == nil {
		r = nil
	}
	h.mu.Lock()
	h.client = r
	h.mu.Unlock()
}

func (h *Handler) recognizer() Recognizer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client
}

// HandleBody decodes a request body and handles it
func (h *Handler) HandleBody(ctx context.Context, body []byte, title string) Response {
	req, err := DecodeRequest(body)
	if err != nil {
		h.served.Add(1)
		h.failed.Add(1)
		h.logger.Warning("server", title, "malformed request: %v", err)
		return Response{Status: int32(asr.KindParse), Message: err.Error()}
	}
	return h.Handle(ctx, req, title)
}

// Handle runs one recognition request. title routes the request logs.
func (h *Handler) Handle(ctx context.Context, req Request, title string) Response {
	id := uuid.NewString()
	start := time.Now()
	h.served.Add(1)

	client := h.recognizer()
	if client == nil {
		h.failed.Add(1)
		h.logger.Fatal("server", title, "request %s: recognition client is not initialized", id)
		return Response{Status: int32(asr.KindInternal), Message: "internal error: recognition client is not initialized"}
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	var text string
	var err error
	switch req.Mode {
	case ModePath:
		h.logger.Debug("server", title, "request %s: path %q", id, req.Payload)
		text, err = client.RecognizeFile(ctx, string(req.Payload))
	default:
		h.logger.Debug("server", title, "request %s: %d bytes inline", id, len(req.Payload))
		text, err = client.Recognize(ctx, req.Payload)
	}

	if err != nil {
		h.failed.Add(1)
		kind := asr.KindOf(err)
		h.logger.Warning("server", title, "request %s failed after %s (%s): %v", id, time.Since(start), kind, err)
		return Response{Status: int32(kind), Message: err.Error()}
	}

	h.logger.Info("server", title, "request %s done in %s", id, time.Since(start))
	return Response{Status: 0, Message: text}
}

// Counters returns the number of handled and failed requests
func (h *Handler) Counters() (served, failed uint64) {
	return h.served.Load(), h.failed.Load()
}
