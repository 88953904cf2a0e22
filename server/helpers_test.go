// FILE: lixenwraith/asrproxy/server/helpers_test.go
package server

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/asrproxy/asr"
	"github.com/lixenwraith/asrproxy/log"
)

func createTestFacility(t *testing.T) *log.Facility {
	t.Helper()
	cfg := log.DefaultConfig()
	cfg.Level = "debug"
	cfg.PollIntervalMs = 10
	cfg.BlastAvoidance = false
	f, err := log.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Release() })
	return f
}

// fakeRecognizer echoes inline audio and resolves a fixed set of paths
type fakeRecognizer struct {
	mu    sync.Mutex
	files map[string]string
	err   error
}

func (f *fakeRecognizer) Recognize(_ context.Context, audio []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "heard " + string(audio), nil
}

func (f *fakeRecognizer) RecognizeFile(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text, ok := f.files[path]
	if !ok {
		return "", asr.E(asr.KindFileMissing, "fake", "no such file "+path, nil)
	}
	return text, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeRecognizer) {
	t.Helper()
	h := NewHandler(createTestFacility(t), 0)
	r := &fakeRecognizer{files: map[string]string{"clip.pcm": "from file"}}
	h.SetClient(r)
	return h, r
}

var errPlain = errors.New("plain failure")
