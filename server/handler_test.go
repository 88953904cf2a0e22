// FILE: lixenwraith/asrproxy/server/handler_test.go
package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/asrproxy/asr"
	"github.com/lixenwraith/asrproxy/log"
)

func TestHandlerSuccess(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := h.Handle(context.Background(), Request{Mode: ModeInline, Payload: []byte("hello")}, "rpc")
	assert.Equal(t, Response{Status: 0, Message: "heard hello"}, resp)

	resp = h.Handle(context.Background(), Request{Mode: ModePath, Payload: []byte("clip.pcm")}, "rpc")
	assert.Equal(t, Response{Status: 0, Message: "from file"}, resp)

	served, failed := h.Counters()
	assert.Equal(t, uint64(2), served)
	assert.Zero(t, failed)
}

func TestHandlerStatusMapping(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int32
	}{
		{"transport", asr.E(asr.KindTransport, "op", "refused", nil), 2},
		{"bad scope", asr.E(asr.KindBadScope, "op", "scope", nil), 5},
		{"auth", asr.E(asr.KindAuth, "op", "rejected", nil), 9},
		{"foreign error", errPlain, 7},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, r := newTestHandler(t)
			r.err = tc.err

			resp := h.Handle(context.Background(), Request{Payload: []byte("x")}, "rpc")
			assert.Equal(t, tc.want, resp.Status)
			assert.Equal(t, tc.err.Error(), resp.Message)
		})
	}

	h, _ := newTestHandler(t)
	resp := h.Handle(context.Background(), Request{Mode: ModePath, Payload: []byte("missing.pcm")}, "rpc")
	assert.Equal(t, int32(asr.KindFileMissing), resp.Status)
}

func TestHandlerNilClient(t *testing.T) {
	f := createTestFacility(t)
	fatal := make(chan string, 1)
	_, err := f.RegisterReceiver(log.Func(func(level log.Level, _, _, message string, _ uint64) bool {
		if level == log.LevelFatal {
			fatal <- message
		}
		return true
	}), "", false)
	require.NoError(t, err)

	h := NewHandler(f, time.Second)
	h.SetClient((*asr.Client)(nil))

	resp := h.Handle(context.Background(), Request{Payload: []byte("x")}, "rpc")
	assert.Equal(t, int32(asr.KindInternal), resp.Status)
	assert.Contains(t, resp.Message, "not initialized")

	select {
	case msg := <-fatal:
		assert.Contains(t, msg, "recognition client is not initialized")
	case <-time.After(2 * time.Second):
		t.Fatal("no FATAL record")
	}
}

func TestHandleBodyMalformed(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := h.HandleBody(context.Background(), nil, "rpc")
	assert.Equal(t, int32(asr.KindParse), resp.Status)

	resp = h.HandleBody(context.Background(), []byte{42}, "rpc")
	assert.Equal(t, int32(asr.KindParse), resp.Status)

	resp = h.HandleBody(context.Background(), EncodeRequest(Request{Payload: []byte("ok")}), "rpc")
	assert.Equal(t, int32(0), resp.Status)

	served, failed := h.Counters()
	assert.Equal(t, uint64(3), served)
	assert.Equal(t, uint64(2), failed)
}
