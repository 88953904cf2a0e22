// FILE: lixenwraith/asrproxy/server/gnet_test.go
package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/asrproxy/asr"
)

// freeAddr reserves a loopback port and releases it for the server to bind
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func startRPCServer(t *testing.T, h *Handler, opts ...RPCOption) string {
	t.Helper()
	addr := freeAddr(t)
	srv := NewRPCServer(addr, h, createTestFacility(t), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("rpc server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("rpc server did not boot")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("rpc server did not stop")
		}
	})
	return addr
}

func roundTrip(t *testing.T, conn net.Conn, req Request) Response {
	t.Helper()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, WriteFrame(conn, EncodeRequest(req)))
	body, err := ReadFrame(conn, DefaultMaxFrame)
	require.NoError(t, err)
	resp, err := DecodeResponse(body)
	require.NoError(t, err)
	return resp
}

func TestRPCServerRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)
	addr := startRPCServer(t, h)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Mode: ModeInline, Payload: []byte("hello")})
	assert.Equal(t, Response{Status: 0, Message: "heard hello"}, resp)

	resp = roundTrip(t, conn, Request{Mode: ModePath, Payload: []byte("missing.pcm")})
	assert.Equal(t, int32(asr.KindFileMissing), resp.Status)

	// A request split across writes is reassembled
	frame := AppendFrame(nil, EncodeRequest(Request{Payload: []byte("split")}))
	_, err = conn.Write(frame[:3])
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = conn.Write(frame[3:])
	require.NoError(t, err)
	body, err := ReadFrame(conn, DefaultMaxFrame)
	require.NoError(t, err)
	resp, err = DecodeResponse(body)
	require.NoError(t, err)
	assert.Equal(t, "heard split", resp.Message)
}

func TestRPCServerMalformedRequest(t *testing.T) {
	h, _ := newTestHandler(t)
	addr := startRPCServer(t, h)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, WriteFrame(conn, []byte{99}))
	body, err := ReadFrame(conn, DefaultMaxFrame)
	require.NoError(t, err)
	resp, err := DecodeResponse(body)
	require.NoError(t, err)
	assert.Equal(t, int32(asr.KindParse), resp.Status)
}

func TestRPCServerOversizedFrameCloses(t *testing.T) {
	h, _ := newTestHandler(t)
	addr := startRPCServer(t, h, WithMaxFrame(16))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, WriteFrame(conn, make([]byte, 64)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = ReadFrame(conn, DefaultMaxFrame)
	assert.Error(t, err, "the server closes the connection")
}
