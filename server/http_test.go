// FILE: lixenwraith/asrproxy/server/http_test.go
package server

import (
	"context"
	"net"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/lixenwraith/asrproxy/asr"
	"github.com/lixenwraith/asrproxy/log"
)

func newHTTPTestClient(t *testing.T, h *Handler) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := NewHTTPServer(h, createTestFacility(t), 1<<20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func doRequest(t *testing.T, c *fasthttp.Client, method, uri string, body []byte) (int, []byte) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://asrproxy.test" + uri)
	req.Header.SetMethod(method)
	req.SetBody(body)
	require.NoError(t, c.Do(req, resp))
	return resp.StatusCode(), append([]byte(nil), resp.Body()...)
}

func TestHTTPRecognize(t *testing.T) {
	h, _ := newTestHandler(t)
	c := newHTTPTestClient(t, h)

	status, body := doRequest(t, c, "POST", "/recognize", []byte("hello"))
	require.Equal(t, 200, status)
	var resp Response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, Response{Status: 0, Message: "heard hello"}, resp)

	status, body = doRequest(t, c, "POST", "/recognize?path=clip.pcm", nil)
	require.Equal(t, 200, status)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "from file", resp.Message)
}

func TestHTTPRecognizeFailureIsStillOK(t *testing.T) {
	h, r := newTestHandler(t)
	r.err = asr.E(asr.KindNoToken, "op", "no access_token", nil)
	c := newHTTPTestClient(t, h)

	status, body := doRequest(t, c, "POST", "/recognize", []byte("x"))
	assert.Equal(t, 200, status)
	var resp Response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, int32(asr.KindNoToken), resp.Status)
	assert.Contains(t, resp.Message, "no access_token")
}

func TestHTTPRouting(t *testing.T) {
	h, _ := newTestHandler(t)
	c := newHTTPTestClient(t, h)

	status, body := doRequest(t, c, "GET", "/health", nil)
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	status, _ = doRequest(t, c, "GET", "/recognize", nil)
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, status)

	status, _ = doRequest(t, c, "GET", "/nope", nil)
	assert.Equal(t, fasthttp.StatusNotFound, status)
}

func TestDetectHTTPLevel(t *testing.T) {
	tests := []struct {
		msg  string
		want log.Level
	}{
		{"error when serving connection: read tcp: connection reset by peer", log.LevelDebug},
		{"error when serving connection: write: broken pipe", log.LevelDebug},
		{"error when serving connection: i/o timeout", log.LevelDebug},
		{"error when reading request headers: cannot find http request method", log.LevelError},
		{"deprecated option used", log.LevelWarning},
		{"listening", log.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectHTTPLevel(tt.msg), tt.msg)
	}
}
