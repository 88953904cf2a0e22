// FILE: lixenwraith/asrproxy/asr/baidu_test.go
package asr

import (
	"context"
	"encoding/base64"
	"net"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/lixenwraith/asrproxy/log"
)

// newBaiduTestServer serves handler on an in-memory listener and returns a
// backend wired to it
func newBaiduTestServer(t *testing.T, handler fasthttp.RequestHandler) *BaiduBackend {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	cfg := testConfig()
	cfg.TokenURL = "http://baidu.test/oauth/2.0/token"
	cfg.RecognizeURL = "http://baidu.test/server_api"
	cfg.TimeoutMs = 2000

	f := createTestFacility(t)
	f.SetLevel(log.LevelDebug)
	b := NewBaiduBackend(cfg, f)
	b.client.Dial = func(addr string) (net.Conn, error) { return ln.Dial() }
	return b
}

func jsonHandler(status int, body string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(status)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(body)
	}
}

func TestBaiduFetchToken(t *testing.T) {
	var query map[string]string
	b := newBaiduTestServer(t, func(ctx *fasthttp.RequestCtx) {
		query = map[string]string{}
		ctx.QueryArgs().VisitAll(func(k, v []byte) { query[string(k)] = string(v) })
		jsonHandler(200, `{"access_token":"24.abc","expires_in":2592000,"scope":"public audio_voice_assistant_get brain_enhanced_asr"}`)(ctx)
	})

	tok, err := b.FetchToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "24.abc", tok.Value)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), tok.ExpiresAt, time.Minute)
	assert.Equal(t, "client_credentials", query["grant_type"])
	assert.Equal(t, "key", query["client_id"])
	assert.Equal(t, "secret", query["client_secret"])
}

func TestBaiduFetchTokenFailures(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"missing token", 200, `{"scope":"audio_voice_assistant_get"}`, KindNoToken},
		{"provider error body", 200, `{"error":"invalid_client","error_description":"unknown client id"}`, KindNoToken},
		{"missing scope", 200, `{"access_token":"x","expires_in":10}`, KindBadScope},
		{"wrong scope", 200, `{"access_token":"x","scope":"public"}`, KindBadScope},
		{"malformed json", 200, `{"access_token":`, KindParse},
		{"http error", 401, `{"error":"invalid_client"}`, KindTransport},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newBaiduTestServer(t, jsonHandler(tc.status, tc.body))
			_, err := b.FetchToken(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err), err.Error())
		})
	}
}

func TestBaiduRecognize(t *testing.T) {
	audio := []byte{0x01, 0x02, 0x03, 0x04}
	var got baiduRecognizeRequest
	b := newBaiduTestServer(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "POST", string(ctx.Method()))
		assert.Equal(t, "/server_api", string(ctx.Path()))
		_ = json.Unmarshal(ctx.PostBody(), &got)
		jsonHandler(200, `{"err_no":0,"err_msg":"success.","sn":"1","result":["hello"," world"]}`)(ctx)
	})

	text, err := b.Recognize(context.Background(), "tok", audio)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "pcm", got.Format)
	assert.Equal(t, int64(16000), got.Rate)
	assert.Equal(t, len(audio), got.Len)
	decoded, err := base64.StdEncoding.DecodeString(got.Speech)
	require.NoError(t, err)
	assert.Equal(t, audio, decoded)
}

func TestBaiduRecognizeFailures(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"auth rejected", 200, `{"err_no":3302,"err_msg":"authentication failed"}`, KindAuth},
		{"backend error", 200, `{"err_no":3301,"err_msg":"speech quality error"}`, KindBackend},
		{"malformed", 200, `not json`, KindParse},
		{"http error", 502, ``, KindTransport},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newBaiduTestServer(t, jsonHandler(tc.status, tc.body))
			_, err := b.Recognize(context.Background(), "tok", []byte{1})
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err), err.Error())
		})
	}
}

func TestBaiduTransportFailure(t *testing.T) {
	b := newBaiduTestServer(t, jsonHandler(200, `{}`))
	b.client.Dial = func(addr string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: assert.AnError}
	}

	_, err := b.FetchToken(context.Background())
	assert.Equal(t, KindTransport, KindOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Recognize(ctx, "tok", []byte{1})
	assert.Equal(t, KindTransport, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasScope(t *testing.T) {
	assert.True(t, hasScope("a audio_voice_assistant_get b", baiduSpeechScope))
	assert.False(t, hasScope("audio_voice_assistant_get_extra", baiduSpeechScope))
	assert.False(t, hasScope("", baiduSpeechScope))
}
