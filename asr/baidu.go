// FILE: lixenwraith/asrproxy/asr/baidu.go
package asr

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/asrproxy/log"
)

const (
	baiduSpeechScope = "audio_voice_assistant_get"
	baiduErrAuth     = 3302
	baiduMaxConns    = 64
)

// baiduTokenResponse is the OAuth client-credentials response
type baiduTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type baiduRecognizeRequest struct {
	Format  string `json:"format"`
	Rate    int64  `json:"rate"`
	Channel int64  `json:"channel"`
	CUID    string `json:"cuid"`
	Token   string `json:"token"`
	DevPID  int64  `json:"dev_pid,omitempty"`
	Speech  string `json:"speech"`
	Len     int    `json:"len"`
}

type baiduRecognizeResponse struct {
	ErrNo    int      `json:"err_no"`
	ErrMsg   string   `json:"err_msg"`
	SN       string   `json:"sn"`
	CorpusNo string   `json:"corpus_no"`
	Result   []string `json:"result"`
}

// BaiduBackend talks to the Baidu short speech REST API
type BaiduBackend struct {
	cfg    *Config
	client *fasthttp.Client
	logger *log.Facility
	dumper *spew.ConfigState
}

// NewBaiduBackend creates a backend from an immutable copy of cfg
func NewBaiduBackend(cfg *Config, logger *log.Facility) *BaiduBackend {
	if logger == nil {
		logger = log.Default()
	}
	return &BaiduBackend{
		cfg: cfg.Clone(),
		client: &fasthttp.Client{
			Name:                     "asrproxy",
			MaxConnsPerHost:          baiduMaxConns,
			ReadTimeout:              cfg.Timeout(),
			WriteTimeout:             cfg.Timeout(),
			NoDefaultUserAgentHeader: true,
		},
		logger: logger,
		dumper: &spew.ConfigState{
			Indent:                  " ",
			MaxDepth:                4,
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		},
	}
}

// Name implements Backend
func (b *BaiduBackend) Name() string { return string(ProviderBaidu) }

// FetchToken implements TokenSource
func (b *BaiduBackend) FetchToken(ctx context.Context) (Token, error) {
	const op = "baidu.FetchToken"

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(b.cfg.TokenURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	args := req.URI().QueryArgs()
	args.Set("grant_type", "client_credentials")
	args.Set("client_id", b.cfg.APIKey)
	args.Set("client_secret", b.cfg.SecretKey)

	if err := b.do(ctx, req, resp); err != nil {
		return Token{}, E(KindTransport, op, "token request failed", err)
	}

	var body baiduTokenResponse
	decodeErr := json.Unmarshal(resp.Body(), &body)
	redacted := body
	if redacted.AccessToken != "" {
		redacted.AccessToken = "<redacted>"
	}
	b.dump("token response", &redacted)

	if status := resp.StatusCode(); status < 200 || status > 299 {
		msg := "token endpoint returned HTTP " + strconv.Itoa(status)
		if decodeErr == nil && body.Error != "" {
			msg += ": " + body.Error + " " + body.ErrorDescription
		}
		return Token{}, E(KindTransport, op, msg, nil)
	}
	if decodeErr != nil {
		return Token{}, E(KindParse, op, "malformed token response", decodeErr)
	}
	if body.AccessToken == "" {
		msg := "response has no access_token"
		if body.Error != "" {
			msg += ": " + body.Error + " " + body.ErrorDescription
		}
		return Token{}, E(KindNoToken, op, msg, nil)
	}
	if !hasScope(body.Scope, baiduSpeechScope) {
		return Token{}, E(KindBadScope, op, "token scope lacks "+baiduSpeechScope, nil)
	}

	tok := Token{Value: body.AccessToken, Scope: body.Scope}
	if body.ExpiresIn > 0 {
		tok.ExpiresAt = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// Recognize implements Backend
func (b *BaiduBackend) Recognize(ctx context.Context, token string, audio []byte) (string, error) {
	const op = "baidu.Recognize"

	payload, err := json.Marshal(baiduRecognizeRequest{
		Format:  b.cfg.Format,
		Rate:    b.cfg.Rate,
		Channel: b.cfg.Channel,
		CUID:    b.cfg.CUID,
		Token:   token,
		DevPID:  b.cfg.DevPID,
		Speech:  base64.StdEncoding.EncodeToString(audio),
		Len:     len(audio),
	})
	if err != nil {
		return "", E(KindInternal, op, "encode request", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(b.cfg.RecognizeURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBodyRaw(payload)

	if err := b.do(ctx, req, resp); err != nil {
		return "", E(KindTransport, op, "recognize request failed", err)
	}
	if status := resp.StatusCode(); status < 200 || status > 299 {
		return "", E(KindTransport, op, "recognize endpoint returned HTTP "+strconv.Itoa(status), nil)
	}

	var body baiduRecognizeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", E(KindParse, op, "malformed recognize response", err)
	}
	b.dump("recognize response", &body)

	switch body.ErrNo {
	case 0:
		return strings.Join(body.Result, ""), nil
	case baiduErrAuth:
		return "", E(KindAuth, op, "token rejected: "+body.ErrMsg, nil)
	default:
		return "", E(KindBackend, op, "err_no "+strconv.Itoa(body.ErrNo)+": "+body.ErrMsg, nil)
	}
}

// do runs one request bounded by the configured timeout and ctx's deadline
func (b *BaiduBackend) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := b.cfg.Timeout()
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}
	return b.client.DoTimeout(req, resp, timeout)
}

func (b *BaiduBackend) dump(what string, v any) {
	if b.logger.Enabled(log.LevelDebug) {
		b.logger.Debug("asr", "asr", "%s: %s", what, b.dumper.Sdump(v))
	}
}

// hasScope reports whether the space separated scope list contains want
func hasScope(scopes, want string) bool {
	for _, s := range strings.Fields(scopes) {
		if s == want {
			return true
		}
	}
	return false
}
