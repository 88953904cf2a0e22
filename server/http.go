// FILE: lixenwraith/asrproxy/server/http.go
package server

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/asrproxy/log"
	"github.com/lixenwraith/asrproxy/log/compat"
)

// HTTPServer exposes the handler over HTTP:
//
//	POST /recognize          raw audio body
//	POST /recognize?path=p   local file p
//	GET  /health
//
// Recognition failures are reported in the JSON body with HTTP 200.
type HTTPServer struct {
	handler *Handler
	logger  *log.Facility
	srv     *fasthttp.Server
}

// NewHTTPServer creates a server accepting bodies up to maxBody bytes
func NewHTTPServer(handler *Handler, logger *log.Facility, maxBody int) *HTTPServer {
	if logger == nil {
		logger = log.Default()
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxFrame
	}
	s := &HTTPServer{handler: handler, logger: logger}
	s.srv = &fasthttp.Server{
		Handler:               s.route,
		Name:                  "asrproxy",
		MaxRequestBodySize:    maxBody,
		ReadTimeout:           time.Minute,
		WriteTimeout:          time.Minute,
		NoDefaultServerHeader: true,
		Logger: compat.NewFastHTTPAdapter(logger,
			compat.WithFastHTTPTitle("http"),
			compat.WithLevelDetector(detectHTTPLevel)),
	}
	return s
}

// clientNoise marks fasthttp messages caused by clients going away
var clientNoise = []string{"connection reset", "broken pipe", "i/o timeout", "use of closed network connection"}

// detectHTTPLevel demotes client disconnects to DEBUG
func detectHTTPLevel(msg string) log.Level {
	lower := strings.ToLower(msg)
	for _, n := range clientNoise {
		if strings.Contains(lower, n) {
			return log.LevelDebug
		}
	}
	return compat.DetectLogLevel(msg)
}

// ListenAndServe serves on addr until ctx is done
func (s *HTTPServer) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Notice("server", "http", "http server listening on %s", ln.Addr())
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			if err := s.srv.ShutdownWithContext(stopCtx); err != nil {
				s.logger.Error("server", "http", "http server shutdown failed: %v", err)
			}
		case <-done:
		}
	}()
	return s.srv.Serve(ln)
}

// RequestHandler returns the routing handler
func (s *HTTPServer) RequestHandler() fasthttp.RequestHandler { return s.route }

func (s *HTTPServer) route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/recognize":
		if !ctx.IsPost() {
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		s.recognize(ctx)
	case "/health":
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"status":"ok"}`)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *HTTPServer) recognize(ctx *fasthttp.RequestCtx) {
	req := Request{Mode: ModeInline}
	if path := ctx.QueryArgs().Peek("path"); len(path) > 0 {
		req = Request{Mode: ModePath, Payload: append([]byte(nil), path...)}
	} else {
		req.Payload = append([]byte(nil), ctx.PostBody()...)
	}

	resp := s.handler.Handle(context.Background(), req, "http")

	body, err := json.Marshal(resp)
	if err != nil {
		ctx.Error("internal error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
