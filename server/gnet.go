// FILE: lixenwraith/asrproxy/server/gnet.go
package server

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/panjf2000/gnet/v2/pkg/pool/goroutine"

	"github.com/lixenwraith/asrproxy/asr"
	"github.com/lixenwraith/asrproxy/log"
	"github.com/lixenwraith/asrproxy/log/compat"
)

const stopTimeout = 5 * time.Second

// RPCServer serves the framed RPC protocol over TCP. Event loops only split
// frames; recognition runs on a goroutine pool and replies are written back
// asynchronously, in completion order.
type RPCServer struct {
	gnet.BuiltinEventEngine

	addr      string
	multicore bool
	maxFrame  int
	handler   *Handler
	logger    *log.Facility
	pool      *goroutine.Pool

	eng     gnet.Engine
	booted  chan struct{}
	running atomic.Bool
	conns   atomic.Int64
}

// RPCOption configures an RPCServer
type RPCOption func(*RPCServer)

// WithMulticore runs one event loop per CPU
func WithMulticore(enabled bool) RPCOption {
	return func(s *RPCServer) { s.multicore = enabled }
}

// WithMaxFrame sets the largest accepted request body
func WithMaxFrame(n int) RPCOption {
	return func(s *RPCServer) { s.maxFrame = n }
}

// NewRPCServer creates a server listening on addr ("host:port")
func NewRPCServer(addr string, handler *Handler, logger *log.Facility, opts ...RPCOption) *RPCServer {
	if logger == nil {
		logger = log.Default()
	}
	s := &RPCServer{
		addr:     addr,
		maxFrame: DefaultMaxFrame,
		handler:  handler,
		logger:   logger,
		pool:     goroutine.Default(),
		booted:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve runs the event loops until ctx is done or Stop is called
func (s *RPCServer) Serve(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		select {
		case <-s.booted:
		case <-done:
			return
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := s.Stop(stopCtx); err != nil {
			s.logger.Error("server", "rpc", "rpc server stop failed: %v", err)
		}
	}()

	err := gnet.Run(s, "tcp://"+s.addr,
		gnet.WithMulticore(s.multicore),
		gnet.WithTCPKeepAlive(time.Minute),
		gnet.WithLogger(compat.NewGnetAdapter(s.logger, compat.WithGnetTitle("rpc"))),
	)
	s.pool.Release()
	return err
}

// Ready is closed once the listener is up
func (s *RPCServer) Ready() <-chan struct{} { return s.booted }

// Stop shuts the engine down
func (s *RPCServer) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	return s.eng.Stop(ctx)
}

// Conns returns the number of open connections
func (s *RPCServer) Conns() int64 { return s.conns.Load() }

// OnBoot implements gnet.EventHandler
func (s *RPCServer) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	s.running.Store(true)
	close(s.booted)
	s.logger.Notice("server", "rpc", "rpc server listening on %s (multicore %t)", s.addr, s.multicore)
	return gnet.None
}

// OnShutdown implements gnet.EventHandler
func (s *RPCServer) OnShutdown(gnet.Engine) {
	s.logger.Notice("server", "rpc", "rpc server on %s stopped", s.addr)
}

// OnOpen implements gnet.EventHandler
func (s *RPCServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	s.conns.Add(1)
	s.logger.Debug("server", "rpc", "connection from %s", c.RemoteAddr())
	return nil, gnet.None
}

// OnClose implements gnet.EventHandler
func (s *RPCServer) OnClose(c gnet.Conn, err error) gnet.Action {
	s.conns.Add(-1)
	if err != nil {
		s.logger.Debug("server", "rpc", "connection %s closed: %v", c.RemoteAddr(), err)
	}
	return gnet.None
}

// OnTraffic implements gnet.EventHandler
func (s *RPCServer) OnTraffic(c gnet.Conn) gnet.Action {
	for {
		buffered := c.InboundBuffered()
		if buffered < HeaderLen {
			return gnet.None
		}
		buf, err := c.Peek(buffered)
		if err != nil {
			return gnet.None
		}
		frame, n, err := SplitFrame(buf, s.maxFrame)
		if err != nil {
			s.logger.Warning("server", "rpc", "closing %s: %v", c.RemoteAddr(), err)
			return gnet.Close
		}
		if n == 0 {
			return gnet.None
		}

		// Peeked bytes are reused by gnet after Discard
		body := append([]byte(nil), frame...)
		_, _ = c.Discard(n)

		if err := s.pool.Submit(func() { s.serve(c, body) }); err != nil {
			s.logger.Error("server", "rpc", "worker pool rejected request: %v", err)
			resp := Response{Status: int32(asr.KindInternal), Message: "internal error: server busy"}
			_ = c.AsyncWrite(AppendFrame(nil, EncodeResponse(resp)), nil)
		}
	}
}

// serve handles one request on a pool goroutine and writes the reply
func (s *RPCServer) serve(c gnet.Conn, body []byte) {
	resp := s.handler.HandleBody(context.Background(), body, "rpc")
	out := AppendFrame(make([]byte, 0, HeaderLen+4+len(resp.Message)), EncodeResponse(resp))
	if err := c.AsyncWrite(out, nil); err != nil {
		s.logger.Warning("server", "rpc", "failed to write response to %s: %v", c.RemoteAddr(), err)
	}
}
