// FILE: lixenwraith/asrproxy/cmd/asrproxy/main.go
// Command asrproxy serves speech recognition over a framed TCP protocol and
// HTTP, relaying audio to the configured provider.
//
// Usage:
//
//	asrproxy [-config asrproxy.toml] [--section.key=value ...]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/asrproxy/asr"
	"github.com/lixenwraith/asrproxy/config"
	"github.com/lixenwraith/asrproxy/log"
	"github.com/lixenwraith/asrproxy/log/compat"
	"github.com/lixenwraith/asrproxy/server"
)

const defaultConfigPath = "asrproxy.toml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "asrproxy: %v\n", err)
		os.Exit(1)
	}
}

// splitArgs pulls -config/--config out of args and returns the rest as
// loader overrides
func splitArgs(args []string) (string, []string) {
	path := defaultConfigPath
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-config" || a == "--config":
			if i+1 < len(args) {
				path = args[i+1]
				i++
			}
		case len(a) > 8 && a[:8] == "-config=":
			path = a[8:]
		case len(a) > 9 && a[:9] == "--config=":
			path = a[9:]
		default:
			rest = append(rest, a)
		}
	}
	return path, rest
}

func run() error {
	path, overrides := splitArgs(os.Args[1:])
	cfg, err := config.Load(path, overrides)
	if err != nil {
		return err
	}

	logger, err := log.New(cfg.Log)
	if err != nil {
		return err
	}
	if prev := log.SetDefault(logger); prev != nil {
		_ = prev.Release()
	}
	defer logger.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clientOpts []asr.ClientOption
	clientOpts = append(clientOpts, asr.WithLogger(logger))
	if cfg.Redis.Addr != "" {
		compat.InstallRedisLogger(logger)
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       int(cfg.Redis.DB),
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warning("main", "redis", "redis at %s unreachable, tokens stay local until it recovers: %v", cfg.Redis.Addr, err)
		}
		clientOpts = append(clientOpts, asr.WithTokenStore(asr.NewRedisStore(rdb, cfg.Redis.Key)))
	} else {
		clientOpts = append(clientOpts, asr.WithTokenStore(asr.NewMemoryStore()))
	}

	client, err := asr.NewClient(ctx, cfg.ASR, clientOpts...)
	if err != nil {
		return err
	}

	handler := server.NewHandler(logger, cfg.Server.RequestTimeout())
	handler.SetClient(client)

	logger.Notice("main", "startup", "asrproxy starting provider=%s rpc=%q http=%q", client.Backend().Name(), cfg.Server.RPCAddr, cfg.Server.HTTPAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Run(gctx)
	})
	if cfg.Server.RPCAddr != "" {
		rpc := server.NewRPCServer(cfg.Server.RPCAddr, handler, logger,
			server.WithMulticore(cfg.Server.Multicore),
			server.WithMaxFrame(int(cfg.Server.MaxFrameBytes)),
		)
		g.Go(func() error {
			return rpc.Serve(gctx)
		})
	}
	if cfg.Server.HTTPAddr != "" {
		httpSrv := server.NewHTTPServer(handler, logger, int(cfg.Server.MaxFrameBytes))
		g.Go(func() error {
			return httpSrv.ListenAndServe(gctx, cfg.Server.HTTPAddr)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	served, failed := handler.Counters()
	logger.Notice("main", "shutdown", "asrproxy stopped served=%d failed=%d", served, failed)
	return err
}
