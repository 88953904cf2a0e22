// FILE: lixenwraith/asrproxy/cmd/asrctl/main.go
// Command asrctl sends one recognition request to an asrproxy RPC listener
// and prints the result.
//
// Usage:
//
//	asrctl [-addr host:port] [-path] [-json] <audio file>
//
// Without -path the file is read locally and sent inline. With -path only
// the name is sent and the server reads it from its audio directory.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/lixenwraith/asrproxy/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7000", "asrproxy RPC address")
	byPath := flag.Bool("path", false, "send the file name instead of its contents")
	asJSON := flag.Bool("json", false, "print the response as JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "dial and response timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: asrctl [-addr host:port] [-path] [-json] <audio file>")
		os.Exit(2)
	}

	resp, err := call(*addr, flag.Arg(0), *byPath, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "asrctl: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out, _ := json.Marshal(resp)
		fmt.Println(string(out))
	} else if resp.Status == 0 {
		fmt.Println(resp.Message)
	} else {
		fmt.Printf("status %d: %s\n", resp.Status, resp.Message)
	}
	if resp.Status != 0 {
		os.Exit(3)
	}
}

func call(addr, file string, byPath bool, timeout time.Duration) (server.Response, error) {
	req := server.Request{Mode: server.ModePath, Payload: []byte(file)}
	if !byPath {
		audio, err := os.ReadFile(file)
		if err != nil {
			return server.Response{}, err
		}
		req = server.Request{Mode: server.ModeInline, Payload: audio}
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return server.Response{}, err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return server.Response{}, err
	}

	if err := server.WriteFrame(conn, server.EncodeRequest(req)); err != nil {
		return server.Response{}, fmt.Errorf("send request: %w", err)
	}
	body, err := server.ReadFrame(conn, server.DefaultMaxFrame)
	if err != nil {
		return server.Response{}, fmt.Errorf("read response: %w", err)
	}
	return server.DecodeResponse(body)
}
