// FILE: lixenwraith/asrproxy/server/codec.go
package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Wire format: every message is a frame of a uint32 big-endian body length
// followed by the body.
//
//	request body:  mode (1 byte) | payload
//	response body: status (int32 big-endian) | UTF-8 message
const (
	HeaderLen       = 4
	DefaultMaxFrame = 16 << 20

	ModeInline byte = 0 // payload is raw audio
	ModePath   byte = 1 // payload is a local file path
)

var (
	ErrFrameTooLarge = errors.New("server: frame exceeds size limit")
	ErrEmptyRequest  = errors.New("server: empty request body")
	ErrUnknownMode   = errors.New("server: unknown request mode")
	ErrShortResponse = errors.New("server: response body shorter than status")
)

// Request is one decoded recognition request
type Request struct {
	Mode    byte
	Payload []byte
}

// Response is the reply to a Request. Status 0 means success and Message
// holds the transcription; otherwise Message describes the failure.
type Response struct {
	Status  int32  `json:"status"`
	Message string `json:"message"`
}

// EncodeRequest renders a request body
func EncodeRequest(req Request) []byte {
	body := make([]byte, 1+len(req.Payload))
	body[0] = req.Mode
	copy(body[1:], req.Payload)
	return body
}

// DecodeRequest parses a request body. The payload aliases body.
func DecodeRequest(body []byte) (Request, error) {
	if len(body) == 0 {
		return Request{}, ErrEmptyRequest
	}
	req := Request{Mode: body[0], Payload: body[1:]}
	if req.Mode != ModeInline && req.Mode != ModePath {
		return Request{}, fmt.Errorf("%w: %d", ErrUnknownMode, req.Mode)
	}
	return req, nil
}

// EncodeResponse renders a response body
func EncodeResponse(resp Response) []byte {
	body := make([]byte, 4, 4+len(resp.Message))
	binary.BigEndian.PutUint32(body, uint32(resp.Status))
	return append(body, resp.Message...)
}

// DecodeResponse parses a response body
func DecodeResponse(body []byte) (Response, error) {
	if len(body) < 4 {
		return Response{}, ErrShortResponse
	}
	return Response{
		Status:  int32(binary.BigEndian.Uint32(body)),
		Message: string(body[4:]),
	}, nil
}

// AppendFrame appends the framed body to dst
func AppendFrame(dst, body []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(body)))
	return append(dst, body...)
}

// SplitFrame extracts the first complete frame from buf. It returns the body
// and the number of bytes consumed, or 0 consumed when buf holds only part
// of a frame.
func SplitFrame(buf []byte, maxFrame int) (body []byte, consumed int, err error) {
	if len(buf) < HeaderLen {
		return nil, 0, nil
	}
	size := int(binary.BigEndian.Uint32(buf))
	if size > maxFrame {
		return nil, 0, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, maxFrame)
	}
	if len(buf) < HeaderLen+size {
		return nil, 0, nil
	}
	return buf[HeaderLen : HeaderLen+size], HeaderLen + size, nil
}

// WriteFrame writes one framed body to w
func WriteFrame(w io.Writer, body []byte) error {
	_, err := w.Write(AppendFrame(make([]byte, 0, HeaderLen+len(body)), body))
	return err
}

// ReadFrame reads one framed body from r
func ReadFrame(r io.Reader, maxFrame int) ([]byte, error) {
	var header [HeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := int(binary.BigEndian.Uint32(header[:]))
	if size > maxFrame {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, maxFrame)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
