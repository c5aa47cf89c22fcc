// Package protocol implements the wire frame shared by every connection:
// a 4 byte little-endian total length (4 + len(payload)), a 4 byte
// little-endian type tag, and the raw payload bytes.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"voxeld/internal/core/bytes"
)

// ErrMalformedFrame indicates the stream ended mid-frame or declared an
// impossible length. It is fatal to the connection it occurred on.
var ErrMalformedFrame = errors.New("malformed frame")

const (
	// lengthSize + tagSize make up the frame header.
	lengthSize = 4
	tagSize    = 4

	// MaxPayloadSize bounds a single frame's payload. Anything larger is
	// treated as malformed rather than trusted as an allocation size.
	MaxPayloadSize = 1 << 20
)

// Encode prefixes payload with the frame header and returns the full frame.
// The codec performs no semantic validation of the payload; unknown tags are
// encoded the same as known ones.
func Encode(tag int32, payload []byte) []byte {
	frame := make([]byte, lengthSize+tagSize+len(payload))
	binary.LittleEndian.PutUint32(frame[0:], uint32(tagSize+len(payload)))
	binary.LittleEndian.PutUint32(frame[lengthSize:], uint32(tag))
	copy(frame[lengthSize+tagSize:], payload)
	return frame
}

// EncodeMessage serializes a fixed-layout message struct (see the packets
// package) and wraps it in a frame.
func EncodeMessage(tag int32, message interface{}) []byte {
	payload, _ := bytes.BytesFromStruct(message)
	return Encode(tag, payload)
}

// ReadFrame reads exactly one frame from r, returning the type tag and raw
// payload. A stream that ends before the declared length has arrived, or
// that declares a length too small to hold a tag, fails with
// ErrMalformedFrame. A clean EOF on the frame boundary is reported as io.EOF
// so callers can tell a closed connection from a truncated one.
func ReadFrame(r io.Reader) (int32, []byte, error) {
	header := make([]byte, lengthSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("%w: reading length: %v", ErrMalformedFrame, err)
	}

	length := binary.LittleEndian.Uint32(header)
	if length < tagSize || length > tagSize+MaxPayloadSize {
		return 0, nil, fmt.Errorf("%w: declared length %d", ErrMalformedFrame, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("%w: reading %d byte body: %v", ErrMalformedFrame, length, err)
	}

	tag := int32(binary.LittleEndian.Uint32(body[:tagSize]))
	return tag, body[tagSize:], nil
}
