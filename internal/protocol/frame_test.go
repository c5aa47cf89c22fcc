package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		tag     int32
		payload []byte
	}{
		{
			name:    "empty payload",
			tag:     0x05,
			payload: []byte{},
		},
		{
			name:    "arbitrary payload",
			tag:     0x21,
			payload: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01},
		},
		{
			name:    "unknown tag passes through",
			tag:     0x7FFF,
			payload: []byte("extension payload"),
		},
		{
			name:    "negative tag",
			tag:     -1,
			payload: []byte{0x01},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Encode(tt.tag, tt.payload)

			tag, payload, err := ReadFrame(bytes.NewReader(frame))
			if err != nil {
				t.Fatalf("ReadFrame() error = %v", err)
			}
			if tag != tt.tag {
				t.Errorf("ReadFrame() tag = %#x, want %#x", tag, tt.tag)
			}
			if diff := cmp.Diff(tt.payload, payload); diff != "" {
				t.Errorf("ReadFrame() payload mismatch; diff:\n%s", diff)
			}
		})
	}
}

func TestEncodeHeaderLayout(t *testing.T) {
	frame := Encode(0x21, []byte{0xAA, 0xBB})

	if got := binary.LittleEndian.Uint32(frame[0:4]); got != 6 {
		t.Errorf("declared length = %d, want 6", got)
	}
	if got := int32(binary.LittleEndian.Uint32(frame[4:8])); got != 0x21 {
		t.Errorf("tag = %#x, want 0x21", got)
	}
	if !bytes.Equal(frame[8:], []byte{0xAA, 0xBB}) {
		t.Errorf("payload bytes = %v, want [0xAA 0xBB]", frame[8:])
	}
}

func TestReadFrameMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "truncated length",
			data: []byte{0x06, 0x00},
		},
		{
			name: "truncated body",
			data: []byte{0x0A, 0x00, 0x00, 0x00, 0x21, 0x00, 0x00, 0x00, 0x01},
		},
		{
			name: "length smaller than tag",
			data: []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "absurd length",
			data: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadFrame(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("ReadFrame() error = %v, want ErrMalformedFrame", err)
			}
		})
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, _, err := ReadFrame(bytes.NewReader(nil))
	if err != io.EOF {
		t.Errorf("ReadFrame() on empty stream = %v, want io.EOF", err)
	}
}

func TestReadFrameConsumesExactly(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(Encode(0x01, []byte("first")))
	stream.Write(Encode(0x02, []byte("second")))

	tag, payload, err := ReadFrame(&stream)
	if err != nil || tag != 0x01 || string(payload) != "first" {
		t.Fatalf("first ReadFrame() = (%#x, %q, %v)", tag, payload, err)
	}

	tag, payload, err = ReadFrame(&stream)
	if err != nil || tag != 0x02 || string(payload) != "second" {
		t.Fatalf("second ReadFrame() = (%#x, %q, %v)", tag, payload, err)
	}
}
