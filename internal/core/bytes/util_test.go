package bytes

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStripPadding(t *testing.T) {
	type args struct {
		b []byte
	}
	tests := []struct {
		name string
		args args
		want []byte
	}{
		{
			name: "does not alter strings without padding",
			args: args{
				b: []byte{117, 115, 101, 114, 110, 97, 109, 101},
			},
			want: []byte{117, 115, 101, 114, 110, 97, 109, 101},
		},
		{
			name: "removes trailing padding",
			args: args{
				b: []byte{117, 115, 101, 114, 110, 97, 109, 101, 0, 0, 0, 0},
			},
			want: []byte("username"),
		},
		{
			name: "removes all padding",
			args: args{
				b: []byte{0, 0, 0, 0, 0},
			},
			want: []byte{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripPadding(tt.args.b); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StripPadding() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPadString(t *testing.T) {
	tests := []struct {
		name string
		str  string
		size int
		want []byte
	}{
		{
			name: "pads short strings",
			str:  "alys",
			size: 8,
			want: []byte{97, 108, 121, 115, 0, 0, 0, 0},
		},
		{
			name: "truncates long strings",
			str:  "alysworth",
			size: 4,
			want: []byte{97, 108, 121, 115},
		},
		{
			name: "empty string",
			str:  "",
			size: 4,
			want: []byte{0, 0, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PadString(tt.str, tt.size); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PadString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStructConversions(t *testing.T) {
	type header struct {
		Size uint32
		Type int32
	}
	type message struct {
		Header   header
		Username [16]byte
		Points   uint16
		Flags    uint16
	}

	expected := message{
		Header: header{Size: 0x18, Type: 0x01},
		Points: 20,
		Flags:  0x0102,
	}
	copy(expected.Username[:], "alys")

	data, size := BytesFromStruct(&expected)
	if size != 0x18 {
		t.Fatalf("BytesFromStruct() size = %d, want %d", size, 0x18)
	}

	var got message
	StructFromBytes(data, &got)

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("struct did not survive round trip; diff:\n%s", diff)
	}
}
