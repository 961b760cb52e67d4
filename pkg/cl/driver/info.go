package driver

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Info values travel as the raw bytes the C API writes into param_value:
// cl_uint is 4 bytes, cl_ulong, size_t and object pointers are 8 bytes, all
// in host byte order, and strings are NUL terminated. Only 64-bit hosts are
// supported.
//
// ProgramBinaries is the one exception to "what C writes": drivers return the
// binaries concatenated in device order, to be split by ProgramBinarySizes.

const sizeofSize = 8

func EncodeUint32(v uint32) []byte {
	return binary.NativeEndian.AppendUint32(nil, v)
}

func EncodeUint64(v uint64) []byte {
	return binary.NativeEndian.AppendUint64(nil, v)
}

func EncodeBool(v bool) []byte {
	if v {
		return EncodeUint32(1)
	}
	return EncodeUint32(0)
}

func EncodeSize(v int) []byte {
	return EncodeUint64(uint64(v))
}

func EncodeSizes(vs []int) []byte {
	out := make([]byte, 0, len(vs)*sizeofSize)
	for _, v := range vs {
		out = binary.NativeEndian.AppendUint64(out, uint64(v))
	}
	return out
}

func EncodePtr(p Ptr) []byte {
	return EncodeUint64(uint64(p))
}

func EncodePtrs(ps []Ptr) []byte {
	out := make([]byte, 0, len(ps)*sizeofSize)
	for _, p := range ps {
		out = binary.NativeEndian.AppendUint64(out, uint64(p))
	}
	return out
}

func EncodeString(s string) []byte {
	return append([]byte(s), 0)
}

func DecodeUint32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("info value: want 4 bytes, got %d", len(b))
	}
	return binary.NativeEndian.Uint32(b), nil
}

func DecodeUint64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("info value: want 8 bytes, got %d", len(b))
	}
	return binary.NativeEndian.Uint64(b), nil
}

func DecodeBool(b []byte) (bool, error) {
	v, err := DecodeUint32(b)
	return v != 0, err
}

func DecodeSize(b []byte) (int, error) {
	v, err := DecodeUint64(b)
	return int(v), err
}

func DecodeSizes(b []byte) ([]int, error) {
	if len(b)%sizeofSize != 0 {
		return nil, fmt.Errorf("info value: %d bytes is not a size_t array", len(b))
	}
	out := make([]int, len(b)/sizeofSize)
	for i := range out {
		out[i] = int(binary.NativeEndian.Uint64(b[i*sizeofSize:]))
	}
	return out, nil
}

func DecodePtr(b []byte) (Ptr, error) {
	v, err := DecodeUint64(b)
	return Ptr(v), err
}

func DecodePtrs(b []byte) ([]Ptr, error) {
	sizes, err := DecodeSizes(b)
	if err != nil {
		return nil, err
	}
	out := make([]Ptr, len(sizes))
	for i, s := range sizes {
		out[i] = Ptr(s)
	}
	return out, nil
}

// DecodeString trims the terminating NUL and anything after it.
func DecodeString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
