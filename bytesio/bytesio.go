// Package bytesio implements the byte-ordering policy used to translate
// between a big-endian Modbus register (word) stream and machine scalar
// types. It is a pure, stateless transform: an immutable ByteOrder value
// describes the swap policy, and Encode/Decode functions apply it.
package bytesio

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf16"
)

// ByteOrder is the swap policy applied when converting between wire bytes
// and machine scalars. The zero value applies no swapping at all.
type ByteOrder struct {
	// WordSwap swaps the two bytes inside every 16 bit word.
	WordSwap bool
	// MultiWordSwap reorders the words of a multi-word scalar: for 32 bit
	// values the two words are swapped, for 64 bit values the four words
	// are reversed.
	MultiWordSwap bool
	// StringWordSwap swaps the two bytes inside every word when
	// transcoding strings. It has no effect on numeric scalars.
	StringWordSwap bool
}

// ErrOddLength is returned when a byte slice that must hold whole 16 bit
// words has an odd length.
var ErrOddLength = errors.New("bytesio: byte slice must have an even length")

// ErrShortBuffer is returned when a buffer is too small for the requested
// scalar width.
var ErrShortBuffer = errors.New("bytesio: buffer too short for requested value")

// wordsOf splits data into big-endian 16 bit words, as they sit on the wire.
func wordsOf(data []byte) [][2]byte {
	words := make([][2]byte, len(data)/2)
	for i := range words {
		words[i][0] = data[2*i]
		words[i][1] = data[2*i+1]
	}
	return words
}

// reorder applies word_swap and multi_word_swap to words and flattens the
// result back to a byte slice in the machine-scalar byte order (big-endian).
func reorder(words [][2]byte, o ByteOrder) []byte {
	out := make([][2]byte, len(words))
	copy(out, words)
	if o.WordSwap {
		for i := range out {
			out[i][0], out[i][1] = out[i][1], out[i][0]
		}
	}
	if o.MultiWordSwap {
		switch len(out) {
		case 2:
			out[0], out[1] = out[1], out[0]
		case 4:
			out[0], out[1], out[2], out[3] = out[3], out[2], out[1], out[0]
		}
	}
	result := make([]byte, 0, len(out)*2)
	for _, w := range out {
		result = append(result, w[0], w[1])
	}
	return result
}

// unreorder is the inverse of reorder: given bytes already in big-endian
// machine order, it produces the wire-order bytes for the given policy.
// Word/multi-word swapping is its own inverse, so this shares the logic.
func unreorder(data []byte, o ByteOrder) []byte {
	return reorder(wordsOf(data), o)
}

func decodeN(data []byte, wordCount int, o ByteOrder) ([]byte, error) {
	need := wordCount * 2
	if len(data) < need {
		return nil, ErrShortBuffer
	}
	return reorder(wordsOf(data[:need]), o), nil
}

// DecodeUint16 decodes a single register as uint16.
func DecodeUint16(data []byte, o ByteOrder) (uint16, error) {
	b, err := decodeN(data, 1, o)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// DecodeInt16 decodes a single register as int16.
func DecodeInt16(data []byte, o ByteOrder) (int16, error) {
	v, err := DecodeUint16(data, o)
	return int16(v), err
}

// DecodeUint32 decodes two registers as uint32.
func DecodeUint32(data []byte, o ByteOrder) (uint32, error) {
	b, err := decodeN(data, 2, o)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// DecodeInt32 decodes two registers as int32.
func DecodeInt32(data []byte, o ByteOrder) (int32, error) {
	v, err := DecodeUint32(data, o)
	return int32(v), err
}

// DecodeUint64 decodes four registers as uint64.
func DecodeUint64(data []byte, o ByteOrder) (uint64, error) {
	b, err := decodeN(data, 4, o)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// DecodeInt64 decodes four registers as int64.
func DecodeInt64(data []byte, o ByteOrder) (int64, error) {
	v, err := DecodeUint64(data, o)
	return int64(v), err
}

// DecodeFloat32 decodes two registers as an IEEE-754 single precision float.
func DecodeFloat32(data []byte, o ByteOrder) (float32, error) {
	v, err := DecodeUint32(data, o)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// DecodeFloat64 decodes four registers as an IEEE-754 double precision float.
func DecodeFloat64(data []byte, o ByteOrder) (float64, error) {
	v, err := DecodeUint64(data, o)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// EncodeUint16 encodes v as a single register's worth of wire bytes.
func EncodeUint16(v uint16, o ByteOrder) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	return unreorder(buf, o)
}

// EncodeInt16 encodes v as a single register's worth of wire bytes.
func EncodeInt16(v int16, o ByteOrder) []byte {
	return EncodeUint16(uint16(v), o)
}

// EncodeUint32 encodes v as two registers' worth of wire bytes.
func EncodeUint32(v uint32, o ByteOrder) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return unreorder(buf, o)
}

// EncodeInt32 encodes v as two registers' worth of wire bytes.
func EncodeInt32(v int32, o ByteOrder) []byte {
	return EncodeUint32(uint32(v), o)
}

// EncodeUint64 encodes v as four registers' worth of wire bytes.
func EncodeUint64(v uint64, o ByteOrder) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return unreorder(buf, o)
}

// EncodeInt64 encodes v as four registers' worth of wire bytes.
func EncodeInt64(v int64, o ByteOrder) []byte {
	return EncodeUint64(uint64(v), o)
}

// EncodeFloat32 encodes v as two registers' worth of wire bytes.
func EncodeFloat32(v float32, o ByteOrder) []byte {
	return EncodeUint32(math.Float32bits(v), o)
}

// EncodeFloat64 encodes v as four registers' worth of wire bytes.
func EncodeFloat64(v float64, o ByteOrder) []byte {
	return EncodeUint64(math.Float64bits(v), o)
}

// StringEncoding selects the on-wire character encoding used when
// transcoding strings.
type StringEncoding uint8

const (
	// ASCII transcodes one byte per character.
	ASCII StringEncoding = iota
	// Unicode transcodes as UTF-16LE, two bytes per code unit ("Unicode" in
	// the sense used by the wider Modbus tooling ecosystem).
	Unicode
)

// DecodeString decodes wordCount registers' worth of bytes as a string in
// the given encoding, applying string_word_swap if set. Trailing NUL bytes
// are trimmed.
func DecodeString(data []byte, wordCount int, enc StringEncoding, o ByteOrder) (string, error) {
	need := wordCount * 2
	if len(data) < need {
		return "", ErrShortBuffer
	}
	raw := data[:need]
	if o.StringWordSwap {
		raw = swapStringBytes(raw)
	}
	switch enc {
	case Unicode:
		units := make([]uint16, len(raw)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(raw[2*i:])
		}
		return trimNUL(string(utf16.Decode(units))), nil
	default:
		return trimNULBytes(raw), nil
	}
}

// EncodeString encodes s in the given encoding, pads to an even byte length,
// and then to fixedWords registers if fixedWords > 0 (zero-filled when s is
// shorter, truncated when s is longer). string_word_swap is applied last.
func EncodeString(s string, fixedWords int, enc StringEncoding, o ByteOrder) []byte {
	var raw []byte
	switch enc {
	case Unicode:
		units := utf16.Encode([]rune(s))
		raw = make([]byte, len(units)*2)
		for i, u := range units {
			binary.LittleEndian.PutUint16(raw[2*i:], u)
		}
	default:
		raw = []byte(s)
	}
	if len(raw)%2 != 0 {
		raw = append(raw, 0)
	}
	if fixedWords > 0 {
		need := fixedWords * 2
		if len(raw) > need {
			raw = raw[:need]
		} else if len(raw) < need {
			padded := make([]byte, need)
			copy(padded, raw)
			raw = padded
		}
	}
	if o.StringWordSwap {
		raw = swapStringBytes(raw)
	}
	return raw
}

func swapStringBytes(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	for i := 0; i+1 < len(out); i += 2 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}

func trimNUL(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}

func trimNULBytes(raw []byte) string {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end])
}

// PackBits packs bits LSB-first, 8 bits per byte, zero-padding the final
// byte. Used for coil/discrete-input bulk reads and writes.
func PackBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// UnpackBits unpacks up to length bits, LSB-first, from data, discarding any
// trailing padding bits beyond length.
func UnpackBits(data []byte, length int) []bool {
	out := make([]bool, length)
	for i := 0; i < length; i++ {
		byteIdx := i / 8
		if byteIdx >= len(data) {
			break
		}
		out[i] = data[byteIdx]&(1<<uint(i%8)) != 0
	}
	return out
}
