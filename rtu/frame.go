package rtu

import (
	"errors"
	"fmt"

	"github.com/halvero/modbusrtu/crc"
)

// ErrShortFrame is returned when a received frame is too short to be a
// valid Modbus RTU response.
var ErrShortFrame = errors.New("rtu: frame shorter than minimum valid length")

// ErrCRCMismatch is returned when a received frame's trailing CRC does not
// match the computed CRC of its body.
var ErrCRCMismatch = errors.New("rtu: crc mismatch")

// minFrameLen is station(1) + function(1) + at least one payload byte(1) + crc(2).
const minFrameLen = 5

// Wrap prepends the station byte to body (function code + payload) and
// appends the CRC16, producing a complete RTU request frame.
func Wrap(station byte, body []byte) []byte {
	frame := make([]byte, 0, 1+len(body)+2)
	frame = append(frame, station)
	frame = append(frame, body...)
	return crc.Append(frame)
}

// Unwrap validates a received RTU frame against the expected function code
// and, on success, returns everything following station+function with the
// CRC removed. For read responses that includes the leading byte-count field.
//
// Validation order: length, then CRC, then exception bit.
func Unwrap(frame []byte, expectedFunction uint8) (payload []byte, err error) {
	if len(frame) < minFrameLen {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrShortFrame, len(frame), minFrameLen)
	}
	if !crc.Verify(frame) {
		return nil, ErrCRCMismatch
	}
	body := frame[:len(frame)-2]
	function := body[1]
	if function == expectedFunction|exceptionBit {
		return nil, &ExceptionError{Function: expectedFunction, Code: body[2]}
	}
	if function != expectedFunction {
		return nil, fmt.Errorf("rtu: unexpected function code %#x, want %#x", function, expectedFunction)
	}
	return body[2:], nil
}
