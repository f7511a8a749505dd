package modbus

import (
	"errors"
	"fmt"

	"github.com/halvero/modbusrtu/rtu"
)

// ErrorKind tags the origin of a ProtocolError so callers can branch on
// failure class without string matching.
type ErrorKind string

const (
	// KindAddressParse is returned by ParseAddress on a malformed address expression.
	KindAddressParse ErrorKind = "address-parse"
	// KindTransport wraps a failure surfaced unchanged from the Transport (I/O, timeout).
	// asProtocolError also assigns it to any error that matches no other kind,
	// such as a reply carrying an unexpected function code.
	KindTransport ErrorKind = "transport"
	// KindShortFrame is returned when a response frame is shorter than the minimum valid length.
	KindShortFrame ErrorKind = "short-frame"
	// KindCRCMismatch is returned when a response frame's CRC does not verify.
	KindCRCMismatch ErrorKind = "crc-mismatch"
	// KindModbusException is returned when the slave replies with an exception response.
	KindModbusException ErrorKind = "modbus-exception"
	// KindUnsupportedFunction is returned when a function code has no PDU builder.
	KindUnsupportedFunction ErrorKind = "unsupported-function"
	// KindInvalidQuantity is returned when a request violates a function code's quantity constraints.
	KindInvalidQuantity ErrorKind = "invalid-quantity"
)

// ProtocolError is the uniform error shape every operation in this module
// converts a failing subcomponent's diagnostic into: a kind tag, a human
// message, and - for modbus exceptions - the numeric exception code.
type ProtocolError struct {
	Kind    ErrorKind
	Message string
	// Code is set only for KindModbusException.
	Code *uint8
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("modbusrtu: %s: %s", e.Kind, e.Message)
}

func newProtocolError(kind ErrorKind, message string) *ProtocolError {
	return &ProtocolError{Kind: kind, Message: message}
}

// asProtocolError classifies an error returned by the rtu framer/PDU
// builder or the transport into the uniform ProtocolError shape, preserving
// the original diagnostic text and any numeric code.
func asProtocolError(err error) error {
	if err == nil {
		return nil
	}
	var exErr *rtu.ExceptionError
	if errors.As(err, &exErr) {
		code := exErr.Code
		return &ProtocolError{Kind: KindModbusException, Message: exErr.Error(), Code: &code}
	}
	switch {
	case errors.Is(err, rtu.ErrShortFrame):
		return newProtocolError(KindShortFrame, err.Error())
	case errors.Is(err, rtu.ErrCRCMismatch):
		return newProtocolError(KindCRCMismatch, err.Error())
	case errors.Is(err, rtu.ErrUnsupportedFunction):
		return newProtocolError(KindUnsupportedFunction, err.Error())
	case errors.Is(err, rtu.ErrInvalidQuantity):
		return newProtocolError(KindInvalidQuantity, err.Error())
	default:
		return newProtocolError(KindTransport, err.Error())
	}
}
