package rtu

import (
	"errors"
	"fmt"

	"github.com/halvero/modbusrtu/bytesio"
)

// ErrInvalidQuantity is returned by the PDU builders when a quantity or
// address+quantity combination violates a function code's constraints.
var ErrInvalidQuantity = errors.New("rtu: invalid quantity")

// ErrUnsupportedFunction is returned when asked to build a PDU for a
// function code this package does not implement.
var ErrUnsupportedFunction = errors.New("rtu: unsupported function code")

const (
	maxReadCoilsQuantity     = 2000
	maxReadRegistersQuantity = 125
	maxWriteCoilsQuantity    = 1968
	maxWriteRegisQuantity    = 123
)

func checkRange(offset, quantity uint16) error {
	if uint32(offset)+uint32(quantity) > 0x10000 {
		return fmt.Errorf("%w: offset %d + quantity %d overflows uint16 address space", ErrInvalidQuantity, offset, quantity)
	}
	return nil
}

// BuildReadRequest builds the PDU body (function code + payload) for a read
// of coils, discrete inputs, holding registers or input registers.
func BuildReadRequest(function uint8, offset, quantity uint16) ([]byte, error) {
	var max uint16
	switch function {
	case FuncReadCoils, FuncReadDiscreteInputs:
		max = maxReadCoilsQuantity
	case FuncReadHoldingRegisters, FuncReadInputRegisters:
		max = maxReadRegistersQuantity
	default:
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedFunction, function)
	}
	if quantity < 1 || quantity > max {
		return nil, fmt.Errorf("%w: quantity %d must be between 1 and %d", ErrInvalidQuantity, quantity, max)
	}
	if err := checkRange(offset, quantity); err != nil {
		return nil, err
	}
	return []byte{
		function,
		byte(offset >> 8), byte(offset),
		byte(quantity >> 8), byte(quantity),
	}, nil
}

// BuildWriteSingleCoil builds the FC05 PDU body. value 0xFF00 is ON, 0x0000 OFF.
func BuildWriteSingleCoil(offset uint16, on bool) []byte {
	valHi, valLo := byte(0x00), byte(0x00)
	if on {
		valHi = 0xFF
	}
	return []byte{
		FuncWriteSingleCoil,
		byte(offset >> 8), byte(offset),
		valHi, valLo,
	}
}

// BuildWriteSingleRegister builds the FC06 PDU body, placing dataHi/dataLo
// directly as given - callers control byte placement.
func BuildWriteSingleRegister(offset uint16, dataHi, dataLo byte) []byte {
	return []byte{
		FuncWriteSingleRegister,
		byte(offset >> 8), byte(offset),
		dataHi, dataLo,
	}
}

// BuildWriteMultipleCoils builds the FC15 PDU body, packing bits LSB-first.
func BuildWriteMultipleCoils(offset uint16, bits []bool) ([]byte, error) {
	quantity := uint16(len(bits))
	if quantity < 1 || quantity > maxWriteCoilsQuantity {
		return nil, fmt.Errorf("%w: quantity %d must be between 1 and %d", ErrInvalidQuantity, quantity, maxWriteCoilsQuantity)
	}
	if err := checkRange(offset, quantity); err != nil {
		return nil, err
	}
	packed := bytesio.PackBits(bits)
	body := make([]byte, 0, 6+len(packed))
	body = append(body,
		FuncWriteMultipleCoils,
		byte(offset>>8), byte(offset),
		byte(quantity>>8), byte(quantity),
		byte(len(packed)),
	)
	return append(body, packed...), nil
}

// BuildWriteMultipleRegisters builds the FC16 PDU body. data must already be
// byte-ordered by the caller and have an even length.
func BuildWriteMultipleRegisters(offset uint16, data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: data length %d must be even", ErrInvalidQuantity, len(data))
	}
	quantity := uint16(len(data) / 2)
	if quantity < 1 || quantity > maxWriteRegisQuantity {
		return nil, fmt.Errorf("%w: quantity %d must be between 1 and %d", ErrInvalidQuantity, quantity, maxWriteRegisQuantity)
	}
	if err := checkRange(offset, quantity); err != nil {
		return nil, err
	}
	body := make([]byte, 0, 6+len(data))
	body = append(body,
		FuncWriteMultipleRegisters,
		byte(offset>>8), byte(offset),
		byte(quantity>>8), byte(quantity),
		byte(len(data)),
	)
	return append(body, data...), nil
}
