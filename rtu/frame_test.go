package rtu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	body := []byte{0x03, 0x00, 0x64, 0x00, 0x01}
	frame := Wrap(0x01, body)
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x64, 0x00, 0x01, 0xC5, 0xD5}, frame)
}

func TestUnwrap_success(t *testing.T) {
	// 01 03 02 12 34 <crc>
	frame := []byte{0x01, 0x03, 0x02, 0x12, 0x34}
	frame = appendGoodCRC(frame)

	payload, err := Unwrap(frame, FuncReadHoldingRegisters)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x12, 0x34}, payload)
}

func TestUnwrap_shortFrame(t *testing.T) {
	_, err := Unwrap([]byte{0x01, 0x03}, FuncReadHoldingRegisters)
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestUnwrap_crcMismatch(t *testing.T) {
	frame := []byte{0x01, 0x03, 0x02, 0x12, 0x34, 0x00, 0x00}
	_, err := Unwrap(frame, FuncReadHoldingRegisters)
	assert.ErrorIs(t, err, ErrCRCMismatch)
}

func TestUnwrap_exception(t *testing.T) {
	frame := []byte{0x01, 0x83, 0x02}
	frame = appendGoodCRC(frame)

	_, err := Unwrap(frame, FuncReadHoldingRegisters)
	require.Error(t, err)

	var exErr *ExceptionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, uint8(0x02), exErr.Code)
	assert.Equal(t, "Illegal data address", exErr.Error())
}

func TestUnwrap_bitFlipDetected(t *testing.T) {
	frame := appendGoodCRC([]byte{0x02, 0x05, 0x00, 0x0A, 0xFF, 0x00})
	for i := range frame {
		corrupted := append([]byte{}, frame...)
		corrupted[i] ^= 0x01
		if string(corrupted) == string(frame) {
			continue
		}
		_, err := Unwrap(corrupted, FuncWriteSingleCoil)
		if err == nil {
			// negligible 16 bit CRC collision - not expected for this fixture
			t.Fatalf("expected crc mismatch for flipped byte %d", i)
		}
	}
}

func appendGoodCRC(body []byte) []byte {
	c := Wrap(body[0], body[1:])
	return c
}
