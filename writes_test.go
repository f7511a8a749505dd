package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_WriteCoils(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x0F, 0x00, 0x00, 0x00, 0x04)}}
	c := NewClient(ft)

	err := c.WriteCoils("0", []bool{true, false, true, true})
	require.NoError(t, err)
	assert.Equal(t, frame(0x01, 0x0F, 0x00, 0x00, 0x00, 0x04, 0x01, 0b00001101), ft.requests[0])
}

func TestClient_Write_rawBytes(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x02)}}
	c := NewClient(ft)

	err := c.Write("0", []byte{0x00, 0x0A, 0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x02, 0x04, 0x00, 0x0A, 0x01, 0x02), ft.requests[0])
}

func TestClient_WriteUint16s_appliesByteOrder(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x01)}}
	c := NewClient(ft, WithWordSwap(true))

	err := c.WriteUint16s("0", []uint16{0x1234})
	require.NoError(t, err)
	// word_swap=true swaps the byte pair on the wire.
	assert.Equal(t, frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x01, 0x02, 0x34, 0x12), ft.requests[0])
}

func TestClient_WriteOneRegisterBytes(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x06, 0x00, 0x05, 0x12, 0x34)}}
	c := NewClient(ft)

	err := c.WriteOneRegisterBytes("5", 0x12, 0x34)
	require.NoError(t, err)
	assert.Equal(t, frame(0x01, 0x06, 0x00, 0x05, 0x12, 0x34), ft.requests[0])
}

func TestClient_WriteInt16s(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x01)}}
	c := NewClient(ft, WithWordSwap(false))

	err := c.WriteInt16s("0", []int16{-2})
	require.NoError(t, err)
	assert.Equal(t, frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x01, 0x02, 0xFF, 0xFE), ft.requests[0])
}

func TestClient_WriteUint32s(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x02)}}
	c := NewClient(ft, WithWordSwap(false))

	err := c.WriteUint32s("0", []uint32{0x11223344})
	require.NoError(t, err)
	assert.Equal(t, frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x02, 0x04, 0x11, 0x22, 0x33, 0x44), ft.requests[0])
}

func TestClient_WriteInt64s(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x04)}}
	c := NewClient(ft, WithWordSwap(false))

	err := c.WriteInt64s("0", []int64{1})
	require.NoError(t, err)
	assert.Equal(t, frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x04, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01), ft.requests[0])
}

func TestClient_WriteUint64s(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x04)}}
	c := NewClient(ft, WithWordSwap(false))

	err := c.WriteUint64s("0", []uint64{0x0102030405060708})
	require.NoError(t, err)
	assert.Equal(t, frame(0x01, 0x10, 0x00, 0x00, 0x00, 0x04, 0x08, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08), ft.requests[0])
}
