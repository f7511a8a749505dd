package modbus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvero/modbusrtu/crc"
)

// fakeTransport replays a queue of canned responses and records every
// request frame it was asked to exchange, standing in for transport.Transport
// in these façade-level tests.
type fakeTransport struct {
	responses [][]byte
	errs      []error
	requests  [][]byte
	call      int
}

func (f *fakeTransport) Exchange(request []byte) ([]byte, error) {
	f.requests = append(f.requests, append([]byte{}, request...))
	idx := f.call
	f.call++
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	if err != nil {
		return nil, err
	}
	if idx >= len(f.responses) {
		return nil, errors.New("fakeTransport: no more canned responses")
	}
	return f.responses[idx], nil
}

func frame(body ...byte) []byte {
	return crc.Append(body)
}

func TestClient_ReadInt16_wordSwap(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x03, 0x02, 0x12, 0x34)}}
	c := NewClient(ft) // defaults: station 1, word_swap=true

	v, err := c.ReadInt16("100")
	require.NoError(t, err)
	assert.Equal(t, int16(0x3412), v)
	assert.Equal(t, frame(0x01, 0x03, 0x00, 0x64, 0x00, 0x01), ft.requests[0])
}

func TestClient_ReadInt16_noWordSwap(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x03, 0x02, 0x12, 0x34)}}
	c := NewClient(ft, WithWordSwap(false))

	v, err := c.ReadInt16("100")
	require.NoError(t, err)
	assert.Equal(t, int16(0x1234), v)
}

func TestClient_ReadUint16_exception(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x83, 0x02)}}
	c := NewClient(ft)

	_, err := c.ReadUint16("65535")
	require.Error(t, err)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindModbusException, perr.Kind)
	require.NotNil(t, perr.Code)
	assert.Equal(t, uint8(0x02), *perr.Code)
	assert.Equal(t, "Illegal data address", perr.Message)
}

func TestClient_WriteCoil(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x02, 0x05, 0x00, 0x0A, 0xFF, 0x00)}}
	c := NewClient(ft, WithStation(2))

	err := c.WriteCoil("s=2;10", true)
	require.NoError(t, err)
	assert.Equal(t, frame(0x02, 0x05, 0x00, 0x0A, 0xFF, 0x00), ft.requests[0])
}

func TestClient_Read_chunking(t *testing.T) {
	chunk1 := append([]byte{0x01, 0x03, byte(120 * 2)}, make([]byte, 120*2)...)
	chunk2 := append([]byte{0x01, 0x03, byte(120 * 2)}, make([]byte, 120*2)...)
	chunk3 := append([]byte{0x01, 0x03, byte(10 * 2)}, make([]byte, 10*2)...)
	ft := &fakeTransport{responses: [][]byte{frame(chunk1...), frame(chunk2...), frame(chunk3...)}}
	c := NewClient(ft)

	data, err := c.Read("0", 250)
	require.NoError(t, err)
	assert.Len(t, data, 500)
	require.Len(t, ft.requests, 3)

	_, _, off1Hi, off1Lo := reqAddr(ft.requests[0])
	_, _, off2Hi, off2Lo := reqAddr(ft.requests[1])
	_, _, off3Hi, off3Lo := reqAddr(ft.requests[2])
	assert.Equal(t, uint16(0), uint16(off1Hi)<<8|uint16(off1Lo))
	assert.Equal(t, uint16(120), uint16(off2Hi)<<8|uint16(off2Lo))
	assert.Equal(t, uint16(240), uint16(off3Hi)<<8|uint16(off3Lo))
}

func reqAddr(frame []byte) (station, function, addrHi, addrLo byte) {
	return frame[0], frame[1], frame[2], frame[3]
}

func TestClient_Read_chunkFailureAbortsWholeOperation(t *testing.T) {
	chunk1 := append([]byte{0x01, 0x03, byte(120 * 2)}, make([]byte, 120*2)...)
	ft := &fakeTransport{
		responses: [][]byte{frame(chunk1...), nil},
		errs:      []error{nil, errors.New("no reply")},
	}
	c := NewClient(ft)

	data, err := c.Read("0", 250)
	require.Error(t, err)
	assert.Nil(t, data)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindTransport, perr.Kind)
}

func TestClient_ReadCoil_crcCorruption(t *testing.T) {
	good := frame(0x01, 0x01, 0x01, 0x01)
	corrupted := append([]byte{}, good...)
	corrupted[len(corrupted)-1] ^= 0xFF
	ft := &fakeTransport{responses: [][]byte{corrupted}}
	c := NewClient(ft)

	_, err := c.ReadCoil("0")
	require.Error(t, err)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindCRCMismatch, perr.Kind)
}

func TestClient_WriteOneRegister_invertedByteOrder(t *testing.T) {
	ft := &fakeTransport{responses: [][]byte{frame(0x01, 0x06, 0x00, 0x05, 0x34, 0x12)}}
	c := NewClient(ft)

	err := c.WriteOneRegister("5", 0x1234)
	require.NoError(t, err)
	// low byte (0x34) is placed as data_hi, high byte (0x12) as data_lo.
	assert.Equal(t, frame(0x01, 0x06, 0x00, 0x05, 0x34, 0x12), ft.requests[0])
}

func TestClient_String(t *testing.T) {
	c := NewClient(&fakeTransport{})
	assert.Equal(t, "ModbusRtuNet", c.String())
}
