package modbus

import (
	"github.com/halvero/modbusrtu/bytesio"
	"github.com/halvero/modbusrtu/rtu"
)

// WriteCoil writes a single coil (FC05).
func (c *Client) WriteCoil(expr string, value bool) error {
	addr, err := c.ParseAddress(expr)
	if err != nil {
		return err
	}
	body := rtu.BuildWriteSingleCoil(addr.Offset, value)
	_, err = c.exchange(addr.Station, body)
	return err
}

// WriteCoils writes multiple coils (FC15), packing values LSB-first.
func (c *Client) WriteCoils(expr string, values []bool) error {
	addr, err := c.ParseAddress(expr)
	if err != nil {
		return err
	}
	body, err := rtu.BuildWriteMultipleCoils(addr.Offset, values)
	if err != nil {
		return asProtocolError(err)
	}
	_, err = c.exchange(addr.Station, body)
	return err
}

// WriteOneRegisterBytes writes a single register (FC06) with the caller
// supplied byte pair placed directly as data_hi, data_lo.
func (c *Client) WriteOneRegisterBytes(expr string, dataHi, dataLo byte) error {
	addr, err := c.ParseAddress(expr)
	if err != nil {
		return err
	}
	body := rtu.BuildWriteSingleRegister(addr.Offset, dataHi, dataLo)
	_, err = c.exchange(addr.Station, body)
	return err
}

// WriteOneRegister writes a single register (FC06) from a uint16 value.
//
// This deliberately places the low byte of value as data_hi and the high
// byte as data_lo - an inversion of the natural big-endian wire order,
// preserved byte-for-byte. Do not "fix" this without testing against real
// devices: some deployments may already compensate for it via word_swap.
func (c *Client) WriteOneRegister(expr string, value uint16) error {
	hi := byte(value)      // low byte of value, placed in the "high" wire position
	lo := byte(value >> 8) // high byte of value, placed in the "low" wire position
	return c.WriteOneRegisterBytes(expr, hi, lo)
}

// Write writes raw register bytes (FC16). data must already be byte-ordered
// by the caller and have an even length.
func (c *Client) Write(expr string, data []byte) error {
	addr, err := c.ParseAddress(expr)
	if err != nil {
		return err
	}
	body, err := rtu.BuildWriteMultipleRegisters(addr.Offset, data)
	if err != nil {
		return asProtocolError(err)
	}
	_, err = c.exchange(addr.Station, body)
	return err
}

// WriteUint16s transforms values through the byte-ordering policy and
// writes them as registers (FC16).
func (c *Client) WriteUint16s(expr string, values []uint16) error {
	data := make([]byte, 0, len(values)*2)
	for _, v := range values {
		data = append(data, bytesio.EncodeUint16(v, c.byteOrder)...)
	}
	return c.Write(expr, data)
}

// WriteInt16s transforms values through the byte-ordering policy and
// writes them as registers (FC16).
func (c *Client) WriteInt16s(expr string, values []int16) error {
	data := make([]byte, 0, len(values)*2)
	for _, v := range values {
		data = append(data, bytesio.EncodeInt16(v, c.byteOrder)...)
	}
	return c.Write(expr, data)
}

// WriteUint32s transforms values through the byte-ordering policy and
// writes them as registers (FC16).
func (c *Client) WriteUint32s(expr string, values []uint32) error {
	data := make([]byte, 0, len(values)*4)
	for _, v := range values {
		data = append(data, bytesio.EncodeUint32(v, c.byteOrder)...)
	}
	return c.Write(expr, data)
}

// WriteInt32s transforms values through the byte-ordering policy and
// writes them as registers (FC16).
func (c *Client) WriteInt32s(expr string, values []int32) error {
	data := make([]byte, 0, len(values)*4)
	for _, v := range values {
		data = append(data, bytesio.EncodeInt32(v, c.byteOrder)...)
	}
	return c.Write(expr, data)
}

// WriteUint64s transforms values through the byte-ordering policy and
// writes them as registers (FC16).
func (c *Client) WriteUint64s(expr string, values []uint64) error {
	data := make([]byte, 0, len(values)*8)
	for _, v := range values {
		data = append(data, bytesio.EncodeUint64(v, c.byteOrder)...)
	}
	return c.Write(expr, data)
}

// WriteInt64s transforms values through the byte-ordering policy and
// writes them as registers (FC16).
func (c *Client) WriteInt64s(expr string, values []int64) error {
	data := make([]byte, 0, len(values)*8)
	for _, v := range values {
		data = append(data, bytesio.EncodeInt64(v, c.byteOrder)...)
	}
	return c.Write(expr, data)
}

// WriteFloat32s transforms values through the byte-ordering policy and
// writes them as registers (FC16).
func (c *Client) WriteFloat32s(expr string, values []float32) error {
	data := make([]byte, 0, len(values)*4)
	for _, v := range values {
		data = append(data, bytesio.EncodeFloat32(v, c.byteOrder)...)
	}
	return c.Write(expr, data)
}

// WriteFloat64s transforms values through the byte-ordering policy and
// writes them as registers (FC16).
func (c *Client) WriteFloat64s(expr string, values []float64) error {
	data := make([]byte, 0, len(values)*8)
	for _, v := range values {
		data = append(data, bytesio.EncodeFloat64(v, c.byteOrder)...)
	}
	return c.Write(expr, data)
}

// WriteString transcodes value in the given encoding, optionally padded or
// truncated to fixedWords registers, and writes it (FC16).
func (c *Client) WriteString(expr string, value string, fixedWords int, enc bytesio.StringEncoding) error {
	data := bytesio.EncodeString(value, fixedWords, enc, bytesio.ByteOrder{StringWordSwap: c.byteOrder.StringWordSwap})
	return c.Write(expr, data)
}
