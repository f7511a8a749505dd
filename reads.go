package modbus

import (
	"github.com/halvero/modbusrtu/bytesio"
	"github.com/halvero/modbusrtu/rtu"
)

// maxRegistersPerChunk bounds how many registers a single on-wire read
// request fetches. The façade chunks longer reads into a sequence of
// exchanges at this boundary - intentionally lower than the
// protocol's own 125 register ceiling (rtu.BuildReadRequest) to leave
// headroom on links with small ADU buffers.
const maxRegistersPerChunk = 120

// readBits issues one read of length coils/discretes, unpacking the
// LSB-first bit payload to exactly length booleans.
func (c *Client) readBits(addr Address, implicitFunction uint8, length int) ([]bool, error) {
	fc := addr.functionCodeOr(implicitFunction)
	body, err := rtu.BuildReadRequest(fc, addr.Offset, uint16(length))
	if err != nil {
		return nil, asProtocolError(err)
	}
	payload, err := c.exchange(addr.Station, body)
	if err != nil {
		return nil, err
	}
	data := stripByteCount(payload)
	return bytesio.UnpackBits(data, length), nil
}

// stripByteCount discards the byte-count field that precedes read response
// payloads.
func stripByteCount(payload []byte) []byte {
	if len(payload) == 0 {
		return payload
	}
	return payload[1:]
}

// readRegisters fetches length registers starting at addr.Offset, chunking
// at maxRegistersPerChunk boundaries and failing fast on the first failing
// chunk with no partial data returned.
func (c *Client) readRegisters(addr Address, implicitFunction uint8, length int) ([]byte, error) {
	fc := addr.functionCodeOr(implicitFunction)
	result := make([]byte, 0, length*2)
	fetched := 0
	for fetched < length {
		chunk := min(maxRegistersPerChunk, length-fetched)
		body, err := rtu.BuildReadRequest(fc, addr.Offset+uint16(fetched), uint16(chunk))
		if err != nil {
			return nil, asProtocolError(err)
		}
		payload, err := c.exchange(addr.Station, body)
		if err != nil {
			return nil, err
		}
		result = append(result, stripByteCount(payload)...)
		fetched += chunk
	}
	return result, nil
}

// ReadCoil reads a single coil (FC01).
func (c *Client) ReadCoil(expr string) (bool, error) {
	addr, err := c.ParseAddress(expr)
	if err != nil {
		return false, err
	}
	bits, err := c.readBits(addr, rtu.FuncReadCoils, 1)
	if err != nil {
		return false, err
	}
	return bits[0], nil
}

// ReadCoils reads length coils starting at the parsed address (FC01).
func (c *Client) ReadCoils(expr string, length int) ([]bool, error) {
	addr, err := c.ParseAddress(expr)
	if err != nil {
		return nil, err
	}
	return c.readBits(addr, rtu.FuncReadCoils, length)
}

// ReadDiscrete reads a single discrete input (FC02).
func (c *Client) ReadDiscrete(expr string) (bool, error) {
	addr, err := c.ParseAddress(expr)
	if err != nil {
		return false, err
	}
	bits, err := c.readBits(addr, rtu.FuncReadDiscreteInputs, 1)
	if err != nil {
		return false, err
	}
	return bits[0], nil
}

// ReadDiscretes reads length discrete inputs starting at the parsed address (FC02).
func (c *Client) ReadDiscretes(expr string, length int) ([]bool, error) {
	addr, err := c.ParseAddress(expr)
	if err != nil {
		return nil, err
	}
	return c.readBits(addr, rtu.FuncReadDiscreteInputs, length)
}

// Read reads length holding registers (FC03 by default; an "x=4" override in
// expr reads input registers with FC04 instead) starting at
// the parsed address, chunking as needed, and returns the raw payload
// bytes in wire order for callers that want to decode it themselves.
func (c *Client) Read(expr string, length int) ([]byte, error) {
	addr, err := c.ParseAddress(expr)
	if err != nil {
		return nil, err
	}
	return c.readRegisters(addr, rtu.FuncReadHoldingRegisters, length)
}

// ReadUint16 reads one register and decodes it as uint16.
func (c *Client) ReadUint16(expr string) (uint16, error) {
	data, err := c.Read(expr, 1)
	if err != nil {
		return 0, err
	}
	v, err := bytesio.DecodeUint16(data, c.byteOrder)
	return v, asProtocolError(err)
}

// ReadInt16 reads one register and decodes it as int16.
func (c *Client) ReadInt16(expr string) (int16, error) {
	data, err := c.Read(expr, 1)
	if err != nil {
		return 0, err
	}
	v, err := bytesio.DecodeInt16(data, c.byteOrder)
	return v, asProtocolError(err)
}

// ReadUint32 reads two registers and decodes them as uint32.
func (c *Client) ReadUint32(expr string) (uint32, error) {
	data, err := c.Read(expr, 2)
	if err != nil {
		return 0, err
	}
	v, err := bytesio.DecodeUint32(data, c.byteOrder)
	return v, asProtocolError(err)
}

// ReadInt32 reads two registers and decodes them as int32.
func (c *Client) ReadInt32(expr string) (int32, error) {
	data, err := c.Read(expr, 2)
	if err != nil {
		return 0, err
	}
	v, err := bytesio.DecodeInt32(data, c.byteOrder)
	return v, asProtocolError(err)
}

// ReadUint64 reads four registers and decodes them as uint64.
func (c *Client) ReadUint64(expr string) (uint64, error) {
	data, err := c.Read(expr, 4)
	if err != nil {
		return 0, err
	}
	v, err := bytesio.DecodeUint64(data, c.byteOrder)
	return v, asProtocolError(err)
}

// ReadInt64 reads four registers and decodes them as int64.
func (c *Client) ReadInt64(expr string) (int64, error) {
	data, err := c.Read(expr, 4)
	if err != nil {
		return 0, err
	}
	v, err := bytesio.DecodeInt64(data, c.byteOrder)
	return v, asProtocolError(err)
}

// ReadFloat32 reads two registers and decodes them as an IEEE-754 float32.
func (c *Client) ReadFloat32(expr string) (float32, error) {
	data, err := c.Read(expr, 2)
	if err != nil {
		return 0, err
	}
	v, err := bytesio.DecodeFloat32(data, c.byteOrder)
	return v, asProtocolError(err)
}

// ReadFloat64 reads four registers and decodes them as an IEEE-754 float64.
func (c *Client) ReadFloat64(expr string) (float64, error) {
	data, err := c.Read(expr, 4)
	if err != nil {
		return 0, err
	}
	v, err := bytesio.DecodeFloat64(data, c.byteOrder)
	return v, asProtocolError(err)
}

// ReadUint16Array reads count registers and decodes each as uint16.
func (c *Client) ReadUint16Array(expr string, count int) ([]uint16, error) {
	data, err := c.Read(expr, count)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := range out {
		out[i], err = bytesio.DecodeUint16(data[i*2:], c.byteOrder)
		if err != nil {
			return nil, asProtocolError(err)
		}
	}
	return out, nil
}

// ReadInt16Array reads count registers and decodes each as int16.
func (c *Client) ReadInt16Array(expr string, count int) ([]int16, error) {
	data, err := c.Read(expr, count)
	if err != nil {
		return nil, err
	}
	out := make([]int16, count)
	for i := range out {
		out[i], err = bytesio.DecodeInt16(data[i*2:], c.byteOrder)
		if err != nil {
			return nil, asProtocolError(err)
		}
	}
	return out, nil
}

// ReadUint32Array reads count*2 registers and decodes each pair as a uint32.
func (c *Client) ReadUint32Array(expr string, count int) ([]uint32, error) {
	data, err := c.Read(expr, count*2)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		out[i], err = bytesio.DecodeUint32(data[i*4:], c.byteOrder)
		if err != nil {
			return nil, asProtocolError(err)
		}
	}
	return out, nil
}

// ReadInt32Array reads count*2 registers and decodes each pair as an int32.
func (c *Client) ReadInt32Array(expr string, count int) ([]int32, error) {
	data, err := c.Read(expr, count*2)
	if err != nil {
		return nil, err
	}
	out := make([]int32, count)
	for i := range out {
		out[i], err = bytesio.DecodeInt32(data[i*4:], c.byteOrder)
		if err != nil {
			return nil, asProtocolError(err)
		}
	}
	return out, nil
}

// ReadUint64Array reads count*4 registers and decodes each quad as a uint64.
func (c *Client) ReadUint64Array(expr string, count int) ([]uint64, error) {
	data, err := c.Read(expr, count*4)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, count)
	for i := range out {
		out[i], err = bytesio.DecodeUint64(data[i*8:], c.byteOrder)
		if err != nil {
			return nil, asProtocolError(err)
		}
	}
	return out, nil
}

// ReadInt64Array reads count*4 registers and decodes each quad as an int64.
func (c *Client) ReadInt64Array(expr string, count int) ([]int64, error) {
	data, err := c.Read(expr, count*4)
	if err != nil {
		return nil, err
	}
	out := make([]int64, count)
	for i := range out {
		out[i], err = bytesio.DecodeInt64(data[i*8:], c.byteOrder)
		if err != nil {
			return nil, asProtocolError(err)
		}
	}
	return out, nil
}

// ReadFloat32Array reads count*2 registers and decodes each pair as a float32.
func (c *Client) ReadFloat32Array(expr string, count int) ([]float32, error) {
	data, err := c.Read(expr, count*2)
	if err != nil {
		return nil, err
	}
	out := make([]float32, count)
	for i := range out {
		out[i], err = bytesio.DecodeFloat32(data[i*4:], c.byteOrder)
		if err != nil {
			return nil, asProtocolError(err)
		}
	}
	return out, nil
}

// ReadFloat64Array reads count*4 registers and decodes each quad as a float64.
func (c *Client) ReadFloat64Array(expr string, count int) ([]float64, error) {
	data, err := c.Read(expr, count*4)
	if err != nil {
		return nil, err
	}
	out := make([]float64, count)
	for i := range out {
		out[i], err = bytesio.DecodeFloat64(data[i*8:], c.byteOrder)
		if err != nil {
			return nil, asProtocolError(err)
		}
	}
	return out, nil
}

// ReadString reads wordCount registers and decodes them as a string in the
// given encoding, applying string_word_swap (not word/multi-word swap).
func (c *Client) ReadString(expr string, wordCount int, enc bytesio.StringEncoding) (string, error) {
	data, err := c.Read(expr, wordCount)
	if err != nil {
		return "", err
	}
	s, err := bytesio.DecodeString(data, wordCount, enc, bytesio.ByteOrder{StringWordSwap: c.byteOrder.StringWordSwap})
	return s, asProtocolError(err)
}
