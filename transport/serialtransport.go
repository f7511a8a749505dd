package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tarm/serial"

	"github.com/halvero/modbusrtu/crc"
)

// rtuPacketMaxLen is the largest a Modbus RTU frame can legally be: 1 byte
// station + 253 bytes max PDU + 2 bytes CRC.
const rtuPacketMaxLen = 256

const (
	defaultReadTimeout  = 1 * time.Second
	defaultInterByteGap = 10 * time.Millisecond
)

// ErrPacketTooLong is returned when more bytes arrive than any valid Modbus
// RTU frame could legally contain.
var ErrPacketTooLong = errors.New("transport: received more bytes than a valid Modbus RTU frame can hold")

// flusher is satisfied by serial ports that can discard unread/unwritten
// buffered data; used opportunistically to recover framing after an error.
type flusher interface {
	Flush() error
}

// SerialTransport implements Transport over a physical serial port opened
// with github.com/tarm/serial.
type SerialTransport struct {
	port        io.ReadWriteCloser
	readTimeout time.Duration
	interByte   time.Duration
	isFlusher   bool
}

// SerialConfig configures the physical link. Mirrors tarm/serial.Config's
// fields that matter for RTU framing plus the protocol-level read timeout.
type SerialConfig struct {
	Name     string
	Baud     int
	Size     byte // data bits, tarm/serial default 8
	Parity   serial.Parity
	StopBits serial.StopBits

	// ReadTimeout bounds the whole reply read loop, not a single read call.
	ReadTimeout time.Duration
	// InterByteGap is how long Exchange waits for more bytes before
	// deciding a reply has finished arriving (the RTU silent interval).
	InterByteGap time.Duration
}

// Open opens the physical serial port described by cfg and returns a ready
// to use Transport.
func Open(cfg SerialConfig) (*SerialTransport, error) {
	size := cfg.Size
	if size == 0 {
		size = 8
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:     cfg.Name,
		Baud:     cfg.Baud,
		Size:     size,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
		// tarm/serial has no notion of our total-read timeout; individual
		// reads are given a short deadline so the Exchange loop can apply
		// its own overall timeout and detect the inter-character gap.
		ReadTimeout: defaultInterByteGap,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: open serial port %q: %w", cfg.Name, err)
	}
	return newSerialTransport(port, cfg), nil
}

func newSerialTransport(port io.ReadWriteCloser, cfg SerialConfig) *SerialTransport {
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	interByte := cfg.InterByteGap
	if interByte <= 0 {
		interByte = defaultInterByteGap
	}
	_, isFlusher := port.(flusher)
	return &SerialTransport{
		port:        port,
		readTimeout: readTimeout,
		interByte:   interByte,
		isFlusher:   isFlusher,
	}
}

// Exchange writes request and reads the reply until either an inter-byte
// gap is observed after at least one byte, the overall read timeout
// elapses, or the maximum RTU frame length is exceeded.
func (t *SerialTransport) Exchange(request []byte) ([]byte, error) {
	if _, err := t.port.Write(request); err != nil {
		t.flush()
		return nil, fmt.Errorf("transport: write: %w", err)
	}

	received := make([]byte, rtuPacketMaxLen+8)
	total := 0
	deadline := time.Now().Add(t.readTimeout)
	lastByteAt := time.Time{}
	buf := make([]byte, rtuPacketMaxLen+8)
	for {
		if time.Now().After(deadline) {
			t.flush()
			return nil, errors.New("transport: total read timeout exceeded")
		}
		n, err := t.port.Read(buf)
		if err != nil && !(errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, io.EOF)) {
			t.flush()
			return nil, fmt.Errorf("transport: read: %w", err)
		}
		if n > 0 {
			copy(received[total:], buf[:n])
			total += n
			lastByteAt = time.Now()
		}
		if total > rtuPacketMaxLen {
			t.flush()
			return nil, ErrPacketTooLong
		}
		if total > 0 && !lastByteAt.IsZero() && time.Since(lastByteAt) >= t.interByte {
			break
		}
	}
	t.flush()
	if total == 0 {
		return nil, errors.New("transport: no bytes received before timeout")
	}
	return received[:total], nil
}

// VerifyReceived reports whether buf carries a valid Modbus RTU CRC,
// implementing the optional PreVerifier hook bound to the same CRC16
// computation used by the RTU framer, so the check exists once.
func (t *SerialTransport) VerifyReceived(buf []byte) bool {
	return crc.Verify(buf)
}

// Close closes the underlying serial port.
func (t *SerialTransport) Close() error {
	return t.port.Close()
}

func (t *SerialTransport) flush() {
	if !t.isFlusher {
		return
	}
	_ = t.port.(flusher).Flush()
}
