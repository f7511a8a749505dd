package transport

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is an in-memory io.ReadWriteCloser standing in for a physical
// serial port: writes are captured, and a canned reply is dribbled back to
// readers one small chunk at a time to exercise the inter-byte-gap logic.
type fakePort struct {
	mu      sync.Mutex
	written []byte
	reply   []byte
	closed  bool
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reply) == 0 {
		return 0, nil
	}
	n := copy(p, f.reply[:1])
	f.reply = f.reply[1:]
	return n, nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func TestSerialTransport_Exchange(t *testing.T) {
	port := &fakePort{reply: []byte{0x01, 0x03, 0x02, 0x12, 0x34, 0xB5, 0x33}}
	tr := newSerialTransport(port, SerialConfig{ReadTimeout: time.Second, InterByteGap: 5 * time.Millisecond})

	resp, err := tr.Exchange([]byte{0x01, 0x03, 0x00, 0x64, 0x00, 0x01, 0xC5, 0xD5})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x64, 0x00, 0x01, 0xC5, 0xD5}, port.written)
	assert.Equal(t, []byte{0x01, 0x03, 0x02, 0x12, 0x34, 0xB5, 0x33}, resp)
}

func TestSerialTransport_Exchange_timeoutOnNoReply(t *testing.T) {
	port := &fakePort{}
	tr := newSerialTransport(port, SerialConfig{ReadTimeout: 20 * time.Millisecond, InterByteGap: 5 * time.Millisecond})

	_, err := tr.Exchange([]byte{0x01})
	assert.Error(t, err)
}

func TestSerialTransport_VerifyReceived(t *testing.T) {
	tr := newSerialTransport(&fakePort{}, SerialConfig{})
	good := []byte{0x01, 0x03, 0x02, 0x12, 0x34, 0xB5, 0x33}
	assert.True(t, tr.VerifyReceived(good))
	assert.False(t, tr.VerifyReceived(bytes.Repeat([]byte{0x00}, 3)))
}

var _ io.ReadWriteCloser = (*fakePort)(nil)
