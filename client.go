package modbus

import (
	"github.com/halvero/modbusrtu/rtu"
	"github.com/halvero/modbusrtu/transport"
)

// exchange wraps body (function code + payload) with the station byte and
// CRC, performs one transport round trip, and unwraps the reply against the
// function code actually sent - validating length, CRC, and exception
// status before returning the payload that follows station+function in the
// response. Only one exchange runs at a time per Client: the serial link
// underneath is half-duplex, so concurrent callers (e.g. poller jobs sharing
// one Client) are serialized here rather than left to race on the wire.
func (c *Client) exchange(station uint8, body []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame := rtu.Wrap(station, body)
	if c.hooks != nil {
		c.hooks.BeforeWrite(frame)
	}

	resp, err := c.transport.Exchange(frame)
	if err != nil {
		return nil, newProtocolError(KindTransport, err.Error())
	}

	if c.hooks != nil {
		c.hooks.BeforeParse(resp)
	}

	if pv, ok := c.transport.(transport.PreVerifier); ok && !pv.VerifyReceived(resp) {
		return nil, newProtocolError(KindCRCMismatch, "transport-level CRC pre-check failed")
	}

	payload, err := rtu.Unwrap(resp, body[0])
	if err != nil {
		return nil, asProtocolError(err)
	}
	return payload, nil
}
