// Package modbus implements a Modbus RTU master/client: address-expression
// parsing, request PDU construction, the RTU envelope (station byte + CRC),
// response validation, and the byte-ordering policy that maps wire bytes to
// machine scalar types. The physical serial port and the blocking
// send/receive round trip are delegated to a transport.Transport.
package modbus

import (
	"sync"

	"github.com/halvero/modbusrtu/bytesio"
	"github.com/halvero/modbusrtu/transport"
)

const defaultStation = uint8(1)

// Client is a Modbus RTU master bound to one transport for its whole
// lifetime: created before first use, reusable for the life of the serial
// link, discarded with it. Exchanges against one Client are serialized
// internally, so a single Client may be shared by multiple goroutines (e.g.
// several poller jobs); reconfiguring it with a With* option concurrently
// with in-flight exchanges is still the caller's responsibility to avoid.
type Client struct {
	transport transport.Transport
	hooks     Hooks
	mu        sync.Mutex

	defaultStation    uint8
	addressBaseIsZero bool
	byteOrder         bytesio.ByteOrder
}

// Hooks lets a caller observe wire traffic without modifying it.
type Hooks interface {
	// BeforeWrite is called with the request frame about to be written.
	BeforeWrite(frame []byte)
	// BeforeParse is called with the raw response bytes before C5 validates them.
	BeforeParse(frame []byte)
}

// Option configures a Client at construction time. The With* functions are
// meant to be passed to NewClient before the Client is shared across
// goroutines; applying one afterward races with in-flight exchanges.
type Option func(*Client)

// WithStation sets the default slave station used when an address
// expression omits "s=". Defaults to 1.
func WithStation(station uint8) Option {
	return func(c *Client) { c.defaultStation = station }
}

// WithAddressBaseOne configures the client to treat caller-supplied offsets
// as 1-based, decrementing by one before transmission. Defaults to 0-based
// (address_base_is_zero=true).
func WithAddressBaseOne() Option {
	return func(c *Client) { c.addressBaseIsZero = false }
}

// WithWordSwap toggles byte swapping inside every 16 bit word. Defaults to true.
func WithWordSwap(swap bool) Option {
	return func(c *Client) { c.byteOrder.WordSwap = swap }
}

// WithMultiWordSwap toggles word reordering inside 32/64 bit scalars. Defaults to false.
func WithMultiWordSwap(swap bool) Option {
	return func(c *Client) { c.byteOrder.MultiWordSwap = swap }
}

// WithStringWordSwap toggles byte swapping inside each word during string
// transcoding only. Defaults to false.
func WithStringWordSwap(swap bool) Option {
	return func(c *Client) { c.byteOrder.StringWordSwap = swap }
}

// WithHooks installs wire-traffic observation hooks.
func WithHooks(hooks Hooks) Option {
	return func(c *Client) { c.hooks = hooks }
}

// NewClient creates a Client bound to the given transport. Defaults: station
// 1, address_base_is_zero=true, word_swap=true, multi_word_swap=false,
// string_word_swap=false.
func NewClient(t transport.Transport, opts ...Option) *Client {
	c := &Client{
		transport:         t,
		defaultStation:    defaultStation,
		addressBaseIsZero: true,
		byteOrder:         bytesio.ByteOrder{WordSwap: true},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// String identifies this client type, matching the identifier historically
// used by compatible .NET tooling for an RTU-mode client.
func (c *Client) String() string {
	return "ModbusRtuNet"
}
