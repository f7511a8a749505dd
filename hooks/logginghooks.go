// Package hooks provides modbus.Hooks implementations for observing wire
// traffic, implementing this library's Hooks interface
// (BeforeWrite/BeforeParse) backed by the structured logger and
// correlation ids used across the wider retrieved pack instead of a plain
// stdlib logger.
package hooks

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	modbus "github.com/halvero/modbusrtu"
)

// LoggingHooks logs every request/response frame at debug level, tagging
// both halves of one exchange with the same correlation id. Every exchange
// gets a fresh id, so each chunk of a multi-chunk read is logged under its
// own id. Safe only when exchanges
// against the same Client are serialized - concurrent exchanges on one
// instance can interleave and mislabel the correlation id.
type LoggingHooks struct {
	Logger  *logrus.Logger
	current uuid.UUID
}

// NewLoggingHooks returns a LoggingHooks using logger, or logrus's standard
// logger if logger is nil.
func NewLoggingHooks(logger *logrus.Logger) *LoggingHooks {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LoggingHooks{Logger: logger}
}

// BeforeWrite implements modbus.Hooks.
func (h *LoggingHooks) BeforeWrite(frame []byte) {
	h.current = uuid.New()
	h.Logger.WithFields(logrus.Fields{
		"exchange_id": h.current,
		"frame":       fmt.Sprintf("% x", frame),
	}).Debug("modbus rtu request")
}

// BeforeParse implements modbus.Hooks.
func (h *LoggingHooks) BeforeParse(frame []byte) {
	h.Logger.WithFields(logrus.Fields{
		"exchange_id": h.current,
		"frame":       fmt.Sprintf("% x", frame),
	}).Debug("modbus rtu response")
}

var _ modbus.Hooks = (*LoggingHooks)(nil)
