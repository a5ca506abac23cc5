package domain

import "strings"

// Status is the canonical connection state of an instance.
type Status string

const (
	StatusPending      Status = "pending"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// NormalizeStatus maps the free-text status reported by the remote service
// onto a canonical Status. The mapping is total and case-insensitive; this is
// the only place raw status text is interpreted.
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "connected", "open":
		return StatusConnected
	case "disconnected", "closed":
		return StatusDisconnected
	default:
		return StatusPending
	}
}

// CanDisconnect reports whether the turn-off action applies.
func (s Status) CanDisconnect() bool {
	return s == StatusConnected
}

// CanConnect reports whether the QR / connect flow applies.
func (s Status) CanConnect() bool {
	return s != StatusConnected
}
