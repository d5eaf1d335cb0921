package wrtapi

import "fmt"

// Protocol selects which of the two device management APIs a client speaks.
type Protocol string

const (
	// ProtocolUbus is the JSON-RPC control API (ubus over HTTP).
	ProtocolUbus Protocol = "ubus"
	// ProtocolLuci is the web-admin HTTP API (LuCI).
	ProtocolLuci Protocol = "luci"
)

// ParseProtocol validates a protocol tag from the registry or the CLI.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(s) {
	case ProtocolUbus, ProtocolLuci:
		return Protocol(s), nil
	case "":
		return ProtocolUbus, nil
	}
	return "", fmt.Errorf("unknown protocol %q (expected %q or %q)", s, ProtocolUbus, ProtocolLuci)
}

// Device is one registered appliance: identity, address, and credentials.
type Device struct {
	Name     string   `yaml:"name"`
	Addr     string   `yaml:"addr"`
	User     string   `yaml:"user"`
	Password string   `yaml:"password"`
	Protocol Protocol `yaml:"protocol"`
}

// UbusURL is the device's JSON-RPC endpoint.
func (d Device) UbusURL() string {
	return fmt.Sprintf("http://%s/ubus", d.Addr)
}

// Session is an opaque authenticated session token. It is valid for the
// lifetime of one operation and never persisted.
type Session string

// SystemStatus is the subset of ubus system.board / system.info we render.
type SystemStatus struct {
	Hostname string    `json:"hostname"`
	Model    string    `json:"model"`
	Uptime   uint64    `json:"uptime"`
	Load     []float64 `json:"load"`
	Memory   Memory    `json:"memory"`
}

// Memory holds the device memory counters, in bytes as reported by ubus.
type Memory struct {
	Total    uint64 `json:"total"`
	Free     uint64 `json:"free"`
	Buffered uint64 `json:"buffered"`
	Cached   uint64 `json:"cached"`
}

// Client is the narrow capability set both protocols implement. Keep it
// small and focused on what the CLI actually needs so it stays mockable.
type Client interface {
	// Login authenticates against the device and returns a session token.
	Login(d Device) (Session, error)
	// Collect gathers the device configuration into a finalized tar.gz
	// archive and returns its bytes.
	Collect(d Device, s Session) ([]byte, error)
	// Restore pushes a previously collected archive back to the device and
	// triggers activation.
	Restore(d Device, s Session, archive []byte) error
	// Reboot restarts the device.
	Reboot(d Device, s Session) error
	// Status reports the device system status.
	Status(d Device, s Session) (SystemStatus, error)
}

// ForProtocol returns the real client for a protocol tag.
func ForProtocol(p Protocol) (Client, error) {
	switch p {
	case ProtocolUbus:
		return NewUbusClient(), nil
	case ProtocolLuci:
		return NewLuciClient(), nil
	}
	return nil, &UnsupportedError{Protocol: p, Operation: "connect"}
}

// AuthError reports failed authentication or a malformed auth response.
type AuthError struct {
	Device string
	Cause  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for device %q: %v", e.Device, e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// CollectionError reports a transport or archive-write failure while
// gathering a backup.
type CollectionError struct {
	Device string
	Cause  error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("backup collection failed for device %q: %v", e.Device, e.Cause)
}

func (e *CollectionError) Unwrap() error { return e.Cause }

// RestoreError reports a failure while pushing an archive back to a device.
// Activated=true means the configuration was accepted but the separate
// activation step failed: the device is restored but not rebooted.
type RestoreError struct {
	Device    string
	Activated bool
	Cause     error
}

func (e *RestoreError) Error() string {
	if e.Activated {
		return fmt.Sprintf("device %q accepted the configuration but activation failed (not rebooted): %v", e.Device, e.Cause)
	}
	return fmt.Sprintf("restore failed for device %q: %v", e.Device, e.Cause)
}

func (e *RestoreError) Unwrap() error { return e.Cause }

// UnsupportedError marks an operation a protocol does not implement.
type UnsupportedError struct {
	Protocol  Protocol
	Operation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("operation %q is not supported over protocol %q", e.Operation, e.Protocol)
}
