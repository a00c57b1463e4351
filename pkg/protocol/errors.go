package protocol

import "fmt"

// ErrorKind discriminates the reason behind a ProtocolError so callers can
// branch on failure category (errors.As + Kind()) without string matching.
type ErrorKind uint8

const (
	ErrConnectionFailed ErrorKind = iota
	ErrAuthenticationFailed
	ErrInvalidHandle
	ErrGpu
	ErrUnsupportedCommand
	ErrSerialization
	ErrTimeout
	ErrDisconnected
	ErrOutOfMemory
	ErrNotImplemented
)

// ProtocolError is the single error type crossing every RGPU package
// boundary. It carries enough structured detail (GPU error code, requested
// byte count) that callers need not parse the message string.
type ProtocolError struct {
	Kind      ErrorKind
	Message   string
	GpuCode   int32
	Requested uint64
}

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case ErrConnectionFailed:
		return fmt.Sprintf("connection failed: %s", e.Message)
	case ErrAuthenticationFailed:
		return fmt.Sprintf("authentication failed: %s", e.Message)
	case ErrInvalidHandle:
		return fmt.Sprintf("invalid handle: %s", e.Message)
	case ErrGpu:
		return fmt.Sprintf("GPU error: code=%d, message=%s", e.GpuCode, e.Message)
	case ErrUnsupportedCommand:
		return fmt.Sprintf("unsupported command: %s", e.Message)
	case ErrSerialization:
		return fmt.Sprintf("serialization error: %s", e.Message)
	case ErrTimeout:
		return "timeout"
	case ErrDisconnected:
		return "server disconnected"
	case ErrOutOfMemory:
		return fmt.Sprintf("out of memory: requested %d bytes", e.Requested)
	case ErrNotImplemented:
		return fmt.Sprintf("not implemented: %s", e.Message)
	default:
		return fmt.Sprintf("protocol error (kind=%d): %s", e.Kind, e.Message)
	}
}

func NewConnectionFailed(msg string) *ProtocolError { return &ProtocolError{Kind: ErrConnectionFailed, Message: msg} }
func NewAuthFailed(msg string) *ProtocolError        { return &ProtocolError{Kind: ErrAuthenticationFailed, Message: msg} }
func NewInvalidHandle(msg string) *ProtocolError      { return &ProtocolError{Kind: ErrInvalidHandle, Message: msg} }
func NewGpuError(code int32, msg string) *ProtocolError {
	return &ProtocolError{Kind: ErrGpu, GpuCode: code, Message: msg}
}
func NewUnsupportedCommand(msg string) *ProtocolError { return &ProtocolError{Kind: ErrUnsupportedCommand, Message: msg} }
func NewSerializationError(msg string) *ProtocolError { return &ProtocolError{Kind: ErrSerialization, Message: msg} }
func NewTimeout() *ProtocolError                      { return &ProtocolError{Kind: ErrTimeout} }
func NewDisconnected() *ProtocolError                 { return &ProtocolError{Kind: ErrDisconnected} }
func NewOutOfMemory(requested uint64) *ProtocolError {
	return &ProtocolError{Kind: ErrOutOfMemory, Requested: requested}
}
func NewNotImplemented(msg string) *ProtocolError { return &ProtocolError{Kind: ErrNotImplemented, Message: msg} }
