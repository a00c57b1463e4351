package transport

import (
	"crypto/tls"
	"fmt"
	"net"
)

// ListenTCP binds addr and wraps every accepted connection in TLS using
// tlsConfig, matching the TCP+TLS transport mode (the default, non-QUIC
// path). Accepting is left to the caller via the returned net.Listener,
// the same split pkg/bolt's Server keeps between binding and its own
// accept loop.
func ListenTCP(addr string, tlsConfig *tls.Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen on %s: %w", addr, err)
	}
	return tls.NewListener(ln, tlsConfig), nil
}

// DialTCP connects to addr over TCP+TLS using tlsConfig.
func DialTCP(addr string, tlsConfig *tls.Config) (net.Conn, error) {
	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return conn, nil
}
