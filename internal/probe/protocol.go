package probe

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind is the probe variant.
type Kind int

const (
	// Reachability is an ICMP echo.
	Reachability Kind = iota
	// Connection is a TCP connect.
	Connection
	// Request is an HTTP method call.
	Request
)

// String returns the config spelling of the kind's class.
func (k Kind) String() string {
	switch k {
	case Reachability:
		return "ping"
	case Connection:
		return "tcp"
	case Request:
		return "rest"
	default:
		return "unknown"
	}
}

// Protocol identifies one configured protocol of a target. Method is only
// set for Request.
type Protocol struct {
	Kind   Kind
	Method string
}

var requestMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

// ParseProtocol maps a config name (ping, tcp, GET, POST, PUT, DELETE, HEAD)
// to a Protocol. Matching is case-insensitive.
func ParseProtocol(name string) (Protocol, error) {
	n := strings.TrimSpace(name)
	switch strings.ToLower(n) {
	case "ping", "icmp":
		return Protocol{Kind: Reachability}, nil
	case "tcp":
		return Protocol{Kind: Connection}, nil
	}
	m := strings.ToUpper(n)
	if requestMethods[m] {
		return Protocol{Kind: Request, Method: m}, nil
	}
	return Protocol{}, fmt.Errorf("unknown protocol %q (want ping, tcp, GET, POST, PUT, DELETE or HEAD)", name)
}

// String returns the display label: "Ping", "Tcp" or the HTTP method.
func (p Protocol) String() string {
	switch p.Kind {
	case Reachability:
		return "Ping"
	case Connection:
		return "Tcp"
	case Request:
		return p.Method
	default:
		return "?"
	}
}

// MarshalText renders the protocol in its config spelling.
func (p Protocol) MarshalText() ([]byte, error) {
	switch p.Kind {
	case Reachability:
		return []byte("ping"), nil
	case Connection:
		return []byte("tcp"), nil
	default:
		return []byte(p.Method), nil
	}
}
