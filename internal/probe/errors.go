package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	lkerrors "github.com/rileyhilliard/lookout/internal/errors"
)

// FailReason categorizes why a probe failed.
type FailReason int

const (
	FailUnknown FailReason = iota
	FailTimeout
	FailRefused
	FailUnreachable
	FailNameResolution
	FailTransport
	FailHTTPStatus
	FailNoReply
	FailPermission
	FailAborted
)

// String returns a human-readable description of the failure reason.
func (r FailReason) String() string {
	switch r {
	case FailTimeout:
		return "timed out"
	case FailRefused:
		return "connection refused"
	case FailUnreachable:
		return "host unreachable"
	case FailNameResolution:
		return "name resolution failed"
	case FailTransport:
		return "transport error"
	case FailHTTPStatus:
		return "unexpected HTTP status"
	case FailNoReply:
		return "no reply"
	case FailPermission:
		return "permission denied"
	case FailAborted:
		return "aborted"
	default:
		return "unknown error"
	}
}

// Error is a failed probe with a categorized reason.
type Error struct {
	Address  string
	Protocol Protocol
	Reason   FailReason
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s probe %s failed: %s (%v)", e.Protocol, e.Address, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s probe %s failed: %s", e.Protocol, e.Address, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ReasonOf returns the reason of a probe Error in err's chain.
func ReasonOf(err error) FailReason {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return FailUnknown
}

// categorize converts a transport error into an Error with a categorized
// failure reason.
func categorize(address string, proto Protocol, err error) *Error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	probeErr := &Error{
		Address:  address,
		Protocol: proto,
		Reason:   FailUnknown,
		Cause:    err,
	}

	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.Canceled):
		probeErr.Reason = FailAborted
		return probeErr
	case errors.Is(err, context.DeadlineExceeded):
		probeErr.Reason = FailTimeout
		return probeErr
	case errors.As(err, &dnsErr), lkerrors.IsCode(err, lkerrors.ErrResolve):
		probeErr.Reason = FailNameResolution
		return probeErr
	case errors.Is(err, syscall.ECONNREFUSED):
		probeErr.Reason = FailRefused
		return probeErr
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		probeErr.Reason = FailUnreachable
		return probeErr
	case errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EACCES):
		probeErr.Reason = FailPermission
		return probeErr
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "timeout") {
		probeErr.Reason = FailTimeout
		return probeErr
	}

	if strings.Contains(errStr, "connection refused") {
		probeErr.Reason = FailRefused
		return probeErr
	}

	if strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "host is down") {
		probeErr.Reason = FailUnreachable
		return probeErr
	}

	if strings.Contains(errStr, "operation not permitted") ||
		strings.Contains(errStr, "permission denied") {
		probeErr.Reason = FailPermission
		return probeErr
	}

	return probeErr
}
