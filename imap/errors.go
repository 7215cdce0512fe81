package imap

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which class of failure an Error represents; Is
// reports (via errors.As) whether an error carries a given Kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindArgument
	KindCredential
	KindDNS
	KindConnect
	KindConnectTimeout
	KindTLS
	KindAuth
	KindProtocol
	KindServer
	KindMalformedResponse
	KindTruncated
	KindIO
	KindReadTimeout
)

func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "ArgumentError"
	case KindCredential:
		return "CredentialError"
	case KindDNS:
		return "DNSError"
	case KindConnect:
		return "ConnectError"
	case KindConnectTimeout:
		return "ConnectTimeout"
	case KindTLS:
		return "TLSError"
	case KindAuth:
		return "AuthError"
	case KindProtocol:
		return "ProtocolError"
	case KindServer:
		return "ServerError"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindTruncated:
		return "Truncated"
	case KindIO:
		return "IOError"
	case KindReadTimeout:
		return "ReadTimeout"
	default:
		return "UnknownError"
	}
}

// Error is the single error type surfaced across every component
// boundary described in §7: it carries a taxonomy Kind alongside a
// human-readable message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// newError builds an *Error, optionally wrapping a cause with
// pkg/errors for stack context on the top-level Cause it carries.
func newError(kind Kind, cause error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		cause = errors.Wrap(cause, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
