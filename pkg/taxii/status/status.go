// Package status defines the closed set of outcomes the TAXII engine reports
// to its caller. Every client-visible failure is a *Error carrying a Kind (how
// the engine classifies it), a wire status type (what the client sees) and the
// status details the client needs to self-correct.
package status

import (
	"errors"
	"fmt"
)

// Kind classifies an outcome for handling purposes.
type Kind int

const (
	// KindInternal is a persistence or invariant failure.
	KindInternal Kind = iota
	// KindHeaderInvalid is a transport-level failure detected before deserialization.
	KindHeaderInvalid
	// KindMalformed is a well-formed request that is semantically invalid.
	KindMalformed
	// KindNotFound is a named entity that does not exist.
	KindNotFound
	// KindPolicyViolation is a destination collection required/prohibited mismatch.
	KindPolicyViolation
	// KindUnsupported is a capability the server does not offer.
	KindUnsupported
	// KindPending is a deferred result, not a failure.
	KindPending
	// KindUnauthorized is a request without valid credentials.
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindHeaderInvalid:
		return "header_invalid"
	case KindMalformed:
		return "malformed"
	case KindNotFound:
		return "not_found"
	case KindPolicyViolation:
		return "policy_violation"
	case KindUnsupported:
		return "unsupported"
	case KindPending:
		return "pending"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Type is a TAXII 1.1 status type as written on the wire.
type Type string

const (
	TypeSuccess                     Type = "SUCCESS"
	TypeFailure                     Type = "FAILURE"
	TypeBadMessage                  Type = "BAD_MESSAGE"
	TypeNotFound                    Type = "NOT_FOUND"
	TypeDestinationCollectionError  Type = "DESTINATION_COLLECTION_ERROR"
	TypeUnsupportedCapabilityModule Type = "UNSUPPORTED_CAPABILITY_MODULE"
	TypeUnsupportedTargeting        Type = "UNSUPPORTED_TARGETING_EXPRESSION"
	TypeUnsupportedContentBinding   Type = "UNSUPPORTED_CONTENT_BINDING"
	TypeUnsupportedQuery            Type = "UNSUPPORTED_QUERY"
	TypeUnsupportedMessage          Type = "UNSUPPORTED_MESSAGE"
	TypePending                     Type = "PENDING"
	TypeUnauthorized                Type = "UNAUTHORIZED"
)

// Status detail keys.
const (
	DetailItem                  = "ITEM"
	DetailAcceptableDestination = "ACCEPTABLE_DESTINATION"
	DetailCapabilityModule      = "CAPABILITY_MODULE"
	DetailPreferredScope        = "PREFERRED_SCOPE"
	DetailAllowedScope          = "ALLOWED_SCOPE"
	DetailSupportedContent      = "SUPPORTED_CONTENT"
	DetailSupportedQuery        = "SUPPORTED_QUERY"
	DetailSupportedMessage      = "SUPPORTED_MESSAGE"
	DetailEstimatedWait         = "ESTIMATED_WAIT"
	DetailResultID              = "RESULT_ID"
	DetailWillPush              = "WILL_PUSH"
)

// Error is a typed outcome. Details values are strings or []string.
type Error struct {
	Kind    Kind
	Type    Type
	Message string
	Details map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Type)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a status detail and returns the receiver.
func (e *Error) WithDetail(key string, values ...string) *Error {
	if e.Details == nil {
		e.Details = make(map[string][]string)
	}
	e.Details[key] = append(e.Details[key], values...)
	return e
}

// Detail returns the first value stored under key.
func (e *Error) Detail(key string) string {
	if v := e.Details[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func newError(kind Kind, typ Type, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Type: typ, Message: fmt.Sprintf(format, args...)}
}

// HeaderInvalid reports a transport-level header, method or body violation.
func HeaderInvalid(format string, args ...interface{}) *Error {
	return newError(KindHeaderInvalid, TypeBadMessage, format, args...)
}

// Malformed reports a semantically invalid request.
func Malformed(format string, args ...interface{}) *Error {
	return newError(KindMalformed, TypeBadMessage, format, args...)
}

// NotFound reports a missing named entity; the name is attached as ITEM.
func NotFound(item, format string, args ...interface{}) *Error {
	return newError(KindNotFound, TypeNotFound, format, args...).WithDetail(DetailItem, item)
}

// Failure reports a generic client-side failure.
func Failure(format string, args ...interface{}) *Error {
	return newError(KindMalformed, TypeFailure, format, args...)
}

// DestinationCollection reports a destination collection policy violation.
func DestinationCollection(acceptable []string, format string, args ...interface{}) *Error {
	e := newError(KindPolicyViolation, TypeDestinationCollectionError, format, args...)
	if len(acceptable) > 0 {
		e.WithDetail(DetailAcceptableDestination, acceptable...)
	}
	return e
}

// UnsupportedCapabilityModule names the capability module the evaluator requires.
func UnsupportedCapabilityModule(required string) *Error {
	return newError(KindUnsupported, TypeUnsupportedCapabilityModule, "Unsupported capability module").
		WithDetail(DetailCapabilityModule, required)
}

// UnsupportedTargeting lists the targeting scopes the evaluator does support.
func UnsupportedTargeting(target, preferred string, allowed []string) *Error {
	e := newError(KindUnsupported, TypeUnsupportedTargeting, "Targeting expression not supported: %s", target)
	e.WithDetail(DetailPreferredScope, preferred)
	e.WithDetail(DetailAllowedScope, allowed...)
	return e
}

// UnsupportedContent lists the content bindings the recipient supports.
func UnsupportedContent(supported []string, format string, args ...interface{}) *Error {
	e := newError(KindUnsupported, TypeUnsupportedContentBinding, format, args...)
	if len(supported) > 0 {
		e.WithDetail(DetailSupportedContent, supported...)
	}
	return e
}

// UnsupportedQuery lists the query formats the recipient supports.
func UnsupportedQuery(supported []string, format string, args ...interface{}) *Error {
	e := newError(KindUnsupported, TypeUnsupportedQuery, format, args...)
	if len(supported) > 0 {
		e.WithDetail(DetailSupportedQuery, supported...)
	}
	return e
}

// UnsupportedMessage reports a message kind the target service does not accept.
func UnsupportedMessage(format string, args ...interface{}) *Error {
	return newError(KindUnsupported, TypeUnsupportedMessage, format, args...)
}

// Unsupported reports any other unsupported request feature as a FAILURE.
func Unsupported(format string, args ...interface{}) *Error {
	return newError(KindUnsupported, TypeFailure, format, args...)
}

// Pending is the deferred-result outcome of an asynchronous poll.
func Pending(resultID string, estimatedWaitSeconds int, willPush bool) *Error {
	e := newError(KindPending, TypePending, "Result set %s is being prepared", resultID)
	e.WithDetail(DetailResultID, resultID)
	e.WithDetail(DetailEstimatedWait, fmt.Sprintf("%d", estimatedWaitSeconds))
	e.WithDetail(DetailWillPush, fmt.Sprintf("%t", willPush))
	return e
}

// Unauthorized reports missing or invalid credentials.
func Unauthorized(format string, args ...interface{}) *Error {
	return newError(KindUnauthorized, TypeUnauthorized, format, args...)
}

// Internal wraps a persistence or invariant failure. The client only sees a
// generic message; the cause stays available through Unwrap.
func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Type:    TypeFailure,
		Message: "An internal server error occurred",
		Err:     err,
	}
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// KindOf classifies err. Errors outside the taxonomy are Internal.
func KindOf(err error) Kind {
	if se, ok := As(err); ok {
		return se.Kind
	}
	return KindInternal
}

// IsClientError reports whether err is a recoverable, client-input outcome.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindInternal, KindPending:
		return false
	default:
		return true
	}
}

// IsPending reports whether err is a deferred-result outcome.
func IsPending(err error) bool {
	return err != nil && KindOf(err) == KindPending
}

// Classify converts any error into a *Error, wrapping foreign errors as Internal.
func Classify(err error) *Error {
	if se, ok := As(err); ok {
		return se
	}
	return Internal(err)
}
