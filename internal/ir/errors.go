package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes scheduling, routing and verification failures.
type ErrorCode string

const (
	// CodeMalformedInput: unknown gate kind, non-numeric angle, wire out of
	// range, duplicate MS operands, wrong snapshot width.
	CodeMalformedInput ErrorCode = "MALFORMED_INPUT"

	// CodeLengthMismatch: position history and schedule lengths differ.
	CodeLengthMismatch ErrorCode = "LENGTH_MISMATCH"

	// CodeInvalidSite: a recorded position is not a topology member.
	CodeInvalidSite ErrorCode = "INVALID_SITE"

	// CodeIllegalMove: an ion jumps between non-adjacent sites.
	CodeIllegalMove ErrorCode = "ILLEGAL_MOVE"

	// CodeIllegalSwap: two ions exchange sites across one edge in one tick.
	CodeIllegalSwap ErrorCode = "ILLEGAL_SWAP"

	// CodeWireConflict: a tick uses the same wire twice.
	CodeWireConflict ErrorCode = "WIRE_CONFLICT"

	// CodeGateSiteMismatch: MS operands not co-located at an Interaction
	// site, or an RX/RY operand off a Standard site.
	CodeGateSiteMismatch ErrorCode = "GATE_SITE_MISMATCH"

	// CodeInteractionDuration: MS operands move during the following tick.
	CodeInteractionDuration ErrorCode = "INTERACTION_DURATION_VIOLATION"

	// CodeOverlapViolation: illegal co-location of ions.
	CodeOverlapViolation ErrorCode = "OVERLAP_VIOLATION"

	// CodeUnschedulable: a scheduler or router invariant cannot be satisfied.
	CodeUnschedulable ErrorCode = "UNSCHEDULABLE_CONFIGURATION"

	// CodeFidelityBelowThreshold: only reported when the caller opts in to
	// strict fidelity checking.
	CodeFidelityBelowThreshold ErrorCode = "FIDELITY_BELOW_THRESHOLD"
)

// NoTick marks an error that is not attached to a specific tick.
const NoTick = -1

// Error is the single structured failure reported by every component.
// Tick, Ions and Sites are machine-checkable; Message is for humans.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Tick    int       `json:"tick"`
	Ions    []int     `json:"ions,omitempty"`
	Sites   []SiteID  `json:"sites,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Tick != NoTick {
		fmt.Fprintf(&b, " (tick=%d", e.Tick)
		if len(e.Ions) > 0 {
			fmt.Fprintf(&b, ", ions=%v", e.Ions)
		}
		b.WriteString(")")
	}
	return b.String()
}

// NewError creates an Error that is not attached to a tick.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Tick: NoTick}
}

// TickError creates an Error attached to tick with the given ions.
func TickError(code ErrorCode, tick int, message string, ions ...int) *Error {
	return &Error{Code: code, Message: message, Tick: tick, Ions: ions}
}

// WithIons replaces the ion indices of the error and returns it.
func (e *Error) WithIons(ions ...int) *Error {
	e.Ions = append([]int(nil), ions...)
	return e
}

// WithSites attaches site ids to the error and returns it.
func (e *Error) WithSites(sites ...SiteID) *Error {
	e.Sites = append(e.Sites, sites...)
	return e
}

// AsError extracts an *Error from err, handling wrapped errors.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
