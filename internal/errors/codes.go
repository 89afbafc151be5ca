// Package errors provides structured, code-bearing errors for the match core.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidArgument indicates a malformed or missing request field.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Session errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeSessionEnded    Code = "SESSION_ENDED"
	CodeNotActive       Code = "NOT_ACTIVE"
	CodeSeatTaken       Code = "SEAT_TAKEN"
	CodeNotAParticipant Code = "NOT_A_PARTICIPANT"

	// Turn errors
	CodeOutOfTurn     Code = "OUT_OF_TURN"
	CodeIllegalMove   Code = "ILLEGAL_MOVE"
	CodeStalePosition Code = "STALE_POSITION"

	// Infrastructure errors
	CodeUnavailable Code = "UNAVAILABLE"
	CodeInternal    Code = "INTERNAL"
)
