package models

import (
	"errors"
	"fmt"
)

// Code is the stable numeric error code returned by every engine operation.
// The values are part of the wire contract and must not be renumbered.
type Code int

const (
	CodeInvalidParams       Code = 400
	CodeUnauthorized        Code = 401
	CodeInsufficientStake   Code = 402
	CodeNotMember           Code = 403
	CodeCircleNotFound      Code = 404
	CodeInsufficientBalance Code = 405
	CodeProposalNotFound    Code = 406
	CodeVotingClosed        Code = 407
	CodeAlreadyVoted        Code = 408
	CodeAlreadyMember       Code = 409
	CodeInvalidVote         Code = 410
)

func (c Code) String() string {
	switch c {
	case CodeInvalidParams:
		return "invalid_params"
	case CodeUnauthorized:
		return "unauthorized"
	case CodeInsufficientStake:
		return "insufficient_stake"
	case CodeNotMember:
		return "not_member"
	case CodeCircleNotFound:
		return "circle_not_found"
	case CodeInsufficientBalance:
		return "insufficient_balance"
	case CodeProposalNotFound:
		return "proposal_not_found"
	case CodeVotingClosed:
		return "voting_closed"
	case CodeAlreadyVoted:
		return "already_voted"
	case CodeAlreadyMember:
		return "already_member"
	case CodeInvalidVote:
		return "invalid_vote"
	default:
		return "unknown"
	}
}

// Error carries a Code plus a human-readable message.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, int(e.Code), e.Msg)
}

// E builds a coded error with a formatted message.
func E(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code from an error chain. ok is false for errors
// that did not originate from an engine validation.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
