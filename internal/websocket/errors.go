package websocket

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated      = errors.New("connection is not authenticated")
	ErrNotAMember           = errors.New("user is not a member of this channel")
	ErrPersistence          = errors.New("persistence failure")
	ErrInvalidEvent         = errors.New("invalid event")
	ErrAuthFailed           = errors.New("authentication failed")
	ErrAlreadyAuthenticated = errors.New("connection already authenticated as another user")
	ErrClientDisconnected   = fmt.Errorf("client disconnected")
)

// Error codes carried by outbound error events
const (
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeNotAMember           = "NOT_A_MEMBER"
	CodePersistenceFailure   = "PERSISTENCE_FAILURE"
	CodeInvalidMessage       = "INVALID_MESSAGE"
	CodeAuthFailed           = "AUTH_FAILED"
	CodeAlreadyAuthenticated = "ALREADY_AUTHENTICATED"
)

// errorCode maps a dispatch error onto the code sent to the client.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrNotAMember):
		return CodeNotAMember
	case errors.Is(err, ErrInvalidEvent):
		return CodeInvalidMessage
	case errors.Is(err, ErrAuthFailed):
		return CodeAuthFailed
	case errors.Is(err, ErrAlreadyAuthenticated):
		return CodeAlreadyAuthenticated
	default:
		return CodePersistenceFailure
	}
}
