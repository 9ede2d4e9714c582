package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// ErrValidation is wrapped by every input rejection raised before persistence.
	ErrValidation       = errors.New("validation error")
	ErrEmptyBody        = fmt.Errorf("%w: message body is empty", ErrValidation)
	ErrBodyTooLong      = fmt.Errorf("%w: message body is too long", ErrValidation)
	ErrSelfMessage      = fmt.Errorf("%w: sender and receiver must differ", ErrValidation)
	ErrMissingRecipient = fmt.Errorf("%w: receiver id is required", ErrValidation)
	ErrUnknownRecipient = errors.New("recipient not found")
	ErrEmptyQuery       = fmt.Errorf("%w: search terms are required", ErrValidation)
	ErrMalformedBody    = fmt.Errorf("%w: request body is not valid JSON", ErrValidation)

	ErrStore = errors.New("message store unavailable")

	// Delivery errors never leave the fanout.
	ErrDelivery      = errors.New("delivery failed")
	ErrOutboundFull  = fmt.Errorf("%w: outbound queue full", ErrDelivery)
	ErrSessionClosed = fmt.Errorf("%w: session closed", ErrDelivery)

	ErrRateLimited = errors.New("too many messages, slow down")

	ErrUserAlreadyExists  = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPassword    = fmt.Errorf("%w: password does not meet requirements", ErrValidation)
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenGeneration    = errors.New("could not generate token")
	ErrMalformedHash      = errors.New("invalid hash format")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrMissingIdentity    = errors.New("connection identity is missing")
)
