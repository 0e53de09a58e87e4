package surety

import (
	"errors"
	"fmt"
)

var (
	ErrNotOperational     = fmt.Errorf("contract is not operational")
	ErrAccessDenied       = fmt.Errorf("caller is not allowed to perform this operation")
	ErrInvalidAmount      = fmt.Errorf("invalid amount")
	ErrDuplicateVote      = fmt.Errorf("caller already voted for this airline")
	ErrDuplicateFlight    = fmt.Errorf("flight is already registered")
	ErrUnknownFlight      = fmt.Errorf("flight is not registered")
	ErrAlreadyRegistered  = fmt.Errorf("already registered")
	ErrInvalidOracleIndex = fmt.Errorf("index is not assigned to the oracle")
	ErrInvalidStatusCode  = fmt.Errorf("status code is not a terminal status")
	ErrNoMatchingRequest  = fmt.Errorf("no open status request matches the response")
	ErrRequestClosed      = fmt.Errorf("status request is already closed")
	ErrNotEnoughFunds     = fmt.Errorf("not enough funds in the pool")
	ErrNoCredit           = fmt.Errorf("no credit owed to the passenger")
)

// Kind returns the machine-readable kind for the known error sentinels,
// or "internal" for anything else. Callers get both the kind and the
// human-readable reason from Error().
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotOperational):
		return "notOperational"
	case errors.Is(err, ErrAccessDenied):
		return "accessDenied"
	case errors.Is(err, ErrInvalidAmount):
		return "invalidAmount"
	case errors.Is(err, ErrDuplicateVote):
		return "duplicateVote"
	case errors.Is(err, ErrDuplicateFlight):
		return "duplicateFlight"
	case errors.Is(err, ErrUnknownFlight):
		return "unknownFlight"
	case errors.Is(err, ErrAlreadyRegistered):
		return "alreadyRegistered"
	case errors.Is(err, ErrInvalidOracleIndex):
		return "invalidOracleIndex"
	case errors.Is(err, ErrInvalidStatusCode):
		return "invalidStatusCode"
	case errors.Is(err, ErrNoMatchingRequest):
		return "noMatchingRequest"
	case errors.Is(err, ErrRequestClosed):
		return "requestClosed"
	case errors.Is(err, ErrNotEnoughFunds):
		return "insufficientFunds"
	case errors.Is(err, ErrNoCredit):
		return "noCredit"
	}
	return "internal"
}
