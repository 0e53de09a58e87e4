package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/flightsurety/suretynode/surety"
)

// Error is used by handler functions to wrap errors, assigning a unique
// error code and also specifying which HTTP status should be used.
//
// Error codes in the 4001-4999 range are the client's fault,
// and error codes 5001-5999 are the server's fault, mimicking HTTP.
type Error struct {
	Err        error
	Code       int
	HTTPstatus int
}

//nolint:lll
var (
	ErrCantParseRequestBody = Error{Code: 4001, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("cannot parse request body")}
	ErrSignatureInvalid     = Error{Code: 4002, HTTPstatus: http.StatusUnauthorized, Err: fmt.Errorf("cannot recover signer from signature")}
	ErrAddressMalformed     = Error{Code: 4003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("address malformed")}
	ErrFlightRefMalformed   = Error{Code: 4004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("flight reference malformed")}
	ErrAirlineNotFound      = Error{Code: 4005, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("airline not found")}
	ErrNotOperational       = Error{Code: 4006, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("contract is not operational")}
	ErrAccessDenied         = Error{Code: 4007, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("caller is not allowed to perform the operation")}
	ErrInvalidAmount        = Error{Code: 4008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("amount is not valid for the operation")}
	ErrDuplicateVote        = Error{Code: 4009, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("duplicate vote or response")}
	ErrDuplicateFlight      = Error{Code: 4010, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("flight already registered")}
	ErrUnknownFlight        = Error{Code: 4011, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("flight not found or already finalized")}
	ErrAlreadyRegistered    = Error{Code: 4012, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("already registered")}
	ErrInvalidOracleIndex   = Error{Code: 4013, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("oracle does not hold the request index")}
	ErrNoMatchingRequest    = Error{Code: 4014, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("no matching status request")}
	ErrRequestClosed        = Error{Code: 4015, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("status request already closed")}
	ErrNoCredit             = Error{Code: 4016, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("no credit to withdraw")}
	ErrInvalidStatusCode    = Error{Code: 4017, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("status code is not a terminal status")}
	ErrInsufficientFunds    = Error{Code: 4018, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("not enough funds in the pool")}
	ErrInternal             = Error{Code: 5001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal error")}
)

// MarshalJSON returns a JSON containing Err.Error(), Code and the
// machine readable kind of the underlying state error. Field HTTPstatus
// is ignored.
//
// Example output: {"error":"flight not found","code":4011,"kind":"unknownFlight"}
func (e Error) MarshalJSON() ([]byte, error) {
	// This anon struct is needed to actually include the error string,
	// since it wouldn't be marshaled otherwise. (json.Marshal doesn't call Err.Error())
	return json.Marshal(
		struct {
			Err  string `json:"error"`
			Code int    `json:"code"`
			Kind string `json:"kind,omitempty"`
		}{
			Err:  e.Err.Error(),
			Code: e.Code,
			Kind: stateKind(e.Err),
		})
}

// stateKind returns the machine readable kind of a state machine error,
// or empty for errors raised by the API layer itself.
func stateKind(err error) string {
	for sentinel := range stateErrors {
		if errors.Is(err, sentinel) {
			return surety.Kind(err)
		}
	}
	return ""
}

// Error returns the message contained inside the Error
func (e Error) Error() string {
	return e.Err.Error()
}

// Withf returns a copy of Error with the Sprintf formatted string appended at the end of e.Err
func (e Error) Withf(format string, args ...any) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, fmt.Sprintf(format, args...)),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// WithErr returns a copy of Error with err.Error() appended at the end of e.Err
func (e Error) WithErr(err error) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, err.Error()),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// fromState maps errors returned by the state machine to API errors,
// keeping the wrapped detail in the message.
func fromState(err error) Error {
	for sentinel, apiErr := range stateErrors {
		if errors.Is(err, sentinel) {
			return Error{
				Err:        err,
				Code:       apiErr.Code,
				HTTPstatus: apiErr.HTTPstatus,
			}
		}
	}
	return ErrInternal.WithErr(err)
}

var stateErrors = map[error]Error{
	surety.ErrNotOperational:     ErrNotOperational,
	surety.ErrAccessDenied:       ErrAccessDenied,
	surety.ErrInvalidAmount:      ErrInvalidAmount,
	surety.ErrDuplicateVote:      ErrDuplicateVote,
	surety.ErrDuplicateFlight:    ErrDuplicateFlight,
	surety.ErrUnknownFlight:      ErrUnknownFlight,
	surety.ErrAlreadyRegistered:  ErrAlreadyRegistered,
	surety.ErrInvalidOracleIndex: ErrInvalidOracleIndex,
	surety.ErrInvalidStatusCode:  ErrInvalidStatusCode,
	surety.ErrNoMatchingRequest:  ErrNoMatchingRequest,
	surety.ErrRequestClosed:      ErrRequestClosed,
	surety.ErrNotEnoughFunds:     ErrInsufficientFunds,
	surety.ErrNoCredit:           ErrNoCredit,
}
