package model

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeInvalidInput     = "REC001"
	ErrCodeMalformedJSON    = "REC002"
	ErrCodeMediaType        = "REC003"
	ErrCodeRecordNotFound   = "REC004"
	ErrCodeForbidden        = "REC005"
	ErrCodeOwnerUnresolved  = "REC006"
	ErrCodeStoreUnavailable = "REC007"
	ErrCodeInvalidID        = "REC008"
)

// Errors
var (
	ErrInvalidInput     = errors.New("invalid record input")
	ErrMalformedJSON    = errors.New("malformed JSON")
	ErrMediaType        = errors.New("unsupported media type")
	ErrRecordNotFound   = errors.New("record not found")
	ErrForbidden        = errors.New("not the record owner")
	ErrOwnerUnresolved  = errors.New("user nickname not found")
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrInvalidID        = errors.New("invalid record id")
)

// Client-facing messages
const (
	MsgMissingFields          = "Missing required fields"
	MsgMissingOrbitalOrState  = "Message must contain orbital_elements and/or state_vector"
	MsgEmptyFields            = "Required fields cannot be empty"
	MsgMissingMetadata        = "Missing required field: metadata"
	MsgMissingPayload         = "Missing required field: metadata.record_payload"
	MsgEmptyPayload           = "record_payload cannot be empty"
	MsgInvalidObservatory     = "Invalid observatory data: missing required fields"
	MsgInvalidOrbitalElements = "Invalid data types in orbital_elements"
	MsgInvalidStateVector     = "Invalid data types in state_vector"
	MsgInvalidJSON            = "Invalid JSON format"
	MsgContentType            = "Content-Type must be application/json"
	MsgNotFound               = "Message not found"
	MsgOwnerMismatch          = "record_owner must match authenticated user's nickname"
	MsgNotOwner               = "Only the owner can update this message"
	MsgNicknameNotFound       = "User nickname not found"
	MsgDatabaseError          = "Database error"
	MsgMissingID              = "Missing id parameter"
	MsgInvalidID              = "Invalid id parameter"
)

// RecordError custom error type
type RecordError struct {
	Code    string
	Message string
	Err     error
}

func (e *RecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewInvalidInputError(message string) *RecordError {
	return &RecordError{
		Code:    ErrCodeInvalidInput,
		Message: message,
		Err:     ErrInvalidInput,
	}
}

func NewMalformedJSONError() *RecordError {
	return &RecordError{
		Code:    ErrCodeMalformedJSON,
		Message: MsgInvalidJSON,
		Err:     ErrMalformedJSON,
	}
}

func NewMediaTypeError() *RecordError {
	return &RecordError{
		Code:    ErrCodeMediaType,
		Message: MsgContentType,
		Err:     ErrMediaType,
	}
}

func NewRecordNotFoundError() *RecordError {
	return &RecordError{
		Code:    ErrCodeRecordNotFound,
		Message: MsgNotFound,
		Err:     ErrRecordNotFound,
	}
}

func NewForbiddenError(message string) *RecordError {
	return &RecordError{
		Code:    ErrCodeForbidden,
		Message: message,
		Err:     ErrForbidden,
	}
}

func NewOwnerUnresolvedError(cause error) *RecordError {
	return &RecordError{
		Code:    ErrCodeOwnerUnresolved,
		Message: MsgNicknameNotFound,
		Err:     errors.Join(ErrOwnerUnresolved, cause),
	}
}

func NewStoreUnavailableError(cause error) *RecordError {
	return &RecordError{
		Code:    ErrCodeStoreUnavailable,
		Message: MsgDatabaseError,
		Err:     errors.Join(ErrStoreUnavailable, cause),
	}
}

func NewInvalidIDError(message string) *RecordError {
	return &RecordError{
		Code:    ErrCodeInvalidID,
		Message: message,
		Err:     ErrInvalidID,
	}
}

// AsRecordError unwraps err into a *RecordError if possible.
func AsRecordError(err error) (*RecordError, bool) {
	var recErr *RecordError
	if errors.As(err, &recErr) {
		return recErr, true
	}
	return nil, false
}
