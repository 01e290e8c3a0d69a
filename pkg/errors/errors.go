package gatepass_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotClaimed       = errors.New("record not claimed")
	ErrNoProviderConfig = errors.New("no provider configuration")
)

// Validation messages surfaced verbatim to enqueue callers.
const (
	MsgMissingPhoneNumber  = "Missing phone number"
	MsgInvalidPhoneNumber  = "Invalid E.164 phone number"
	MsgMissingEmailAddress = "Missing email address"
	MsgEmptyMessageBody    = "Message body is empty"
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
