package utils

import "errors"

// Common application errors used across handlers and middleware.
var (
	ErrInvalidToken   = errors.New("INVALID_TOKEN")
	ErrExpiredToken   = errors.New("EXPIRED_TOKEN")
	ErrMissingSubject = errors.New("MISSING_SUBJECT")
)

// API error codes written into the response envelope.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeNotFound            = "NOT_FOUND"
	CodeOperationPending    = "OPERATION_PENDING"
	CodeToggleNotApplicable = "TOGGLE_NOT_APPLICABLE"
	CodeNotAddressable      = "SOURCE_NOT_ADDRESSABLE"
	CodeWriteConflict       = "WRITE_CONFLICT"
	CodeUpstreamFailure     = "UPSTREAM_FAILURE"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
)
