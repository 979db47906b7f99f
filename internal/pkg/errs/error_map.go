/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Entry and Room Business Logic Errors
	ErrEntryNotFound:   {Code: ErrEntryNotFound, Message: "Entry not found.", Status: http.StatusNotFound},
	ErrNotAuthorized:   {Code: ErrNotAuthorized, Message: "You do not have access to this entry.", Status: http.StatusForbidden},
	ErrContentTooLarge: {Code: ErrContentTooLarge, Message: "Content is too large."},

	// 3xxx: Credential and Session Errors
	ErrNoCredential:      {Code: ErrNoCredential, Message: "No credential provided.", Status: http.StatusUnauthorized},
	ErrInvalidCredential: {Code: ErrInvalidCredential, Message: "Invalid or expired credential.", Status: http.StatusUnauthorized},
	ErrSubjectNotFound:   {Code: ErrSubjectNotFound, Message: "Account no longer exists.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
