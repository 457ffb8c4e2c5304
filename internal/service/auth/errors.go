package auth

import "errors"

var (
	// ErrInvalidToken is returned for a malformed token, a bad signature, a
	// non-access token or a token without a user id.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken is returned once exp (plus leeway) has passed.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid is returned when nbf or iat lies in the future.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrInvalidSubject is returned when a token is requested for the nil user.
	ErrInvalidSubject = errors.New("token subject must be a non-nil user id")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")
)
