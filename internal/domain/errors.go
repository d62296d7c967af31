package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrWrongPassword      = errors.New("wrong password")
	ErrForbidden          = errors.New("forbidden")
	ErrNoMoreUsers        = errors.New("no more users")

	ErrInvalidLoginToken     = errors.New("login token is invalid or expired")
	ErrRecoveryTokenNotFound = errors.New("recovery token not found")
	ErrInvalidRecoveryToken  = errors.New("recovery token is invalid")

	ErrInvalidAPISecret = errors.New("invalid api key secret")
	ErrAPIKeyNotFound   = errors.New("api key not found")
)
