package services

import "errors"

var (
	ErrConflict           = errors.New("user with this email already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrContactNotFound    = errors.New("contact not found")
)
