// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// Not-found sentinels. Handlers translate these into HTTP 404.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPlantNotFound   = errors.New("plant not found")
	ErrSpeciesNotFound = errors.New("plant species not found")
)

// ErrUsernameExists is returned when a username is already taken.
// Handlers should translate this into an HTTP 400 response.
var ErrUsernameExists = errors.New("username already registered")

// ErrSpeciesExists is returned when a catalog species with the same name
// already exists.
var ErrSpeciesExists = errors.New("plant species already exists")

// ErrTokenInvalid covers unknown, revoked and expired refresh tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")
