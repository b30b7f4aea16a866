package service

import (
	"errors"

	"github.com/straye-as/renewal-api/internal/importer"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned for bad credentials
	ErrUnauthorized = errors.New("invalid username or password")

	// ErrForbidden is returned when the caller may not perform the action
	ErrForbidden = errors.New("forbidden")

	ErrUserNotApproved = errors.New("user is not approved")
	ErrUsernameTaken   = errors.New("username taken")

	// ErrSlotBlocked is returned when a meeting lands exactly on a blocked slot
	ErrSlotBlocked = errors.New("time slot is blocked")

	// ErrVersionConflict is returned when a conditional resident update lost a race
	ErrVersionConflict = errors.New("resident was modified by another user")

	ErrEmptyFile      = importer.ErrEmptyFile
	ErrUnreadableFile = importer.ErrUnreadableFile
)
