package services

import "errors"

// Service layer errors. Handlers map them to HTTP statuses in one place.

// ===== Not found =====
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrMatchingNotFound     = errors.New("matching not found")
	ErrApplyNotFound        = errors.New("apply not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrExportNotFound       = errors.New("export job not found")
)

// ===== Permission =====
var (
	ErrNoPermission = errors.New("no permission to edit or delete this matching")
)

// ===== Invalid state =====
var (
	ErrClosedMatching           = errors.New("recruitment for this matching is closed")
	ErrMatchingFull             = errors.New("matching has no remaining capacity")
	ErrAlreadyApplied           = errors.New("already applied to this matching")
	ErrApplyNotPending          = errors.New("apply is not pending")
	ErrOrganizerApplyImmutable  = errors.New("organizer's apply cannot be changed")
	ErrInvalidStatusTransition  = errors.New("recruit status transition not allowed")
	ErrRecruitNumBelowConfirmed = errors.New("recruit_num cannot be lower than confirmed_num")
)

// ===== Malformed input =====
var (
	ErrInvalidDateFormat = errors.New("invalid date/time format")
	ErrInvalidTimeRange  = errors.New("end_time must be after start_time")
	ErrInvalidInput      = errors.New("invalid input")
)

// ===== Auth =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidGoogleToken = errors.New("invalid Google ID token")
)
