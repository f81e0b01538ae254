package service

import (
	"errors"
	"fmt"

	"github.com/fanuel08/Medicine-project/internal/repository"
)

var (
	// ErrNotFound aliases the repository sentinel so handlers need one check
	ErrNotFound        = repository.ErrNotFound
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
	ErrNoAgentProfile  = errors.New("only agents can claim cases")
	ErrAccountInactive = errors.New("Account is not active. Please wait for admin approval.")
	ErrInvalidLogin    = errors.New("No active account found with the given credentials")
	ErrInvalidOTP      = errors.New("Invalid or expired OTP.")
	ErrTooManyRequests = errors.New("too many requests, try again later")
)

// AlreadyAssignedError a claim lost to another agent
type AlreadyAssignedError struct {
	Username string
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("Case already assigned to agent %s.", e.Username)
}

// GatewayError a payment or SMS provider call failed; Body is the provider's response, if any
type GatewayError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// notFoundError a not-found with its own user-facing message
type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == repository.ErrNotFound }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
