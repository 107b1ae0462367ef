package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// IdentityResolutionError means the caller's own IAM user could not be
// determined. Fatal: no rotation step runs after it.
type IdentityResolutionError struct {
	Err error
}

func (e IdentityResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve IAM user: %v", e.Err)
}

func (e IdentityResolutionError) Unwrap() error {
	return e.Err
}

// ListKeysError means the user's existing access keys could not be
// enumerated. Fatal.
type ListKeysError struct {
	User string
	Err  error
}

func (e ListKeysError) Error() string {
	return fmt.Sprintf("failed to list access keys for user %s: %v", e.User, e.Err)
}

func (e ListKeysError) Unwrap() error {
	return e.Err
}

// KeyCreationError means the replacement access key could not be created.
// Fatal: nothing has been mutated yet.
type KeyCreationError struct {
	User string
	Err  error
}

func (e KeyCreationError) Error() string {
	return fmt.Sprintf("failed to create access key for user %s: %v", e.User, e.Err)
}

func (e KeyCreationError) Unwrap() error {
	return e.Err
}

// CapExceededError means the user already holds the maximum of two access
// keys allowed by IAM. Fatal, raised before any creation is attempted.
type CapExceededError struct {
	User  string
	Count int
}

func (e CapExceededError) Error() string {
	return fmt.Sprintf(
		"user %s already has %d access keys; delete one manually or pass --force to deactivate the oldest",
		e.User, e.Count)
}

// DeactivationError means a superseded key could not be set Inactive.
// Non-fatal: the supersession pass logs it and moves on.
type DeactivationError struct {
	KeyID string
	Err   error
}

func (e DeactivationError) Error() string {
	return fmt.Sprintf("failed to deactivate access key %s: %v", e.KeyID, e.Err)
}

func (e DeactivationError) Unwrap() error {
	return e.Err
}

// DeletionError means a deactivated key could not be deleted. Non-fatal.
type DeletionError struct {
	KeyID string
	Err   error
}

func (e DeletionError) Error() string {
	return fmt.Sprintf("failed to delete access key %s: %v", e.KeyID, e.Err)
}

func (e DeletionError) Unwrap() error {
	return e.Err
}
