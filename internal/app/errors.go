package app

import "errors"

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken means the signup email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrJoinCodeTaken means another group already holds the join code.
	ErrJoinCodeTaken = errors.New("join code already in use")
	// ErrGroupNotFound means a required group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrForbidden means the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrPremiumRequired gates group creation, search, and invites.
	ErrPremiumRequired = errors.New("premium account required")
	// ErrNotMember means the caller does not belong to the group.
	ErrNotMember = errors.New("not a group member")
)
