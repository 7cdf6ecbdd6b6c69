package family

import "errors"

var (
	ErrFamilyNotFound        = errors.New("family not found")
	ErrMemberInactive        = errors.New("member is inactive")
	ErrInvalidSlot           = errors.New("invalid member slot")
	ErrUnknownField          = errors.New("unknown member field")
	ErrConfirmationPending   = errors.New("transfer confirmation pending")
	ErrNoPendingConfirmation = errors.New("no pending confirmation")
	ErrForbiddenCras         = errors.New("family belongs to another cras")
	ErrUnknownCras           = errors.New("unknown cras")
	ErrValidation            = errors.New("validation failed")
	ErrSessionNotFound       = errors.New("session not found")
	ErrStaleMatch            = errors.New("matched member is no longer active")
)
