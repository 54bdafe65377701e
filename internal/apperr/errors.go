package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrSafetyLimit          = errors.New("safety limit exceeded")
	ErrBackupNotFound       = errors.New("backup not found")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrClassifierDisabled   = errors.New("classifier disabled")
)
