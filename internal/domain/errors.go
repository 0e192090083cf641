package domain

import "errors"

// Domain errors.
var (
	ErrIdentityMismatch = errors.New("task identity mismatch")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrEmptyPrompt      = errors.New("prompt cannot be empty")
	ErrNoEndpoint       = errors.New("no stream endpoint configured")
	ErrConnectionFailed = errors.New("connection to task stream failed")
	ErrConfigExists     = errors.New("config file already exists")
	ErrPlanEmpty        = errors.New("plan has no tasks")
)

// ConnectionFailedDetail is the error detail published when the transport fails.
// Producer-reported details are shown verbatim; transport failures are not.
var ConnectionFailedDetail = ErrConnectionFailed.Error()
