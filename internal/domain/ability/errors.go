package ability

import "errors"

// Sentinel errors for registration and activation.
var (
	ErrUnknownAbility   = errors.New("unknown ability")
	ErrNotReady         = errors.New("ability on cooldown")
	ErrDuplicateAbility = errors.New("ability already registered")
	ErrInvalidAbility   = errors.New("invalid ability definition")
)
