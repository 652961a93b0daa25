package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrClockRunning      = errors.New("frames are driven by the service clock")
	ErrStopped           = errors.New("service stopped")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrActivationDropped = errors.New("activation dropped")
)
