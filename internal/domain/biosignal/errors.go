package biosignal

import "errors"

// Sentinel errors delivered on the channel returned by Feed.Connect.
var (
	ErrConnectionFailed    = errors.New("biosignal connection failed")
	ErrConnectionAbandoned = errors.New("biosignal connection abandoned")
	ErrAlreadyConnected    = errors.New("biosignal feed already connected or connecting")
)
