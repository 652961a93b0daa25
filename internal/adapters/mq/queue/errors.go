package queue

import "errors"

// ErrRejected wraps every Push failure.
var ErrRejected = errors.New("queue rejected item")
