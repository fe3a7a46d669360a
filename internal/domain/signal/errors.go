package signal

import "errors"

var (
	ErrSignalNotFound = errors.New("signal not found")
)
