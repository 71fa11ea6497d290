package prediction

import "errors"

// Sentinel error kinds for this package.
var (
	ErrPairing = errors.New("pairing evaluation failed")
)
