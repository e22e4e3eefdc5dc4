package generation

import "errors"

// ErrInvalidConfig is returned when a client, prompt builder or retry
// policy is constructed with invalid settings.
var ErrInvalidConfig = errors.New("invalid generator configuration")
