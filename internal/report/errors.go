package report

import "errors"

// ErrUnknownKind indicates a report kind outside the supported set.
var ErrUnknownKind = errors.New("unknown report kind")

// ErrUnknownExample indicates an example number outside the built-in set.
var ErrUnknownExample = errors.New("unknown example")
