package cmd

import "errors"

// ErrReported marks a failure whose diagnostic was already printed.
var ErrReported = errors.New("failure already reported")
