package aclgate

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
)

// ConfigError reports a structurally invalid policy document. It is returned
// at load time only; Check never fails once a policy was built.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "policy config: " + e.Reason
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
