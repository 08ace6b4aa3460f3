package engine

import (
	"fmt"

	"github.com/blitss-oss/mixengine/media"
)

// ConfigError is returned to control-surface callers on a bad request
// (e.g. updating an output that was never registered); it has no side
// effect on queue state (§7).
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func errOutputNotRegistered(id media.OutputID) error {
	return &ConfigError{msg: fmt.Sprintf("output %q is not registered for audio", id)}
}
