package checker

import (
	"errors"
	"fmt"
)

// ParameterError reports malformed constraint parameters. It is turned into a
// bad-parameters result for the (context, constraint) pair it occurred in.
type ParameterError struct {
	Message *ViolationMessage
}

func NewParameterError(msg *ViolationMessage) *ParameterError {
	return &ParameterError{Message: msg}
}

func (e *ParameterError) Error() string {
	return "bad constraint parameters: " + e.Message.Render()
}

// OracleError reports that the type oracle could not answer, as opposed to
// answering "no".
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("type oracle %s failed: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// ErrBadPattern is returned by the oracle when a format pattern is not a valid
// regular expression.
var ErrBadPattern = errors.New("invalid regular expression")

func AsParameterError(err error) (*ParameterError, bool) {
	var pe *ParameterError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func IsOracleError(err error) bool {
	var oe *OracleError
	return errors.As(err, &oe)
}
