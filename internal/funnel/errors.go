package funnel

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes carried by CompileError.
const (
	ErrCodeMissingSteps = "MISSING_STEPS"
	ErrCodeInvalidField = "INVALID_FIELD"
	ErrCodeCUE          = "CUE"
	ErrCodeLoad         = "LOAD"
)

// CompileError is returned by Compile and by the CUE loaders. Pos is set
// when the error comes from a CUE source.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsMissingSteps returns true if err reports a funnel without steps.
func IsMissingSteps(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Code == ErrCodeMissingSteps
}

// formatCUEError keeps the first CUE error with its source position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	ce := &CompileError{Code: ErrCodeCUE, Field: "cue", Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
