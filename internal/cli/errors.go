package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/roach88/druidkit/internal/client"
	"github.com/roach88/druidkit/internal/funnel"
	"github.com/roach88/druidkit/internal/wire"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // Input file or stdin unreadable
	ErrCodeNoFunnels   = "E003" // No funnel definitions found
	ErrCodeLoadFailed  = "E004" // CUE load or build failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeConfig      = "E006" // Profile or flag configuration error
	ErrCodeWriteFailed = "E007" // File write error

	// Decode errors
	ErrCodeUnknownVariant = "E101" // Unregistered "type" tag
	ErrCodeMalformedTag   = "E102" // Missing or non-string "type" tag
	ErrCodeInvalidPayload = "E103" // Known variant, bad fields
	ErrCodeValueParse     = "E104" // Interval, number or scalar shape error

	// Funnel errors
	ErrCodeMissingSteps = "E110" // Funnel without steps
	ErrCodeFunnelField  = "E111" // Invalid funnel field

	// Engine errors
	ErrCodeEngineStatus = "E201" // Non-2xx response
	ErrCodeTransport    = "E202" // Request never completed
	ErrCodeTaskFailed   = "E203" // Task finished in FAILED state

	ErrCodeCache = "E301" // Result cache unavailable
)

// errorCode maps err onto a CLI error code.
func errorCode(err error) string {
	var de *wire.DecodeError
	if errors.As(err, &de) {
		switch de.Code {
		case wire.ErrCodeUnknownVariant:
			return ErrCodeUnknownVariant
		case wire.ErrCodeMalformedTag:
			return ErrCodeMalformedTag
		case wire.ErrCodeInvalidPayload:
			return ErrCodeInvalidPayload
		default:
			return ErrCodeValueParse
		}
	}
	var ce *funnel.CompileError
	if errors.As(err, &ce) {
		switch ce.Code {
		case funnel.ErrCodeMissingSteps:
			return ErrCodeMissingSteps
		case funnel.ErrCodeInvalidField:
			return ErrCodeFunnelField
		default:
			return ErrCodeLoadFailed
		}
	}
	var se *client.StatusError
	if errors.As(err, &se) {
		return ErrCodeEngineStatus
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return ErrCodeTransport
	}
	return ErrCodeGeneric
}

// errorDetails returns structured context for err, or nil.
func errorDetails(err error) any {
	var de *wire.DecodeError
	if errors.As(err, &de) {
		d := map[string]string{"code": string(de.Code)}
		if de.Family != "" {
			d["family"] = de.Family
		}
		if de.Tag != "" {
			d["tag"] = de.Tag
		}
		if de.Field != "" {
			d["field"] = de.Field
		}
		return d
	}
	var ce *funnel.CompileError
	if errors.As(err, &ce) && ce.Pos.IsValid() {
		return map[string]string{
			"field":    ce.Field,
			"position": fmt.Sprintf("%s:%d:%d", ce.Pos.Filename(), ce.Pos.Line(), ce.Pos.Column()),
		}
	}
	var se *client.StatusError
	if errors.As(err, &se) {
		d := map[string]any{"status": se.Code}
		if se.Engine != nil {
			d["error"] = se.Engine.Category
			if se.Engine.ErrorClass != "" {
				d["errorClass"] = se.Engine.ErrorClass
			}
		}
		return d
	}
	return nil
}

// fail reports err through the formatter and returns it as an ExitError.
// Engine rejections and unreachable engines exit with ExitFailure,
// everything else with ExitCommandError.
func fail(f *OutputFormatter, message string, err error) error {
	code := errorCode(err)
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), errorDetails(err))
	exit := ExitCommandError
	if code == ErrCodeEngineStatus || code == ErrCodeTransport {
		exit = ExitFailure
	}
	return WrapExitError(exit, message, err)
}

// failCode reports a failure that has no underlying typed error.
func failCode(f *OutputFormatter, exit int, code, message string) error {
	_ = f.Error(code, message, nil)
	return NewExitError(exit, fmt.Sprintf("%s: %s", code, message))
}
