package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx response from the engine.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   []byte

	// Engine is the parsed error object, nil when the body is not one.
	Engine *EngineError
}

// EngineError is the JSON error object the engine returns with failed
// queries and task submissions.
type EngineError struct {
	Category     string `json:"error"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ErrorClass   string `json:"errorClass,omitempty"`
	Host         string `json:"host,omitempty"`
}

func newStatusError(method, path string, code int, body []byte) *StatusError {
	e := &StatusError{Method: method, Path: path, Code: code, Body: body}
	var ee EngineError
	if json.Unmarshal(body, &ee) == nil && (ee.Category != "" || ee.ErrorMessage != "") {
		e.Engine = &ee
	}
	return e
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: engine returned status %d", e.Method, e.Path, e.Code)
	switch {
	case e.Engine != nil && e.Engine.ErrorMessage != "":
		msg += ": " + e.Engine.ErrorMessage
		if e.Engine.ErrorClass != "" {
			msg += " (" + e.Engine.ErrorClass + ")"
		}
	case e.Engine != nil:
		msg += ": " + e.Engine.Category
	case len(e.Body) > 0:
		msg += ": " + string(e.Body)
	}
	return msg
}

// StatusCode returns the HTTP status of err, or 0 when err is not a
// *StatusError. Uses errors.As to handle wrapped errors.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsNotFound returns true if the engine answered 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
