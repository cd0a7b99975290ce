package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TransportError means the service could not be reached.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage returns text suitable for showing next to the form.
func (e *TransportError) UserMessage() string {
	return "Could not reach the registration server, check your connection and try again"
}

// StatusError means the service answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (status %d)", e.StatusCode)
}

// UserMessage returns the server's explanation, or a generic one when the
// server sent none.
func (e *StatusError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch {
	case e.StatusCode == http.StatusConflict:
		return "An account with these details already exists"
	case e.StatusCode >= 500:
		return "The registration server had a problem, please try again later"
	default:
		return "The server rejected the registration"
	}
}

// FieldErrors returns per-field rejections keyed by field name.
func (e *StatusError) FieldErrors() map[string]string {
	return e.Fields
}

// errorBody covers the error shapes the service is known to send:
//
//	{"message": "..."}
//	{"error": "..."}
//	{"errors": [{"field": "email", "message": "..."}]}
//	{"errors": [{"path": "email", "msg": "..."}]}
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  []struct {
		Field   string `json:"field"`
		Path    string `json:"path"`
		Param   string `json:"param"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	} `json:"errors"`
}

func newStatusError(status int, body []byte) *StatusError {
	se := &StatusError{StatusCode: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		se.Message = strings.TrimSpace(string(body))
		if len(se.Message) > 200 || strings.HasPrefix(se.Message, "<") {
			se.Message = ""
		}
		return se
	}

	se.Message = eb.Message
	if se.Message == "" {
		se.Message = eb.Error
	}

	for _, fe := range eb.Errors {
		name := firstNonEmpty(fe.Field, fe.Path, fe.Param)
		msg := firstNonEmpty(fe.Message, fe.Msg)
		if name == "" || msg == "" {
			continue
		}
		if se.Fields == nil {
			se.Fields = make(map[string]string)
		}
		if _, seen := se.Fields[name]; !seen {
			se.Fields[name] = msg
		}
	}

	if se.Message == "" && len(eb.Errors) > 0 {
		se.Message = firstNonEmpty(eb.Errors[0].Message, eb.Errors[0].Msg)
	}

	return se
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
