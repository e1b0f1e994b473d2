package domain

import "encoding/json"

// Invocation is one decoded tool call: the requested tool name and its raw
// argument object. Transient, one per call.
type Invocation struct {
	Tool string
	Args json.RawMessage
}

// ToolError is the wire shape of a failed invocation, carried inside a
// protocol-conformant result envelope.
type ToolError struct {
	Kind         ErrorCode `json:"kind"`
	Message      string    `json:"message"`
	Fields       []string  `json:"fields,omitempty"`
	RetryAfterMS int64     `json:"retry_after_ms,omitempty"`
}

// ToolErrorEnvelope wraps a ToolError for JSON encoding.
type ToolErrorEnvelope struct {
	Error ToolError `json:"error"`
}

// EncodeToolError converts a classified error into its wire shape.
func EncodeToolError(err *Error) ToolErrorEnvelope {
	env := ToolErrorEnvelope{
		Error: ToolError{
			Kind:    err.Code,
			Message: err.Message,
			Fields:  append([]string(nil), err.Fields...),
		},
	}
	if env.Error.Message == "" {
		env.Error.Message = err.Error()
	}
	if err.RetryAfter > 0 {
		env.Error.RetryAfterMS = err.RetryAfter.Milliseconds()
	}
	return env
}
