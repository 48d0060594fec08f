package messages

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func validationError(message string, details map[string]any) *Error {
	return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: message, Details: details}
}

func notFoundError(id string) *Error {
	return &Error{
		Status:  404,
		Code:    "MESSAGE_NOT_FOUND",
		Message: "message not found",
		Details: map[string]any{"id": id},
	}
}

func gatewayError(cause error) *Error {
	return &Error{Status: 502, Code: "GATEWAY_ERROR", Message: cause.Error(), cause: cause}
}
