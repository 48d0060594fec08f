package auth

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string

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

// Unknown emails and wrong passwords produce the same error.
func invalidCredentialsError() *Error {
	return &Error{Status: 401, Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
}

func unauthorizedError() *Error {
	return &Error{Status: 401, Code: "UNAUTHORIZED", Message: "session is missing, expired or signed out"}
}

func gatewayError(cause error) *Error {
	return &Error{Status: 502, Code: "GATEWAY_ERROR", Message: cause.Error(), cause: cause}
}
