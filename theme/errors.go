package theme

import "fmt"

// ParseError reports a theme file that could not be decoded.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

func newParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("theme parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("theme parse error: %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError reports a decoded theme file with an invalid value.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("theme validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("theme validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
