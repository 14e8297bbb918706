package lexidex

import lexerrors "github.com/aman-cerp/lexidex/internal/errors"

// Error is a lexidex failure: a stable Code ("INVALID_ARGUMENT",
// "INDEX_NOT_FOUND", etc., per spec §7), a human Message, and whether the
// caller may usefully retry the same call.
type Error struct {
	Code      string
	Message   string
	Retryable bool
	cause     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	le, ok := err.(*lexerrors.LexError)
	if !ok {
		return err
	}
	return &Error{Code: le.Code, Message: le.Message, Retryable: le.Retryable, cause: err}
}

func isIndexNotFound(err error) bool {
	return lexerrors.GetCode(err) == lexerrors.CodeIndexNotFound
}
