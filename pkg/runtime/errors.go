package runtime

import "fmt"

// Stable error codes surfaced by the core. Structured consumers key on the
// code; humans read the localized message.
const (
	CodeUndefinedVar       = "undefined-var"
	CodeNotAFunction       = "not-a-function"
	CodeArityMismatch      = "arity-mismatch"
	CodeInvalidMapKey      = "invalid-map-key"
	CodeTypeMismatch       = "type-mismatch"
	CodeNoMatchingPattern  = "no-matching-pattern"
	CodeRestOnNonSequence  = "rest-on-non-sequence"
	CodeRecurNotTail       = "recur-not-tail"
	CodeUnquoteOutside     = "unquote-outside-quasiquote"
	CodeBadSpliceTarget    = "bad-splice-target"
	CodeChannelClosed      = "channel-closed"
	CodePromiseFailed      = "promise-failed"
	CodeModuleNotFound     = "module-not-found"
	CodeNotExported        = "not-exported"
	CodeCircularDependency = "circular-dependency"
	CodeUseBeforeModule    = "use-before-module"
	CodeKeyMissing         = "key-missing"
	CodeIOFailure          = "io-failure"
	CodeParse              = "parse-error"
)

// QiError is the error payload every evaluator operation can surface: a
// stable code plus a localized message.
type QiError struct {
	Code    string
	Message string
}

func (e *QiError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a QiError.
func NewError(code, message string) *QiError {
	return &QiError{Code: code, Message: message}
}

// AsErrorValue reifies a Go error into the first-class Error value used by
// railway operators and promise payloads.
func AsErrorValue(err error) ErrorValue {
	if qe, ok := err.(*QiError); ok {
		return ErrorValue{Code: qe.Code, Message: qe.Message}
	}
	return ErrorValue{Message: err.Error()}
}

// ErrorValueToError converts a first-class Error value back into a Go error.
func ErrorValueToError(v ErrorValue) error {
	return &QiError{Code: v.Code, Message: v.Message}
}
