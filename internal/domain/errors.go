package domain

import "errors"

// Error kinds. Every error returned by the engine unwraps to one of these.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation error")
	ErrGradingUnavailable = errors.New("grading unavailable")
)

// Error is a classified error carrying a caller-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// NewValidationError builds an ad-hoc ErrValidation error.
func NewValidationError(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = &Error{Kind: ErrNotFound, Msg: "quiz not found"}
	// ErrQuestionNotFound indicates the question does not exist or belongs to another quiz.
	ErrQuestionNotFound = &Error{Kind: ErrNotFound, Msg: "question not found"}
	// ErrAttemptNotFound is returned when the student has no attempt for the quiz.
	ErrAttemptNotFound = &Error{Kind: ErrNotFound, Msg: "attempt not found"}

	// ErrNotOwner is returned when a caller mutates a quiz it does not own.
	ErrNotOwner = &Error{Kind: ErrForbidden, Msg: "only the quiz owner or an admin may do this"}
	// ErrRoleNotAllowed is returned when the caller's role cannot use the operation.
	ErrRoleNotAllowed = &Error{Kind: ErrForbidden, Msg: "role not allowed"}
	// ErrQuizNotAvailable is returned when submitting to an unpublished quiz.
	ErrQuizNotAvailable = &Error{Kind: ErrForbidden, Msg: "quiz not available"}
	// ErrDeadlinePassed is returned when submitting after the quiz deadline.
	ErrDeadlinePassed = &Error{Kind: ErrForbidden, Msg: "deadline passed"}
	// ErrAlreadyAttempted is returned when the student already holds an attempt for the quiz.
	ErrAlreadyAttempted = &Error{Kind: ErrForbidden, Msg: "already attempted"}
	// ErrQuizFrozen is returned when editing the questions of a published quiz.
	ErrQuizFrozen = &Error{Kind: ErrForbidden, Msg: "quiz is published"}

	// ErrOracleFailed wraps any failure of the grading oracle.
	ErrOracleFailed = &Error{Kind: ErrGradingUnavailable, Msg: "grading service unavailable"}
)
