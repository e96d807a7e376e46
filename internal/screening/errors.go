package screening

import (
	"errors"
	"fmt"
)

// Domain Errors
var (
	ErrInvalidSelection      = errors.New("at least one known substance must be selected")
	ErrQuestionNotVisible    = errors.New("question is not in the visible set")
	ErrIncompleteSession     = errors.New("session has unanswered visible questions")
	ErrSubmissionFailed      = errors.New("submission failed")
	ErrUnknownQuestion       = errors.New("question does not belong to this session")
	ErrInvalidOption         = errors.New("option is not offered by this question")
	ErrUnsupportedInstrument = errors.New("unsupported instrument type")
	ErrDuplicateQuestion     = errors.New("duplicate question in session plan")
	ErrNoQuestions           = errors.New("instrument has no questions")
)

// IncompleteError lists the visible questions still waiting for an answer.
// It matches ErrIncompleteSession under errors.Is.
type IncompleteError struct {
	Pending []UID
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: %d pending, first %s", ErrIncompleteSession, len(e.Pending), e.First())
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncompleteSession
}

// First returns the question the caller should navigate to.
func (e *IncompleteError) First() UID {
	if len(e.Pending) == 0 {
		return ""
	}
	return e.Pending[0]
}
