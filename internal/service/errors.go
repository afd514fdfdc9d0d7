package service

import "errors"

var (
	ErrExamNotFound    = errors.New("exam not found")
	ErrAttemptLimit    = errors.New("maximum number of attempts reached")
	ErrExamClosed      = errors.New("exam window is not open")
	ErrUnderEvaluation = errors.New("results are under evaluation")
)
