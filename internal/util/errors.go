package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrHuntNotFound       = errors.New("hunt not found")
	ErrHuntNotActive      = errors.New("hunt is not active")
	ErrHuntNoQuestions    = errors.New("hunt has no questions yet")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrMissingField       = errors.New("missing required fields")
)
