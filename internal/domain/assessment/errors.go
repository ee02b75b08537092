package assessment

import "errors"

// Sentinel kinds for assessment errors.
var (
	ErrQuestionsNotFound = errors.New("questions file not found")
	ErrInvalidQuestions  = errors.New("invalid questions")
	ErrInputClosed       = errors.New("input closed before the assessment finished")
)
