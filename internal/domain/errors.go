package domain

import "errors"

var (
	// ErrUpstreamUnavailable is returned when the trivia provider is unreachable
	// or times out.
	ErrUpstreamUnavailable = errors.New("trivia provider unavailable")
	// ErrUpstreamRejected is returned when the provider answered but reported a
	// non-success response code.
	ErrUpstreamRejected = errors.New("trivia provider reported failure")
	// ErrWalletRequired is returned when a submission carries no wallet address.
	ErrWalletRequired = errors.New("wallet address required")
	// ErrIncompleteSubmission is returned when a submission does not answer all questions.
	ErrIncompleteSubmission = errors.New("incomplete submission")
	// ErrRateLimited is returned when a wallet already passed within the attempt window.
	ErrRateLimited = errors.New("attempt window not elapsed")
	// ErrNoActiveQuiz is returned when a submission arrives with no full question set in session.
	ErrNoActiveQuiz = errors.New("no active quiz")
)
