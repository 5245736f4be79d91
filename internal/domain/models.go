package domain

// TriviaItem is one question as returned by the trivia provider.
type TriviaItem struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Question is a formatted quiz question held in the active session.
// Text and answers pass provider markup through verbatim.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"question"`
	Answers []string `json:"answers"` // shuffled, contains Correct exactly once
	Correct string   `json:"correct"`
}

// SubmissionResult summarizes the outcome of a scored submission.
type SubmissionResult struct {
	Success bool    `json:"success"`
	Score   float64 `json:"score"`
}
