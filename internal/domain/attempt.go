package domain

// Outcome is the graded result of one question within a completed attempt.
type Outcome string

const (
	OutcomeCorrect    Outcome = "correct"
	OutcomeIncorrect  Outcome = "incorrect"
	OutcomeUnanswered Outcome = "unanswered"
)

// QuestionResult pairs a question with its outcome in one attempt.
// A slice of these preserves attempt order.
type QuestionResult struct {
	QuestionID string  `json:"questionId"`
	Outcome    Outcome `json:"outcome"`
}
