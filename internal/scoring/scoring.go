// Package scoring grades completed quiz attempts and applies every resulting
// state change — history append, tracker update, SRS update, challenge
// stamp — as one indivisible transition over a library snapshot.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/studylib/internal/domain"
	"github.com/conorfennell/studylib/internal/progress"
	"github.com/conorfennell/studylib/internal/srs"
	"github.com/conorfennell/studylib/internal/tree"
)

// Challenge tags an attempt as part of a recurring challenge.
type Challenge string

const (
	ChallengeNone    Challenge = ""
	ChallengeWeekly  Challenge = "weekly"
	ChallengeMonthly Challenge = "monthly"
)

// Attempt is one completed run through a subset of a quiz's questions.
// Results preserve attempt order.
type Attempt struct {
	QuizID    string
	Kind      domain.AttemptKind
	Challenge Challenge
	Results   []domain.QuestionResult
}

// Policy computes the score of an attempt. Implementations must clamp the
// result to ≥ 0 and round to 2 decimals.
type Policy interface {
	Score(quiz *domain.Quiz, results []domain.QuestionResult) float64
}

// Standard grades an attempt from automatically checked answers. For
// penalty-enabled quizzes each wrong answer costs 1/(options−1) of a correct
// one.
type Standard struct{}

func (Standard) Score(quiz *domain.Quiz, results []domain.QuestionResult) float64 {
	total := len(results)
	if total == 0 {
		return 0
	}
	byID := questionsByID(quiz)
	correct := 0
	penalty := 0.0
	for _, r := range results {
		switch r.Outcome {
		case domain.OutcomeCorrect:
			correct++
		case domain.OutcomeIncorrect:
			if quiz.PenaltyEnabled {
				if q, ok := byID[r.QuestionID]; ok && len(q.Options) > 1 {
					penalty += 1.0 / float64(len(q.Options)-1)
				}
			}
		}
	}
	return clampRound((float64(correct) - penalty) / float64(total) * 10)
}

// Simulacro grades a manually corrected exam simulation against a fixed
// points-and-penalty table. The penalty for a wrong answer depends on
// whether the question had 3 or 4 options.
type Simulacro struct {
	PointsCorrect       float64
	PenaltyThreeOptions float64
	PenaltyFourOptions  float64
	ProratedTotal       float64
}

func (s Simulacro) Score(quiz *domain.Quiz, results []domain.QuestionResult) float64 {
	total := len(results)
	if total == 0 || s.PointsCorrect == 0 {
		return 0
	}
	byID := questionsByID(quiz)
	raw := 0.0
	for _, r := range results {
		switch r.Outcome {
		case domain.OutcomeCorrect:
			raw += s.PointsCorrect
		case domain.OutcomeIncorrect:
			options := 4
			if q, ok := byID[r.QuestionID]; ok && len(q.Options) > 0 {
				options = len(q.Options)
			}
			if options <= 3 {
				raw -= s.PenaltyThreeOptions
			} else {
				raw -= s.PenaltyFourOptions
			}
		}
	}
	maxRaw := float64(total) * s.PointsCorrect
	return clampRound(raw / maxRaw * s.ProratedTotal)
}

// Hint asks the caller to suggest a mnemonic for a question that has now
// been failed three times.
type Hint struct {
	Question domain.Question
}

// Apply grades the attempt under the given policy and applies all of its
// side effects to the library as a single transition: a ScoreRecord is
// prepended to the quiz's history (capped at domain.MaxScoreHistory), the
// completion count is incremented for full attempts, the tracker sets and
// SRS entries are updated for every question in the attempt, and challenge
// markers are stamped.
//
// At most one mnemonic hint is returned per attempt: the first question, in
// attempt order, whose failure count reaches exactly 3 during this pass.
//
// If the quiz is not in the tree the library is returned unchanged along
// with domain.ErrNotFound.
func Apply(lib domain.LibraryData, att Attempt, policy Policy, srsCfg srs.Config, now time.Time) (domain.LibraryData, domain.ScoreRecord, *Hint, error) {
	item, ok := tree.Find(lib.Items, att.QuizID)
	if !ok {
		return lib, domain.ScoreRecord{}, nil, fmt.Errorf("score quiz %q: %w", att.QuizID, domain.ErrNotFound)
	}
	quiz, ok := item.(*domain.Quiz)
	if !ok {
		return lib, domain.ScoreRecord{}, nil, fmt.Errorf("score quiz %q: %w", att.QuizID, domain.ErrNotFound)
	}

	record := domain.ScoreRecord{
		Score:     policy.Score(quiz, att.Results),
		Total:     len(att.Results),
		Timestamp: now,
		Kind:      att.Kind,
	}
	for _, r := range att.Results {
		switch r.Outcome {
		case domain.OutcomeCorrect:
			record.Correct++
		case domain.OutcomeIncorrect:
			record.Failed++
		case domain.OutcomeUnanswered:
			record.Unanswered++
		}
	}

	out := progress.ApplyAttempt(lib, att.Results)

	items, err := tree.UpdateQuiz(out.Items, att.QuizID, func(q domain.Quiz) domain.Quiz {
		history := make([]domain.ScoreRecord, 0, len(q.ScoreHistory)+1)
		history = append(history, record)
		history = append(history, q.ScoreHistory...)
		if len(history) > domain.MaxScoreHistory {
			history = history[:domain.MaxScoreHistory]
		}
		q.ScoreHistory = history
		if att.Kind == domain.AttemptFull {
			q.CompletionCount++
		}
		return q
	})
	if err != nil {
		return lib, domain.ScoreRecord{}, nil, err
	}
	out.Items = items

	var hint *Hint
	byID := questionsByID(quiz)
	for _, r := range att.Results {
		q, ok := byID[r.QuestionID]
		if !ok || r.Outcome == domain.OutcomeUnanswered {
			continue
		}
		hitThree := srsCfg.Review(out.SrsEntries, q, r.Outcome == domain.OutcomeCorrect, now)
		if hitThree && hint == nil {
			hint = &Hint{Question: q}
		}
	}

	switch att.Challenge {
	case ChallengeWeekly:
		year, week := now.ISOWeek()
		out.LastWeeklyChallenge = fmt.Sprintf("%04d-W%02d", year, week)
	case ChallengeMonthly:
		out.LastMonthlyChallenge = now.Format("2006-01")
	}

	return out, record, hint, nil
}

// GradeAnswers converts raw selected answers into per-question outcomes, in
// quiz question order. Questions missing from answers are unanswered.
func GradeAnswers(quiz *domain.Quiz, answers map[string]string) []domain.QuestionResult {
	results := make([]domain.QuestionResult, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		outcome := domain.OutcomeUnanswered
		if answer, ok := answers[q.ID]; ok {
			if answer == q.CorrectAnswer {
				outcome = domain.OutcomeCorrect
			} else {
				outcome = domain.OutcomeIncorrect
			}
		}
		results = append(results, domain.QuestionResult{QuestionID: q.ID, Outcome: outcome})
	}
	return results
}

func questionsByID(quiz *domain.Quiz) map[string]domain.Question {
	out := make(map[string]domain.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		out[q.ID] = q
	}
	return out
}

// clampRound clamps a score to ≥ 0 and rounds it to 2 decimals.
func clampRound(score float64) float64 {
	if score < 0 {
		score = 0
	}
	return math.Round(score*100) / 100
}
