// Package progress implements the study state tracker: the three id sets a
// library keeps over its questions (ever answered, last answer wrong, still
// unanswered) plus the flashcard failure set.
//
// The sets are not cumulative tallies. For answered/failed membership the
// most recent attempt wins.
package progress

import "github.com/conorfennell/studylib/internal/domain"

// ApplyAttempt records one completed attempt's outcomes in the tracker sets
// and returns the updated library. For every question in the attempt:
//
//   - answered (correct or incorrect): added to AnsweredIDs, removed from
//     AllTimeUnansweredIDs, and added to or removed from AllTimeFailedIDs
//     according to this attempt's outcome;
//   - left blank: added to AllTimeUnansweredIDs only if no attempt has ever
//     answered it.
func ApplyAttempt(lib domain.LibraryData, results []domain.QuestionResult) domain.LibraryData {
	out := lib.Clone()
	for _, r := range results {
		switch r.Outcome {
		case domain.OutcomeCorrect:
			out.AnsweredIDs.Add(r.QuestionID)
			out.AllTimeUnansweredIDs.Remove(r.QuestionID)
			out.AllTimeFailedIDs.Remove(r.QuestionID)
		case domain.OutcomeIncorrect:
			out.AnsweredIDs.Add(r.QuestionID)
			out.AllTimeUnansweredIDs.Remove(r.QuestionID)
			out.AllTimeFailedIDs.Add(r.QuestionID)
		case domain.OutcomeUnanswered:
			if !out.AnsweredIDs.Has(r.QuestionID) {
				out.AllTimeUnansweredIDs.Add(r.QuestionID)
			}
		}
	}
	return out
}

// MarkFlashcard records whether the user failed a flashcard. A later pass
// marking the card as known clears it from the failure set.
func MarkFlashcard(lib domain.LibraryData, cardID string, failed bool) domain.LibraryData {
	out := lib.Clone()
	if failed {
		out.FailedFlashcardIDs.Add(cardID)
	} else {
		out.FailedFlashcardIDs.Remove(cardID)
	}
	return out
}
