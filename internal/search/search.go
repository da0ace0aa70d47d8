// Package search implements the read-only search/filter engine over a
// library: scoped, multi-keyword text queries combined with study-status and
// flag filters, plus duplicate detection over normalized question signatures.
package search

import (
	"strings"

	"github.com/conorfennell/studylib/internal/domain"
	"github.com/conorfennell/studylib/internal/tree"
)

// KeywordDelimiter switches a query into multi-keyword AND mode.
const KeywordDelimiter = "::"

// Fields toggles which question fields participate in text matching.
// The zero value matches against all fields.
type Fields struct {
	Question    bool
	Options     bool
	Explanation bool
}

func (f Fields) none() bool { return !f.Question && !f.Options && !f.Explanation }

// Status is the study status a question resolves to, evaluated with the
// precedence failed > srs > unanswered > correct so a question counts
// exactly once.
type Status string

const (
	StatusCorrect    Status = "correct"
	StatusFailed     Status = "failed"
	StatusUnanswered Status = "unanswered"
	StatusSRS        Status = "srs"
)

// Query describes one search over a library.
type Query struct {
	// Text is the free-text query. A "::" delimiter splits it into
	// keywords that must all appear (AND, not phrase match).
	Text string
	// Fields selects which question fields are searched.
	Fields Fields
	// Statuses, when non-empty, keeps only questions whose resolved
	// status is in the set.
	Statuses []Status
	// Flags, when non-empty, keeps only questions whose flag is in the set.
	Flags []domain.Flag
	// QuizIDs scopes the search to the given quizzes. Empty means the
	// whole library.
	QuizIDs []string
}

// Result is one matching question with its owning quiz.
type Result struct {
	QuizID    string
	QuizTitle string
	Question  domain.Question
	Status    Status
}

// StatusOf resolves the study status of a question id within the library.
func StatusOf(lib domain.LibraryData, questionID string) Status {
	switch {
	case lib.AllTimeFailedIDs.Has(questionID):
		return StatusFailed
	case hasSrsEntry(lib, questionID):
		return StatusSRS
	case !lib.AnsweredIDs.Has(questionID):
		return StatusUnanswered
	default:
		return StatusCorrect
	}
}

func hasSrsEntry(lib domain.LibraryData, questionID string) bool {
	_, ok := lib.SrsEntries[questionID]
	return ok
}

// Run executes the query. Results follow the pre-order position of the
// owning quiz within the scoped tree traversal; they are never
// relevance-ranked.
func Run(lib domain.LibraryData, q Query) []Result {
	keywords := parseKeywords(q.Text)
	statuses := statusSet(q.Statuses)
	flags := flagSet(q.Flags)
	scope := scopeSet(q.QuizIDs)

	var results []Result
	for _, quiz := range tree.Quizzes(lib.Items) {
		if scope != nil && !scope.Has(quiz.ID) {
			continue
		}
		for _, question := range quiz.Questions {
			if !matchText(question, q.Fields, keywords) {
				continue
			}
			if flags != nil {
				if _, ok := flags[question.Flag]; !ok {
					continue
				}
			}
			status := StatusOf(lib, question.ID)
			if statuses != nil {
				if _, ok := statuses[status]; !ok {
					continue
				}
			}
			results = append(results, Result{
				QuizID:    quiz.ID,
				QuizTitle: quiz.Title,
				Question:  question,
				Status:    status,
			})
		}
	}
	return results
}

// DuplicateGroup is a set of questions sharing one normalized signature.
type DuplicateGroup struct {
	Signature string
	Results   []Result
}

// Duplicates groups the scoped questions by normalized signature and reports
// only groups with more than one member, ordered by first occurrence.
func Duplicates(lib domain.LibraryData, quizIDs []string) []DuplicateGroup {
	scope := scopeSet(quizIDs)

	bysig := map[string][]Result{}
	var order []string
	for _, quiz := range tree.Quizzes(lib.Items) {
		if scope != nil && !scope.Has(quiz.ID) {
			continue
		}
		for _, question := range quiz.Questions {
			sig := Signature(question)
			if _, seen := bysig[sig]; !seen {
				order = append(order, sig)
			}
			bysig[sig] = append(bysig[sig], Result{
				QuizID:    quiz.ID,
				QuizTitle: quiz.Title,
				Question:  question,
				Status:    StatusOf(lib, question.ID),
			})
		}
	}

	var groups []DuplicateGroup
	for _, sig := range order {
		if members := bysig[sig]; len(members) > 1 {
			groups = append(groups, DuplicateGroup{Signature: sig, Results: members})
		}
	}
	return groups
}

// parseKeywords splits the query text into lowercased keywords. Without the
// "::" delimiter the whole trimmed text is a single keyword.
func parseKeywords(text string) []string {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return nil
	}
	if !strings.Contains(text, KeywordDelimiter) {
		return []string{text}
	}
	var keywords []string
	for _, part := range strings.Split(text, KeywordDelimiter) {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}

func matchText(q domain.Question, fields Fields, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(searchableText(q, fields))
	for _, kw := range keywords {
		if !strings.Contains(haystack, kw) {
			return false
		}
	}
	return true
}

func searchableText(q domain.Question, fields Fields) string {
	all := fields.none()
	var parts []string
	if all || fields.Question {
		parts = append(parts, q.Text)
	}
	if all || fields.Options {
		parts = append(parts, q.Options...)
	}
	if all || fields.Explanation {
		parts = append(parts, q.Explanation)
	}
	return strings.Join(parts, "\n")
}

func statusSet(statuses []Status) map[Status]struct{} {
	if len(statuses) == 0 {
		return nil
	}
	out := make(map[Status]struct{}, len(statuses))
	for _, s := range statuses {
		out[s] = struct{}{}
	}
	return out
}

func flagSet(flags []domain.Flag) map[domain.Flag]struct{} {
	if len(flags) == 0 {
		return nil
	}
	out := make(map[domain.Flag]struct{}, len(flags))
	for _, f := range flags {
		out[f] = struct{}{}
	}
	return out
}

func scopeSet(quizIDs []string) domain.IDSet {
	if len(quizIDs) == 0 {
		return nil
	}
	return domain.NewIDSet(quizIDs...)
}
