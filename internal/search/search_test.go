package search

import (
	"testing"
	"time"

	"github.com/conorfennell/studylib/internal/domain"
)

func q(id, text, explanation string, flag domain.Flag, options ...string) domain.Question {
	if len(options) == 0 {
		options = []string{"alpha", "beta", "gamma", "delta"}
	}
	return domain.Question{
		ID:            id,
		Text:          text,
		Options:       options,
		CorrectAnswer: options[0],
		Explanation:   explanation,
		Flag:          flag,
	}
}

func searchLib() domain.LibraryData {
	lib := domain.NewLibraryData("lib", "Lib", time.Now())
	lib.Items = domain.Items{
		&domain.Folder{ID: "f1", Name: "Folder", Children: domain.Items{
			&domain.Quiz{ID: "quiz1", Title: "First", Questions: []domain.Question{
				q("q1", "The Alpha particle and the beta decay", "", domain.FlagBuena),
				q("q2", "Plain question about gamma rays", "mentions alpha in the explanation", domain.FlagNone),
			}},
		}},
		&domain.Quiz{ID: "quiz2", Title: "Second", Questions: []domain.Question{
			q("q3", "Unrelated question", "", domain.FlagRevisar),
			q("q4", "Another about beta", "", domain.FlagNone),
		}},
	}
	return lib
}

func resultIDs(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Question.ID
	}
	return out
}

func assertIDs(t *testing.T, got []Result, want ...string) {
	t.Helper()
	gotIDs := resultIDs(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("Expected results %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("Expected results %v, got %v", want, gotIDs)
		}
	}
}

func TestRunTextQueries(t *testing.T) {
	lib := searchLib()

	t.Run("single keyword is a case-insensitive substring match", func(t *testing.T) {
		got := Run(lib, Query{Text: "ALPHA", Fields: Fields{Question: true}})
		assertIDs(t, got, "q1")
	})

	t.Run("multi-keyword mode requires every keyword", func(t *testing.T) {
		got := Run(lib, Query{Text: "alpha::beta", Fields: Fields{Question: true}})
		assertIDs(t, got, "q1")
	})

	t.Run("keyword order does not matter", func(t *testing.T) {
		got := Run(lib, Query{Text: "beta::alpha", Fields: Fields{Question: true}})
		assertIDs(t, got, "q1")
	})

	t.Run("disabled fields are ignored", func(t *testing.T) {
		got := Run(lib, Query{Text: "explanation", Fields: Fields{Question: true}})
		assertIDs(t, got)
	})

	t.Run("explanation field toggle", func(t *testing.T) {
		got := Run(lib, Query{Text: "alpha", Fields: Fields{Explanation: true}})
		assertIDs(t, got, "q2")
	})

	t.Run("empty query matches everything in scope", func(t *testing.T) {
		got := Run(lib, Query{QuizIDs: []string{"quiz2"}})
		assertIDs(t, got, "q3", "q4")
	})

	t.Run("results follow pre-order quiz position", func(t *testing.T) {
		got := Run(lib, Query{Text: "beta", Fields: Fields{Question: true}})
		assertIDs(t, got, "q1", "q4")
	})
}

func TestRunStatusFilter(t *testing.T) {
	lib := searchLib()
	lib.AnsweredIDs = domain.NewIDSet("q1", "q2")
	lib.AllTimeFailedIDs = domain.NewIDSet("q2")
	lib.SrsEntries["q1"] = domain.SrsEntry{Question: q("q1", "", "", domain.FlagNone), FailureCount: 1}

	testCases := []struct {
		name     string
		statuses []Status
		want     []string
	}{
		{"failed wins over srs", []Status{StatusFailed}, []string{"q2"}},
		{"srs wins over correct", []Status{StatusSRS}, []string{"q1"}},
		{"unanswered means never answered", []Status{StatusUnanswered}, []string{"q3", "q4"}},
		{"correct excludes failed and srs", []Status{StatusCorrect}, nil},
		{"several statuses OR together", []Status{StatusFailed, StatusSRS}, []string{"q1", "q2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Run(lib, Query{Statuses: tc.statuses})
			assertIDs(t, got, tc.want...)
		})
	}
}

func TestRunFlagFilter(t *testing.T) {
	lib := searchLib()
	got := Run(lib, Query{Flags: []domain.Flag{domain.FlagBuena, domain.FlagRevisar}})
	assertIDs(t, got, "q1", "q3")
}

func TestDuplicates(t *testing.T) {
	lib := domain.NewLibraryData("lib", "Lib", time.Now())
	lib.Items = domain.Items{
		&domain.Quiz{ID: "quiz1", Title: "One", Questions: []domain.Question{
			q("q1", "What is Go?", "", domain.FlagNone, "a language", "a game", "a fish"),
			q("q2", "  what is GO? ", "", domain.FlagNone, "A Game", "a fish", "A Language"),
			q("q3", "What is Go?", "", domain.FlagNone, "a language", "a game", "a bird"),
		}},
	}

	groups := Duplicates(lib, nil)
	if len(groups) != 1 {
		t.Fatalf("Expected one duplicate group, got %d", len(groups))
	}
	assertIDs(t, groups[0].Results, "q1", "q2")
}

func TestNormalize(t *testing.T) {
	a := q("a", "  What is HTMX? \r\n", "", domain.FlagNone, "a library", "a framework")
	b := q("b", "what is htmx?", "", domain.FlagNone, "A Framework", "A Library")
	if Normalize(a) != Normalize(b) {
		t.Errorf("Expected identical normalized forms, got %q and %q", Normalize(a), Normalize(b))
	}
	if Signature(a) != Signature(b) {
		t.Error("Expected identical signatures after normalization")
	}
}
