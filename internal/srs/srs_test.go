package srs

import (
	"testing"
	"time"

	"github.com/conorfennell/studylib/internal/domain"
)

var testConfig = Config{
	Intervals:             []int{1, 3, 7, 15},
	GraduationRequirement: 4,
}

func testQuestion(id string) domain.Question {
	return domain.Question{
		ID:            id,
		Text:          "q",
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: "a",
	}
}

func day(n int) time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestReview(t *testing.T) {
	t.Run("correct answer without entry is a no-op", func(t *testing.T) {
		entries := map[string]domain.SrsEntry{}
		if testConfig.Review(entries, testQuestion("q1"), true, day(0)) {
			t.Error("Expected no mnemonic signal")
		}
		if len(entries) != 0 {
			t.Error("Expected no entry created for a correct answer")
		}
	})

	t.Run("first wrong answer creates a level-0 entry", func(t *testing.T) {
		entries := map[string]domain.SrsEntry{}
		testConfig.Review(entries, testQuestion("q1"), false, day(0))

		entry, ok := entries["q1"]
		if !ok {
			t.Fatal("Expected an entry to be created")
		}
		if entry.SrsLevel != 0 {
			t.Errorf("Expected level 0, got %d", entry.SrsLevel)
		}
		if entry.FailureCount != 1 {
			t.Errorf("Expected failure count 1, got %d", entry.FailureCount)
		}
		if want := day(1); !entry.NextReviewDate.Equal(want) {
			t.Errorf("Expected next review %v, got %v", want, entry.NextReviewDate)
		}
	})

	t.Run("correct answers climb the interval table", func(t *testing.T) {
		entries := map[string]domain.SrsEntry{}
		testConfig.Review(entries, testQuestion("q1"), false, day(0))

		testConfig.Review(entries, testQuestion("q1"), true, day(1))
		entry := entries["q1"]
		if entry.SrsLevel != 1 {
			t.Errorf("Expected level 1, got %d", entry.SrsLevel)
		}
		if want := day(1 + 3); !entry.NextReviewDate.Equal(want) {
			t.Errorf("Expected next review %v, got %v", want, entry.NextReviewDate)
		}
	})

	t.Run("wrong answer resets the level and keeps the failure tally", func(t *testing.T) {
		entries := map[string]domain.SrsEntry{}
		testConfig.Review(entries, testQuestion("q1"), false, day(0))
		testConfig.Review(entries, testQuestion("q1"), true, day(1))
		testConfig.Review(entries, testQuestion("q1"), false, day(4))

		entry := entries["q1"]
		if entry.SrsLevel != 0 {
			t.Errorf("Expected level reset to 0, got %d", entry.SrsLevel)
		}
		if entry.FailureCount != 2 {
			t.Errorf("Expected failure count 2, got %d", entry.FailureCount)
		}
		if want := day(4 + 1); !entry.NextReviewDate.Equal(want) {
			t.Errorf("Expected next review %v, got %v", want, entry.NextReviewDate)
		}
	})

	t.Run("third failure signals exactly once", func(t *testing.T) {
		entries := map[string]domain.SrsEntry{}
		signals := 0
		for i := 0; i < 3; i++ {
			if testConfig.Review(entries, testQuestion("q1"), false, day(i)) {
				signals++
			}
		}
		if signals != 1 {
			t.Errorf("Expected exactly one mnemonic signal, got %d", signals)
		}
		entry := entries["q1"]
		if entry.FailureCount != 3 || entry.SrsLevel != 0 {
			t.Errorf("Expected failureCount=3 srsLevel=0, got %d/%d", entry.FailureCount, entry.SrsLevel)
		}

		// A fourth failure moves past 3 and must not signal again.
		if testConfig.Review(entries, testQuestion("q1"), false, day(3)) {
			t.Error("Expected no signal on the fourth failure")
		}
	})

	t.Run("graduation removes the entry", func(t *testing.T) {
		entries := map[string]domain.SrsEntry{}
		testConfig.Review(entries, testQuestion("q1"), false, day(0))
		for i := 0; i < testConfig.GraduationRequirement; i++ {
			testConfig.Review(entries, testQuestion("q1"), true, day(i+1))
		}
		if _, ok := entries["q1"]; ok {
			t.Error("Expected entry removed after graduating")
		}
	})

	t.Run("short interval table graduates early", func(t *testing.T) {
		cfg := Config{Intervals: []int{1, 3}, GraduationRequirement: 10}
		entries := map[string]domain.SrsEntry{}
		cfg.Review(entries, testQuestion("q1"), false, day(0))
		cfg.Review(entries, testQuestion("q1"), true, day(1))
		cfg.Review(entries, testQuestion("q1"), true, day(4))
		if _, ok := entries["q1"]; ok {
			t.Error("Expected graduation at the end of the interval table")
		}
	})
}

func TestDue(t *testing.T) {
	entries := map[string]domain.SrsEntry{
		"a": {Question: testQuestion("a"), NextReviewDate: day(2)},
		"b": {Question: testQuestion("b"), NextReviewDate: day(1)},
		"c": {Question: testQuestion("c"), NextReviewDate: day(9)},
		"d": {Question: testQuestion("d"), NextReviewDate: day(1)},
	}

	due := Due(entries, day(2))
	if len(due) != 3 {
		t.Fatalf("Expected 3 due entries, got %d", len(due))
	}
	got := []string{due[0].Question.ID, due[1].Question.ID, due[2].Question.ID}
	want := []string{"b", "d", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected due order %v, got %v", want, got)
		}
	}
}
