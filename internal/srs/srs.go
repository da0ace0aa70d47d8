// Package srs implements the per-question spaced-repetition scheduler.
//
// A question moves through New (no entry) → level 0..K → graduated (entry
// removed again). An entry is created on the first wrong answer; each correct
// answer raises the level and pushes the next review date out along the
// configured interval table; reaching the end of the table or the graduation
// requirement removes the entry.
package srs

import (
	"sort"
	"time"

	"github.com/conorfennell/studylib/internal/domain"
)

// Config holds the externally configured scheduling table.
type Config struct {
	// Intervals holds day offsets indexed by level.
	Intervals []int
	// GraduationRequirement caps the level a question can reach before it
	// leaves the SRS pool.
	GraduationRequirement int
}

// intervalAt returns the day offset for a level, tolerating an empty table.
func (c Config) intervalAt(level int) int {
	if len(c.Intervals) == 0 {
		return 0
	}
	if level >= len(c.Intervals) {
		level = len(c.Intervals) - 1
	}
	return c.Intervals[level]
}

// Review applies one graded answer for the question to the entry set,
// mutating entries in place. The returned flag reports whether this review
// brought the question's failure count to exactly 3 — the signal used to
// suggest writing a mnemonic.
func (c Config) Review(entries map[string]domain.SrsEntry, q domain.Question, correct bool, today time.Time) bool {
	entry, exists := entries[q.ID]

	if correct {
		if !exists {
			// Never in the SRS pool; nothing to advance.
			return false
		}
		entry.SrsLevel++
		if entry.SrsLevel >= len(c.Intervals) || entry.SrsLevel >= c.GraduationRequirement {
			delete(entries, q.ID) // graduated
			return false
		}
		entry.NextReviewDate = addDays(today, c.intervalAt(entry.SrsLevel))
		entries[q.ID] = entry
		return false
	}

	if !exists {
		entries[q.ID] = domain.SrsEntry{
			Question:       q,
			SrsLevel:       0,
			FailureCount:   1,
			NextReviewDate: addDays(today, c.intervalAt(0)),
		}
		return false
	}

	entry.Question = q
	entry.SrsLevel = 0
	entry.FailureCount++
	entry.NextReviewDate = addDays(today, c.intervalAt(0))
	entries[q.ID] = entry
	return entry.FailureCount == 3
}

// Due returns the entries whose next review date is on or before today,
// ordered by next review date (oldest first), ties broken by question id.
func Due(entries map[string]domain.SrsEntry, today time.Time) []domain.SrsEntry {
	var out []domain.SrsEntry
	for _, e := range entries {
		if !e.NextReviewDate.After(today) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextReviewDate.Equal(out[j].NextReviewDate) {
			return out[i].NextReviewDate.Before(out[j].NextReviewDate)
		}
		return out[i].Question.ID < out[j].Question.ID
	})
	return out
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}
