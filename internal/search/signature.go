package search

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/conorfennell/studylib/internal/domain"
)

// Normalize builds the duplicate-detection form of a question: lowercased,
// trimmed question text followed by the sorted, lowercased option texts.
// Option order does not affect the result.
func Normalize(q domain.Question) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	parts := make([]string, 0, len(q.Options)+1)
	parts = append(parts, normalizePart(q.Text))

	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = normalizePart(opt)
	}
	sort.Strings(options)
	parts = append(parts, options...)

	// Joined with newlines so adjacent fields cannot run together and
	// collide with a differently split question.
	return strings.Join(parts, "\n")
}

// Signature returns the sha256 hex digest of the normalized question, used
// to group duplicates.
func Signature(q domain.Question) string {
	sum := sha256.Sum256([]byte(Normalize(q)))
	return fmt.Sprintf("%x", sum)
}
