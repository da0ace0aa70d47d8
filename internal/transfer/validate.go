package transfer

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/studylib/internal/domain"
	"github.com/conorfennell/studylib/internal/tree"
)

var validate = validator.New()

// Validate checks an interchange document before any of it is merged:
// required library fields, item id uniqueness across the whole forest, and
// per-question shape (2–5 options, correct answer among them). Any failure
// wraps domain.ErrInvalidImport and the import is aborted wholesale.
func Validate(lib domain.LibraryData) error {
	if lib.ID == "" {
		return fmt.Errorf("%w: missing library id", domain.ErrInvalidImport)
	}
	if lib.Name == "" {
		return fmt.Errorf("%w: missing library name", domain.ErrInvalidImport)
	}

	seen := domain.IDSet{}
	for _, item := range tree.Flatten(lib.Items) {
		id := item.ItemID()
		if id == "" {
			return fmt.Errorf("%w: item with empty id", domain.ErrInvalidImport)
		}
		if seen.Has(id) {
			return fmt.Errorf("%w: duplicate item id %q", domain.ErrInvalidImport, id)
		}
		seen.Add(id)

		quiz, ok := item.(*domain.Quiz)
		if !ok {
			continue
		}
		for _, q := range quiz.Questions {
			if err := validate.Struct(q); err != nil {
				return fmt.Errorf("%w: question %q: %v", domain.ErrInvalidImport, q.ID, err)
			}
			if !containsOption(q.Options, q.CorrectAnswer) {
				return fmt.Errorf("%w: question %q: correct answer is not one of its options", domain.ErrInvalidImport, q.ID)
			}
		}
	}
	return nil
}

func containsOption(options []string, answer string) bool {
	for _, opt := range options {
		if opt == answer {
			return true
		}
	}
	return false
}
