// Package tree implements the content tree store: structural operations over
// the folder → quiz/deck → question hierarchy of a library.
//
// Every operation is a pure function: it returns a rebuilt tree and never
// mutates its input. Untouched subtrees are shared between input and output.
package tree

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/conorfennell/studylib/internal/domain"
)

// Insert prepends newItems at the root (targetFolderID == "") or inside the
// folder with the given id. If the target folder is absent the tree is
// returned unchanged along with domain.ErrNotFound.
func Insert(items domain.Items, newItems []domain.LibraryItem, targetFolderID string) (domain.Items, error) {
	if len(newItems) == 0 {
		return items, nil
	}
	if targetFolderID == "" {
		out := make(domain.Items, 0, len(newItems)+len(items))
		out = append(out, newItems...)
		return append(out, items...), nil
	}
	out, ok := insertInto(items, newItems, targetFolderID)
	if !ok {
		return items, fmt.Errorf("insert into folder %q: %w", targetFolderID, domain.ErrNotFound)
	}
	return out, nil
}

func insertInto(items domain.Items, newItems []domain.LibraryItem, targetFolderID string) (domain.Items, bool) {
	for i, item := range items {
		f, ok := item.(*domain.Folder)
		if !ok {
			continue
		}
		if f.ID == targetFolderID {
			cp := *f
			children := make(domain.Items, 0, len(newItems)+len(f.Children))
			children = append(children, newItems...)
			cp.Children = append(children, f.Children...)
			return replaceAt(items, i, &cp), true
		}
		if updated, found := insertInto(f.Children, newItems, targetFolderID); found {
			cp := *f
			cp.Children = updated
			return replaceAt(items, i, &cp), true
		}
	}
	return nil, false
}

func replaceAt(items domain.Items, i int, item domain.LibraryItem) domain.Items {
	out := append(domain.Items(nil), items...)
	out[i] = item
	return out
}

// Move extracts every item whose id is in ids (at any depth, each extracted
// item keeping its own subtree) and re-inserts the extracted sequence at the
// target, preserving extraction (pre-order) order.
//
// The move is rejected with domain.ErrCycle if the target folder is one of
// the moved items or a descendant of one; it is a no-op with
// domain.ErrNotFound if the target folder does not exist. Either way the
// input tree is returned unchanged.
func Move(items domain.Items, ids domain.IDSet, targetFolderID string) (domain.Items, error) {
	remaining, extracted := extract(items, ids)
	if len(extracted) == 0 {
		return items, nil
	}
	if targetFolderID != "" {
		for _, moved := range Flatten(extracted) {
			if moved.ItemID() == targetFolderID {
				return items, fmt.Errorf("move into %q: %w", targetFolderID, domain.ErrCycle)
			}
		}
		if _, ok := findFolder(remaining, targetFolderID); !ok {
			return items, fmt.Errorf("move into folder %q: %w", targetFolderID, domain.ErrNotFound)
		}
	}
	return Insert(remaining, extracted, targetFolderID)
}

// extract removes every item whose id is in ids, returning the remaining
// tree and the extracted items in pre-order.
func extract(items domain.Items, ids domain.IDSet) (domain.Items, []domain.LibraryItem) {
	remaining := make(domain.Items, 0, len(items))
	var extracted []domain.LibraryItem
	for _, item := range items {
		if ids.Has(item.ItemID()) {
			extracted = append(extracted, item)
			continue
		}
		if f, ok := item.(*domain.Folder); ok {
			rem, ex := extract(f.Children, ids)
			if len(ex) > 0 {
				cp := *f
				cp.Children = rem
				remaining = append(remaining, &cp)
				extracted = append(extracted, ex...)
				continue
			}
		}
		remaining = append(remaining, item)
	}
	return remaining, extracted
}

// Delete recursively filters the tree, removing every item whose id is in
// ids. Sibling order among survivors is unchanged.
func Delete(items domain.Items, ids domain.IDSet) domain.Items {
	out := make(domain.Items, 0, len(items))
	for _, item := range items {
		if ids.Has(item.ItemID()) {
			continue
		}
		if f, ok := item.(*domain.Folder); ok {
			cp := *f
			cp.Children = Delete(f.Children, ids)
			out = append(out, &cp)
			continue
		}
		out = append(out, item)
	}
	return out
}

// DeleteFromLibrary removes the items from the library's tree and cascades:
// SRS entries whose question no longer exists anywhere in the tree are
// dropped, as are open-folder markers for deleted folders.
func DeleteFromLibrary(lib domain.LibraryData, ids domain.IDSet) domain.LibraryData {
	out := lib.Clone()
	out.Items = Delete(lib.Items, ids)

	live := QuestionIDs(out.Items)
	for qid := range out.SrsEntries {
		if !live.Has(qid) {
			delete(out.SrsEntries, qid)
		}
	}
	for fid := range out.OpenFolderIDs {
		if _, ok := findFolder(out.Items, fid); !ok {
			out.OpenFolderIDs.Remove(fid)
		}
	}
	return out
}

// Rename sets the display name of the item with the given id. Absent ids
// leave the tree unchanged and return domain.ErrNotFound.
func Rename(items domain.Items, id, newName string) (domain.Items, error) {
	out, ok := rename(items, id, newName)
	if !ok {
		return items, fmt.Errorf("rename %q: %w", id, domain.ErrNotFound)
	}
	return out, nil
}

func rename(items domain.Items, id, newName string) (domain.Items, bool) {
	for i, item := range items {
		if item.ItemID() == id {
			switch v := item.(type) {
			case *domain.Folder:
				cp := *v
				cp.Name = newName
				return replaceAt(items, i, &cp), true
			case *domain.Quiz:
				cp := *v
				cp.Title = newName
				return replaceAt(items, i, &cp), true
			case *domain.Deck:
				cp := *v
				cp.Title = newName
				return replaceAt(items, i, &cp), true
			}
		}
		if f, ok := item.(*domain.Folder); ok {
			if updated, found := rename(f.Children, id, newName); found {
				cp := *f
				cp.Children = updated
				return replaceAt(items, i, &cp), true
			}
		}
	}
	return nil, false
}

// ToggleFolderOpen flips the folder's open/closed display state, which is
// persisted in LibraryData.OpenFolderIDs rather than on the tree itself.
// Unknown folder ids leave the library unchanged and return domain.ErrNotFound.
func ToggleFolderOpen(lib domain.LibraryData, folderID string) (domain.LibraryData, error) {
	if _, ok := findFolder(lib.Items, folderID); !ok {
		return lib, fmt.Errorf("toggle folder %q: %w", folderID, domain.ErrNotFound)
	}
	out := lib.Clone()
	if out.OpenFolderIDs.Has(folderID) {
		out.OpenFolderIDs.Remove(folderID)
	} else {
		out.OpenFolderIDs.Add(folderID)
	}
	return out, nil
}

// Find returns the first item with the given id in depth-first order.
func Find(items domain.Items, id string) (domain.LibraryItem, bool) {
	for _, item := range items {
		if item.ItemID() == id {
			return item, true
		}
		if f, ok := item.(*domain.Folder); ok {
			if found, ok := Find(f.Children, id); ok {
				return found, true
			}
		}
	}
	return nil, false
}

func findFolder(items domain.Items, id string) (*domain.Folder, bool) {
	item, ok := Find(items, id)
	if !ok {
		return nil, false
	}
	f, ok := item.(*domain.Folder)
	return f, ok
}

// Flatten returns the pre-order traversal of the tree as a flat sequence.
func Flatten(items []domain.LibraryItem) []domain.LibraryItem {
	var out []domain.LibraryItem
	for _, item := range items {
		out = append(out, item)
		if f, ok := item.(*domain.Folder); ok {
			out = append(out, Flatten(f.Children)...)
		}
	}
	return out
}

// Quizzes returns every quiz in the tree in pre-order.
func Quizzes(items domain.Items) []*domain.Quiz {
	var out []*domain.Quiz
	for _, item := range Flatten(items) {
		if q, ok := item.(*domain.Quiz); ok {
			out = append(out, q)
		}
	}
	return out
}

// QuestionIDs returns the ids of every question in the tree.
func QuestionIDs(items domain.Items) domain.IDSet {
	out := domain.IDSet{}
	for _, q := range Quizzes(items) {
		for _, question := range q.Questions {
			out.Add(question.ID)
		}
	}
	return out
}

// UpdateQuiz rebuilds the tree with fn applied to the quiz with the given
// id. Absent ids leave the tree unchanged and return domain.ErrNotFound.
func UpdateQuiz(items domain.Items, quizID string, fn func(domain.Quiz) domain.Quiz) (domain.Items, error) {
	out, ok := updateQuiz(items, quizID, fn)
	if !ok {
		return items, fmt.Errorf("update quiz %q: %w", quizID, domain.ErrNotFound)
	}
	return out, nil
}

func updateQuiz(items domain.Items, quizID string, fn func(domain.Quiz) domain.Quiz) (domain.Items, bool) {
	for i, item := range items {
		switch v := item.(type) {
		case *domain.Quiz:
			if v.ID == quizID {
				cp := fn(*v)
				return replaceAt(items, i, &cp), true
			}
		case *domain.Folder:
			if updated, found := updateQuiz(v.Children, quizID, fn); found {
				cp := *v
				cp.Children = updated
				return replaceAt(items, i, &cp), true
			}
		}
	}
	return nil, false
}

// Sort orders the tree by display name with a locale-aware, case-insensitive,
// numeric-aware comparison, applied recursively so every folder's children
// are independently sorted. The sort is stable across repeated calls.
func Sort(items domain.Items) domain.Items {
	c := collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
	return sortWith(items, c)
}

func sortWith(items domain.Items, c *collate.Collator) domain.Items {
	out := append(domain.Items(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].DisplayName(), out[j].DisplayName()) < 0
	})
	for i, item := range out {
		if f, ok := item.(*domain.Folder); ok {
			cp := *f
			cp.Children = sortWith(f.Children, c)
			out[i] = &cp
		}
	}
	return out
}

// SetQuestionFlag assigns (or clears, with domain.FlagNone) the flag on every
// question whose id is in qids, across the whole tree.
func SetQuestionFlag(items domain.Items, qids domain.IDSet, flag domain.Flag) domain.Items {
	out := make(domain.Items, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case *domain.Folder:
			cp := *v
			cp.Children = SetQuestionFlag(v.Children, qids, flag)
			out = append(out, &cp)
		case *domain.Quiz:
			touched := false
			questions := append([]domain.Question(nil), v.Questions...)
			for i, q := range questions {
				if qids.Has(q.ID) {
					questions[i].Flag = flag
					touched = true
				}
			}
			if touched {
				cp := *v
				cp.Questions = questions
				out = append(out, &cp)
			} else {
				out = append(out, item)
			}
		default:
			out = append(out, item)
		}
	}
	return out
}
