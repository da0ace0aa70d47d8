// Package transfer implements the import/export merge engine: structural
// tree filtering, document asset embedding, and merge-safe import of one
// library snapshot into another.
package transfer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/studylib/internal/domain"
	"github.com/conorfennell/studylib/internal/tree"
)

// AssetFetcher reads binary assets by opaque id.
type AssetFetcher interface {
	GetAsset(id string) ([]byte, error)
}

// AssetWriter stores binary assets by opaque id.
type AssetWriter interface {
	PutAsset(id string, data []byte) error
}

// Filter keeps only the selected items plus any ancestor folder that retains
// at least one surviving descendant. With includeProgress false it also
// strips score history and completion counts from every quiz and clears the
// progress collections.
func Filter(lib domain.LibraryData, selectedIDs domain.IDSet, includeProgress bool) domain.LibraryData {
	out := lib.Clone()
	out.Items = filterItems(lib.Items, selectedIDs)
	if !includeProgress {
		out = stripProgress(out)
	}
	return out
}

// filterItems keeps an item when its own id is selected (the whole subtree
// survives with it) or when it is a folder with a surviving descendant.
func filterItems(items domain.Items, selected domain.IDSet) domain.Items {
	out := make(domain.Items, 0, len(items))
	for _, item := range items {
		if selected.Has(item.ItemID()) {
			out = append(out, item)
			continue
		}
		if f, ok := item.(*domain.Folder); ok {
			children := filterItems(f.Children, selected)
			if len(children) > 0 {
				cp := *f
				cp.Children = children
				out = append(out, &cp)
			}
		}
	}
	return out
}

func stripProgress(lib domain.LibraryData) domain.LibraryData {
	out := lib.Clone()
	out.AnsweredIDs = domain.IDSet{}
	out.AllTimeFailedIDs = domain.IDSet{}
	out.AllTimeUnansweredIDs = domain.IDSet{}
	out.SrsEntries = map[string]domain.SrsEntry{}
	out.FailedFlashcardIDs = domain.IDSet{}
	out.Items = stripQuizProgress(out.Items)
	return out
}

func stripQuizProgress(items domain.Items) domain.Items {
	out := make(domain.Items, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case *domain.Folder:
			cp := *v
			cp.Children = stripQuizProgress(v.Children)
			out = append(out, &cp)
		case *domain.Quiz:
			cp := *v
			cp.ScoreHistory = nil
			cp.CompletionCount = 0
			out = append(out, &cp)
		default:
			out = append(out, item)
		}
	}
	return out
}

// Export filters the library to the selected items and prepares it for
// interchange. With includeDocuments the document tree's file contents are
// embedded as base64 payloads fetched from the asset store; without it the
// document tree is omitted entirely.
func Export(lib domain.LibraryData, selectedIDs domain.IDSet, includeProgress, includeDocuments bool, assets AssetFetcher) (domain.LibraryData, error) {
	out := Filter(lib, selectedIDs, includeProgress)
	if !includeDocuments {
		out.Documents = nil
		return out, nil
	}
	docs, err := embedDocuments(out.Documents, assets)
	if err != nil {
		return domain.LibraryData{}, err
	}
	out.Documents = docs
	return out, nil
}

func embedDocuments(nodes []domain.DocumentNode, assets AssetFetcher) ([]domain.DocumentNode, error) {
	out := make([]domain.DocumentNode, len(nodes))
	for i, node := range nodes {
		cp := node
		if node.Kind == domain.DocFile && node.AssetID != "" {
			data, err := assets.GetAsset(node.AssetID)
			if err != nil {
				return nil, fmt.Errorf("embed document %q: %w", node.Name, err)
			}
			cp.Data = base64.StdEncoding.EncodeToString(data)
		}
		children, err := embedDocuments(node.Children, assets)
		if err != nil {
			return nil, err
		}
		cp.Children = children
		out[i] = cp
	}
	return out, nil
}

// ImportAsNew turns an interchange document into a fresh library: new id,
// new creation timestamp. Embedded document payloads are written back into
// the asset store and stripped from the tree metadata. The import document
// is validated first; a malformed document aborts the whole import.
func ImportAsNew(imp domain.LibraryData, includeProgress, includeDocuments bool, assets AssetWriter, now time.Time) (domain.LibraryData, error) {
	if err := Validate(imp); err != nil {
		return domain.LibraryData{}, err
	}
	out := imp.Clone()
	out.ID = uuid.NewString()
	out.CreatedAt = now

	if includeDocuments {
		docs, err := storeDocuments(out.Documents, assets)
		if err != nil {
			return domain.LibraryData{}, err
		}
		out.Documents = docs
	} else {
		out.Documents = nil
	}
	if !includeProgress {
		out = stripProgress(out)
	}
	return out, nil
}

func storeDocuments(nodes []domain.DocumentNode, assets AssetWriter) ([]domain.DocumentNode, error) {
	out := make([]domain.DocumentNode, len(nodes))
	for i, node := range nodes {
		cp := node
		if node.Kind == domain.DocFile && node.Data != "" {
			data, err := base64.StdEncoding.DecodeString(node.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: document %q payload is not base64", domain.ErrInvalidImport, node.Name)
			}
			if cp.AssetID == "" {
				cp.AssetID = uuid.NewString()
			}
			if err := assets.PutAsset(cp.AssetID, data); err != nil {
				return nil, fmt.Errorf("store document %q: %w", node.Name, err)
			}
			cp.Data = ""
		}
		children, err := storeDocuments(node.Children, assets)
		if err != nil {
			return nil, err
		}
		cp.Children = children
		out[i] = cp
	}
	return out, nil
}

// ImportInto merges an interchange document into an existing library.
// Imported tree items are prepended; ids are assumed globally unique by
// construction so there is no collision renaming. The three tracker id sets
// are unioned; SRS entries and flashcard failures merge first-write-wins:
// an imported entry is added only if the target has none for that id, and
// existing entries are never overwritten.
func ImportInto(target, imp domain.LibraryData, includeProgress, includeDocuments bool, assets AssetWriter, now time.Time) (domain.LibraryData, error) {
	if err := Validate(imp); err != nil {
		return domain.LibraryData{}, err
	}
	out := target.Clone()

	items, err := tree.Insert(out.Items, imp.Items, "")
	if err != nil {
		return domain.LibraryData{}, err
	}
	out.Items = items

	if includeDocuments {
		docs, err := storeDocuments(imp.Documents, assets)
		if err != nil {
			return domain.LibraryData{}, err
		}
		out.Documents = append(docs, out.Documents...)
	}

	if includeProgress {
		out.AnsweredIDs = out.AnsweredIDs.Union(imp.AnsweredIDs)
		out.AllTimeFailedIDs = out.AllTimeFailedIDs.Union(imp.AllTimeFailedIDs)
		out.AllTimeUnansweredIDs = out.AllTimeUnansweredIDs.Union(imp.AllTimeUnansweredIDs)
		for id, entry := range imp.SrsEntries {
			if _, exists := out.SrsEntries[id]; !exists {
				out.SrsEntries[id] = entry
			}
		}
		out.FailedFlashcardIDs = out.FailedFlashcardIDs.Union(imp.FailedFlashcardIDs)
	}
	return out, nil
}

// Encode serializes a library to its JSON interchange form.
func Encode(lib domain.LibraryData) ([]byte, error) {
	return json.MarshalIndent(lib, "", "  ")
}

// Decode parses and validates a JSON interchange document.
func Decode(data []byte) (domain.LibraryData, error) {
	var lib domain.LibraryData
	if err := json.Unmarshal(data, &lib); err != nil {
		return domain.LibraryData{}, fmt.Errorf("%w: %v", domain.ErrInvalidImport, err)
	}
	lib = normalize(lib)
	if err := Validate(lib); err != nil {
		return domain.LibraryData{}, err
	}
	return lib, nil
}

// normalize fills collections a hand-edited interchange document may omit.
func normalize(lib domain.LibraryData) domain.LibraryData {
	if lib.AnsweredIDs == nil {
		lib.AnsweredIDs = domain.IDSet{}
	}
	if lib.AllTimeFailedIDs == nil {
		lib.AllTimeFailedIDs = domain.IDSet{}
	}
	if lib.AllTimeUnansweredIDs == nil {
		lib.AllTimeUnansweredIDs = domain.IDSet{}
	}
	if lib.SrsEntries == nil {
		lib.SrsEntries = map[string]domain.SrsEntry{}
	}
	if lib.FailedFlashcardIDs == nil {
		lib.FailedFlashcardIDs = domain.IDSet{}
	}
	if lib.OpenFolderIDs == nil {
		lib.OpenFolderIDs = domain.IDSet{}
	}
	return lib
}
