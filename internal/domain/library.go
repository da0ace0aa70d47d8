package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// IDSet is a set of ids serialized as a sorted JSON array.
type IDSet map[string]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string)    { s[id] = struct{}{} }
func (s IDSet) Remove(id string) { delete(s, id) }

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union returns a new set containing the members of both sets.
func (s IDSet) Union(other IDSet) IDSet {
	out := s.Clone()
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// SrsEntry is the spaced-repetition state of one question. An entry exists
// only while the question is in progress: it is created on the first wrong
// answer and removed on graduation.
type SrsEntry struct {
	Question       Question  `json:"question"`
	SrsLevel       int       `json:"srsLevel"`
	NextReviewDate time.Time `json:"nextReviewDate"`
	FailureCount   int       `json:"failureCount"`
}

// DocKind discriminates document tree nodes.
type DocKind string

const (
	DocFolder DocKind = "folder"
	DocFile   DocKind = "file"
)

// DocumentNode is one node of the document tree. File nodes reference their
// content by opaque asset id; Data carries an embedded base64 payload only
// inside export/import interchange documents.
type DocumentNode struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     DocKind        `json:"kind"`
	AssetID  string         `json:"assetId,omitempty"`
	Data     string         `json:"data,omitempty"`
	Children []DocumentNode `json:"children,omitempty"`
}

// LibraryData is one named collection: the item tree, the document tree and
// the collection's progress state.
type LibraryData struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	Items     Items          `json:"items"`
	Documents []DocumentNode `json:"documents,omitempty"`

	AnsweredIDs          IDSet               `json:"answeredIds"`
	AllTimeFailedIDs     IDSet               `json:"allTimeFailedIds"`
	AllTimeUnansweredIDs IDSet               `json:"allTimeUnansweredIds"`
	SrsEntries           map[string]SrsEntry `json:"srsEntries"`
	FailedFlashcardIDs   IDSet               `json:"failedFlashcardIds"`

	OpenFolderIDs        IDSet  `json:"openFolderIds,omitempty"`
	LastWeeklyChallenge  string `json:"lastWeeklyChallenge,omitempty"`
	LastMonthlyChallenge string `json:"lastMonthlyChallenge,omitempty"`
}

// NewLibraryData creates an empty library with all collections initialized.
func NewLibraryData(id, name string, createdAt time.Time) LibraryData {
	return LibraryData{
		ID:                   id,
		Name:                 name,
		CreatedAt:            createdAt,
		AnsweredIDs:          IDSet{},
		AllTimeFailedIDs:     IDSet{},
		AllTimeUnansweredIDs: IDSet{},
		SrsEntries:           map[string]SrsEntry{},
		FailedFlashcardIDs:   IDSet{},
		OpenFolderIDs:        IDSet{},
	}
}

// Clone copies the library's top-level collections so the copy can be
// mutated without touching the original. The item tree is shared; tree
// mutations copy the nodes they touch.
func (l LibraryData) Clone() LibraryData {
	out := l
	out.Items = append(Items(nil), l.Items...)
	out.Documents = append([]DocumentNode(nil), l.Documents...)
	out.AnsweredIDs = l.AnsweredIDs.Clone()
	out.AllTimeFailedIDs = l.AllTimeFailedIDs.Clone()
	out.AllTimeUnansweredIDs = l.AllTimeUnansweredIDs.Clone()
	out.FailedFlashcardIDs = l.FailedFlashcardIDs.Clone()
	out.OpenFolderIDs = l.OpenFolderIDs.Clone()
	out.SrsEntries = make(map[string]SrsEntry, len(l.SrsEntries))
	for id, e := range l.SrsEntries {
		out.SrsEntries[id] = e
	}
	return out
}

// AppData is the whole persisted application state: every library plus the
// id of the currently active one.
type AppData struct {
	Libraries       map[string]LibraryData `json:"libraries"`
	ActiveLibraryID string                 `json:"activeLibraryId"`
}

// NewAppData returns an empty AppData.
func NewAppData() AppData {
	return AppData{Libraries: map[string]LibraryData{}}
}

// Active returns the currently active library, if any.
func (a AppData) Active() (LibraryData, bool) {
	lib, ok := a.Libraries[a.ActiveLibraryID]
	return lib, ok
}
