package transfer

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/studylib/internal/domain"
	"github.com/conorfennell/studylib/internal/tree"
)

// fakeAssets is an in-memory asset store for tests.
type fakeAssets struct {
	data map[string][]byte
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{data: map[string][]byte{}}
}

func (f *fakeAssets) GetAsset(id string) ([]byte, error) {
	data, ok := f.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (f *fakeAssets) PutAsset(id string, data []byte) error {
	f.data[id] = data
	return nil
}

func question(id string) domain.Question {
	return domain.Question{
		ID:            id,
		Text:          "question " + id,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: "a",
	}
}

func sampleLibrary() domain.LibraryData {
	lib := domain.NewLibraryData("lib-1", "My Library", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	lib.Items = domain.Items{
		&domain.Folder{ID: "folder-1", Name: "Folder", Children: domain.Items{
			&domain.Quiz{
				ID: "quiz-1", Title: "Quiz One",
				Questions:       []domain.Question{question("q1"), question("q2")},
				ScoreHistory:    []domain.ScoreRecord{{Score: 8, Total: 2}},
				CompletionCount: 3,
			},
			&domain.Deck{ID: "deck-1", Title: "Deck One", Cards: []domain.Flashcard{{ID: "c1", Front: "f", Back: "b"}}},
		}},
		&domain.Quiz{ID: "quiz-2", Title: "Quiz Two", Questions: []domain.Question{question("q3")}},
	}
	lib.Documents = []domain.DocumentNode{
		{ID: "docf-1", Name: "Docs", Kind: domain.DocFolder, Children: []domain.DocumentNode{
			{ID: "doc-1", Name: "notes.pdf", Kind: domain.DocFile, AssetID: "asset-1"},
		}},
	}
	lib.AnsweredIDs = domain.NewIDSet("q1", "q3")
	lib.AllTimeFailedIDs = domain.NewIDSet("q3")
	lib.AllTimeUnansweredIDs = domain.NewIDSet("q2")
	lib.SrsEntries["q3"] = domain.SrsEntry{Question: question("q3"), SrsLevel: 1, FailureCount: 2}
	lib.FailedFlashcardIDs = domain.NewIDSet("c1")
	return lib
}

func TestFilter(t *testing.T) {
	t.Run("keeps selected items and surviving ancestors", func(t *testing.T) {
		out := Filter(sampleLibrary(), domain.NewIDSet("deck-1"), true)

		if _, ok := tree.Find(out.Items, "deck-1"); !ok {
			t.Error("Expected selected deck to survive")
		}
		if _, ok := tree.Find(out.Items, "folder-1"); !ok {
			t.Error("Expected ancestor folder with a surviving descendant to be kept")
		}
		if _, ok := tree.Find(out.Items, "quiz-1"); ok {
			t.Error("Expected unselected sibling to be dropped")
		}
		if _, ok := tree.Find(out.Items, "quiz-2"); ok {
			t.Error("Expected unselected root quiz to be dropped")
		}
	})

	t.Run("selecting a folder keeps its whole subtree", func(t *testing.T) {
		out := Filter(sampleLibrary(), domain.NewIDSet("folder-1"), true)
		if _, ok := tree.Find(out.Items, "quiz-1"); !ok {
			t.Error("Expected folder contents to survive with the folder")
		}
	})

	t.Run("includeProgress=false strips history and collections", func(t *testing.T) {
		out := Filter(sampleLibrary(), domain.NewIDSet("folder-1"), false)

		item, _ := tree.Find(out.Items, "quiz-1")
		quiz := item.(*domain.Quiz)
		if len(quiz.ScoreHistory) != 0 || quiz.CompletionCount != 0 {
			t.Error("Expected quiz history and completion count stripped")
		}
		if len(out.AnsweredIDs) != 0 || len(out.AllTimeFailedIDs) != 0 ||
			len(out.AllTimeUnansweredIDs) != 0 || len(out.SrsEntries) != 0 {
			t.Error("Expected progress collections cleared")
		}
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	assets := newFakeAssets()
	assets.data["asset-1"] = []byte("pdf bytes")
	lib := sampleLibrary()

	selected := domain.NewIDSet("folder-1", "quiz-2")
	exported, err := Export(lib, selected, true, true, assets)
	if err != nil {
		t.Fatalf("Export() returned an unexpected error: %v", err)
	}

	wantPayload := base64.StdEncoding.EncodeToString([]byte("pdf bytes"))
	if got := exported.Documents[0].Children[0].Data; got != wantPayload {
		t.Errorf("Expected embedded base64 payload, got %q", got)
	}

	// Round-trip through the JSON interchange form.
	encoded, err := Encode(exported)
	if err != nil {
		t.Fatalf("Encode() returned an unexpected error: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() returned an unexpected error: %v", err)
	}

	target := newFakeAssets()
	imported, err := ImportAsNew(decoded, true, true, target, time.Now())
	if err != nil {
		t.Fatalf("ImportAsNew() returned an unexpected error: %v", err)
	}

	if imported.ID == lib.ID || imported.ID == "" {
		t.Errorf("Expected a fresh library id, got %q", imported.ID)
	}
	for _, id := range []string{"folder-1", "quiz-1", "deck-1", "quiz-2"} {
		if _, ok := tree.Find(imported.Items, id); !ok {
			t.Errorf("Expected item %s to survive the round trip", id)
		}
	}
	for _, id := range []string{"q1", "q3"} {
		if !imported.AnsweredIDs.Has(id) {
			t.Errorf("Expected %s in AnsweredIDs after round trip", id)
		}
	}
	if entry, ok := imported.SrsEntries["q3"]; !ok || entry.FailureCount != 2 {
		t.Error("Expected SRS entry for q3 to survive the round trip")
	}
	if string(target.data["asset-1"]) != "pdf bytes" {
		t.Error("Expected embedded payload written back into the asset store")
	}
	if imported.Documents[0].Children[0].Data != "" {
		t.Error("Expected embedded payload stripped from the imported tree")
	}
}

func TestExportWithoutDocuments(t *testing.T) {
	out, err := Export(sampleLibrary(), domain.NewIDSet("quiz-2"), true, false, newFakeAssets())
	if err != nil {
		t.Fatalf("Export() returned an unexpected error: %v", err)
	}
	if out.Documents != nil {
		t.Error("Expected document tree omitted entirely")
	}
}

func TestImportInto(t *testing.T) {
	now := time.Now()

	t.Run("prepends items and unions id sets", func(t *testing.T) {
		target := domain.NewLibraryData("target", "Target", now)
		target.Items = domain.Items{&domain.Quiz{ID: "existing", Title: "Existing", Questions: []domain.Question{question("qt")}}}
		target.AnsweredIDs = domain.NewIDSet("qt")

		imp := sampleLibrary()
		out, err := ImportInto(target, imp, true, false, newFakeAssets(), now)
		if err != nil {
			t.Fatalf("ImportInto() returned an unexpected error: %v", err)
		}

		if out.Items[0].ItemID() != "folder-1" {
			t.Errorf("Expected imported items prepended, got %s first", out.Items[0].ItemID())
		}
		if _, ok := tree.Find(out.Items, "existing"); !ok {
			t.Error("Expected existing items preserved")
		}
		for _, id := range []string{"qt", "q1", "q3"} {
			if !out.AnsweredIDs.Has(id) {
				t.Errorf("Expected %s in unioned AnsweredIDs", id)
			}
		}
		if !out.FailedFlashcardIDs.Has("c1") {
			t.Error("Expected flashcard failures merged")
		}
	})

	t.Run("srs merge is first-write-wins", func(t *testing.T) {
		target := domain.NewLibraryData("target", "Target", now)
		target.SrsEntries["q3"] = domain.SrsEntry{Question: question("q3"), SrsLevel: 4, FailureCount: 9}

		out, err := ImportInto(target, sampleLibrary(), true, false, newFakeAssets(), now)
		if err != nil {
			t.Fatalf("ImportInto() returned an unexpected error: %v", err)
		}

		if got := out.SrsEntries["q3"].FailureCount; got != 9 {
			t.Errorf("Expected existing entry preserved (failureCount 9), got %d", got)
		}
		if _, ok := out.SrsEntries["q3"]; !ok {
			t.Fatal("Expected an entry for q3")
		}
	})

	t.Run("includeProgress=false leaves target progress untouched", func(t *testing.T) {
		target := domain.NewLibraryData("target", "Target", now)
		target.AnsweredIDs = domain.NewIDSet("qt")

		out, err := ImportInto(target, sampleLibrary(), false, false, newFakeAssets(), now)
		if err != nil {
			t.Fatalf("ImportInto() returned an unexpected error: %v", err)
		}
		if len(out.AnsweredIDs) != 1 || !out.AnsweredIDs.Has("qt") {
			t.Errorf("Expected only the target's own progress, got %v", out.AnsweredIDs.Sorted())
		}
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*domain.LibraryData)
	}{
		{"missing library id", func(l *domain.LibraryData) { l.ID = "" }},
		{"missing library name", func(l *domain.LibraryData) { l.Name = "" }},
		{"duplicate item id", func(l *domain.LibraryData) {
			l.Items = append(l.Items, &domain.Quiz{ID: "quiz-2", Title: "Dup"})
		}},
		{"question with one option", func(l *domain.LibraryData) {
			q := l.Items[1].(*domain.Quiz)
			cp := *q
			cp.Questions = []domain.Question{{ID: "bad", Text: "t", Options: []string{"only"}, CorrectAnswer: "only"}}
			l.Items[1] = &cp
		}},
		{"correct answer not among options", func(l *domain.LibraryData) {
			q := l.Items[1].(*domain.Quiz)
			cp := *q
			cp.Questions = []domain.Question{{ID: "bad", Text: "t", Options: []string{"a", "b"}, CorrectAnswer: "z"}}
			l.Items[1] = &cp
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lib := sampleLibrary()
			tc.mutate(&lib)
			if err := Validate(lib); !errors.Is(err, domain.ErrInvalidImport) {
				t.Errorf("Expected ErrInvalidImport, got %v", err)
			}
			// A malformed document must abort the import wholesale.
			if _, err := ImportAsNew(lib, true, false, newFakeAssets(), time.Now()); !errors.Is(err, domain.ErrInvalidImport) {
				t.Errorf("Expected ImportAsNew to abort, got %v", err)
			}
		})
	}

	t.Run("valid document passes", func(t *testing.T) {
		if err := Validate(sampleLibrary()); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})
}
