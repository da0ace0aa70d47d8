package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ItemKind discriminates the members of the LibraryItem union.
type ItemKind string

const (
	KindFolder ItemKind = "folder"
	KindQuiz   ItemKind = "quiz"
	KindDeck   ItemKind = "deck"
)

// LibraryItem is one node of the content tree: a Folder, a Quiz or a Deck.
// Items are treated as immutable values; mutations copy the nodes they touch.
type LibraryItem interface {
	ItemID() string
	Kind() ItemKind
	// DisplayName is the folder name or the quiz/deck title.
	DisplayName() string
}

// Items is an ordered sequence of library items. It carries the JSON codec
// for the tagged union: each element is serialized with a "type" field.
type Items []LibraryItem

// Folder owns an ordered sequence of child items. Children are destroyed
// with the folder.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Children  Items     `json:"children"`
}

func (f *Folder) ItemID() string      { return f.ID }
func (f *Folder) Kind() ItemKind      { return KindFolder }
func (f *Folder) DisplayName() string { return f.Name }

// Quiz owns an ordered sequence of questions plus its attempt history.
type Quiz struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	CreatedAt       time.Time     `json:"createdAt"`
	Questions       []Question    `json:"questions"`
	PenaltyEnabled  bool          `json:"penaltyEnabled"`
	ScoreHistory    []ScoreRecord `json:"scoreHistory,omitempty"`
	CompletionCount int           `json:"completionCount"`
}

func (q *Quiz) ItemID() string      { return q.ID }
func (q *Quiz) Kind() ItemKind      { return KindQuiz }
func (q *Quiz) DisplayName() string { return q.Title }

// Deck owns an ordered sequence of flashcards.
type Deck struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	CreatedAt time.Time   `json:"createdAt"`
	Cards     []Flashcard `json:"cards"`
}

func (d *Deck) ItemID() string      { return d.ID }
func (d *Deck) Kind() ItemKind      { return KindDeck }
func (d *Deck) DisplayName() string { return d.Title }

// Flag is an optional per-question marker set by the user.
type Flag string

const (
	FlagNone        Flag = ""
	FlagBuena       Flag = "buena"
	FlagMala        Flag = "mala"
	FlagInteresante Flag = "interesante"
	FlagRevisar     Flag = "revisar"
	FlagSuspendida  Flag = "suspendida"
)

// Flags lists every assignable flag value.
var Flags = []Flag{FlagBuena, FlagMala, FlagInteresante, FlagRevisar, FlagSuspendida}

// Question is a multiple-choice question. CorrectAnswer must equal one of
// Options. Image references are opaque asset ids, never inline bytes.
type Question struct {
	ID            string   `json:"id" validate:"required"`
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,max=5,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	Explanation   string   `json:"explanation,omitempty"`
	ImageIDs      []string `json:"imageIds,omitempty"`
	Flag          Flag     `json:"flag,omitempty"`
	SourceFile    string   `json:"sourceFile,omitempty"`
	SourcePage    int      `json:"sourcePage,omitempty"`
}

// Flashcard is one front/back card of a deck.
type Flashcard struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// AttemptKind distinguishes a full run of a quiz from a practice run.
// Practice runs never increment the quiz completion count.
type AttemptKind string

const (
	AttemptFull     AttemptKind = "full"
	AttemptPractice AttemptKind = "practice"
)

// MaxScoreHistory caps a quiz's score history length (most recent first).
const MaxScoreHistory = 10

// ScoreRecord is the outcome of one completed attempt.
type ScoreRecord struct {
	Score      float64     `json:"score"`
	Total      int         `json:"total"`
	Timestamp  time.Time   `json:"timestamp"`
	Kind       AttemptKind `json:"kind"`
	Correct    int         `json:"correct"`
	Failed     int         `json:"failed"`
	Unanswered int         `json:"unanswered"`
}

type itemEnvelope struct {
	Type ItemKind `json:"type"`
}

// MarshalJSON serializes each item with its discriminating "type" field.
func (it Items) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, len(it))
	for i, item := range it {
		var (
			b   []byte
			err error
		)
		switch v := item.(type) {
		case *Folder:
			b, err = json.Marshal(struct {
				Type ItemKind `json:"type"`
				*Folder
			}{KindFolder, v})
		case *Quiz:
			b, err = json.Marshal(struct {
				Type ItemKind `json:"type"`
				*Quiz
			}{KindQuiz, v})
		case *Deck:
			b, err = json.Marshal(struct {
				Type ItemKind `json:"type"`
				*Deck
			}{KindDeck, v})
		default:
			err = fmt.Errorf("unknown item kind %T", item)
		}
		if err != nil {
			return nil, err
		}
		raw[i] = b
	}
	return json.Marshal(raw)
}

// UnmarshalJSON reads the "type" field of each element and decodes into the
// matching concrete type.
func (it *Items) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Items, 0, len(raw))
	for _, r := range raw {
		var env itemEnvelope
		if err := json.Unmarshal(r, &env); err != nil {
			return err
		}
		switch env.Type {
		case KindFolder:
			var f Folder
			if err := json.Unmarshal(r, &f); err != nil {
				return err
			}
			out = append(out, &f)
		case KindQuiz:
			var q Quiz
			if err := json.Unmarshal(r, &q); err != nil {
				return err
			}
			out = append(out, &q)
		case KindDeck:
			var d Deck
			if err := json.Unmarshal(r, &d); err != nil {
				return err
			}
			out = append(out, &d)
		default:
			return fmt.Errorf("unknown item type %q", env.Type)
		}
	}
	*it = out
	return nil
}
