package domain

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// Difficulty is the personal difficulty tag a user puts on a word.
type Difficulty string

// DifficultyDifficult is the tag counted by the difficult facet. Any other
// non-empty tag is accepted and stored verbatim.
const DifficultyDifficult Difficulty = "difficult"

// IsDeletedKey is the key of the soft-delete flag inside UserWord.Optional.
const IsDeletedKey = "isDeleted"

// Word is an entry of the shared catalog. Words are global and read-only
// from the point of view of a single user.
type Word struct {
	ID                   uuid.UUID `json:"_id"`
	Group                int       `json:"group"`
	Page                 int       `json:"page"`
	Word                 string    `json:"word"`
	Image                string    `json:"image"`
	Audio                string    `json:"audio"`
	AudioMeaning         string    `json:"audioMeaning"`
	AudioExample         string    `json:"audioExample"`
	TextMeaning          string    `json:"textMeaning"`
	TextExample          string    `json:"textExample"`
	Transcription        string    `json:"transcription"`
	WordTranslate        string    `json:"wordTranslate"`
	TextMeaningTranslate string    `json:"textMeaningTranslate"`
	TextExampleTranslate string    `json:"textExampleTranslate"`
}

// UserWord is the personal state one user keeps for one word.
// Only the user-visible part is modeled here; row identifiers, foreign keys
// and version markers stay in the store.
type UserWord struct {
	Difficulty Difficulty      `json:"difficulty"`
	Optional   json.RawMessage `json:"optional,omitempty"`
}

// IsDeleted reports whether the optional soft-delete flag is set to true.
func (u *UserWord) IsDeleted() bool {
	if u == nil || len(u.Optional) == 0 {
		return false
	}
	var optional map[string]json.RawMessage
	if err := json.Unmarshal(u.Optional, &optional); err != nil {
		return false
	}
	return bytes.Equal(bytes.TrimSpace(optional[IsDeletedKey]), []byte("true"))
}

// AggregatedWord is a catalog word merged with the acting user's overlay.
// UserWord is nil when the user has no overlay for the word, which is not the
// same as an overlay whose fields are empty.
type AggregatedWord struct {
	Word
	UserWord *UserWord `json:"userWord,omitempty"`
}

// MarshalJSON adds the conventional "id" alias next to "_id".
func (a AggregatedWord) MarshalJSON() ([]byte, error) {
	type aggregatedWordJSON struct {
		Word
		ID       uuid.UUID `json:"id"`
		UserWord *UserWord `json:"userWord,omitempty"`
	}
	return json.Marshal(aggregatedWordJSON{
		Word:     a.Word,
		ID:       a.Word.ID,
		UserWord: a.UserWord,
	})
}
