package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/domain"
	"github.com/phrazzld/lexis-api/internal/platform/migrations"
	"github.com/phrazzld/lexis-api/internal/platform/sqlite"
	"github.com/stretchr/testify/require"
)

// NewSQLiteDB opens a migrated SQLite database in a temporary directory.
// The database is closed when the test finishes.
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "lexis.db"), nil)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t,
		migrations.Up(ctx, db, migrations.DriverSQLite, discardLogger()),
		"failed to migrate test database")
	return db
}

// WordOption customizes a word created by MustInsertWord.
type WordOption func(*domain.Word)

// WithWordGroup sets the word's group.
func WithWordGroup(group int) WordOption {
	return func(w *domain.Word) { w.Group = group }
}

// WithWordPage sets the word's textbook page.
func WithWordPage(page int) WordOption {
	return func(w *domain.Word) { w.Page = page }
}

// WithWordText sets the word itself.
func WithWordText(text string) WordOption {
	return func(w *domain.Word) { w.Word = text }
}

// WithWordID sets the word's id.
func WithWordID(id uuid.UUID) WordOption {
	return func(w *domain.Word) { w.ID = id }
}

// MustInsertWord inserts a catalog word and returns it.
func MustInsertWord(t *testing.T, db *sql.DB, opts ...WordOption) domain.Word {
	t.Helper()

	id := uuid.New()
	w := domain.Word{
		ID:                   id,
		Word:                 "word-" + id.String()[:8],
		Image:                "files/" + id.String()[:8] + ".jpg",
		Audio:                "files/" + id.String()[:8] + ".mp3",
		AudioMeaning:         "files/" + id.String()[:8] + "_meaning.mp3",
		AudioExample:         "files/" + id.String()[:8] + "_example.mp3",
		TextMeaning:          "meaning",
		TextExample:          "example",
		Transcription:        "[wɜːd]",
		WordTranslate:        "слово",
		TextMeaningTranslate: "значение",
		TextExampleTranslate: "пример",
	}
	for _, opt := range opts {
		opt(&w)
	}

	_, err := db.Exec(`INSERT INTO words (
		id, word_group, page, word, image, audio, audio_meaning, audio_example,
		text_meaning, text_example, transcription, word_translate,
		text_meaning_translate, text_example_translate
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.Group, w.Page, w.Word, w.Image, w.Audio, w.AudioMeaning, w.AudioExample,
		w.TextMeaning, w.TextExample, w.Transcription, w.WordTranslate,
		w.TextMeaningTranslate, w.TextExampleTranslate,
	)
	require.NoError(t, err, "failed to insert word")
	return w
}

// MustInsertUserWord attaches an overlay of userID to wordID.
// optional is a JSON object, or empty for the column default.
func MustInsertUserWord(t *testing.T, db *sql.DB, userID, wordID uuid.UUID, difficulty, optional string) {
	t.Helper()

	if optional == "" {
		optional = "{}"
	}
	_, err := db.Exec(
		`INSERT INTO user_words (id, user_id, word_id, difficulty, optional) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), userID.String(), wordID.String(), difficulty, optional,
	)
	require.NoError(t, err, fmt.Sprintf("failed to insert user word %s/%s", userID, wordID))
}
