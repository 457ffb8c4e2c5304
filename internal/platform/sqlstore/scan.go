package sqlstore

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/domain"
)

// viewRow holds one row of the aggregated view. Every column is nullable
// because an empty page still yields one row made of NULLs.
type viewRow struct {
	id                   sql.NullString
	group                sql.NullInt64
	page                 sql.NullInt64
	word                 sql.NullString
	image                sql.NullString
	audio                sql.NullString
	audioMeaning         sql.NullString
	audioExample         sql.NullString
	textMeaning          sql.NullString
	textExample          sql.NullString
	transcription        sql.NullString
	wordTranslate        sql.NullString
	textMeaningTranslate sql.NullString
	textExampleTranslate sql.NullString
	overlayID            sql.NullString
	difficulty           sql.NullString
	optional             []byte
}

// dest returns scan destinations in viewColumns order.
func (r *viewRow) dest() []any {
	return []any{
		&r.id,
		&r.group,
		&r.page,
		&r.word,
		&r.image,
		&r.audio,
		&r.audioMeaning,
		&r.audioExample,
		&r.textMeaning,
		&r.textExample,
		&r.transcription,
		&r.wordTranslate,
		&r.textMeaningTranslate,
		&r.textExampleTranslate,
		&r.overlayID,
		&r.difficulty,
		&r.optional,
	}
}

func (r *viewRow) empty() bool {
	return !r.id.Valid
}

// aggregatedWord flattens the row. The overlay is only attached when the
// join found one; its identifiers are never copied.
func (r *viewRow) aggregatedWord() (domain.AggregatedWord, error) {
	id, err := uuid.Parse(r.id.String)
	if err != nil {
		return domain.AggregatedWord{}, fmt.Errorf("invalid word id %q: %w", r.id.String, err)
	}

	w := domain.AggregatedWord{
		Word: domain.Word{
			ID:                   id,
			Group:                int(r.group.Int64),
			Page:                 int(r.page.Int64),
			Word:                 r.word.String,
			Image:                r.image.String,
			Audio:                r.audio.String,
			AudioMeaning:         r.audioMeaning.String,
			AudioExample:         r.audioExample.String,
			TextMeaning:          r.textMeaning.String,
			TextExample:          r.textExample.String,
			Transcription:        r.transcription.String,
			WordTranslate:        r.wordTranslate.String,
			TextMeaningTranslate: r.textMeaningTranslate.String,
			TextExampleTranslate: r.textExampleTranslate.String,
		},
	}

	if r.overlayID.Valid {
		w.UserWord = &domain.UserWord{
			Difficulty: domain.Difficulty(r.difficulty.String),
			Optional:   optionalJSON(r.optional),
		}
	}
	return w, nil
}

// optionalJSON returns the compacted optional document, or nil when it is
// missing, empty or not valid JSON.
func optionalJSON(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil
	}
	return json.RawMessage(buf.Bytes())
}

// scanWords reads every row of rows into aggregated words.
func scanWords(rows *sql.Rows) ([]domain.AggregatedWord, error) {
	words := []domain.AggregatedWord{}
	for rows.Next() {
		var row viewRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, err
		}
		w, err := row.aggregatedWord()
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// scanPage reads the rows of a paginated list. Each row starts with the
// total count; a row without a word marks an empty page.
func scanPage(rows *sql.Rows) ([]domain.AggregatedWord, int, error) {
	words := []domain.AggregatedWord{}
	total := 0
	for rows.Next() {
		var (
			row   viewRow
			count int64
		)
		if err := rows.Scan(append([]any{&count}, row.dest()...)...); err != nil {
			return nil, 0, err
		}
		total = int(count)
		if row.empty() {
			continue
		}
		w, err := row.aggregatedWord()
		if err != nil {
			return nil, 0, err
		}
		words = append(words, w)
	}
	return words, total, rows.Err()
}
