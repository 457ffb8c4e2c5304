package postgres

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/aggregate"
	"github.com/phrazzld/lexis-api/internal/filter"
	"github.com/phrazzld/lexis-api/internal/platform/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aggregatedCTE = "WITH aggregated AS (SELECT w.id, w.word_group, w.page, w.word, w.image, " +
	"w.audio, w.audio_meaning, w.audio_example, w.text_meaning, w.text_example, w.transcription, " +
	"w.word_translate, w.text_meaning_translate, w.text_example_translate, " +
	"uw.id AS overlay_id, uw.difficulty AS overlay_difficulty, uw.optional AS overlay_optional " +
	"FROM words w LEFT JOIN user_words uw ON uw.word_id = w.id AND uw.user_id = $1)"

const selectColumns = "id, word_group, page, word, image, audio, audio_meaning, audio_example, " +
	"text_meaning, text_example, transcription, word_translate, text_meaning_translate, " +
	"text_example_translate, overlay_id, overlay_difficulty, overlay_optional"

func intPtr(v int) *int { return &v }

func TestRender_Single(t *testing.T) {
	userID := uuid.New()
	wordID := uuid.New()

	q, err := sqlstore.Render(Dialect{}, aggregate.SinglePlan(wordID, userID))
	require.NoError(t, err)

	want := aggregatedCTE +
		", filtered AS (SELECT * FROM aggregated WHERE (id IS NOT NULL AND id = $2))" +
		" SELECT " + selectColumns + " FROM filtered ORDER BY word_group, page, id"
	assert.Equal(t, want, q.SQL)
	assert.Equal(t, []any{userID, wordID}, q.Args)
	assert.Nil(t, q.Pages)
}

func TestRender_ListUnpaginated(t *testing.T) {
	userID := uuid.New()

	plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: userID})
	require.NoError(t, err)

	q, err := sqlstore.Render(Dialect{}, plan)
	require.NoError(t, err)

	want := aggregatedCTE +
		", filtered AS (SELECT * FROM aggregated)" +
		" SELECT " + selectColumns + " FROM filtered ORDER BY word_group, page, id"
	assert.Equal(t, want, q.SQL)
	assert.Equal(t, []any{userID}, q.Args)
}

func TestRender_ListPaginated(t *testing.T) {
	userID := uuid.New()

	plan, err := aggregate.ListPlan(aggregate.ListParams{
		UserID:  userID,
		Group:   intPtr(0),
		Page:    2,
		PerPage: 20,
		Filter:  filter.Eq(filter.Difficulty, "difficult"),
	})
	require.NoError(t, err)

	q, err := sqlstore.Render(Dialect{}, plan)
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "filtered AS (SELECT * FROM aggregated WHERE "+
		"((word_group IS NOT NULL AND word_group = $2) AND "+
		"(overlay_difficulty IS NOT NULL AND overlay_difficulty = $3)))")
	assert.Contains(t, q.SQL, "page_rows AS (SELECT * FROM filtered ORDER BY word_group, page, id LIMIT $4 OFFSET $5)")
	assert.Contains(t, q.SQL, "total AS (SELECT COUNT(*) AS total_count FROM filtered)")
	assert.Contains(t, q.SQL, "FROM total LEFT JOIN page_rows ON 1 = 1")
	assert.Equal(t, []any{userID, int64(0), "difficult", int64(20), int64(40)}, q.Args)
}

func TestRender_Stats(t *testing.T) {
	userID := uuid.New()

	plan, err := aggregate.StatsPlan(userID, intPtr(3))
	require.NoError(t, err)

	q, err := sqlstore.Render(Dialect{}, plan)
	require.NoError(t, err)

	notDeleted := func(n int) string {
		return fmt.Sprintf("(overlay_optional->'isDeleted' IS NULL OR "+
			"NOT (jsonb_typeof(overlay_optional->'isDeleted') = 'boolean') OR "+
			"overlay_optional->'isDeleted' <> $%d::jsonb)", n)
	}
	assert.Contains(t, q.SQL, "WHERE (word_group IS NOT NULL AND word_group = $2))")
	assert.Contains(t, q.SQL,
		"COALESCE(SUM(CASE WHEN ((overlay_difficulty IS NOT NULL AND overlay_difficulty = $3) AND "+
			notDeleted(4)+") THEN 1 ELSE 0 END), 0) AS count_0")
	assert.Contains(t, q.SQL,
		"COALESCE(SUM(CASE WHEN (jsonb_typeof(overlay_optional->'isDeleted') = 'boolean' AND "+
			"overlay_optional->'isDeleted' = $5::jsonb) THEN 1 ELSE 0 END), 0) AS count_1")
	assert.Contains(t, q.SQL,
		"COALESCE(SUM(CASE WHEN (overlay_id IS NOT NULL AND "+
			notDeleted(6)+") THEN 1 ELSE 0 END), 0) AS count_2")
	assert.Equal(t, []any{userID, int64(3), "difficult", "true", "true", "true"}, q.Args)
}

func TestRender_Textbook(t *testing.T) {
	userID := uuid.New()

	plan, err := aggregate.TextbookPlan(userID, 2, 5)
	require.NoError(t, err)

	q, err := sqlstore.Render(Dialect{}, plan)
	require.NoError(t, err)
	require.NotNil(t, q.Pages)

	filtered := ", filtered AS (SELECT * FROM aggregated WHERE " +
		"(overlay_optional->'isDeleted' IS NULL OR " +
		"NOT (jsonb_typeof(overlay_optional->'isDeleted') = 'boolean') OR " +
		"overlay_optional->'isDeleted' <> $2::jsonb))"

	assert.Equal(t, aggregatedCTE+filtered+
		" SELECT "+selectColumns+" FROM filtered WHERE "+
		"((word_group IS NOT NULL AND word_group = $3) AND (page IS NOT NULL AND page = $4))"+
		" ORDER BY word_group, page, id", q.SQL)
	assert.Equal(t, []any{userID, "true", int64(2), int64(5)}, q.Args)

	assert.Equal(t, aggregatedCTE+filtered+
		" SELECT DISTINCT page FROM filtered WHERE (word_group IS NOT NULL AND word_group = $3)"+
		" ORDER BY page", q.Pages.SQL)
	assert.Equal(t, []any{userID, "true", int64(2)}, q.Pages.Args)
}

func TestRender_FilterOperators(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		filter   string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "ne keeps missing values",
			filter:   `{"userWord.difficulty":{"$ne":"easy"}}`,
			wantSQL:  "(overlay_difficulty IS NULL OR overlay_difficulty <> $2)",
			wantArgs: []any{userID, "easy"},
		},
		{
			name:     "in",
			filter:   `{"page":{"$in":[1,2]}}`,
			wantSQL:  "(page IS NOT NULL AND page IN ($2, $3))",
			wantArgs: []any{userID, int64(1), int64(2)},
		},
		{
			name:     "nin keeps missing values",
			filter:   `{"userWord.difficulty":{"$nin":["easy","hard"]}}`,
			wantSQL:  "(overlay_difficulty IS NULL OR overlay_difficulty NOT IN ($2, $3))",
			wantArgs: []any{userID, "easy", "hard"},
		},
		{
			name:     "empty in matches nothing",
			filter:   `{"page":{"$in":[]}}`,
			wantSQL:  "WHERE 1 = 0",
			wantArgs: []any{userID},
		},
		{
			name:     "missing overlay",
			filter:   `{"userWord":null}`,
			wantSQL:  "WHERE overlay_id IS NULL",
			wantArgs: []any{userID},
		},
		{
			name:     "overlay exists",
			filter:   `{"userWord":{"$exists":true}}`,
			wantSQL:  "WHERE overlay_id IS NOT NULL",
			wantArgs: []any{userID},
		},
		{
			name:     "or",
			filter:   `{"$or":[{"userWord.difficulty":"difficult"},{"userWord":null}]}`,
			wantSQL:  "((overlay_difficulty IS NOT NULL AND overlay_difficulty = $2) OR overlay_id IS NULL)",
			wantArgs: []any{userID, "difficult"},
		},
		{
			name:     "nor",
			filter:   `{"$nor":[{"group":1},{"group":2}]}`,
			wantSQL:  "NOT (((word_group IS NOT NULL AND word_group = $2) OR (word_group IS NOT NULL AND word_group = $3)))",
			wantArgs: []any{userID, int64(1), int64(2)},
		},
		{
			name:     "optional number compared as jsonb",
			filter:   `{"userWord.optional.score":{"$gte":0.5}}`,
			wantSQL:  "(jsonb_typeof(overlay_optional->'score') = 'number' AND overlay_optional->'score' >= $2::jsonb)",
			wantArgs: []any{userID, "0.5"},
		},
		{
			name:     "optional string compared as jsonb",
			filter:   `{"userWord.optional.note":"x"}`,
			wantSQL:  "(jsonb_typeof(overlay_optional->'note') = 'string' AND overlay_optional->'note' = $2::jsonb)",
			wantArgs: []any{userID, `"x"`},
		},
		{
			name:   "optional range only matches numbers",
			filter: `{"userWord.optional.level":{"$gt":3}}`,
			wantSQL: "(jsonb_typeof(overlay_optional->'level') = 'number' AND " +
				"overlay_optional->'level' > $2::jsonb)",
			wantArgs: []any{userID, "3"},
		},
		{
			name:   "optional in checks each value's type",
			filter: `{"userWord.optional.tag":{"$in":["a",1]}}`,
			wantSQL: "((jsonb_typeof(overlay_optional->'tag') = 'string' AND overlay_optional->'tag' = $2::jsonb) OR " +
				"(jsonb_typeof(overlay_optional->'tag') = 'number' AND overlay_optional->'tag' = $3::jsonb))",
			wantArgs: []any{userID, `"a"`, "1"},
		},
		{
			name:   "optional nin keeps missing values",
			filter: `{"userWord.optional.tag":{"$nin":[true]}}`,
			wantSQL: "(overlay_optional->'tag' IS NULL OR NOT ((jsonb_typeof(overlay_optional->'tag') = 'boolean' AND " +
				"overlay_optional->'tag' = $2::jsonb)))",
			wantArgs: []any{userID, "true"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := filter.Parse([]byte(tc.filter))
			require.NoError(t, err)

			plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: userID, Filter: expr})
			require.NoError(t, err)

			q, err := sqlstore.Render(Dialect{}, plan)
			require.NoError(t, err)
			assert.Contains(t, q.SQL, tc.wantSQL)
			assert.Equal(t, tc.wantArgs, q.Args)
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	userID := uuid.New()

	render := func(doc string) sqlstore.Query {
		expr, err := filter.Parse([]byte(doc))
		require.NoError(t, err)
		plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: userID, PerPage: 10, Filter: expr})
		require.NoError(t, err)
		q, err := sqlstore.Render(Dialect{}, plan)
		require.NoError(t, err)
		return q
	}

	a := render(`{"word":"boat","page":{"$lte":9,"$gt":1}}`)
	b := render(`{"page":{"$gt":1,"$lte":9},"word":"boat"}`)
	assert.Equal(t, a, b)
}
