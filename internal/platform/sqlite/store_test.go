package sqlite_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/aggregate"
	"github.com/phrazzld/lexis-api/internal/domain"
	"github.com/phrazzld/lexis-api/internal/filter"
	"github.com/phrazzld/lexis-api/internal/platform/sqlite"
	"github.com/phrazzld/lexis-api/internal/platform/sqlstore"
	"github.com/phrazzld/lexis-api/internal/store"
	"github.com/phrazzld/lexis-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// statsFixture is five group-zero words seen by one user:
// w1 difficult, w2 deleted, w3 easy and explicitly not deleted, w4 and w5
// untouched. Another user marks w4 difficult.
type statsFixture struct {
	store  *sqlstore.AggregatedWordStore
	user   uuid.UUID
	other  uuid.UUID
	byText map[string]domain.Word
}

func newStatsFixture(t *testing.T) statsFixture {
	t.Helper()

	db := testutils.NewSQLiteDB(t)
	f := statsFixture{
		store:  sqlite.NewAggregatedWordStore(db, nil),
		user:   uuid.New(),
		other:  uuid.New(),
		byText: map[string]domain.Word{},
	}

	pages := map[string]int{"w1": 0, "w2": 0, "w3": 1, "w4": 1, "w5": 2}
	for _, text := range []string{"w1", "w2", "w3", "w4", "w5"} {
		f.byText[text] = testutils.MustInsertWord(t, db,
			testutils.WithWordText(text),
			testutils.WithWordGroup(0),
			testutils.WithWordPage(pages[text]))
	}
	// A word in another group, outside every group-zero read.
	f.byText["x1"] = testutils.MustInsertWord(t, db, testutils.WithWordText("x1"), testutils.WithWordGroup(1))

	testutils.MustInsertUserWord(t, db, f.user, f.byText["w1"].ID, "difficult", "")
	testutils.MustInsertUserWord(t, db, f.user, f.byText["w2"].ID, "easy", `{"isDeleted": true}`)
	testutils.MustInsertUserWord(t, db, f.user, f.byText["w3"].ID, "easy", `{"isDeleted": false, "note": "seen"}`)
	testutils.MustInsertUserWord(t, db, f.other, f.byText["w4"].ID, "difficult", "")
	return f
}

func texts(words []domain.AggregatedWord) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Word.Word
	}
	return out
}

func TestAggregatedWordStore_Counts(t *testing.T) {
	f := newStatsFixture(t)

	plan, err := aggregate.StatsPlan(f.user, intPtr(0))
	require.NoError(t, err)

	counts, err := f.store.Counts(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, domain.WordCounts{DifficultCount: 1, DeletedCount: 1, LearningCount: 2}, counts)

	t.Run("other user sees only their overlay", func(t *testing.T) {
		plan, err := aggregate.StatsPlan(f.other, nil)
		require.NoError(t, err)

		counts, err := f.store.Counts(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, domain.WordCounts{DifficultCount: 1, DeletedCount: 0, LearningCount: 1}, counts)
	})

	t.Run("user without overlays", func(t *testing.T) {
		plan, err := aggregate.StatsPlan(uuid.New(), nil)
		require.NoError(t, err)

		counts, err := f.store.Counts(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, domain.WordCounts{}, counts)
	})

	t.Run("group without words", func(t *testing.T) {
		plan, err := aggregate.StatsPlan(f.user, intPtr(5))
		require.NoError(t, err)

		counts, err := f.store.Counts(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, domain.WordCounts{}, counts)
	})
}

func TestAggregatedWordStore_ListScoping(t *testing.T) {
	f := newStatsFixture(t)
	ctx := context.Background()

	plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: f.user, Group: intPtr(0)})
	require.NoError(t, err)

	listing, err := f.store.List(ctx, plan)
	require.NoError(t, err)
	assert.False(t, listing.Paginated)
	require.Len(t, listing.Words, 5, "every catalog word of the group must be present")
	assert.Equal(t, 5, listing.TotalCount)

	overlays := map[string]*domain.UserWord{}
	for _, w := range listing.Words {
		overlays[w.Word.Word] = w.UserWord
	}

	require.NotNil(t, overlays["w1"])
	assert.Equal(t, domain.DifficultyDifficult, overlays["w1"].Difficulty)
	assert.Nil(t, overlays["w1"].Optional, "an empty optional document is omitted")
	require.NotNil(t, overlays["w3"])
	assert.JSONEq(t, `{"isDeleted":false,"note":"seen"}`, string(overlays["w3"].Optional))
	assert.Nil(t, overlays["w4"], "another user's overlay must not leak")
	assert.Nil(t, overlays["w5"])

	t.Run("user without overlays sees the whole catalog", func(t *testing.T) {
		plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: uuid.New()})
		require.NoError(t, err)

		listing, err := f.store.List(ctx, plan)
		require.NoError(t, err)
		require.Len(t, listing.Words, 6)
		for _, w := range listing.Words {
			assert.Nil(t, w.UserWord)
		}
	})
}

func TestAggregatedWordStore_ListFilters(t *testing.T) {
	f := newStatsFixture(t)

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "difficult", filter: `{"userWord.difficulty":"difficult"}`, want: []string{"w1"}},
		{name: "ne keeps words without overlay", filter: `{"userWord.difficulty":{"$ne":"difficult"}}`, want: []string{"w2", "w3", "w4", "w5"}},
		{name: "missing overlay", filter: `{"userWord":null}`, want: []string{"w4", "w5"}},
		{name: "overlay exists", filter: `{"userWord":{"$exists":true}}`, want: []string{"w1", "w2", "w3"}},
		{name: "deleted", filter: `{"userWord.optional.isDeleted":true}`, want: []string{"w2"}},
		{name: "not deleted", filter: `{"userWord.optional.isDeleted":{"$ne":true}}`, want: []string{"w1", "w3", "w4", "w5"}},
		{name: "optional key present", filter: `{"userWord.optional.isDeleted":{"$exists":true}}`, want: []string{"w2", "w3"}},
		{name: "optional string", filter: `{"userWord.optional.note":"seen"}`, want: []string{"w3"}},
		{name: "nin keeps words without overlay", filter: `{"userWord.difficulty":{"$nin":["easy"]}}`, want: []string{"w1", "w4", "w5"}},
		{name: "nor", filter: `{"$nor":[{"userWord.difficulty":"easy"}]}`, want: []string{"w1", "w4", "w5"}},
		{
			name:   "or of difficult and untouched",
			filter: `{"$or":[{"userWord.difficulty":"difficult"},{"userWord":null}]}`,
			want:   []string{"w1", "w4", "w5"},
		},
		{name: "page range", filter: `{"page":{"$gte":1,"$lt":2}}`, want: []string{"w3", "w4"}},
		{name: "page in", filter: `{"page":{"$in":[0,2]}}`, want: []string{"w1", "w2", "w5"}},
		{name: "empty in", filter: `{"page":{"$in":[]}}`, want: []string{}},
		{name: "word text", filter: `{"word":"w5"}`, want: []string{"w5"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := filter.Parse([]byte(tc.filter))
			require.NoError(t, err)

			plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: f.user, Group: intPtr(0), Filter: expr})
			require.NoError(t, err)

			listing, err := f.store.List(context.Background(), plan)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, texts(listing.Words))
		})
	}

	t.Run("filter by id", func(t *testing.T) {
		doc := fmt.Sprintf(`{"_id":%q}`, f.byText["w3"].ID)
		expr, err := filter.Parse([]byte(doc))
		require.NoError(t, err)

		plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: f.user, Filter: expr})
		require.NoError(t, err)

		listing, err := f.store.List(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, []string{"w3"}, texts(listing.Words))
	})
}

func TestAggregatedWordStore_OptionalValuesKeepJSONType(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	s := sqlite.NewAggregatedWordStore(db, nil)
	userID := uuid.New()
	ctx := context.Background()

	overlays := []struct {
		text, difficulty, optional string
	}{
		{"numeric", "difficult", `{"isDeleted": 1}`},
		{"deleted", "easy", `{"isDeleted": true}`},
		{"quoted", "easy", `{"isDeleted": "true"}`},
		{"flagged", "easy", `{"level": true}`},
		{"leveled", "easy", `{"level": 5}`},
	}
	for _, o := range overlays {
		w := testutils.MustInsertWord(t, db, testutils.WithWordText(o.text), testutils.WithWordGroup(0))
		testutils.MustInsertUserWord(t, db, userID, w.ID, o.difficulty, o.optional)
	}

	plan, err := aggregate.StatsPlan(userID, nil)
	require.NoError(t, err)
	counts, err := s.Counts(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, domain.WordCounts{DifficultCount: 1, DeletedCount: 1, LearningCount: 4}, counts,
		"only a JSON true marks a word as deleted")

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "true matches only booleans", filter: `{"userWord.optional.isDeleted":true}`, want: []string{"deleted"}},
		{name: "number matches only numbers", filter: `{"userWord.optional.isDeleted":1}`, want: []string{"numeric"}},
		{
			name:   "ne true keeps other types",
			filter: `{"userWord.optional.isDeleted":{"$ne":true}}`,
			want:   []string{"numeric", "quoted", "flagged", "leveled"},
		},
		{name: "range skips booleans", filter: `{"userWord.optional.level":{"$gt":3}}`, want: []string{"leveled"}},
		{name: "in mixes types", filter: `{"userWord.optional.isDeleted":{"$in":[true,"true"]}}`, want: []string{"deleted", "quoted"}},
		{
			name:   "nin keeps other types",
			filter: `{"userWord.optional.isDeleted":{"$nin":[true]}}`,
			want:   []string{"numeric", "quoted", "flagged", "leveled"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := filter.Parse([]byte(tc.filter))
			require.NoError(t, err)

			plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: userID, Filter: expr})
			require.NoError(t, err)

			listing, err := s.List(ctx, plan)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, texts(listing.Words))
		})
	}
}

func TestAggregatedWordStore_ListPagination(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	s := sqlite.NewAggregatedWordStore(db, nil)
	userID := uuid.New()
	ctx := context.Background()

	all := map[uuid.UUID]bool{}
	for i := 0; i < 25; i++ {
		w := testutils.MustInsertWord(t, db, testutils.WithWordGroup(2), testutils.WithWordPage(i/4))
		all[w.ID] = true
	}
	testutils.MustInsertWord(t, db, testutils.WithWordGroup(3))

	seen := map[uuid.UUID]bool{}
	var previous []domain.AggregatedWord
	for page, wantLen := range []int{10, 10, 5} {
		plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: userID, Group: intPtr(2), Page: page, PerPage: 10})
		require.NoError(t, err)

		listing, err := s.List(ctx, plan)
		require.NoError(t, err)
		assert.True(t, listing.Paginated)
		assert.Equal(t, 25, listing.TotalCount, "total count must not depend on the page")
		require.Len(t, listing.Words, wantLen)

		for _, w := range listing.Words {
			assert.False(t, seen[w.ID], "word %s appears on two pages", w.ID)
			seen[w.ID] = true
		}
		if len(previous) > 0 {
			last := previous[len(previous)-1]
			first := listing.Words[0]
			assert.LessOrEqual(t, last.Page, first.Page, "pages must follow the sort order")
		}
		previous = listing.Words
	}
	assert.Equal(t, all, seen, "the union of pages must be the filtered set")

	t.Run("page past the end", func(t *testing.T) {
		plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: userID, Group: intPtr(2), Page: 3, PerPage: 10})
		require.NoError(t, err)

		listing, err := s.List(ctx, plan)
		require.NoError(t, err)
		assert.Empty(t, listing.Words)
		assert.Equal(t, 25, listing.TotalCount)
	})

	t.Run("largest page", func(t *testing.T) {
		plan, err := aggregate.ListPlan(aggregate.ListParams{
			UserID:  userID,
			Group:   intPtr(2),
			Page:    aggregate.MaxPage(10),
			PerPage: 10,
		})
		require.NoError(t, err)

		listing, err := s.List(ctx, plan)
		require.NoError(t, err)
		assert.Empty(t, listing.Words)
		assert.Equal(t, 25, listing.TotalCount)
	})

	t.Run("page whose offset overflows", func(t *testing.T) {
		_, err := aggregate.ListPlan(aggregate.ListParams{
			UserID:  userID,
			Group:   intPtr(2),
			Page:    math.MaxInt/10 + 1,
			PerPage: 10,
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("empty group", func(t *testing.T) {
		plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: userID, Group: intPtr(9), PerPage: 10})
		require.NoError(t, err)

		listing, err := s.List(ctx, plan)
		require.NoError(t, err)
		assert.Empty(t, listing.Words)
		assert.Equal(t, 0, listing.TotalCount)

		data, err := json.Marshal(listing)
		require.NoError(t, err)
		assert.JSONEq(t, `{"paginatedResults":[],"totalCount":0}`, string(data))
	})
}

func TestAggregatedWordStore_GroupZero(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	s := sqlite.NewAggregatedWordStore(db, nil)

	zero := testutils.MustInsertWord(t, db, testutils.WithWordGroup(0))
	testutils.MustInsertWord(t, db, testutils.WithWordGroup(1))

	plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: uuid.New(), Group: intPtr(0), PerPage: 10})
	require.NoError(t, err)

	listing, err := s.List(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, listing.Words, 1)
	assert.Equal(t, zero.ID, listing.Words[0].ID)
	assert.Equal(t, 1, listing.TotalCount)
}

func TestAggregatedWordStore_Textbook(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	s := sqlite.NewAggregatedWordStore(db, nil)
	userID := uuid.New()
	ctx := context.Background()

	var words []domain.Word
	for _, page := range []int{1, 1, 2, 3} {
		words = append(words, testutils.MustInsertWord(t, db, testutils.WithWordGroup(1), testutils.WithWordPage(page)))
	}
	testutils.MustInsertWord(t, db, testutils.WithWordGroup(2), testutils.WithWordPage(7))

	read := func(t *testing.T, page int) domain.TextbookPage {
		t.Helper()
		plan, err := aggregate.TextbookPlan(userID, 1, page)
		require.NoError(t, err)
		result, err := s.Textbook(ctx, plan)
		require.NoError(t, err)
		return result
	}
	refs := func(pages ...int) []domain.TextbookPageRef {
		out := make([]domain.TextbookPageRef, len(pages))
		for i, p := range pages {
			out[i] = domain.TextbookPageRef{Page: p}
		}
		return out
	}

	result := read(t, 1)
	assert.Len(t, result.Words, 2)
	assert.Equal(t, refs(1, 2, 3), result.Pagination)

	// Deleting one page-one word hides it but keeps the page.
	testutils.MustInsertUserWord(t, db, userID, words[0].ID, "easy", `{"isDeleted":true}`)
	result = read(t, 1)
	require.Len(t, result.Words, 1)
	assert.Equal(t, words[1].ID, result.Words[0].ID)
	assert.Equal(t, refs(1, 2, 3), result.Pagination)

	// Deleting the only word of page three removes the page.
	testutils.MustInsertUserWord(t, db, userID, words[3].ID, "", `{"isDeleted":true}`)
	result = read(t, 3)
	assert.Empty(t, result.Words)
	assert.Equal(t, refs(1, 2), result.Pagination)

	t.Run("other users are unaffected", func(t *testing.T) {
		plan, err := aggregate.TextbookPlan(uuid.New(), 1, 3)
		require.NoError(t, err)
		result, err := s.Textbook(ctx, plan)
		require.NoError(t, err)
		assert.Len(t, result.Words, 1)
		assert.Equal(t, refs(1, 2, 3), result.Pagination)
	})

	t.Run("inside a caller transaction", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		plan, err := aggregate.TextbookPlan(userID, 1, 2)
		require.NoError(t, err)
		result, err := s.WithTx(tx).Textbook(ctx, plan)
		require.NoError(t, err)
		assert.Len(t, result.Words, 1)
		assert.Equal(t, refs(1, 2), result.Pagination)
	})
}

func TestAggregatedWordStore_Get(t *testing.T) {
	f := newStatsFixture(t)
	ctx := context.Background()

	t.Run("with overlay", func(t *testing.T) {
		w, err := f.store.Get(ctx, aggregate.SinglePlan(f.byText["w3"].ID, f.user))
		require.NoError(t, err)
		assert.Equal(t, f.byText["w3"], w.Word)
		require.NotNil(t, w.UserWord)
		assert.Equal(t, domain.Difficulty("easy"), w.UserWord.Difficulty)
	})

	t.Run("without overlay", func(t *testing.T) {
		w, err := f.store.Get(ctx, aggregate.SinglePlan(f.byText["w4"].ID, f.user))
		require.NoError(t, err)
		assert.Nil(t, w.UserWord)

		data, err := json.Marshal(w)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "userWord")
	})

	t.Run("missing word", func(t *testing.T) {
		wordID := uuid.New()
		w, err := f.store.Get(ctx, aggregate.SinglePlan(wordID, f.user))
		require.Error(t, err)
		assert.Nil(t, w)

		var notFound *store.NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, wordID, notFound.WordID)
		assert.Equal(t, f.user, notFound.UserID)
		assert.Equal(t, store.EntityUserWord, notFound.Entity)
		assert.ErrorIs(t, err, store.ErrWordNotFound)
		assert.True(t, store.IsNotFoundError(err))
		assert.Contains(t, err.Error(), "user word was not found")
	})
}

func TestAggregatedWordStore_Idempotent(t *testing.T) {
	f := newStatsFixture(t)
	ctx := context.Background()

	plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: f.user, PerPage: 3, Page: 1})
	require.NoError(t, err)

	first, err := f.store.List(ctx, plan)
	require.NoError(t, err)
	second, err := f.store.List(ctx, plan)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAggregatedWordStore_ConcurrentUsers(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	s := sqlite.NewAggregatedWordStore(db, nil)

	const users = 16
	userIDs := make([]uuid.UUID, users)
	wordIDs := make([]uuid.UUID, users)
	for i := range userIDs {
		userIDs[i] = uuid.New()
		wordIDs[i] = testutils.MustInsertWord(t, db).ID
		testutils.MustInsertUserWord(t, db, userIDs[i], wordIDs[i], "difficult", "")
	}

	errs := make(chan error, users)
	var wg sync.WaitGroup
	for i := range userIDs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: userIDs[i]})
			if err != nil {
				errs <- err
				return
			}
			listing, err := s.List(context.Background(), plan)
			if err != nil {
				errs <- err
				return
			}
			for _, w := range listing.Words {
				if w.UserWord != nil && w.ID != wordIDs[i] {
					errs <- fmt.Errorf("user %d saw the overlay of word %s", i, w.ID)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestAggregatedWordStore_Errors(t *testing.T) {
	t.Run("mode mismatch", func(t *testing.T) {
		s := sqlite.NewAggregatedWordStore(testutils.NewSQLiteDB(t), nil)
		plan, err := aggregate.StatsPlan(uuid.New(), nil)
		require.NoError(t, err)

		_, err = s.List(context.Background(), plan)
		assert.ErrorIs(t, err, store.ErrInvalidPlan)
	})

	t.Run("canceled context", func(t *testing.T) {
		s := sqlite.NewAggregatedWordStore(testutils.NewSQLiteDB(t), nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		plan, err := aggregate.ListPlan(aggregate.ListParams{UserID: uuid.New()})
		require.NoError(t, err)

		_, err = s.List(ctx, plan)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing schema", func(t *testing.T) {
		db, err := sqlite.Open(context.Background(), t.TempDir()+"/empty.db", nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		s := sqlite.NewAggregatedWordStore(db, nil)
		_, err = s.Get(context.Background(), aggregate.SinglePlan(uuid.New(), uuid.New()))
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
		assert.True(t, store.IsUnavailableError(err))
	})

	t.Run("closed database", func(t *testing.T) {
		db := testutils.NewSQLiteDB(t)
		require.NoError(t, db.Close())

		s := sqlite.NewAggregatedWordStore(db, nil)
		plan, err := aggregate.StatsPlan(uuid.New(), nil)
		require.NoError(t, err)

		_, err = s.Counts(context.Background(), plan)
		require.Error(t, err)
		var storeErr *store.StoreError
		assert.True(t, errors.As(err, &storeErr))
	})
}
