package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/lexis-api/internal/api/shared"
	"github.com/phrazzld/lexis-api/internal/platform/logger"
	"github.com/phrazzld/lexis-api/internal/service"
)

// Query parameter names of the aggregated word routes.
const (
	paramGroup        = "group"
	paramPage         = "page"
	paramWordsPerPage = "wordsPerPage"
	paramFilter       = "filter"
	paramWordID       = "wordId"

	// DefaultWordsPerPage applies when wordsPerPage is omitted.
	DefaultWordsPerPage = 10
)

// ListWordsQuery holds the parsed query of GET /aggregatedWords.
type ListWordsQuery struct {
	Group        *int   `validate:"omitempty,gte=0"`
	Page         int    `validate:"gte=0"`
	WordsPerPage int    `validate:"gte=0"`
	Filter       string `validate:"max=4096"`
}

// TextbookQuery holds the parsed query of GET /aggregatedWords/forTextbook.
type TextbookQuery struct {
	Group *int `validate:"required,gte=0"`
	Page  *int `validate:"required,gte=0"`
}

// WordHandler serves the aggregated word reads of one user.
type WordHandler struct {
	wordService service.AggregatedWordService
	logger      *slog.Logger
}

// NewWordHandler creates a new WordHandler
func NewWordHandler(wordService service.AggregatedWordService, logger *slog.Logger) *WordHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for WordHandler")
	}

	return &WordHandler{
		wordService: wordService,
		logger:      logger.With(slog.String("component", "word_handler")),
	}
}

// Routes mounts the handler's endpoints on r. Static paths are registered
// before the {wordId} pattern so they are never read as word ids.
func (h *WordHandler) Routes(r chi.Router) {
	r.Get("/", h.ListWords)
	r.Get("/stat", h.GetStats)
	r.Get("/forTextbook", h.GetTextbookPage)
	r.Get("/{"+paramWordID+"}", h.GetWord)
}

// ListWords handles GET /aggregatedWords.
func (h *WordHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	q, err := parseListWordsQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	listing, err := h.wordService.List(r.Context(), service.ListRequest{
		UserID:  userID,
		Group:   q.Group,
		Page:    q.Page,
		PerPage: q.WordsPerPage,
		Filter:  q.Filter,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list words")
		return
	}

	log.Debug("listed aggregated words",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(listing.Words)))
	shared.RespondWithJSON(w, r, http.StatusOK, listing)
}

// GetStats handles GET /aggregatedWords/stat.
func (h *WordHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	group, err := shared.IntQueryParam(r, paramGroup)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	counts, err := h.wordService.Stats(r.Context(), userID, group)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count words")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, counts)
}

// GetTextbookPage handles GET /aggregatedWords/forTextbook. Both group and
// page are required.
func (h *WordHandler) GetTextbookPage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	var q TextbookQuery
	var err error
	if q.Group, err = shared.IntQueryParam(r, paramGroup); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if q.Page, err = shared.IntQueryParam(r, paramPage); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&q); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.wordService.Textbook(r.Context(), userID, *q.Group, *q.Page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load textbook page")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, page)
}

// GetWord handles GET /aggregatedWords/{wordId}.
func (h *WordHandler) GetWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, wordID, ok := handleUserIDAndPathUUID(w, r, paramWordID, log)
	if !ok {
		return
	}

	word, err := h.wordService.Get(r.Context(), wordID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get word")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, word)
}

func parseListWordsQuery(r *http.Request) (ListWordsQuery, error) {
	q := ListWordsQuery{Filter: r.URL.Query().Get(paramFilter)}

	var err error
	if q.Group, err = shared.IntQueryParam(r, paramGroup); err != nil {
		return q, err
	}
	if q.Page, err = shared.IntQueryParamOr(r, paramPage, 0); err != nil {
		return q, err
	}
	if q.WordsPerPage, err = shared.IntQueryParamOr(r, paramWordsPerPage, DefaultWordsPerPage); err != nil {
		return q, err
	}
	return q, shared.ValidateRequest(&q)
}
