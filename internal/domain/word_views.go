package domain

import "encoding/json"

// WordListing is the result of a list read.
//
// When Paginated is true it serializes as
// {"paginatedResults": [...], "totalCount": N}, otherwise as a flat array.
type WordListing struct {
	Words      []AggregatedWord
	TotalCount int
	Paginated  bool
}

// MarshalJSON implements json.Marshaler.
func (l WordListing) MarshalJSON() ([]byte, error) {
	words := l.Words
	if words == nil {
		words = []AggregatedWord{}
	}
	if !l.Paginated {
		return json.Marshal(words)
	}
	return json.Marshal(struct {
		PaginatedResults []AggregatedWord `json:"paginatedResults"`
		TotalCount       int              `json:"totalCount"`
	}{
		PaginatedResults: words,
		TotalCount:       l.TotalCount,
	})
}

// WordCounts holds the per-user statistics over a (possibly group-filtered) catalog.
// The three counts are computed independently and may overlap.
type WordCounts struct {
	DifficultCount int `json:"difficultCount"`
	DeletedCount   int `json:"deletedCount"`
	LearningCount  int `json:"learningCount"`
}

// TextbookPageRef is one entry of the textbook navigation list.
type TextbookPageRef struct {
	Page int `json:"page"`
}

// TextbookPage is the result of a textbook read: the words of one printed page
// plus the ascending, de-duplicated list of pages available in the group.
type TextbookPage struct {
	Words      []AggregatedWord  `json:"words"`
	Pagination []TextbookPageRef `json:"pagination"`
}
