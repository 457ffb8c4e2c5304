package aggregate

import "github.com/google/uuid"

// JoinSpec describes the left-outer join of the word catalog with the
// overlays of a single user: every word appears once, carrying the overlay
// whose user_id is UserID and whose word_id is the word's id, if any.
type JoinSpec struct {
	UserID uuid.UUID
}

// BuildJoin returns the join for userID. The id is used verbatim; callers
// validate it upstream.
func BuildJoin(userID uuid.UUID) JoinSpec {
	return JoinSpec{UserID: userID}
}
