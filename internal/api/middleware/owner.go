package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/api/shared"
	"github.com/phrazzld/lexis-api/internal/platform/logger"
)

// UserIDParam is the route parameter naming the owner of a resource.
const UserIDParam = "userId"

// RequireOwner rejects requests whose {userId} route parameter differs from
// the authenticated user. It must run after Authenticate, inside a chi route
// that declares the parameter.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authUserID, ok := GetUserID(r)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		raw := chi.URLParam(r, UserIDParam)
		pathUserID, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid userId: has invalid format")
			return
		}

		if pathUserID != authUserID {
			logger.FromContextOrDefault(r.Context(), slog.Default()).Warn("access to another user's words denied",
				slog.String("path_user_id", pathUserID.String()),
				slog.String("auth_user_id", authUserID.String()))
			shared.RespondWithError(w, r, http.StatusForbidden, "Access to another user's words is forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}
