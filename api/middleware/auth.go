package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nguyendm/salemarket-backend/api/responses"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	pkgerrors "github.com/nguyendm/salemarket-backend/pkg/errors"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
	"github.com/nguyendm/salemarket-backend/pkg/types"
)

const (
	userIDHeader = "X-User-Id"
	rolesHeader  = "X-User-Roles"
)

// Auth resolves the caller identity forwarded by the gateway and seeds the
// request context with it. Token verification happens upstream; a request
// without a user id never reaches a service operation.
func Auth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(userIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user id"))
				return
			}

			roles, err := parseRoles(r.Header.Get(rolesHeader))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid roles"))
				return
			}

			auth := types.AuthContext{UserID: userID, Roles: roles}
			ctx := WithAuth(r.Context(), auth)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":     userID.String(),
					"actor_roles": rolesHeaderValue(roles),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseRoles(header string) ([]enums.Role, error) {
	var roles []enums.Role
	for _, part := range strings.Split(header, ",") {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		role, err := enums.ParseRole(value)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		roles = []enums.Role{enums.RoleBuyer}
	}
	return roles, nil
}

func rolesHeaderValue(roles []enums.Role) string {
	parts := make([]string, 0, len(roles))
	for _, role := range roles {
		parts = append(parts, role.String())
	}
	return strings.Join(parts, ",")
}
