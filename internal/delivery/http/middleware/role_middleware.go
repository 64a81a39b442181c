package middleware

import (
	"net/http"

	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/pkg/response"
)

// RequireRole gates an endpoint on an exact role match. There is no
// hierarchy: each protected operation declares exactly one required role,
// and an admin does not pass a doctor-only gate. Runs after Authenticate,
// so a failure here is always 403, never 401.
func RequireRole(required entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentityFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Identity not found")
				return
			}

			if identity.Role != required {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience middleware for admin-only endpoints
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleAdmin)(next)
}

// RequireDoctor is a convenience middleware for doctor-only endpoints
func RequireDoctor(next http.Handler) http.Handler {
	return RequireRole(entity.RoleDoctor)(next)
}

// RequirePatient is a convenience middleware for patient-only endpoints
func RequirePatient(next http.Handler) http.Handler {
	return RequireRole(entity.RolePatient)(next)
}
