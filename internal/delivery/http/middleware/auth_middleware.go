package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/repository"
	"github.com/rehanhussain-dev/rural-health-app/pkg/jwt"
	"github.com/rehanhussain-dev/rural-health-app/pkg/response"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
	TokenIDKey  contextKey = "token_id"
)

// AuthMiddleware resolves the caller's identity from the Authorization
// header. The token only proves possession of an account id; the role (and
// the account's continued existence) is re-read from storage on every
// request, since both can change after the token was issued.
type AuthMiddleware struct {
	db          *gorm.DB
	jwtService  *jwt.JWTService
	redisClient *redis.Client
	userRepo    repository.UserRepository
}

func NewAuthMiddleware(db *gorm.DB, jwtService *jwt.JWTService, redisClient *redis.Client, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		db:          db,
		jwtService:  jwtService,
		redisClient: redisClient,
		userRepo:    userRepo,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		// Check if token exists in Redis (not revoked)
		tokenKey := fmt.Sprintf("access_token:%s:%s", claims.UserID.String(), claims.TokenID)
		exists, err := m.redisClient.Exists(r.Context(), tokenKey).Result()
		if err != nil {
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if exists == 0 {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		// Tokens outlive accounts: re-derive identity from stored state
		user, err := m.userRepo.FindByID(m.db.WithContext(r.Context()), claims.UserID)
		if err != nil {
			response.InternalServerError(w, "Failed to resolve identity")
			return
		}
		if user == nil {
			response.Unauthorized(w, "Account not found")
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, entity.Identity{ID: user.ID, Role: user.Role})
		ctx = context.WithValue(ctx, TokenIDKey, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentityFromContext extracts the resolved identity from context
func GetIdentityFromContext(ctx context.Context) (entity.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(entity.Identity)
	return identity, ok
}

// GetTokenIDFromContext extracts the token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}
