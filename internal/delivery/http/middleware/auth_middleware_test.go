package middleware_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rehanhussain-dev/rural-health-app/config"
	"github.com/rehanhussain-dev/rural-health-app/internal/delivery/http/middleware"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/repository"
	"github.com/rehanhussain-dev/rural-health-app/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	redisClient *redis.Client
	jwtService  *jwt.JWTService
	middleware  *middleware.AuthMiddleware
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:middleware_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&entity.User{}); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", Expiry: time.Hour})
	authMiddleware := middleware.NewAuthMiddleware(db, jwtService, redisClient, repository.NewUserRepository())

	return &testEnv{db: db, redisClient: redisClient, jwtService: jwtService, middleware: authMiddleware}
}

func (e *testEnv) createUser(t *testing.T, email string, role entity.Role) *entity.User {
	t.Helper()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &entity.User{Name: "Test User", Email: email, Password: string(hashed), Role: role}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// issueToken mirrors the login path: sign a token and register it in the
// allow-list.
func (e *testEnv) issueToken(t *testing.T, user *entity.User) string {
	t.Helper()
	token, tokenID, err := e.jwtService.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	key := fmt.Sprintf("access_token:%s:%s", user.ID.String(), tokenID)
	if err := e.redisClient.Set(context.Background(), key, "valid", time.Hour).Err(); err != nil {
		t.Fatalf("failed to store token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})
}

func doRequest(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateRejectsBadHeaders(t *testing.T) {
	env := setupEnv(t)
	handler := env.middleware.Authenticate(okHandler())

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc123"},
		{"no token", "Bearer"},
		{"garbage token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(handler, tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthenticateRejectsRevokedToken(t *testing.T) {
	env := setupEnv(t)
	user := env.createUser(t, "jane@example.com", entity.RolePatient)
	handler := env.middleware.Authenticate(okHandler())

	// Signed but never registered in the allow-list, same as post-logout
	token, _, err := env.jwtService.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	rec := doRequest(handler, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for revoked token, got %d", rec.Code)
	}
}

func TestAuthenticateRejectsDeletedAccount(t *testing.T) {
	env := setupEnv(t)
	user := env.createUser(t, "jane@example.com", entity.RolePatient)
	token := env.issueToken(t, user)
	handler := env.middleware.Authenticate(okHandler())

	if err := env.db.Delete(&entity.User{}, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	rec := doRequest(handler, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for deleted account, got %d", rec.Code)
	}
}

func TestAuthenticateResolvesIdentityFromStorage(t *testing.T) {
	env := setupEnv(t)
	user := env.createUser(t, "jane@example.com", entity.RolePatient)
	token := env.issueToken(t, user)

	var got entity.Identity
	handler := env.middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentityFromContext(r.Context())
		if !ok {
			t.Error("identity missing from context")
		}
		got = identity
		w.WriteHeader(http.StatusOK)
	}))

	rec := doRequest(handler, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.ID != user.ID || got.Role != entity.RolePatient {
		t.Errorf("unexpected identity %+v", got)
	}

	// Role changes take effect immediately, without reissuing the token
	if err := env.db.Model(&entity.User{}).Where("id = ?", user.ID).Update("role", entity.RoleDoctor).Error; err != nil {
		t.Fatalf("update role: %v", err)
	}
	rec = doRequest(handler, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after role change, got %d", rec.Code)
	}
	if got.Role != entity.RoleDoctor {
		t.Errorf("expected role to reflect stored state, got %s", got.Role)
	}
}

func TestRequireRoleExactMatch(t *testing.T) {
	env := setupEnv(t)
	admin := env.createUser(t, "admin@example.com", entity.RoleAdmin)
	doctor := env.createUser(t, "doc@example.com", entity.RoleDoctor)
	adminToken := env.issueToken(t, admin)
	doctorToken := env.issueToken(t, doctor)

	handler := env.middleware.Authenticate(middleware.RequireDoctor(okHandler()))

	// No hierarchy: admin does not pass a doctor-only gate
	rec := doRequest(handler, "Bearer "+adminToken)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for admin on doctor gate, got %d", rec.Code)
	}

	rec = doRequest(handler, "Bearer "+doctorToken)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for doctor, got %d", rec.Code)
	}
}

func TestRequireRoleWithoutAuthenticate(t *testing.T) {
	// A role gate with no resolved identity fails closed as 401
	handler := middleware.RequireAdmin(okHandler())
	rec := doRequest(handler, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
