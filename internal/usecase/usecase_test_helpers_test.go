package usecase_test

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/repository"
	"github.com/rehanhussain-dev/rural-health-app/internal/service"
	"github.com/rehanhussain-dev/rural-health-app/internal/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
// The DSN is uniquified so tests in the same process don't share state.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:usecase_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&entity.User{}, &entity.Appointment{}, &entity.AuditLog{}); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}

	return db
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func createUser(t *testing.T, db *gorm.DB, name, email string, role entity.Role) *entity.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &entity.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

func identityOf(user *entity.User) entity.Identity {
	return entity.Identity{ID: user.ID, Role: user.Role}
}

func newAppointmentUsecase(db *gorm.DB) usecase.AppointmentUsecase {
	log := quietLogger()
	auditService := service.NewAuditService(log, repository.NewAuditLogRepository())
	return usecase.NewAppointmentUsecase(db, log, repository.NewAppointmentRepository(), repository.NewUserRepository(), auditService)
}

// setStatus writes a status directly, bypassing the guarded transition.
// Used to place fixtures into states the API cannot reach (completed).
func setStatus(t *testing.T, db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) {
	t.Helper()
	err := db.Model(&entity.Appointment{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		t.Fatalf("failed to set status: %v", err)
	}
}
