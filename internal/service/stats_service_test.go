package service_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/repository"
	"github.com/rehanhussain-dev/rural-health-app/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&entity.User{}, &entity.Appointment{}, &entity.AuditLog{}); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}
	return db
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedUser(t *testing.T, db *gorm.DB, email string, role entity.Role) *entity.User {
	t.Helper()
	user := &entity.User{Name: "Seed", Email: email, Password: "x", Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func newStatsService(db *gorm.DB, redisClient *redis.Client) *service.StatsService {
	return service.NewStatsService(db, redisClient, quietLogger(), repository.NewUserRepository(), repository.NewAppointmentRepository())
}

func TestStatsOverview(t *testing.T) {
	db := setupTestDB(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := newStatsService(db, redisClient)
	ctx := context.Background()

	patient := seedUser(t, db, "pat@example.com", entity.RolePatient)
	doctor := seedUser(t, db, "doc@example.com", entity.RoleDoctor)
	seedUser(t, db, "adm@example.com", entity.RoleAdmin)

	for _, status := range []entity.AppointmentStatus{
		entity.AppointmentStatusPending,
		entity.AppointmentStatusPending,
		entity.AppointmentStatusConfirmed,
	} {
		appt := &entity.Appointment{
			PatientID: patient.ID,
			DoctorID:  doctor.ID,
			Date:      time.Now().Add(24 * time.Hour),
			Reason:    "Checkup",
			Status:    status,
		}
		if err := db.Create(appt).Error; err != nil {
			t.Fatalf("seed appointment: %v", err)
		}
	}

	stats, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	if got := stats.Appointments["pending"]; got != 2 {
		t.Errorf("expected 2 pending, got %d", got)
	}
	if got := stats.Appointments["confirmed"]; got != 1 {
		t.Errorf("expected 1 confirmed, got %d", got)
	}
	// Zero-valued buckets are still present
	if got, ok := stats.Appointments["completed"]; !ok || got != 0 {
		t.Errorf("expected completed bucket with 0, got %d (present=%v)", got, ok)
	}
	if got := stats.Users["patient"]; got != 1 {
		t.Errorf("expected 1 patient, got %d", got)
	}
	if got := stats.Users["admin"]; got != 1 {
		t.Errorf("expected 1 admin, got %d", got)
	}
}

func TestStatsOverviewUsesCache(t *testing.T) {
	db := setupTestDB(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := newStatsService(db, redisClient)
	ctx := context.Background()

	patient := seedUser(t, db, "pat@example.com", entity.RolePatient)
	doctor := seedUser(t, db, "doc@example.com", entity.RoleDoctor)

	first, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if first.Appointments["pending"] != 0 {
		t.Fatalf("expected 0 pending, got %d", first.Appointments["pending"])
	}

	// New data within the TTL is not visible: the cached snapshot wins
	appt := &entity.Appointment{PatientID: patient.ID, DoctorID: doctor.ID, Date: time.Now(), Reason: "Checkup"}
	if err := db.Create(appt).Error; err != nil {
		t.Fatalf("seed appointment: %v", err)
	}

	second, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if second.Appointments["pending"] != 0 {
		t.Errorf("expected cached 0 pending, got %d", second.Appointments["pending"])
	}

	// After the TTL elapses the snapshot is recomputed
	mr.FastForward(time.Minute)

	third, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if third.Appointments["pending"] != 1 {
		t.Errorf("expected recomputed 1 pending, got %d", third.Appointments["pending"])
	}
}

func TestStatsOverviewRedisDown(t *testing.T) {
	db := setupTestDB(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := newStatsService(db, redisClient)

	seedUser(t, db, "pat@example.com", entity.RolePatient)
	mr.Close()

	// Cache failures are non-fatal; the database still answers
	stats, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview with redis down: %v", err)
	}
	if stats.Users["patient"] != 1 {
		t.Errorf("expected 1 patient, got %d", stats.Users["patient"])
	}
}
