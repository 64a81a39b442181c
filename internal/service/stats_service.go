package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rehanhussain-dev/rural-health-app/internal/delivery/dto"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	statsCacheKey = "admin:stats:overview"
	statsCacheTTL = 30 * time.Second
)

// StatsService computes the admin dashboard aggregates (appointment counts
// by status, account counts by role). Results are cached in Redis for a
// short TTL; a Redis failure falls back to the database.
type StatsService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	log             *logrus.Logger
	userRepo        repository.UserRepository
	appointmentRepo repository.AppointmentRepository
}

func NewStatsService(
	db *gorm.DB,
	redisClient *redis.Client,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	appointmentRepo repository.AppointmentRepository,
) *StatsService {
	return &StatsService{
		db:              db,
		redisClient:     redisClient,
		log:             log,
		userRepo:        userRepo,
		appointmentRepo: appointmentRepo,
	}
}

func (s *StatsService) Overview(ctx context.Context) (*dto.StatsResponse, error) {
	if cached, err := s.redisClient.Get(ctx, statsCacheKey).Result(); err == nil {
		var stats dto.StatsResponse
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
		s.log.Warnf("Failed to decode cached stats, recomputing: %+v", err)
	} else if err != redis.Nil {
		s.log.Warnf("Redis unavailable for stats cache, falling back to DB: %+v", err)
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(stats); err == nil {
		if err := s.redisClient.Set(ctx, statsCacheKey, encoded, statsCacheTTL).Err(); err != nil {
			s.log.Warnf("Failed to cache stats (non-fatal): %+v", err)
		}
	}

	return stats, nil
}

func (s *StatsService) compute(ctx context.Context) (*dto.StatsResponse, error) {
	db := s.db.WithContext(ctx)

	appointmentCounts, err := s.appointmentRepo.CountByStatus(db)
	if err != nil {
		s.log.Warnf("Failed to count appointments by status: %+v", err)
		return nil, err
	}

	userCounts, err := s.userRepo.CountByRole(db)
	if err != nil {
		s.log.Warnf("Failed to count users by role: %+v", err)
		return nil, err
	}

	stats := &dto.StatsResponse{
		Appointments: map[string]int64{
			string(entity.AppointmentStatusPending):   appointmentCounts[entity.AppointmentStatusPending],
			string(entity.AppointmentStatusConfirmed): appointmentCounts[entity.AppointmentStatusConfirmed],
			string(entity.AppointmentStatusCancelled): appointmentCounts[entity.AppointmentStatusCancelled],
			string(entity.AppointmentStatusCompleted): appointmentCounts[entity.AppointmentStatusCompleted],
		},
		Users: map[string]int64{
			string(entity.RolePatient): userCounts[entity.RolePatient],
			string(entity.RoleDoctor):  userCounts[entity.RoleDoctor],
			string(entity.RoleAdmin):   userCounts[entity.RoleAdmin],
		},
		GeneratedAt: time.Now().UTC(),
	}

	return stats, nil
}
