package usecase

import (
	"context"

	"github.com/rehanhussain-dev/rural-health-app/internal/converter"
	"github.com/rehanhussain-dev/rural-health-app/internal/delivery/dto"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserUsecase serves the account directory: the public doctor list patients
// browse before booking, the patient roster doctors see, and the full
// account list for admins.
type UserUsecase interface {
	ListDoctors(ctx context.Context) (*dto.UserListResponse, error)
	ListPatients(ctx context.Context) (*dto.UserListResponse, error)
	ListAllUsers(ctx context.Context) (*dto.UserListResponse, error)
}

type userUsecase struct {
	db       *gorm.DB
	log      *logrus.Logger
	userRepo repository.UserRepository
}

func NewUserUsecase(db *gorm.DB, log *logrus.Logger, userRepo repository.UserRepository) UserUsecase {
	return &userUsecase{
		db:       db,
		log:      log,
		userRepo: userRepo,
	}
}

func (u *userUsecase) ListDoctors(ctx context.Context) (*dto.UserListResponse, error) {
	return u.listByRole(ctx, entity.RoleDoctor)
}

func (u *userUsecase) ListPatients(ctx context.Context) (*dto.UserListResponse, error) {
	return u.listByRole(ctx, entity.RolePatient)
}

func (u *userUsecase) ListAllUsers(ctx context.Context) (*dto.UserListResponse, error) {
	users, err := u.userRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to list users: %+v", err)
		return nil, err
	}

	return &dto.UserListResponse{
		Users: converter.UsersToResponses(users),
		Total: len(users),
	}, nil
}

func (u *userUsecase) listByRole(ctx context.Context, role entity.Role) (*dto.UserListResponse, error) {
	users, err := u.userRepo.FindByRole(u.db.WithContext(ctx), role)
	if err != nil {
		u.log.Warnf("Failed to list users with role %s: %+v", role, err)
		return nil, err
	}

	return &dto.UserListResponse{
		Users: converter.UsersToResponses(users),
		Total: len(users),
	}, nil
}
