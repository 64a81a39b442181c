package repository

import (
	"github.com/rehanhussain-dev/rural-health-app/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(db *gorm.DB, user *entity.User) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error)
	FindByEmail(db *gorm.DB, email string) (*entity.User, error)
	FindByRole(db *gorm.DB, role entity.Role) ([]entity.User, error)
	FindAll(db *gorm.DB) ([]entity.User, error)
	CountByRole(db *gorm.DB) (map[entity.Role]int64, error)
}
