// internal/services/user_service.go
package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShriviCTO/shrivi/internal/apperrors"
	"github.com/ShriviCTO/shrivi/internal/models"
	"github.com/ShriviCTO/shrivi/internal/utils"
)

// UserService covers the founder-only administration surface: listing
// accounts, moving them between roles in the closed set, and deactivation.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required"`
}

func (s *UserService) ListUsers(params utils.PaginationParams) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})
	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, err, "failed to count users")
	}

	query = utils.ApplySort(query, params, []string{"created_at", "name", "email", "role"})
	query = utils.ApplyPagination(query, params)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, err, "failed to fetch users")
	}
	return users, total, nil
}

// UpdateRole assigns a role from the closed set. Arbitrary role strings never
// reach the database.
func (s *UserService) UpdateRole(userID uuid.UUID, req *UpdateRoleRequest) (*models.User, error) {
	if !models.ValidRole(req.Role) {
		return nil, apperrors.Validation([]apperrors.FieldError{
			{Field: "role", Message: "role must be one of founder, inventory_manager, dispatch, content_manager, customer"},
		})
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}

	if err := s.db.Model(&user).Update("role", req.Role).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to update role")
	}
	return &user, nil
}

// Deactivate blocks further logins without destroying the account.
func (s *UserService) Deactivate(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "database error")
	}

	if err := s.db.Model(&user).Update("status", models.UserStatusDeactivated).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to deactivate user")
	}
	return &user, nil
}
