// internal/services/directory_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/config"
	"github.com/licensehub/licensehub-backend/internal/models"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

// DirectoryService owns users and profiles. It is the source of truth for
// every role and department check in the system.
type DirectoryService struct {
	db  *gorm.DB
	cfg *config.Config
}

type RegisterRequest struct {
	Username   string      `json:"username" validate:"required,username"`
	Email      string      `json:"email" validate:"required,email"`
	Password   string      `json:"password" validate:"required,strong_password"`
	Role       models.Role `json:"role,omitempty"`
	Department string      `json:"department,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

type UpdateProfileRequest struct {
	Role       models.Role `json:"role,omitempty"`
	Department *string     `json:"department,omitempty"`
}

func NewDirectoryService(db *gorm.DB, cfg *config.Config) *DirectoryService {
	return &DirectoryService{
		db:  db,
		cfg: cfg,
	}
}

// Register creates the user and its profile in one transaction. A user
// without a profile is an error state, so profile creation is an explicit
// step here rather than a save hook.
func (s *DirectoryService) Register(req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleAdmin && role != models.RoleDeptHead && role != models.RoleUser {
		return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, req.Role)
	}

	var existing models.User
	if err := s.db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error; err == nil {
		if existing.Email == req.Email {
			return nil, fmt.Errorf("%w: user with this email already exists", ErrValidation)
		}
		return nil, fmt.Errorf("%w: username already taken", ErrValidation)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if role == models.RoleDeptHead {
			// At most one department head per department.
			key := models.NormalizeDepartment(req.Department)
			var count int64
			if err := tx.Model(&models.Profile{}).
				Where("role = ? AND department_key = ?", models.RoleDeptHead, key).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check department heads: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("%w: department %q already has a department head", ErrValidation, req.Department)
			}
		}

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		profile := &models.Profile{
			UserID: user.ID,
			Role:   role,
		}
		profile.SetDepartment(req.Department)
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *DirectoryService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var user models.User
	if err := s.db.Preload("Profile").Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", ErrValidation)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", ErrValidation)
	}

	now := time.Now()
	user.LastLoginAt = &now
	s.db.Save(&user)

	return s.issueTokens(&user)
}

func (s *DirectoryService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	userIDStr, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrValidation)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID in token", ErrValidation)
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *DirectoryService) issueTokens(user *models.User) (*AuthResponse, error) {
	role := models.RoleUser
	department := ""
	if user.Profile != nil {
		role = user.Profile.Role
		department = user.Profile.Department
	}

	accessToken, err := utils.GenerateJWT(
		user.ID,
		user.Username,
		string(role),
		department,
		s.cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

// ResolveActor loads the authorization context for a user. A missing
// profile violates the one-user-one-profile invariant and is reported as
// such rather than papered over.
func (s *DirectoryService) ResolveActor(userID uuid.UUID) (*Actor, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, fmt.Errorf("%w: user %s has no profile", ErrInvalidState, user.Username)
	}
	return &Actor{
		UserID:        user.ID,
		Username:      user.Username,
		Role:          user.Profile.Role,
		Department:    user.Profile.Department,
		DepartmentKey: user.Profile.DepartmentKey,
	}, nil
}

func (s *DirectoryService) GetUser(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *DirectoryService) GetProfile(userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: profile", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &profile, nil
}

func (s *DirectoryService) ListUsers(actor *Actor, params utils.PaginationParams) ([]models.User, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, fmt.Errorf("%w: only admins may list users", ErrForbidden)
	}

	query := s.db.Model(&models.User{}).Preload("Profile")
	if params.Search != "" {
		query = query.Where("username ILIKE ? OR email ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "username"})
	query = utils.ApplyPagination(query, params)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, total, nil
}

// DepartmentTeam returns the USER-role members of the acting department
// head's department.
func (s *DirectoryService) DepartmentTeam(actor *Actor) ([]models.User, error) {
	if !actor.IsDeptHead() {
		return nil, fmt.Errorf("%w: only department heads have a team view", ErrForbidden)
	}

	var users []models.User
	err := s.db.Preload("Profile").
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("profiles.department_key = ? AND profiles.role = ?", actor.DepartmentKey, models.RoleUser).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch department team: %w", err)
	}
	return users, nil
}

// UpdateUserProfile lets an admin change another user's role or department.
// The dept-head-per-department guard applies at registration time only; the
// admin path is trusted to restructure departments.
func (s *DirectoryService) UpdateUserProfile(actor *Actor, userID uuid.UUID, req *UpdateProfileRequest) (*models.Profile, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may update profiles", ErrForbidden)
	}

	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	if req.Role != "" {
		if req.Role != models.RoleAdmin && req.Role != models.RoleDeptHead && req.Role != models.RoleUser {
			return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, req.Role)
		}
		profile.Role = req.Role
	}
	if req.Department != nil {
		profile.SetDepartment(*req.Department)
	}

	if err := s.db.Save(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// UpdateOwnDepartment lets a user pick their department during onboarding.
func (s *DirectoryService) UpdateOwnDepartment(actor *Actor, department string) (*models.Profile, error) {
	profile, err := s.GetProfile(actor.UserID)
	if err != nil {
		return nil, err
	}
	profile.SetDepartment(department)
	if err := s.db.Save(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}
	return profile, nil
}
