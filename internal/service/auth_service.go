package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"micro_marketplace/internal/model"
	"micro_marketplace/internal/repository"
	"micro_marketplace/internal/utils"
)

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Profile(ctx context.Context, userID int64) (*model.Profile, error)
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
	EnsureAdmin(ctx context.Context, name, email, password string) (*model.User, bool, error)
}

type authService struct {
	userRepo          repository.UserRepository
	productRepo       repository.ProductRepository
	jwtUtil           *utils.JWTUtil
	initialAdminEmail string
	log               zerolog.Logger
}

// NewAuthService creates a new AuthService. Registering with initialAdminEmail
// yields an admin account.
func NewAuthService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	jwtUtil *utils.JWTUtil,
	initialAdminEmail string,
	log zerolog.Logger,
) AuthService {
	return &authService{
		userRepo:          userRepo,
		productRepo:       productRepo,
		jwtUtil:           jwtUtil,
		initialAdminEmail: model.NormalizeEmail(initialAdminEmail),
		log:               log,
	}
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	email = model.NormalizeEmail(email)
	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", ErrUserAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	userRole := model.RoleUser
	if s.initialAdminEmail != "" && email == s.initialAdminEmail {
		userRole = model.RoleAdmin
		s.log.Info().Str("email", email).Msg("registering user as admin via INITIAL_ADMIN_EMAIL")
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         userRole,
		Favorites:    []int64{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role, user.Name)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("user created, but failed to generate token")
		return user, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}
	return user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role, user.Name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// Profile returns the user with favorites populated
func (s *authService) Profile(ctx context.Context, userID int64) (*model.Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	favorites, err := s.productRepo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	return &model.Profile{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Favorites: favorites,
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !utils.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return ErrWrongPassword
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// EnsureAdmin creates an admin account, or promotes the existing account with
// that email. The bool reports whether a new account was created.
func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) (*model.User, bool, error) {
	email = model.NormalizeEmail(email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.Role != model.RoleAdmin {
			if err := s.userRepo.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return nil, false, fmt.Errorf("failed to promote user: %w", err)
			}
			existing.Role = model.RoleAdmin
			s.log.Info().Str("email", email).Msg("existing user promoted to admin")
		}
		return existing, false, nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{Name: name, Email: email, PasswordHash: hashed, Role: model.RoleAdmin}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	s.log.Info().Str("email", email).Int64("user_id", user.ID).Msg("admin user created")
	return user, true, nil
}
