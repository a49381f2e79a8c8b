package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"listinghub/internal/config"
	"listinghub/internal/models"
	"listinghub/internal/repository"
	"listinghub/internal/security"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
	Phone    *string
	Image    *ImageUpload
}

type LoginResult struct {
	Token string
	User  models.User
}

// ProfileUpdate carries the self-service changes. RoleRequested is set when the
// request body named a role at all.
type ProfileUpdate struct {
	Username      *string
	Email         *string
	Phone         *string
	Image         *ImageUpload
	RoleRequested bool
}

type UserService struct {
	users   UserStore
	uploads *UploadService
	cfg     config.SecurityConfig
	log     zerolog.Logger
}

func NewUserService(users UserStore, uploads *UploadService, cfg config.SecurityConfig, log zerolog.Logger) *UserService {
	return &UserService{
		users:   users,
		uploads: uploads,
		cfg:     cfg,
		log:     log,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	roleName := strings.ToLower(strings.TrimSpace(in.Role))
	if roleName == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return models.User{}, validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}

	role := models.UserRole(roleName)
	if !role.Valid() {
		return models.User{}, validationError("role must be one of: user, admin")
	}
	if role == models.UserRoleAdmin && !s.cfg.AllowAdminRegistration {
		return models.User{}, forbidden("admin registration is disabled")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, conflict("email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := security.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        in.Phone,
	}

	if in.Image != nil {
		url, err := s.uploads.SaveProfileImage(ctx, *in.Image)
		if err != nil {
			return models.User{}, err
		}
		user.ProfileImage = &url
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if user.ProfileImage != nil {
			s.uploads.Remove(ctx, *user.ProfileImage)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, conflict("username or email already registered")
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown email and wrong
// password fail identically.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, validationError("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			security.BurnPasswordCheck(password)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := security.GenerateAccessToken(s.cfg.JWTSecret, user, s.cfg.JWTTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: user}, nil
}

func (s *UserService) Profile(ctx context.Context, actor security.Identity) (models.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, notFound("user not found")
		}
		return models.User{}, fmt.Errorf("load profile: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the actor's own record. The role can never be changed here.
func (s *UserService) UpdateProfile(ctx context.Context, actor security.Identity, in ProfileUpdate) (models.User, error) {
	if in.RoleRequested {
		return models.User{}, forbidden("role cannot be changed")
	}

	current, err := s.Profile(ctx, actor)
	if err != nil {
		return models.User{}, err
	}

	var patch models.ProfilePatch
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return models.User{}, validationError("username must not be empty")
		}
		patch.Username = &username
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := validateEmail(email); err != nil {
			return models.User{}, err
		}
		if email != current.Email {
			other, err := s.users.FindByEmail(ctx, email)
			switch {
			case err == nil && other.ID != current.ID:
				return models.User{}, conflict("email already registered")
			case err != nil && !errors.Is(err, repository.ErrUserNotFound):
				return models.User{}, fmt.Errorf("lookup email: %w", err)
			}
		}
		patch.Email = &email
	}
	patch.Phone = in.Phone

	if in.Image != nil {
		url, err := s.uploads.SaveProfileImage(ctx, *in.Image)
		if err != nil {
			return models.User{}, err
		}
		patch.ProfileImage = &url
	}

	if patch.Empty() {
		return current, nil
	}

	updated, err := s.users.UpdateProfile(ctx, current.ID, patch)
	if err != nil {
		if patch.ProfileImage != nil {
			s.uploads.Remove(ctx, *patch.ProfileImage)
		}
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return models.User{}, conflict("username or email already registered")
		case errors.Is(err, repository.ErrUserNotFound):
			return models.User{}, notFound("user not found")
		}
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}

	if patch.ProfileImage != nil && current.ProfileImage != nil && *current.ProfileImage != *patch.ProfileImage {
		s.uploads.Discard(ctx, *current.ProfileImage)
	}
	return updated, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationError("email is not a valid address")
	}
	return nil
}
