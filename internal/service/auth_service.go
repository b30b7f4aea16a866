package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/config"
	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/importer"
	"github.com/straye-as/renewal-api/internal/mapper"
	"github.com/straye-as/renewal-api/internal/repository"
	"go.uber.org/zap"
)

// AuthService handles staff accounts: registration, login, password resets
// and the admin approval flow.
type AuthService struct {
	users  *repository.UserRepository
	tokens *auth.TokenManager
	cfg    *config.AuthConfig
	logger *zap.Logger
}

func NewAuthService(users *repository.UserRepository, tokens *auth.TokenManager, cfg *config.AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg, logger: logger}
}

func (s *AuthService) checkPassword(password string) error {
	if len(password) < s.cfg.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, s.cfg.MinPasswordLength)
	}
	return nil
}

func (s *AuthService) createUser(ctx context.Context, username, password, phone, email string, role domain.Role, approved bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if err := s.checkPassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:   username,
		Password:   hash,
		Role:       role,
		Phone:      importer.NormalizePhone(phone),
		Email:      strings.TrimSpace(email),
		IsApproved: approved,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Register creates an unapproved agent account
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserDTO, error) {
	user, err := s.createUser(ctx, req.Username, req.Password, req.Phone, req.Email, domain.RoleAgent, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered, awaiting approval", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Login verifies credentials first and the approval gate second, so an
// unapproved account with a wrong password still gets 401.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Warn("failed login", zap.String("username", user.Username))
		return nil, ErrUnauthorized
	}
	if !user.IsApproved {
		return nil, ErrUserNotApproved
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return &domain.LoginResponse{
		Message: "login successful",
		User:    mapper.ToUserDTO(user),
		Token:   token,
	}, nil
}

// ForgotPassword resets the password of the account matching identifier,
// by exact email or by the last nine digits of the phone number.
func (s *AuthService) ForgotPassword(ctx context.Context, identifier string) (*domain.ForgotPasswordResponse, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is required", ErrInvalidInput)
	}

	suffix := ""
	if digits := importer.NormalizePhone(identifier); len(digits) >= 9 {
		suffix = digits[len(digits)-9:]
	}

	user, err := s.users.FindByIdentifier(ctx, identifier, suffix)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: no user matches this identifier", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	tmp, err := auth.TemporaryPassword()
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(tmp)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, true); err != nil {
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}

	method := "sms"
	if strings.EqualFold(user.Email, identifier) {
		method = "email"
	}
	s.logger.Info("temporary password issued", zap.Uint("user_id", user.ID), zap.String("method", method))

	resp := &domain.ForgotPasswordResponse{Message: "temporary password issued", Method: method}
	if s.cfg.ExposeTempPassword {
		resp.DebugPass = tmp
	}
	return resp, nil
}

// ChangePassword sets a new password and clears the forced-change flag
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, newPassword string) (*domain.UserDTO, error) {
	if err := s.checkPassword(newPassword); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, false); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to change password: %w", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// AddUser creates an approved account on behalf of an admin
func (s *AuthService) AddUser(ctx context.Context, req *domain.AddUserRequest) (*domain.UserDTO, error) {
	user, err := s.createUser(ctx, req.Username, req.Password, req.Phone, req.Email, req.Role, true)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user added by admin", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *AuthService) bootstrapAdminID(ctx context.Context) uint {
	admin, err := s.users.GetByUsername(ctx, s.cfg.BootstrapAdminUsername)
	if err != nil {
		return 0
	}
	return admin.ID
}

// ListUsers returns every account except the bootstrap admin
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.UserDTO, error) {
	users, err := s.users.List(ctx, s.bootstrapAdminID(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]domain.UserDTO, len(users))
	for i := range users {
		out[i] = mapper.ToUserDTO(&users[i])
	}
	return out, nil
}

func (s *AuthService) ApproveUser(ctx context.Context, id uint, role domain.Role) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err := s.users.Approve(ctx, id, role); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to approve user: %w", err)
	}
	s.logger.Info("user approved", zap.Uint("user_id", id), zap.String("role", string(role)))
	return nil
}

// DeleteUser removes an account. Assignments pointing at it become dangling
// references that readers display as not assigned.
func (s *AuthService) DeleteUser(ctx context.Context, id uint) error {
	if id != 0 && id == s.bootstrapAdminID(ctx) {
		return fmt.Errorf("%w: the bootstrap admin cannot be deleted", ErrForbidden)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("user deleted", zap.Uint("user_id", id))
	return nil
}

// EnsureAdmin creates the bootstrap admin when it does not exist yet
func (s *AuthService) EnsureAdmin(ctx context.Context, password string) (bool, error) {
	_, err := s.users.GetByUsername(ctx, s.cfg.BootstrapAdminUsername)
	if err == nil {
		return false, nil
	}
	if !repository.IsNotFound(err) {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}
	if password == "" {
		return false, errors.New("bootstrap admin password is not configured")
	}
	if _, err := s.createUser(ctx, s.cfg.BootstrapAdminUsername, password, "", "", domain.RoleAdmin, true); err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("username", s.cfg.BootstrapAdminUsername))
	return true, nil
}

// UserResolver resolves weak user references. A missing user is reported
// through the boolean, never as an error.
type UserResolver struct {
	users *repository.UserRepository
}

func NewUserResolver(users *repository.UserRepository) *UserResolver {
	return &UserResolver{users: users}
}

func (r *UserResolver) Resolve(ctx context.Context, id domain.UserID) (*domain.User, bool) {
	user, err := r.users.GetByID(ctx, uint(id))
	if err != nil {
		return nil, false
	}
	return user, true
}

// ResolveMany loads every referenced user in one query
func (r *UserResolver) ResolveMany(ctx context.Context, ids ...*domain.UserID) (map[uint]domain.User, error) {
	seen := map[uint]bool{}
	var list []uint
	for _, id := range ids {
		if id != nil && !seen[uint(*id)] {
			seen[uint(*id)] = true
			list = append(list, uint(*id))
		}
	}
	return r.users.GetByIDs(ctx, list)
}
