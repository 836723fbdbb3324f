package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lborres/realty/core"
	"github.com/lborres/realty/pkg/crypto"
)

// dummyVerifier equalises login timing for unknown emails.
type dummyVerifier interface {
	VerifyDummy(password string)
}

type AuthService struct {
	users          core.UserStorage
	passwordHasher crypto.PasswordHasher
	sessionManager *SessionManager
	now            func() time.Time
}

var _ core.AuthHandler = (*AuthService)(nil)

func NewAuthService(users core.UserStorage, passwordHasher crypto.PasswordHasher, sessionManager *SessionManager) *AuthService {
	return &AuthService{
		users:          users,
		passwordHasher: passwordHasher,
		sessionManager: sessionManager,
		now:            time.Now,
	}
}

// Register validates input, stores a new user and logs them in. A taken email
// is reported as a *core.ValidationError that also matches core.ErrUserExists.
func (s *AuthService) Register(ctx context.Context, in core.RegisterInput, ipAddress, userAgent string) (*core.AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	v := validateRegister(in)
	if !v.Has("email") {
		existing, err := s.users.GetUserByEmail(ctx, in.Email)
		switch {
		case err == nil && existing != nil:
			v.Add("email", core.MsgEmailTaken)
		case err != nil && !errors.Is(err, core.ErrUserNotFound):
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}
	}
	if !v.Empty() {
		return nil, v
	}

	hashed, err := s.passwordHasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &core.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, core.ErrUserExists) {
			taken := core.NewValidationError()
			taken.Add("email", core.MsgEmailTaken)
			return nil, taken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.sessionManager.Create(ctx, user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &core.AuthResult{User: user.Projection(), Session: session.Session, Token: session.Token}, nil
}

// Login returns core.ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *AuthService) Login(ctx context.Context, in core.LoginInput, ipAddress, userAgent string) (*core.AuthResult, error) {
	in.Email = normalizeEmail(in.Email)

	if v := validateLogin(in); !v.Empty() {
		return nil, v
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			if d, ok := s.passwordHasher.(dummyVerifier); ok {
				d.VerifyDummy(in.Password)
			}
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	valid, err := s.passwordHasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, core.ErrInvalidCredentials
	}

	session, err := s.sessionManager.Create(ctx, user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &core.AuthResult{User: user.Projection(), Session: session.Session, Token: session.Token}, nil
}

// Logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessionManager.Destroy(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CurrentUser resolves token to the calling identity. A session whose user no
// longer exists is destroyed and treated as unauthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (core.Identity, bool, error) {
	session, err := s.sessionManager.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrInvalidToken) ||
			errors.Is(err, core.ErrSessionNotFound) ||
			errors.Is(err, core.ErrSessionExpired) {
			return core.Identity{}, false, nil
		}
		return core.Identity{}, false, fmt.Errorf("failed to verify session: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			_ = s.sessionManager.Destroy(ctx, token)
			return core.Identity{}, false, nil
		}
		return core.Identity{}, false, fmt.Errorf("failed to get user: %w", err)
	}

	return core.Identity{
		User:      user.Projection(),
		SessionID: session.ID,
		TokenHash: session.TokenHash,
		ExpiresAt: session.ExpiresAt,
	}, true, nil
}
