package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinPasswordLength mirrors the login form constraint.
const MinPasswordLength = 8

// AuthUseCase describes authentication/registration behavior.
type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (User, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Roles    []string
}

type AuthResult struct {
	User  User
	Token string
}

type authService struct {
	repo     UserRepository
	tokens   TokenIssuer
	hasher   PasswordHasher
	tokenTTL time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// NewAuthService returns default implementation of AuthUseCase.
func NewAuthService(repo UserRepository, tokens TokenIssuer, hasher PasswordHasher, tokenTTL time.Duration, log *slog.Logger) AuthUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &authService{
		repo:     repo,
		tokens:   tokens,
		hasher:   hasher,
		tokenTTL: tokenTTL,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || len(in.Password) < MinPasswordLength {
		return User{}, ErrInvalidCredentials
	}

	// If user exists, fail fast (best-effort check; the store constraint is authoritative)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrUserAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}

	roles := normalizeRoles(in.Roles)
	if len(roles) == 0 {
		roles = []string{RoleUser}
	}
	now := s.now()
	user := User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: passwordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	s.log.InfoContext(ctx, "user registered", slog.String("email", user.Email), slog.Any("roles", user.Roles))
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.Email, s.tokenTTL)
	if err != nil {
		return AuthResult{}, err
	}
	s.log.InfoContext(ctx, "token generated", slog.String("email", user.Email))
	return AuthResult{User: user, Token: token}, nil
}

func normalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
