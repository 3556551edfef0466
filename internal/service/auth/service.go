// Package auth registers users and issues the bearer tokens the HTTP layer
// verifies on every authenticated route.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"devbook/backend/internal/domain"
	"devbook/backend/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Claims struct {
	jwt.RegisteredClaims
	Role domain.UserRole `json:"role"`
}

// Identity is the authenticated caller, as extracted from a verified token.
type Identity struct {
	UserID uuid.UUID
	Role   domain.UserRole
}

type Service struct {
	users    store.UserStore
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(users store.UserStore, secret []byte, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.UserRole
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return domain.User{}, validationError("a valid email is required")
	}
	if in.Name == "" {
		return domain.User{}, validationError("name is required")
	}
	if len(in.Password) < 8 {
		return domain.User{}, validationError("password must be at least 8 characters")
	}
	if in.Role != domain.UserRoleClient && in.Role != domain.UserRoleDeveloper {
		return domain.User{}, validationError("role must be client or developer")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.users.Create(ctx, domain.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
		Role:         in.Role,
	})
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Login verifies the password and issues a signed token. Unknown emails and
// wrong passwords both report ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", domain.User{}, ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, ErrInvalidCredentials
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Role: user.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.User{}, err
	}

	user.PasswordHash = ""
	return token, user, nil
}

// Verify parses and validates a bearer token and returns the caller identity.
func (s *Service) Verify(tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(
		tokenString, &claims,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if claims.Role != domain.UserRoleClient && claims.Role != domain.UserRoleDeveloper {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: userID, Role: claims.Role}, nil
}
