// Package service implements the application's business logic on top of
// the repository layer, publishing row changes to the realtime channel.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ccellsty/oryxchatfrfr/internal/identity"
	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/repository"
)

const tokenTTL = 24 * time.Hour

// AuthService issues and verifies sessions backed by password accounts.
type AuthService struct {
	accounts  repository.AccountRepository
	jwtSecret []byte
}

// NewAuthService returns a new AuthService.
func NewAuthService(accounts repository.AccountRepository, jwtSecret string) *AuthService {
	return &AuthService{accounts: accounts, jwtSecret: []byte(jwtSecret)}
}

// Register creates an account. The profile is created lazily on the
// first authenticated request, not here.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, models.NewValidationError("a valid email is required")
	}
	if len(password) < 8 {
		return nil, models.NewValidationError("password must be at least 8 characters")
	}

	if existing, err := s.accounts.GetByEmail(ctx, email); err != nil && !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	} else if existing != nil {
		return nil, models.NewValidationError("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	account := &models.Account{Email: email, PasswordHash: string(hash)}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Login verifies credentials and returns a signed session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("invalid email or password")
	}

	expiresAt := time.Now().Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", account.ID),
		"email": account.Email,
		"exp":   expiresAt.Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &identity.Session{
		UserID:    account.ID,
		Email:     account.Email,
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseToken verifies a signed token and returns the session it encodes.
func (s *AuthService) ParseToken(tokenString string) (*identity.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("invalid token claims")
	}

	var userID uint
	if sub, ok := claims["sub"].(string); ok {
		if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil {
			return nil, models.NewUnauthorizedError("invalid token subject")
		}
	}
	if userID == 0 {
		return nil, models.NewUnauthorizedError("invalid token subject")
	}

	email, _ := claims["email"].(string)
	session := &identity.Session{UserID: userID, Email: email, Token: tokenString}
	if exp, ok := claims["exp"].(float64); ok {
		session.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return session, nil
}
