package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillswap/skillswap/internal/config"
	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/repo/mongodb"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type AuthUseCase struct {
	userRepo  mongodb.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthUseCase(userRepo mongodb.UserRepository, conf *config.Config) *AuthUseCase {
	return &AuthUseCase{
		userRepo:  userRepo,
		jwtSecret: conf.Auth.JWTSecret,
		tokenTTL:  conf.Auth.TokenTTL,
	}
}

func (uc *AuthUseCase) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	if _, err := uc.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, models.Conflictf("user already exists")
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:          req.Name,
		Email:         email,
		PasswordHash:  string(hash),
		SkillsOffered: []models.Skill{},
		SkillsWanted:  []models.Skill{},
		Availability:  []models.Availability{},
		LastSeen:      time.Now(),
		Preferences:   models.DefaultPreferences(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, expiresAt, err := uc.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	return &AuthResponse{Token: token, User: user, ExpiresAt: expiresAt}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.Authenticationf("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.Authenticationf("invalid credentials")
	}

	token, expiresAt, err := uc.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	return &AuthResponse{Token: token, User: user, ExpiresAt: expiresAt}, nil
}

// ValidateToken resolves a signed token to its user. Both REST middleware
// and the socket authenticate event go through here.
func (uc *AuthUseCase) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := uc.parseJWT(tokenString)
	if err != nil {
		return nil, models.Authenticationf("invalid token")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, models.Authenticationf("invalid token")
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.Authenticationf("user no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

type jwtClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (uc *AuthUseCase) generateJWT(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(uc.tokenTTL)

	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(uc.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (uc *AuthUseCase) parseJWT(tokenString string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(uc.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
