// Package auth issues and verifies session credentials. The rest of the
// system consumes it as "a caller has a verified, stable numeric user id".
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"
	"kudipay/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = &domain.DomainError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid email or password",
	}
	ErrEmailTaken = &domain.DomainError{
		Code:    "EMAIL_TAKEN",
		Message: "an account with this email already exists",
	}
	ErrInvalidReferralCode = &domain.DomainError{
		Code:    "INVALID_REFERRAL_CODE",
		Message: "referral code does not exist",
	}
)

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	ReferralCode string // optional code of the inviting user
}

// Service registers users and issues/verifies JWTs.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	ParseToken(token string) (*models.UserClaims, error)
}

type service struct {
	users        repositories.UserRepository
	referrals    repositories.ReferralRepository
	jwtSecret    string
	rewardAmount float64
}

func NewService(users repositories.UserRepository, referrals repositories.ReferralRepository, jwtSecret string, rewardAmount float64) Service {
	return &service{
		users:        users,
		referrals:    referrals,
		jwtSecret:    jwtSecret,
		rewardAmount: rewardAmount,
	}
}

// Register creates the user and, when a valid referral code is supplied,
// the pending Referral row that reward settlement later requires.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	}

	var referrer *models.User
	if input.ReferralCode != "" {
		var err error
		referrer, err = s.users.GetByReferralCode(ctx, input.ReferralCode)
		if err != nil {
			if stderrors.Is(err, domain.ErrUserNotFound) {
				return nil, ErrInvalidReferralCode
			}
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Password:     string(hash),
		ReferralCode: newReferralCode(),
	}
	if referrer != nil {
		code := input.ReferralCode
		user.ReferredBy = &code
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if referrer != nil {
		referral := &models.Referral{
			ReferrerID: referrer.ID,
			ReferredID: user.ID,
			Reward:     s.rewardAmount,
			Status:     models.ReferralStatusPending,
		}
		if err := s.referrals.Create(ctx, referral); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, domain.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	claims := &models.UserClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

func (s *service) ParseToken(token string) (*models.UserClaims, error) {
	claims := &models.UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

func newReferralCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "KP" + strings.ToUpper(id[:8])
}
