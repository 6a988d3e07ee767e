package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"task-service/internal/entity"
	"task-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	passwordHashCost = 10
	// bcrypt only reads the first 72 bytes of a password.
	maxPasswordBytes = 72
)

// ErrInvalidCredentials covers both an unknown username and a wrong
// password so callers cannot tell them apart.
var ErrInvalidCredentials = errors.New("invalid username or password")

// TokenClaims is the whole token payload: the username plus the issue time.
// There is no expiry and no user id.
type TokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type UserService struct {
	repo   repository.UserRepository
	secret []byte
	now    func() time.Time
}

// NewUserService creates a new instance of UserService. secret signs every
// issued token.
func NewUserService(repo repository.UserRepository, secret []byte) *UserService {
	return &UserService{
		repo:   repo,
		secret: secret,
		now:    time.Now,
	}
}

// Register hashes the password and stores a new user. Existing users with
// the same username are not checked for.
func (s *UserService) Register(ctx context.Context, username, password string) (*entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), passwordHashCost)
	if err != nil {
		logger.Error().Err(err).Msg("Error hashing password")
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, &entity.User{
		Username: username,
		Password: string(hash),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	return user, nil
}

// Login checks the password against the stored hash and issues a signed token.
func (s *UserService) Login(ctx context.Context, username, password string) (token string, err error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		logger.Error().Err(err).Msg("Error getting user by username")
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), passwordBytes(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := &TokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := tkn.SignedString(s.secret)
	if err != nil {
		logger.Error().Err(err).Msg("Error signing token")
		return "", err
	}

	return t, nil
}

// passwordBytes truncates password to what bcrypt hashes, so longer
// passwords are accepted instead of failing with ErrPasswordTooLong.
func passwordBytes(password string) []byte {
	if len(password) > maxPasswordBytes {
		return []byte(password[:maxPasswordBytes])
	}
	return []byte(password)
}
