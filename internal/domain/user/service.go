package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (User, error)
}

type Service struct {
	repo      Repository
	validator Validator
	log       *slog.Logger
	newID     func() string
}

func NewService(repo Repository, validator Validator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		log:       log.With(slog.String("component", "user_service")),
		newID:     uuid.NewString,
	}
}

// Register создает пользователя и возвращает его идентификатор.
// Идентификатор входит в удаленные id глотков, поэтому не меняется после создания.
func (s *Service) Register(ctx context.Context, login, password string) (string, error) {
	if err := s.validator.ValidateRegister(login, password); err != nil {
		s.log.Debug("validation failed", "login", login, "error", err)
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("Хэш пароля: %w", err)
	}

	id := s.newID()
	if err := s.repo.Create(ctx, id, login, string(hash)); err != nil {
		if errors.Is(err, ErrLoginTaken) {
			return "", err
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.log.Info("пользователь зарегистрирован", "user_id", id)
	return id, nil
}

func (s *Service) Authenticate(ctx context.Context, login, password string) (User, error) {
	if err := s.validator.ValidateLogin(login); err != nil {
		return User{}, ErrInvalidAuth
	}

	user, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		return User{}, ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return User{}, ErrInvalidAuth
	}

	return user, nil
}
