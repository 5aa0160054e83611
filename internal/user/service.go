package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type Service struct {
	repo     Repository
	hasher   PasswordHasher
	validate *validator.Validate
}

func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type RegisterParams struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=100"`
	Password string `validate:"required,min=6"`
}

// maxPasswordBytes is bcrypt's input limit, counted in bytes rather than characters.
const maxPasswordBytes = 72

func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Email = NormalizeEmail(params.Email)

	if err := s.validate.Struct(params); err != nil {
		return nil, validationError(err)
	}

	if len(params.Password) > maxPasswordBytes {
		return nil, &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at most %d bytes", maxPasswordBytes),
		}
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Authenticate returns ErrInvalidCredentials for both unknown emails and wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// Delete removes the account; the schema cascades to its transactions and rules.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteUser(ctx, id)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: "is required"}
	case "email":
		return &ValidationError{Field: field, Message: "must be a valid email address"}
	case "min":
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at least %s characters", fe.Param())}
	case "max":
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %s characters", fe.Param())}
	default:
		return &ValidationError{Field: field, Message: "is invalid"}
	}
}
