package service

import (
	"context"
	"errors"

	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = models.NewUnauthorizedError("Invalid username or password")

// UserService handles account registration, login and admin flags.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Signup creates a user with a bcrypt password hash.
func (s *UserService) Signup(ctx context.Context, form SignupForm) (*models.User, error) {
	if err := validation.Struct(&form); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(form.Password); err != nil {
		return nil, models.NewFieldValidationError(map[string]string{"password": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  form.Username,
		Password:  string(hash),
		FirstName: form.FirstName,
		LastName:  form.LastName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, form LoginForm) (*models.User, error) {
	if err := validation.Struct(&form); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByUsername(ctx, form.Username)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errInvalidCredentials
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

// SetAdmin grants or revokes the admin flag of username.
func (s *UserService) SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	return user, nil
}

// ListAdmins returns every user with the admin flag, ordered by username.
func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}
