package service

import (
	"context"
	"fmt"

	"github.com/inkwell-blog/inkwell/database/model"
)

type UserDirectory interface {
	UserStore
	List(ctx context.Context) ([]model.User, error)
}

// UserService backs the administrative user commands.
type UserService struct {
	users  UserDirectory
	hasher PasswordHasher
}

func NewUserService(users UserDirectory, hasher PasswordHasher) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
	}
}

// Add creates a user with the same rules as web registration.
func (s *UserService) Add(ctx context.Context, username, password string) (*model.User, error) {
	return registerUser(ctx, s.users, s.hasher, username, password)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrInfrastructure, err)
	}
	return users, nil
}
