package service

import (
	"context"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

// UserStore is the user directory collaborator.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Search(ctx context.Context, query string, limit int) ([]entity.User, error)
}

// UserService resolves people against the user directory for the person
// pickers and the authenticated-user endpoint.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Search returns directory matches for a picker query.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]entity.Person, error) {
	users, err := s.users.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	people := make([]entity.Person, 0, len(users))
	for i := range users {
		people = append(people, users[i].Person())
	}
	return people, nil
}

// Resolve turns a directory id into a person reference.
func (s *UserService) Resolve(ctx context.Context, id int64) (entity.Person, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return entity.Person{ID: entity.PersonUnresolved}, err
	}
	return u.Person(), nil
}

// ResolveEmail turns an email address into a person reference.
func (s *UserService) ResolveEmail(ctx context.Context, email string) (entity.Person, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return entity.Person{ID: entity.PersonUnresolved}, err
	}
	return u.Person(), nil
}
