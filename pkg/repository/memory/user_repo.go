package memory

import (
	"context"
	"strings"

	"github.com/artem13815/library/pkg/auth"
)

// UserRepository implements auth.UserRepository.
type UserRepository struct{ db *DB }

func NewUserRepository(db *DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, user auth.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, ok := r.db.users[key]; ok {
		return auth.ErrUserAlreadyExists
	}
	user.Email = key
	user.Roles = append([]string(nil), user.Roles...)
	r.db.users[key] = user
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	user, ok := r.db.users[strings.ToLower(email)]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	user.Roles = append([]string(nil), user.Roles...)
	return user, nil
}
