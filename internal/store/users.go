package store

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepo backs the registration/login HTTP handlers.
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo builds a UserRepo over db.
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user with an already-hashed password.
func (r *UserRepo) Create(username, email, passwordHash string) (*User, error) {
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := r.db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ByEmail fetches a user by email, returning ErrNotFound if absent.
func (r *UserRepo) ByEmail(email string) (*User, error) {
	var u User
	err := r.db.First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
