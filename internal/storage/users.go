package storage

import (
	"context"
	"strings"
)

// CreateUser inserts a new user. A duplicate email yields ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	if err := ValidateUser(user); err != nil {
		return err
	}
	return translateError("create user", s.db.WithContext(ctx).Create(user).Error)
}

// GetUser returns the user with the given id.
func (s *Storage) GetUser(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError("get user", err)
	}
	return &user, nil
}

// GetUserByEmail returns the user registered with email, compared case-insensitively.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, translateError("get user by email", err)
	}
	return &user, nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
