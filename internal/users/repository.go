package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned for missing users.
var ErrNotFound = errors.New("user not found")

// Repository provides user data access and contact resolution
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// ResolveContact returns the email identity for a user, or nil (with
	// no error) when the user is missing or has no email channel.
	ResolveContact(ctx context.Context, userID uuid.UUID) (*Contact, error)
}

// RepositoryImpl handles all database operations for users
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a user repository and migrates its table
func NewRepository(db *gorm.DB) (*RepositoryImpl, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users: %w", err)
	}
	return &RepositoryImpl{db: db}, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *RepositoryImpl) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *RepositoryImpl) ResolveContact(ctx context.Context, userID uuid.UUID) (*Contact, error) {
	user, err := r.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, nil
	}
	return &Contact{Email: user.Email, Name: user.Name}, nil
}
