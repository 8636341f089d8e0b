package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"mise/models"
)

// ErrEmailTaken is returned when signing up with an email that already has an account.
var ErrEmailTaken = errors.New("email already registered")

// NewAccount describes a user signing up together with their kitchen.
type NewAccount struct {
	Email        string
	Name         string
	PasswordHash string
	KitchenName  string
	Currency     string
}

// CreateUserWithKitchen creates a kitchen and its first user in one transaction.
func (s *Store) CreateUserWithKitchen(ctx context.Context, account NewAccount) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	email := strings.ToLower(strings.TrimSpace(account.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("a valid email address is required")
	}
	if account.PasswordHash == "" {
		return nil, invalid("password is required")
	}
	kitchenName := strings.TrimSpace(account.KitchenName)
	if kitchenName == "" {
		kitchenName = strings.TrimSpace(account.Name) + "'s kitchen"
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(account.Name),
		PasswordHash: account.PasswordHash,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
			return fmt.Errorf("check existing user: %w", err)
		}
		if count > 0 {
			return ErrEmailTaken
		}

		kitchen := &models.Kitchen{Name: kitchenName, Currency: models.NormalizeCurrency(account.Currency)}
		if err := tx.Create(kitchen).Error; err != nil {
			return fmt.Errorf("create kitchen: %w", err)
		}

		user.KitchenID = kitchen.ID
		if err := tx.Omit("Kitchen").Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		user.Kitchen = kitchen
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindUserByEmail loads a user and their kitchen by case-insensitive email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Kitchen").
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, notFound("user", err)
	}
	return &user, nil
}

// GetKitchen loads a kitchen by id.
func (s *Store) GetKitchen(ctx context.Context, kitchenID string) (*models.Kitchen, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	var kitchen models.Kitchen
	if err := tx.Where("id = ?", kitchenID).First(&kitchen).Error; err != nil {
		return nil, notFound("kitchen", err)
	}
	return &kitchen, nil
}
