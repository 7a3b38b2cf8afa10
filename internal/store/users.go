package store

import (
	"bitwise74/blog/internal/model"
	"context"
	"fmt"

	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create persists a new user. Uniqueness of the username and email is
// enforced by the database, a violation is returned as ErrDuplicate
func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	if u.ImageFile == "" {
		u.ImageFile = model.DefaultImageFile
	}

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if err = translate(err); err == ErrDuplicate {
			return err
		}

		return fmt.Errorf("failed to create user, %w", err)
	}

	return nil
}

func (s *UserStore) ByID(ctx context.Context, id uint) (*model.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.first(ctx, "username = ?", username)
}

func (s *UserStore) first(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User

	if err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if err = translate(err); err == ErrNotFound {
			return nil, err
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	return &u, nil
}

// UsernameTaken reports whether another account already uses the username.
// The account with the ID exceptID is ignored, pass 0 to check all accounts
func (s *UserStore) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	return s.taken(ctx, "username = ?", username, exceptID)
}

// EmailTaken works like UsernameTaken but for the email address
func (s *UserStore) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	return s.taken(ctx, "email = ?", email, exceptID)
}

func (s *UserStore) taken(ctx context.Context, query string, arg any, exceptID uint) (bool, error) {
	var count int64

	q := s.db.WithContext(ctx).Model(&model.User{}).Where(query, arg)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check if user exists, %w", err)
	}

	return count > 0, nil
}

// UpdateProfile writes the username, email and image file of u
func (s *UserStore) UpdateProfile(ctx context.Context, u *model.User) error {
	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"username":   u.Username,
			"email":      u.Email,
			"image_file": u.ImageFile,
		}).
		Error
	if err != nil {
		if err = translate(err); err == ErrDuplicate {
			return err
		}

		return fmt.Errorf("failed to update user, %w", err)
	}

	return nil
}

// UpdatePassword overwrites the stored hash of a user
func (s *UserStore) UpdatePassword(ctx context.Context, id uint, hash string) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hash)
	if r.Error != nil {
		return fmt.Errorf("failed to update password, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
