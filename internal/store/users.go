package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/model"
)

// CreateUser validates and persists a new account. Username and email reuse
// yields a field-specific Conflict; the unique indexes back the pre-check up
// against concurrent writers.
func (s *gormStore) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var user model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.User
		err := tx.Where("username = ? OR email = ?", in.Username, in.Email).
			First(&existing).Error
		if err == nil {
			if existing.Username == in.Username {
				return apperr.Conflict("username already taken")
			}
			return apperr.Conflict("email already in use")
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		user = model.User{
			ID:        uuid.NewString(),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Username:  in.Username,
			Email:     in.Email,
			Password:  in.PasswordHash,
			DOB:       in.DOB,
			Weight:    in.Weight,
			Height:    in.Height,
			Gender:    in.Gender,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, classify(err, "")
	}
	return &user, nil
}

// GetUserByID fetches a user by id.
func (s *gormStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, classify(err, "user not found")
	}
	return &user, nil
}

// GetUserByUsername fetches a user by username, for login.
func (s *gormStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, classify(err, "user not found")
	}
	return &user, nil
}

// UpdateUser applies a partial profile update. Username and email uniqueness
// is re-checked in the same transaction as the write.
func (s *gormStore) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if in.FirstName != nil {
			updates["first_name"] = *in.FirstName
		}
		if in.LastName != nil {
			updates["last_name"] = *in.LastName
		}
		if in.Username != nil && *in.Username != user.Username {
			var count int64
			if err := tx.Model(&model.User{}).
				Where("username = ?", *in.Username).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperr.Conflict("username already taken")
			}
			updates["username"] = *in.Username
		}
		if in.Email != nil && *in.Email != user.Email {
			var count int64
			if err := tx.Model(&model.User{}).
				Where("email = ?", *in.Email).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperr.Conflict("email already in use")
			}
			updates["email"] = *in.Email
		}
		if in.Weight != nil {
			updates["weight"] = *in.Weight
		}
		if in.Height != nil {
			updates["height"] = *in.Height
		}
		if in.Gender != nil {
			updates["gender"] = *in.Gender
		}

		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, classify(err, "user not found")
	}
	return s.GetUserByID(ctx, id)
}

// DeleteUser removes the account. Machines owned by the user are released
// (owner cleared) in the same transaction rather than deleted: the hardware
// outlives the account and becomes claimable again.
func (s *gormStore) DeleteUser(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Machine{}).
			Where("owner_id = ?", id).
			Update("owner_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("user not found")
		}

		return tx.Where("user_id = ?", id).Delete(&model.PushSubscription{}).Error
	})
	return classify(err, "user not found")
}
