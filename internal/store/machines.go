package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/model"
)

// CreateMachine registers a new device. The owner must exist and both
// deviceName and model must be unique system-wide; the pre-checks run inside
// the insert transaction and the unique indexes close the remaining window.
func (s *gormStore) CreateMachine(ctx context.Context, in CreateMachineInput) (*model.Machine, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var machine model.Machine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner model.User
		if err := tx.First(&owner, "id = ?", in.OwnerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("owner not found")
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.Machine{}).
			Where("device_name = ? OR model = ?", in.DeviceName, in.Model).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("deviceName or model already in use")
		}

		machine = model.Machine{
			ID:         uuid.NewString(),
			DeviceName: in.DeviceName,
			Model:      in.Model,
			OwnerID:    &in.OwnerID,
		}
		return tx.Create(&machine).Error
	})
	if err != nil {
		return nil, classify(err, "machine not found")
	}
	return &machine, nil
}

// GetMachineByID fetches a machine joined with its owner summary.
func (s *gormStore) GetMachineByID(ctx context.Context, id string) (*model.Machine, error) {
	var machine model.Machine
	err := s.db.WithContext(ctx).
		Preload("Owner").
		First(&machine, "id = ?", id).Error
	if err != nil {
		return nil, classify(err, "machine not found")
	}
	return &machine, nil
}

// ListMachinesByOwner returns all machines owned by the given user. Listing
// is always scoped by the authenticated principal; there is no unscoped path.
func (s *gormStore) ListMachinesByOwner(ctx context.Context, ownerID string) ([]model.Machine, error) {
	var machines []model.Machine
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Where("owner_id = ?", ownerID).
		Find(&machines).Error
	if err != nil {
		return nil, classify(err, "")
	}
	return machines, nil
}

// UpdateMachineName renames a machine, rejecting collisions with a
// different machine.
func (s *gormStore) UpdateMachineName(ctx context.Context, id, deviceName string) (*model.Machine, error) {
	if l := len(deviceName); l < 3 || l > 100 {
		return nil, apperr.Validation("deviceName must be 3-100 characters")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var machine model.Machine
		if err := tx.First(&machine, "id = ?", id).Error; err != nil {
			return err
		}

		if deviceName != machine.DeviceName {
			var count int64
			if err := tx.Model(&model.Machine{}).
				Where("device_name = ? AND id <> ?", deviceName, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperr.Conflict("deviceName already in use")
			}
		}

		return tx.Model(&machine).Update("device_name", deviceName).Error
	})
	if err != nil {
		return nil, classify(err, "machine not found")
	}
	return s.GetMachineByID(ctx, id)
}

// TouchMachine bumps updated_at to now. Called by the measurement log on
// every successful record creation as a liveness heartbeat.
func (s *gormStore) TouchMachine(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&model.Machine{}).
		Where("id = ?", id).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return classify(res.Error, "machine not found")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("machine not found")
	}
	return nil
}

// RegisterMachine claims a machine for userID, optionally renaming it.
// Claiming and renaming commit atomically.
func (s *gormStore) RegisterMachine(ctx context.Context, userID, machineID, deviceName string) (*model.Machine, error) {
	if deviceName == "" {
		deviceName = model.DefaultDeviceName
	}
	if l := len(deviceName); l < 3 || l > 100 {
		return nil, apperr.Validation("deviceName must be 3-100 characters")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var machine model.Machine
		if err := tx.First(&machine, "id = ?", machineID).Error; err != nil {
			return err
		}

		if deviceName != machine.DeviceName {
			var count int64
			if err := tx.Model(&model.Machine{}).
				Where("device_name = ? AND id <> ?", deviceName, machineID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperr.Conflict("deviceName already in use")
			}
		}

		return tx.Model(&machine).Updates(map[string]any{
			"device_name": deviceName,
			"owner_id":    userID,
		}).Error
	})
	if err != nil {
		return nil, classify(err, "machine not found")
	}
	return s.GetMachineByID(ctx, machineID)
}

// ResetMachine orphans a machine: all of its records are purged, ownership
// is cleared and the device name falls back to the sentinel. All-or-nothing;
// a failed step rolls everything back.
func (s *gormStore) ResetMachine(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var machine model.Machine
		if err := tx.First(&machine, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("machine_id = ?", id).Delete(&model.Record{}).Error; err != nil {
			return err
		}

		return tx.Model(&machine).Updates(map[string]any{
			"device_name": model.UnnamedDevice,
			"owner_id":    nil,
		}).Error
	})
	return classify(err, "machine not found")
}

// DeleteMachine permanently removes a machine and all of its records in one
// transaction. Records cannot outlive their machine.
func (s *gormStore) DeleteMachine(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var machine model.Machine
		if err := tx.First(&machine, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("machine_id = ?", id).Delete(&model.Record{}).Error; err != nil {
			return err
		}

		return tx.Delete(&machine).Error
	})
	return classify(err, "machine not found")
}
