package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Identity
	CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error

	// Device registry
	CreateMachine(ctx context.Context, in CreateMachineInput) (*model.Machine, error)
	GetMachineByID(ctx context.Context, id string) (*model.Machine, error)
	ListMachinesByOwner(ctx context.Context, ownerID string) ([]model.Machine, error)
	UpdateMachineName(ctx context.Context, id, deviceName string) (*model.Machine, error)
	TouchMachine(ctx context.Context, id string) error
	RegisterMachine(ctx context.Context, userID, machineID, deviceName string) (*model.Machine, error)
	ResetMachine(ctx context.Context, id string) error
	DeleteMachine(ctx context.Context, id string) error

	// Measurement log
	CreateRecord(ctx context.Context, in CreateRecordInput) (*model.Record, error)
	GetRecordByID(ctx context.Context, id string) (*model.Record, error)
	ListRecords(ctx context.Context, machineID string, q RecordQuery) (*RecordPage, error)
	DeleteRecord(ctx context.Context, id string) error

	// Push subscriptions
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint, userID string) error
	SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for the router and test setup.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// classify maps a raw gorm error into the typed taxonomy. Duplicate-key
// errors become Conflict so write-time races land on the same outcome as
// the pre-checks; missing rows become NotFound with the caller's message.
func classify(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s", notFoundMsg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict("value already in use")
	default:
		var e *apperr.Error
		if errors.As(err, &e) {
			return err
		}
		return apperr.Unexpected("database operation failed", err)
	}
}
