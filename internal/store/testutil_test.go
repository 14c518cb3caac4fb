package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smartbreath-backend/internal/model"
)

// newTestStore opens a uniquely-named in-memory sqlite database with the full
// schema migrated.
func newTestStore(t *testing.T, name string) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Machine{},
		&model.Record{},
		&model.PushSubscription{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return NewGormStore(db)
}

// seedUser registers a valid user and returns it.
func seedUser(t *testing.T, s Store, username string) *model.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), CreateUserInput{
		FirstName:    "Test",
		LastName:     "Person",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotare",
		DOB:          "1990-01-01",
		Weight:       70,
		Height:       175,
		Gender:       model.GenderOther,
	})
	require.NoError(t, err)
	return user
}

// seedMachine creates a machine owned by the given user.
func seedMachine(t *testing.T, s Store, ownerID, deviceName, machineModel string) *model.Machine {
	t.Helper()

	machine, err := s.CreateMachine(context.Background(), CreateMachineInput{
		DeviceName: deviceName,
		Model:      machineModel,
		OwnerID:    ownerID,
	})
	require.NoError(t, err)
	return machine
}

// seedRecord inserts a measurement at the given time.
func seedRecord(t *testing.T, s Store, machineID string, measuredAt time.Time) *model.Record {
	t.Helper()

	record, err := s.CreateRecord(context.Background(), CreateRecordInput{
		MachineID:  machineID,
		SpO2:       97,
		FEV1:       2.5,
		FVC:        3.2,
		PEF:        410,
		MeasuredAt: &measuredAt,
	})
	require.NoError(t, err)
	return record
}
