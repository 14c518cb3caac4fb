package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smartbreath-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:notif_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Machine{}, &model.PushSubscription{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.Close()
	})
	return db
}

func seedOwnedMachine(t *testing.T, db *gorm.DB, endpoint string) *model.Machine {
	t.Helper()
	user := model.User{
		ID: "owner-1", FirstName: "Ana", LastName: "Silva", Username: "ana",
		Email: "ana@example.com", Password: "x", DOB: "1990-01-01",
		Weight: 70, Height: 170, Gender: model.GenderFemale,
	}
	require.NoError(t, db.Create(&user).Error)

	machine := model.Machine{
		ID: "machine-1", DeviceName: "SB-Living-Room", Model: "SB-2000", OwnerID: &user.ID,
	}
	require.NoError(t, db.Create(&machine).Error)

	if endpoint != "" {
		sub := model.PushSubscription{
			Endpoint: endpoint, UserID: user.ID, P256DH: "p256dh", Auth: "auth",
		}
		require.NoError(t, db.Create(&sub).Error)
	}
	return &machine
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db := newTestDB(t, "dispatch")
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.Dispatch("machine-1")

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "machine-1", job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDropsWhenFull(t *testing.T) {
	db := newTestDB(t, "dispatch_full")
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// Pool is not started, so the buffered channel fills up and the
	// overflow dispatch must not block.
	wp.Dispatch("machine-1")
	done := make(chan struct{})
	go func() {
		wp.Dispatch("machine-2")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("overflow dispatch blocked")
	}
}

func TestWorkerPool_NotifiesOwner(t *testing.T) {
	db := newTestDB(t, "notify")
	machine := seedOwnedMachine(t, db, "https://push.example.com/sub-1")

	wp := NewWorkerPool(1, db, &webpush.Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "https://push.example.com/sub-1", sub.Endpoint)
			assert.Equal(t, "New measurement recorded on SB-Living-Room", string(payload))
			wg.Done()
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(machine.ID)
	wg.Wait()
}

func TestWorkerPool_SkipsUnownedMachine(t *testing.T) {
	db := newTestDB(t, "unowned")
	machine := model.Machine{ID: "machine-2", DeviceName: "UNNAMED", Model: "SB-2000"}
	require.NoError(t, db.Create(&machine).Error)

	wp := NewWorkerPool(1, db, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			t.Error("no notification should be sent for an unowned machine")
			return nil, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(machine.ID)
	time.Sleep(100 * time.Millisecond)
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	db := newTestDB(t, "expired")
	machine := seedOwnedMachine(t, db, "https://push.example.com/expired")

	wp := NewWorkerPool(1, db, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(machine.ID)
	time.Sleep(100 * time.Millisecond)

	var count int64
	require.NoError(t, db.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "expired subscription should be removed")
}
