package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbreath-backend/internal/model"
	"smartbreath-backend/internal/store"
)

func TestUserEndpointsAreSelfOnly(t *testing.T) {
	env := newTestEnv(t, "users_self")
	alice, aliceToken := env.registerUser(t, "alice")
	_, bobToken := env.registerUser(t, "bob")

	t.Run("owner reads their own profile", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/users/"+alice.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decodeBody[model.User](t, w)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("another user is forbidden even if the id exists", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/users/"+alice.ID, bobToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("updates are scoped the same way", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/users/"+alice.ID, bobToken, map[string]any{
			"firstName": "Mallory",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.do(t, http.MethodPut, "/users/"+alice.ID, aliceToken, map[string]any{
			"firstName": "Alicia",
		})
		require.Equal(t, http.StatusOK, w.Code)
		got := decodeBody[model.User](t, w)
		assert.Equal(t, "Alicia", got.FirstName)
	})

	t.Run("empty update is a bad request", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/users/"+alice.ID, aliceToken, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteUserReleasesMachines(t *testing.T) {
	env := newTestEnv(t, "users_delete")
	alice, aliceToken := env.registerUser(t, "alice")
	ctx := context.Background()

	machine, err := env.store.CreateMachine(ctx, store.CreateMachineInput{
		DeviceName: "SB-Alice", Model: "M-100", OwnerID: alice.ID,
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodDelete, "/users/"+alice.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err = env.store.GetUserByID(ctx, alice.ID)
	assert.Error(t, err)

	released, err := env.store.GetMachineByID(ctx, machine.ID)
	require.NoError(t, err)
	assert.Nil(t, released.OwnerID)

	w = env.do(t, http.MethodDelete, "/users/"+alice.ID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
