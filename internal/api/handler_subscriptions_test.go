package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionLifecycle(t *testing.T) {
	env := newTestEnv(t, "subs")
	_, aliceToken := env.registerUser(t, "alice")
	_, bobToken := env.registerUser(t, "bob")

	sub := map[string]any{
		"endpoint": "https://push.example.com/ep-1",
		"p256dh":   "BKey",
		"auth":     "AKey",
	}

	t.Run("subscription is stored for the caller", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/subscriptions", aliceToken, sub)
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(t, http.MethodGet, "/subscriptions", aliceToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[map[string][]string](t, w)
		assert.Equal(t, []string{"https://push.example.com/ep-1"}, body["endpoints"])
	})

	t.Run("resubmitting the same endpoint does not duplicate", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/subscriptions", aliceToken, sub)
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(t, http.MethodGet, "/subscriptions", aliceToken, nil)
		body := decodeBody[map[string][]string](t, w)
		assert.Len(t, body["endpoints"], 1)
	})

	t.Run("other users do not see the endpoint", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/subscriptions", bobToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[map[string][]string](t, w)
		assert.Empty(t, body["endpoints"])
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/subscriptions", aliceToken, map[string]any{
			"endpoint": "https://push.example.com/ep-1",
		})
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.do(t, http.MethodDelete, "/subscriptions", aliceToken, map[string]any{
			"endpoint": "https://push.example.com/ep-1",
		})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("incomplete payload is rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/subscriptions", aliceToken, map[string]any{
			"endpoint": "https://push.example.com/ep-2",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
